package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// ResumeModulePrefix 简历模块
	ResumeModulePrefix = "resume"
	// JobModulePrefix 岗位模块
	JobModulePrefix = "job"

	// EntityRecord 记录实体
	EntityRecord = "record"
	// EntityIndex 有序索引实体
	EntityIndex = "index"
	// EntitySeq 自增序列实体
	EntitySeq = "seq"

	// KeyResumeRecord 简历记录 (STRING, JSON)
	// 格式: app:resume:record:{resumeID}
	KeyResumeRecord = AppPrefix + ":" + ResumeModulePrefix + ":" + EntityRecord + ":%s"
	// KeyResumeIndex 按创建顺序排列的简历ID (ZSET, score=序号)
	KeyResumeIndex = AppPrefix + ":" + ResumeModulePrefix + ":" + EntityIndex
	// KeyResumeSeq 简历创建序号 (STRING, INCR)
	KeyResumeSeq = AppPrefix + ":" + ResumeModulePrefix + ":" + EntitySeq

	// KeyJobRecord JD记录 (STRING, JSON)
	// 格式: app:job:record:{jobID}
	KeyJobRecord = AppPrefix + ":" + JobModulePrefix + ":" + EntityRecord + ":%s"
	// KeyJobIndex 按创建顺序排列的JD ID (ZSET, score=序号)
	KeyJobIndex = AppPrefix + ":" + JobModulePrefix + ":" + EntityIndex
	// KeyJobSeq JD创建序号 (STRING, INCR)
	KeyJobSeq = AppPrefix + ":" + JobModulePrefix + ":" + EntitySeq
)
