package constants

const (
	// ServiceName 服务名，用于日志、tracer 和 metrics 命名
	ServiceName = "resume-matcher"

	// ArchiveObjectFormat MinIO 中原始简历的对象名: resume/{resumeID}/original.{ext}
	ArchiveObjectFormat = "resume/%s/original.%s"
)

// 领域事件路由键
const (
	RoutingKeyResumeUploaded = "resume.uploaded"
	RoutingKeyResumeDeleted  = "resume.deleted"
	RoutingKeyJobUploaded    = "job.uploaded"
	RoutingKeyJobDeleted     = "job.deleted"
	RoutingKeyMatchCompleted = "match.completed"
)

// 各格式上传文件的 Content-Type
var ContentTypes = map[string]string{
	"pdf":  "application/pdf",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"doc":  "application/msword",
	"txt":  "text/plain; charset=utf-8",
}
