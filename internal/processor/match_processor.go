package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-matcher-go/internal/constants"
	"resume-matcher-go/internal/logger"
	"resume-matcher-go/internal/matcher"
	"resume-matcher-go/internal/parser"
	"resume-matcher-go/internal/storage"
	"resume-matcher-go/internal/tracing"
	"resume-matcher-go/internal/types"
)

var tracer = otel.Tracer("resume-matcher/processor")

// 默认 top_k
const (
	DefaultTopK         = 10
	DefaultMatchAllTopK = 5
)

// 记录种类，用于指标和日志
const (
	kindResume = "resume"
	kindJob    = "job"
)

// 空语料时的错误详情
const (
	DetailNoResumes = "no resumes uploaded"
	DetailNoJobs    = "no job descriptions uploaded"
)

// JobDescriptionInput 新建 JD 的输入，Skills 为逗号分隔的技能列表
type JobDescriptionInput struct {
	Title           string
	Description     string
	Requirements    string
	Skills          string
	ExperienceLevel string
	Location        string
	SalaryRange     string
}

// MatchProcessor 上传、匹配、列表、删除和统计的应用服务。
// 每次匹配都从记录存储取一次有序快照，之后的增删不影响本次匹配。
type MatchProcessor struct {
	comps    Components
	settings Settings
}

// NewComponents 应用组件选项
func NewComponents(opts ...ComponentOpt) *Components {
	c := &Components{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewSettings 应用设置选项，未设置的字段使用默认值
func NewSettings(opts ...SettingOpt) *Settings {
	s := &Settings{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewMatchProcessor 创建处理器，Store、Text、Fields、Ranker 为必需组件
func NewMatchProcessor(components *Components, settings *Settings) (*MatchProcessor, error) {
	if components == nil {
		return nil, errors.New("components cannot be nil")
	}
	c := *components
	switch {
	case c.Store == nil:
		return nil, errors.New("record store is not initialized")
	case c.Text == nil:
		return nil, errors.New("text extractor is not initialized")
	case c.Fields == nil:
		return nil, errors.New("field extractor is not initialized")
	case c.Ranker == nil:
		return nil, errors.New("ranker is not initialized")
	}
	if c.Archive == nil {
		c.Archive = storage.NoopArchive{}
	}
	if c.Events == nil {
		c.Events = storage.NoopPublisher{}
	}

	var s Settings
	if settings != nil {
		s = *settings
	}
	if s.DefaultTopK <= 0 {
		s.DefaultTopK = DefaultTopK
	}
	if s.DefaultMatchAllTopK <= 0 {
		s.DefaultMatchAllTopK = DefaultMatchAllTopK
	}
	if s.ActiveStrategy == "" {
		s.ActiveStrategy = matcher.StrategyTFIDF
	}
	if s.RequestedStrategy == "" {
		s.RequestedStrategy = s.ActiveStrategy
	}

	return &MatchProcessor{comps: c, settings: s}, nil
}

// SupportedFormats 支持上传的扩展名
func (p *MatchProcessor) SupportedFormats() []string {
	return p.comps.Text.SupportedFormats()
}

// UploadResume 解析上传的简历文件并保存记录
func (p *MatchProcessor) UploadResume(ctx context.Context, filename string, data []byte) (rec types.ResumeRecord, err error) {
	ctx, span := tracer.Start(ctx, "processor.upload_resume", trace.WithAttributes(
		tracing.SafeAttribute("file.path", filename),
		attribute.Int("file.size", len(data)),
	))
	defer span.End()
	defer func() { p.comps.Metrics.ObserveUpload(kindResume, err) }()

	if p.settings.MaxUploadBytes > 0 && int64(len(data)) > p.settings.MaxUploadBytes {
		err = newProcessError("upload_resume", "", ErrFileTooLarge,
			fmt.Sprintf("文件大小 %d 超过上限 %d", len(data), p.settings.MaxUploadBytes))
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return types.ResumeRecord{}, err
	}

	text, format, err := p.comps.Text.Extract(ctx, filename, data)
	if err != nil {
		detail := err.Error()
		if errors.Is(err, parser.ErrUnsupportedFormat) {
			detail = "supported formats: " + strings.Join(p.SupportedFormats(), ", ")
		}
		err = newProcessError("upload_resume", "", err, detail)
		tracing.RecordError(span, err, tracing.ErrorTypeParsing)
		return types.ResumeRecord{}, err
	}

	id, err := newID()
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return types.ResumeRecord{}, err
	}
	rec = types.ResumeRecord{
		ID:          id,
		RawText:     text,
		CleanedText: matcher.Normalize(text),
		FileName:    filename,
		FileSize:    int64(len(data)),
		FileFormat:  format,
		CreatedAt:   time.Now().UTC(),
	}
	rec.ApplyCandidateInfo(p.comps.Fields.Extract(text))
	span.SetAttributes(
		attribute.String("resume.id", id),
		attribute.Int("resume.skills", len(rec.Skills)),
		tracing.SafeAttribute("candidate.name", rec.CandidateName),
	)

	key, archiveErr := p.comps.Archive.PutOriginal(ctx, id, format, data)
	if archiveErr != nil {
		logger.Ctx(ctx).Warn().Err(archiveErr).Str("resume_id", id).Msg("原始简历归档失败，继续保存记录")
	}
	rec.ArchiveKey = key

	if err = p.comps.Store.AddResume(ctx, rec); err != nil {
		if key != "" {
			_ = p.comps.Archive.Delete(ctx, key)
		}
		err = newProcessError("upload_resume", id, err, "")
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return types.ResumeRecord{}, err
	}
	p.comps.Metrics.AddRecords(kindResume, 1)

	ev := storage.NewEvent(constants.RoutingKeyResumeUploaded)
	ev.ResumeID = id
	ev.FileName = filename
	ev.ArchiveKey = key
	p.publish(ctx, ev)

	logger.Ctx(ctx).Info().
		Str("resume_id", id).
		Str("format", format).
		Int("skills", len(rec.Skills)).
		Int("experience_years", rec.ExperienceYears).
		Msg("简历上传成功")
	return rec, nil
}

// ParseSkills 按逗号切分技能，去掉首尾空白和空项
func ParseSkills(raw string) []string {
	skills := make([]string, 0)
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}
	return skills
}

// UploadJobDescription 保存一份 JD，title 和 description 必填
func (p *MatchProcessor) UploadJobDescription(ctx context.Context, in JobDescriptionInput) (rec types.JobDescriptionRecord, err error) {
	ctx, span := tracer.Start(ctx, "processor.upload_job_description")
	defer span.End()
	defer func() { p.comps.Metrics.ObserveUpload(kindJob, err) }()

	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if title == "" || description == "" {
		err = newProcessError("upload_job_description", "", ErrInvalidInput, "title and description are required")
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return types.JobDescriptionRecord{}, err
	}

	id, err := newID()
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return types.JobDescriptionRecord{}, err
	}
	rec = types.JobDescriptionRecord{
		ID:              id,
		Title:           title,
		Description:     description,
		Requirements:    strings.TrimSpace(in.Requirements),
		Skills:          ParseSkills(in.Skills),
		ExperienceLevel: strings.TrimSpace(in.ExperienceLevel),
		Location:        strings.TrimSpace(in.Location),
		SalaryRange:     strings.TrimSpace(in.SalaryRange),
		CreatedAt:       time.Now().UTC(),
	}
	span.SetAttributes(attribute.String("job.id", id), tracing.SafeAttribute("job.title", title))

	if err = p.comps.Store.AddJob(ctx, rec); err != nil {
		err = newProcessError("upload_job_description", id, err, "")
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return types.JobDescriptionRecord{}, err
	}
	p.comps.Metrics.AddRecords(kindJob, 1)

	ev := storage.NewEvent(constants.RoutingKeyJobUploaded)
	ev.JobDescriptionID = id
	p.publish(ctx, ev)

	logger.Ctx(ctx).Info().Str("job_id", id).Int("skills", len(rec.Skills)).Msg("JD上传成功")
	return rec, nil
}

// MatchJob 为一份 JD 排序全部简历。topK 为 0 时使用默认值
func (p *MatchProcessor) MatchJob(ctx context.Context, jobID string, topK int) (out types.JobMatches, err error) {
	if topK == 0 {
		topK = p.settings.DefaultTopK
	}
	ctx, span := tracer.Start(ctx, "processor.match", trace.WithAttributes(
		attribute.String("job.id", jobID),
		attribute.Int("match.top_k", topK),
		attribute.String("match.strategy", p.settings.ActiveStrategy),
	))
	defer span.End()
	start := time.Now()
	defer func() { p.comps.Metrics.ObserveMatch("match", p.settings.ActiveStrategy, start, err) }()

	job, err := p.comps.Store.GetJob(ctx, jobID)
	if err != nil {
		err = newProcessError("match", jobID, err, "job description not found")
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return types.JobMatches{}, err
	}

	corpus, err := p.comps.Store.ListResumes(ctx)
	if err != nil {
		err = newProcessError("match", jobID, err, "")
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return types.JobMatches{}, err
	}
	if len(corpus) == 0 {
		err = newProcessError("match", jobID, matcher.ErrEmptyCorpus, DetailNoResumes)
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return types.JobMatches{}, err
	}

	results, err := p.comps.Ranker.Rank(ctx, job, corpus, topK)
	if err != nil {
		err = newProcessError("match", jobID, err, "")
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return types.JobMatches{}, err
	}

	out = types.JobMatches{
		JobDescription:  job,
		TotalCandidates: len(corpus),
		Results:         project(results, corpus),
	}
	span.SetAttributes(attribute.Int("match.corpus_size", len(corpus)), attribute.Int("match.results", len(results)))

	ev := storage.NewEvent(constants.RoutingKeyMatchCompleted)
	ev.JobDescriptionID = jobID
	ev.TopK = topK
	ev.MatchCount = len(results)
	ev.Strategy = p.settings.ActiveStrategy
	for _, r := range results {
		ev.TopResumes = append(ev.TopResumes, r.ResumeID)
	}
	p.publish(ctx, ev)

	logger.Ctx(ctx).Info().
		Str("job_id", jobID).
		Int("corpus", len(corpus)).
		Int("results", len(results)).
		Dur("elapsed", time.Since(start)).
		Msg("匹配完成")
	return out, nil
}

// MatchAll 为每份 JD 排序全部简历，结果顺序与 JD 列表一致。topK 为 0 时使用默认值
func (p *MatchProcessor) MatchAll(ctx context.Context, topK int) (out []types.JobMatches, err error) {
	if topK == 0 {
		topK = p.settings.DefaultMatchAllTopK
	}
	ctx, span := tracer.Start(ctx, "processor.match_all", trace.WithAttributes(
		attribute.Int("match.top_k", topK),
		attribute.String("match.strategy", p.settings.ActiveStrategy),
	))
	defer span.End()
	start := time.Now()
	defer func() { p.comps.Metrics.ObserveMatch("match_all", p.settings.ActiveStrategy, start, err) }()

	jobs, err := p.comps.Store.ListJobs(ctx)
	if err != nil {
		err = newProcessError("match_all", "", err, "")
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, err
	}
	if len(jobs) == 0 {
		err = newProcessError("match_all", "", matcher.ErrEmptyCorpus, DetailNoJobs)
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}

	corpus, err := p.comps.Store.ListResumes(ctx)
	if err != nil {
		err = newProcessError("match_all", "", err, "")
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, err
	}
	if len(corpus) == 0 {
		err = newProcessError("match_all", "", matcher.ErrEmptyCorpus, DetailNoResumes)
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}

	all, err := p.comps.Ranker.RankAll(ctx, jobs, corpus, topK)
	if err != nil {
		err = newProcessError("match_all", "", err, "")
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return nil, err
	}

	out = make([]types.JobMatches, len(jobs))
	for i, job := range jobs {
		out[i] = types.JobMatches{
			JobDescription:  job,
			TotalCandidates: len(corpus),
			Results:         project(all[i], corpus),
		}
	}
	span.SetAttributes(attribute.Int("match.jobs", len(jobs)), attribute.Int("match.corpus_size", len(corpus)))
	logger.Ctx(ctx).Info().Int("jobs", len(jobs)).Int("corpus", len(corpus)).Dur("elapsed", time.Since(start)).Msg("全量匹配完成")
	return out, nil
}

// project 把匹配结果和快照中的简历字段合并
func project(results []types.MatchResult, corpus []types.ResumeRecord) []types.CandidateMatch {
	byID := make(map[string]types.ResumeRecord, len(corpus))
	for _, r := range corpus {
		byID[r.ID] = r
	}
	out := make([]types.CandidateMatch, 0, len(results))
	for _, res := range results {
		out = append(out, types.NewCandidateMatch(res, byID[res.ResumeID]))
	}
	return out
}

// ListResumes 按上传顺序列出简历
func (p *MatchProcessor) ListResumes(ctx context.Context) ([]types.ResumeRecord, error) {
	list, err := p.comps.Store.ListResumes(ctx)
	if err != nil {
		return nil, newProcessError("list_resumes", "", err, "")
	}
	return list, nil
}

// ListJobDescriptions 按上传顺序列出 JD
func (p *MatchProcessor) ListJobDescriptions(ctx context.Context) ([]types.JobDescriptionRecord, error) {
	list, err := p.comps.Store.ListJobs(ctx)
	if err != nil {
		return nil, newProcessError("list_job_descriptions", "", err, "")
	}
	return list, nil
}

// GetResume 获取一份简历
func (p *MatchProcessor) GetResume(ctx context.Context, id string) (types.ResumeRecord, error) {
	rec, err := p.comps.Store.GetResume(ctx, id)
	if err != nil {
		return types.ResumeRecord{}, newProcessError("get_resume", id, err, "resume not found")
	}
	return rec, nil
}

// GetJobDescription 获取一份 JD
func (p *MatchProcessor) GetJobDescription(ctx context.Context, id string) (types.JobDescriptionRecord, error) {
	rec, err := p.comps.Store.GetJob(ctx, id)
	if err != nil {
		return types.JobDescriptionRecord{}, newProcessError("get_job_description", id, err, "job description not found")
	}
	return rec, nil
}

// DeleteResume 删除简历及其归档文件。删除后的匹配不会再看到这份简历
func (p *MatchProcessor) DeleteResume(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "processor.delete_resume", trace.WithAttributes(attribute.String("resume.id", id)))
	defer span.End()

	rec, err := p.comps.Store.GetResume(ctx, id)
	if err != nil {
		err = newProcessError("delete_resume", id, err, "resume not found")
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return err
	}
	if err := p.comps.Store.DeleteResume(ctx, id); err != nil {
		err = newProcessError("delete_resume", id, err, "resume not found")
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return err
	}
	p.comps.Metrics.AddRecords(kindResume, -1)

	if err := p.comps.Archive.Delete(ctx, rec.ArchiveKey); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("resume_id", id).Str("key", rec.ArchiveKey).Msg("删除归档文件失败")
	}

	ev := storage.NewEvent(constants.RoutingKeyResumeDeleted)
	ev.ResumeID = id
	ev.ArchiveKey = rec.ArchiveKey
	p.publish(ctx, ev)

	logger.Ctx(ctx).Info().Str("resume_id", id).Msg("简历已删除")
	return nil
}

// DeleteJobDescription 删除一份 JD
func (p *MatchProcessor) DeleteJobDescription(ctx context.Context, id string) error {
	if err := p.comps.Store.DeleteJob(ctx, id); err != nil {
		return newProcessError("delete_job_description", id, err, "job description not found")
	}
	p.comps.Metrics.AddRecords(kindJob, -1)

	ev := storage.NewEvent(constants.RoutingKeyJobDeleted)
	ev.JobDescriptionID = id
	p.publish(ctx, ev)

	logger.Ctx(ctx).Info().Str("job_id", id).Msg("JD已删除")
	return nil
}

// Stats 返回记录数量和向量化策略
func (p *MatchProcessor) Stats(ctx context.Context) (types.Stats, error) {
	resumes, err := p.comps.Store.ListResumes(ctx)
	if err != nil {
		return types.Stats{}, newProcessError("stats", "", err, "")
	}
	jobs, err := p.comps.Store.ListJobs(ctx)
	if err != nil {
		return types.Stats{}, newProcessError("stats", "", err, "")
	}
	p.comps.Metrics.SetRecords(kindResume, len(resumes))
	p.comps.Metrics.SetRecords(kindJob, len(jobs))

	return types.Stats{
		TotalResumes:         len(resumes),
		TotalJobDescriptions: len(jobs),
		ModelType:            p.settings.ActiveStrategy,
		RequestedModelType:   p.settings.RequestedStrategy,
	}, nil
}

// publish 发布领域事件，失败只记录日志
func (p *MatchProcessor) publish(ctx context.Context, ev storage.Event) {
	if err := p.comps.Events.Publish(ctx, ev.Type, ev); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("event", ev.Type).Str("event_id", ev.EventID).Msg("发布领域事件失败")
	}
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("生成记录ID失败: %w", err)
	}
	return id.String(), nil
}
