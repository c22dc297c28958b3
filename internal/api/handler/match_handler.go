package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.opentelemetry.io/otel/trace"

	"resume-matcher-go/internal/logger"
	"resume-matcher-go/internal/matcher"
	"resume-matcher-go/internal/parser"
	"resume-matcher-go/internal/processor"
	"resume-matcher-go/internal/storage"
	"resume-matcher-go/internal/tracing"
	"resume-matcher-go/internal/types"
)

// MatchService 处理器对外提供的操作
type MatchService interface {
	UploadResume(ctx context.Context, filename string, data []byte) (types.ResumeRecord, error)
	UploadJobDescription(ctx context.Context, in processor.JobDescriptionInput) (types.JobDescriptionRecord, error)
	MatchJob(ctx context.Context, jobID string, topK int) (types.JobMatches, error)
	MatchAll(ctx context.Context, topK int) ([]types.JobMatches, error)
	ListResumes(ctx context.Context) ([]types.ResumeRecord, error)
	ListJobDescriptions(ctx context.Context) ([]types.JobDescriptionRecord, error)
	GetResume(ctx context.Context, id string) (types.ResumeRecord, error)
	GetJobDescription(ctx context.Context, id string) (types.JobDescriptionRecord, error)
	DeleteResume(ctx context.Context, id string) error
	DeleteJobDescription(ctx context.Context, id string) error
	Stats(ctx context.Context) (types.Stats, error)
}

// MatchHandler 简历、JD 和匹配接口
type MatchHandler struct {
	svc MatchService
}

// NewMatchHandler 创建处理器
func NewMatchHandler(svc MatchService) *MatchHandler {
	return &MatchHandler{svc: svc}
}

// MatchRequest 单 JD 匹配请求。TopK 为空时使用默认值
type MatchRequest struct {
	JobDescriptionID string `json:"job_description_id"`
	TopK             *int   `json:"top_k"`
}

// MatchAllResponse 全量匹配响应，Results 以 JD ID 为键
type MatchAllResponse struct {
	Success              bool                        `json:"success"`
	TotalJobDescriptions int                         `json:"total_job_descriptions"`
	TotalCandidates      int                         `json:"total_candidates"`
	Order                []string                    `json:"order"`
	Results              map[string]MatchAllJobEntry `json:"results"`
}

// MatchAllJobEntry 全量匹配中单个 JD 的结果
type MatchAllJobEntry struct {
	JobDescription types.JobDescriptionRecord `json:"job_description"`
	Results        []types.CandidateMatch     `json:"results"`
}

// HandleBanner 服务标识
func (h *MatchHandler) HandleBanner(_ context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, map[string]string{"message": "Resume Matcher API"})
}

// HandleHealth 健康检查
func (h *MatchHandler) HandleHealth(_ context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, map[string]string{"status": "ok"})
}

// HandleUploadResume 上传简历文件，表单字段 file
func (h *MatchHandler) HandleUploadResume(ctx context.Context, c *app.RequestContext) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeError(ctx, c, consts.StatusBadRequest, "file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		writeError(ctx, c, consts.StatusInternalServerError, "打开上传文件失败")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(ctx, c, consts.StatusInternalServerError, "读取上传文件失败")
		return
	}

	rec, err := h.svc.UploadResume(ctx, fileHeader.Filename, data)
	if err != nil {
		h.fail(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{
		"success": true,
		"message": "Resume uploaded and processed successfully",
		"resume":  rec,
	})
}

// HandleListResumes 按上传顺序列出简历
func (h *MatchHandler) HandleListResumes(ctx context.Context, c *app.RequestContext) {
	list, err := h.svc.ListResumes(ctx)
	if err != nil {
		h.fail(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"success": true, "resumes": list})
}

// HandleGetResume 获取一份简历
func (h *MatchHandler) HandleGetResume(ctx context.Context, c *app.RequestContext) {
	rec, err := h.svc.GetResume(ctx, c.Param("id"))
	if err != nil {
		h.fail(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"success": true, "resume": rec})
}

// HandleDeleteResume 删除简历
func (h *MatchHandler) HandleDeleteResume(ctx context.Context, c *app.RequestContext) {
	id := c.Param("id")
	if err := h.svc.DeleteResume(ctx, id); err != nil {
		h.fail(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{
		"success": true,
		"message": "Resume " + id + " deleted successfully",
	})
}

// HandleUploadJobDescription 新建 JD，表单字段 title、description 必填
func (h *MatchHandler) HandleUploadJobDescription(ctx context.Context, c *app.RequestContext) {
	in := processor.JobDescriptionInput{
		Title:           c.PostForm("title"),
		Description:     c.PostForm("description"),
		Requirements:    c.PostForm("requirements"),
		Skills:          c.PostForm("skills"),
		ExperienceLevel: c.PostForm("experience_level"),
		Location:        c.PostForm("location"),
		SalaryRange:     c.PostForm("salary_range"),
	}
	rec, err := h.svc.UploadJobDescription(ctx, in)
	if err != nil {
		h.fail(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{
		"success":         true,
		"message":         "Job description uploaded successfully",
		"job_description": rec,
	})
}

// HandleListJobDescriptions 按上传顺序列出 JD
func (h *MatchHandler) HandleListJobDescriptions(ctx context.Context, c *app.RequestContext) {
	list, err := h.svc.ListJobDescriptions(ctx)
	if err != nil {
		h.fail(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"success": true, "job_descriptions": list})
}

// HandleGetJobDescription 获取一份 JD
func (h *MatchHandler) HandleGetJobDescription(ctx context.Context, c *app.RequestContext) {
	rec, err := h.svc.GetJobDescription(ctx, c.Param("id"))
	if err != nil {
		h.fail(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"success": true, "job_description": rec})
}

// HandleDeleteJobDescription 删除 JD
func (h *MatchHandler) HandleDeleteJobDescription(ctx context.Context, c *app.RequestContext) {
	id := c.Param("id")
	if err := h.svc.DeleteJobDescription(ctx, id); err != nil {
		h.fail(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{
		"success": true,
		"message": "Job description " + id + " deleted successfully",
	})
}

// HandleMatch 为一份 JD 排序全部简历
func (h *MatchHandler) HandleMatch(ctx context.Context, c *app.RequestContext) {
	var req MatchRequest
	if err := json.Unmarshal(c.Request.Body(), &req); err != nil {
		writeError(ctx, c, consts.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.JobDescriptionID == "" {
		writeError(ctx, c, consts.StatusBadRequest, "job_description_id is required")
		return
	}
	topK := 0
	if req.TopK != nil {
		if *req.TopK < 1 {
			writeError(ctx, c, consts.StatusBadRequest, matcher.ErrInvalidTopK.Error())
			return
		}
		topK = *req.TopK
	}

	out, err := h.svc.MatchJob(ctx, req.JobDescriptionID, topK)
	if err != nil {
		h.fail(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{
		"success":            true,
		"job_description":    out.JobDescription,
		"total_candidates":   out.TotalCandidates,
		"matched_candidates": len(out.Results),
		"results":            out.Results,
	})
}

// HandleMatchAll 为每份 JD 排序全部简历，可选查询参数 top_k
func (h *MatchHandler) HandleMatchAll(ctx context.Context, c *app.RequestContext) {
	topK := 0
	if raw := c.Query("top_k"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			writeError(ctx, c, consts.StatusBadRequest, matcher.ErrInvalidTopK.Error())
			return
		}
		topK = v
	}

	all, err := h.svc.MatchAll(ctx, topK)
	if err != nil {
		h.fail(ctx, c, err)
		return
	}

	resp := MatchAllResponse{
		Success:              true,
		TotalJobDescriptions: len(all),
		Order:                make([]string, 0, len(all)),
		Results:              make(map[string]MatchAllJobEntry, len(all)),
	}
	for _, jm := range all {
		resp.TotalCandidates = jm.TotalCandidates
		resp.Order = append(resp.Order, jm.JobDescription.ID)
		resp.Results[jm.JobDescription.ID] = MatchAllJobEntry{
			JobDescription: jm.JobDescription,
			Results:        jm.Results,
		}
	}
	c.JSON(consts.StatusOK, resp)
}

// HandleStats 记录数和向量化策略
func (h *MatchHandler) HandleStats(ctx context.Context, c *app.RequestContext) {
	stats, err := h.svc.Stats(ctx)
	if err != nil {
		h.fail(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"success": true, "stats": stats})
}

// fail 把处理器错误映射为 HTTP 状态码
func (h *MatchHandler) fail(ctx context.Context, c *app.RequestContext, err error) {
	status := StatusOf(err)
	msg := processor.Detail(err)
	if msg == "" || status == consts.StatusInternalServerError {
		msg = err.Error()
	}
	if status >= consts.StatusInternalServerError {
		logger.Ctx(ctx).Error().Err(err).Str("path", string(c.Path())).Msg("请求处理失败")
	}
	tracing.RecordHTTPError(trace.SpanFromContext(ctx), err, status)
	writeError(ctx, c, status, msg)
}

// StatusOf 返回错误对应的 HTTP 状态码
func StatusOf(err error) int {
	switch {
	case err == nil:
		return consts.StatusOK
	case errors.Is(err, storage.ErrNotFound):
		return consts.StatusNotFound
	case errors.Is(err, parser.ErrUnsupportedFormat),
		errors.Is(err, parser.ErrExtractionFailure),
		errors.Is(err, processor.ErrInvalidInput),
		errors.Is(err, matcher.ErrInvalidTopK),
		errors.Is(err, matcher.ErrEmptyCorpus):
		return consts.StatusBadRequest
	case errors.Is(err, processor.ErrFileTooLarge):
		return consts.StatusRequestEntityTooLarge
	default:
		return consts.StatusInternalServerError
	}
}

func writeError(_ context.Context, c *app.RequestContext, status int, msg string) {
	c.JSON(status, utils.H{"success": false, "error": msg})
}
