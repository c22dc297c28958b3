package processor

import (
	"context"

	"resume-matcher-go/internal/types"
)

// TextExtractor 从上传文件中提取纯文本
type TextExtractor interface {
	// Extract 返回文本和小写扩展名（不带点）
	Extract(ctx context.Context, filename string, data []byte) (string, string, error)
	SupportedFormats() []string
}

// FieldExtractor 从简历原文中提取候选人字段
type FieldExtractor interface {
	Extract(raw string) types.CandidateInfo
}

// Ranker 对 JD 在语料快照上排序
type Ranker interface {
	Rank(ctx context.Context, job types.JobDescriptionRecord, corpus []types.ResumeRecord, topK int) ([]types.MatchResult, error)
	RankAll(ctx context.Context, jobs []types.JobDescriptionRecord, corpus []types.ResumeRecord, topK int) ([][]types.MatchResult, error)
}
