package matcher

import "errors"

var (
	// ErrEmptyCorpus 语料为空时无法拟合向量空间
	ErrEmptyCorpus = errors.New("corpus is empty")
	// ErrModelUnavailable 稠密向量模型不可用，触发回退到 TF-IDF
	ErrModelUnavailable = errors.New("embedding model unavailable")
	// ErrInvalidTopK top_k 必须大于等于 1
	ErrInvalidTopK = errors.New("top_k must be at least 1")
	// ErrUnknownStrategy 未知的向量化策略名称
	ErrUnknownStrategy = errors.New("unknown vectorizer strategy")
)
