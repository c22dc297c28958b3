package matcher

import (
	"context"
	"math"
)

// 向量化策略名称
const (
	StrategyTFIDF = "tfidf"
	StrategyDense = "dense"
)

// Strategy 向量化策略。每次 Fit 返回一个新的、只读的 Space，
// 因此并发的匹配请求之间不共享可变状态。
type Strategy interface {
	// Name 返回策略名称
	Name() string
	// Fit 在语料上拟合向量空间，语料为空时返回 ErrEmptyCorpus
	Fit(ctx context.Context, corpus []string) (Space, error)
}

// Space 已拟合的向量空间
type Space interface {
	// Score 计算 query 与语料中每篇文档的相似度，结果与语料顺序一一对应，取值 [0,1]
	Score(ctx context.Context, query string) ([]float64, error)
}

// cosine 余弦相似度，任一向量为零向量时返回 0
func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return clampUnit(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// clampUnit 把浮点误差或负相关截断到 [0,1]
func clampUnit(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
