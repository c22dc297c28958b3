package matcher

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"
)

// DenseStrategy 稠密向量策略：用句向量模型编码文档与查询，计算余弦相似度
type DenseStrategy struct {
	embedder embedding.Embedder
}

// NewDenseStrategy 基于 eino Embedder 创建稠密策略
func NewDenseStrategy(embedder embedding.Embedder) *DenseStrategy {
	return &DenseStrategy{embedder: embedder}
}

// Name 实现 Strategy
func (s *DenseStrategy) Name() string { return StrategyDense }

type denseSpace struct {
	embedder embedding.Embedder
	docs     [][]float64
}

// Fit 实现 Strategy，对语料逐篇编码
func (s *DenseStrategy) Fit(ctx context.Context, corpus []string) (Space, error) {
	if len(corpus) == 0 {
		return nil, ErrEmptyCorpus
	}
	vectors, err := s.embedder.EmbedStrings(ctx, corpus)
	if err != nil {
		return nil, fmt.Errorf("编码语料失败: %w", err)
	}
	if len(vectors) != len(corpus) {
		return nil, fmt.Errorf("编码语料失败: 期望 %d 个向量, 实际 %d 个", len(corpus), len(vectors))
	}
	return &denseSpace{embedder: s.embedder, docs: vectors}, nil
}

// Score 实现 Space
func (sp *denseSpace) Score(ctx context.Context, query string) ([]float64, error) {
	vectors, err := sp.embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("编码查询失败: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("编码查询失败: 期望 1 个向量, 实际 %d 个", len(vectors))
	}
	scores := make([]float64, len(sp.docs))
	for i, doc := range sp.docs {
		scores[i] = cosine(vectors[0], doc)
	}
	return scores, nil
}
