//go:build !cgo

package parser

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"

	"resume-matcher-go/internal/config"
	"resume-matcher-go/internal/matcher"
)

// FastEmbedder 非 CGO 构建下的占位实现
type FastEmbedder struct{}

// NewFastEmbedder 非 CGO 构建无法加载 ONNX 模型
func NewFastEmbedder(_ config.EmbedderConfig) (*FastEmbedder, error) {
	return nil, fmt.Errorf("%w: fastembed 需要 CGO 构建", matcher.ErrModelUnavailable)
}

// EmbedStrings 实现 embedding.Embedder
func (f *FastEmbedder) EmbedStrings(_ context.Context, _ []string, _ ...embedding.Option) ([][]float64, error) {
	return nil, matcher.ErrModelUnavailable
}

// Close 无操作
func (f *FastEmbedder) Close() error { return nil }
