//go:build cgo

package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	fastembed "github.com/anush008/fastembed-go"
	"github.com/cloudwego/eino/components/embedding"

	"resume-matcher-go/internal/config"
	"resume-matcher-go/internal/matcher"
)

var fastEmbedModels = map[string]fastembed.EmbeddingModel{
	"sentence-transformers/all-MiniLM-L6-v2": fastembed.AllMiniLML6V2,
	"all-MiniLM-L6-v2":                       fastembed.AllMiniLML6V2,
	"BAAI/bge-small-en-v1.5":                 fastembed.BGESmallENV15,
	"BAAI/bge-base-en-v1.5":                  fastembed.BGEBaseENV15,
}

// FastEmbedder 本地 ONNX 句向量模型，实现 embedding.Embedder
type FastEmbedder struct {
	mu    sync.Mutex
	model *fastembed.FlagEmbedding
}

// NewFastEmbedder 加载本地模型。模型无法加载（缺少 onnxruntime、下载失败等）时返回 ErrModelUnavailable。
func NewFastEmbedder(cfg config.EmbedderConfig) (*FastEmbedder, error) {
	model, ok := fastEmbedModels[cfg.Model]
	if !ok {
		return nil, fmt.Errorf("不支持的 fastembed 模型: %q", cfg.Model)
	}
	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(".", "local_cache")
	}
	maxLength := cfg.MaxLength
	if maxLength <= 0 {
		maxLength = 256
	}
	showProgress := false

	flag, err := fastembed.NewFlagEmbedding(&fastembed.InitOptions{
		Model:                model,
		CacheDir:             cacheDir,
		MaxLength:            maxLength,
		ShowDownloadProgress: &showProgress,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: 初始化 fastembed 失败: %v", matcher.ErrModelUnavailable, err)
	}
	return &FastEmbedder{model: flag}, nil
}

// EmbedStrings 实现 embedding.Embedder。文档与查询使用同一编码方式，保证余弦相似度可比。
func (f *FastEmbedder) EmbedStrings(ctx context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	vectors, err := f.model.PassageEmbed(texts, 64)
	if err != nil {
		return nil, fmt.Errorf("fastembed 编码失败: %w", err)
	}

	out := make([][]float64, len(vectors))
	for i, v := range vectors {
		row := make([]float64, len(v))
		for j, x := range v {
			row[j] = float64(x)
		}
		out[i] = row
	}
	return out, nil
}

// Close 释放模型资源
func (f *FastEmbedder) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.model != nil {
		return f.model.Destroy()
	}
	return nil
}
