package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/embedding"

	"resume-matcher-go/internal/config"
	"resume-matcher-go/internal/matcher"
)

// 稠密向量模型提供方
const (
	ProviderFastEmbed = "fastembed"
	ProviderAliyun    = "aliyun"
)

// NewEmbedderFactory 根据配置返回稠密策略使用的 Embedder 构造函数
func NewEmbedderFactory(cfg *config.Config) matcher.EmbedderFactory {
	return func(ctx context.Context) (embedding.Embedder, error) {
		switch strings.ToLower(cfg.Matcher.Embedder.Provider) {
		case ProviderFastEmbed, "":
			e, err := NewFastEmbedder(cfg.Matcher.Embedder)
			if err != nil {
				return nil, err
			}
			return e, nil
		case ProviderAliyun:
			e, err := NewAliyunEmbedder(cfg.Aliyun.APIKey, cfg.Aliyun.Embedding)
			if err != nil {
				return nil, err
			}
			return e, nil
		default:
			return nil, fmt.Errorf("未知的 embedder 提供方: %q", cfg.Matcher.Embedder.Provider)
		}
	}
}
