package matcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/embedding"

	"resume-matcher-go/internal/logger"
)

// EmbedderFactory 按需构建稠密策略使用的 Embedder。
// 模型无法加载时应返回包装了 ErrModelUnavailable 的错误。
type EmbedderFactory func(ctx context.Context) (embedding.Embedder, error)

// StrategyConfig 策略选择配置
type StrategyConfig struct {
	Name        string
	MaxFeatures int
}

// Selection 策略选择结果：请求的策略与实际生效的策略
type Selection struct {
	Strategy  Strategy
	Requested string
	// FallbackReason 非空表示发生了回退
	FallbackReason string
}

// Active 实际生效的策略名称
func (s Selection) Active() string {
	return s.Strategy.Name()
}

// SelectStrategy 按配置选择向量化策略。
// 仅当稠密模型返回 ErrModelUnavailable 时记录告警并回退到 TF-IDF，其它错误直接返回。
func SelectStrategy(ctx context.Context, cfg StrategyConfig, factory EmbedderFactory) (Selection, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Name))
	if name == "" {
		name = StrategyTFIDF
	}
	sel := Selection{Requested: name}

	switch name {
	case StrategyTFIDF:
		sel.Strategy = NewTFIDFStrategy(cfg.MaxFeatures)
		return sel, nil
	case StrategyDense:
		if factory == nil {
			return fallback(sel, cfg, fmt.Errorf("%w: 未配置 embedder", ErrModelUnavailable)), nil
		}
		embedder, err := factory(ctx)
		if err != nil {
			if errors.Is(err, ErrModelUnavailable) {
				return fallback(sel, cfg, err), nil
			}
			return Selection{}, fmt.Errorf("初始化稠密向量模型失败: %w", err)
		}
		sel.Strategy = NewDenseStrategy(embedder)
		return sel, nil
	default:
		return Selection{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, cfg.Name)
	}
}

func fallback(sel Selection, cfg StrategyConfig, cause error) Selection {
	logger.Warn().
		Err(cause).
		Str("requested", sel.Requested).
		Str("active", StrategyTFIDF).
		Msg("稠密向量模型不可用，回退到 TF-IDF")
	sel.Strategy = NewTFIDFStrategy(cfg.MaxFeatures)
	sel.FallbackReason = cause.Error()
	return sel
}
