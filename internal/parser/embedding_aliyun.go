package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"resume-matcher-go/internal/config"
	"resume-matcher-go/internal/logger"
	"resume-matcher-go/internal/matcher"
)

// DashScope 兼容接口单次请求最多 10 条文本
const aliyunMaxBatch = 10

// AliyunEmbedder 调用 OpenAI 兼容的阿里云 Embedding 接口，实现 embedding.Embedder
type AliyunEmbedder struct {
	apiKey     string
	model      string
	dimensions int
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// AliyunEmbedderOption 配置选项
type AliyunEmbedderOption func(*AliyunEmbedder)

// WithHTTPClient 替换 HTTP 客户端
func WithHTTPClient(c *http.Client) AliyunEmbedderOption {
	return func(a *AliyunEmbedder) {
		if c != nil {
			a.httpClient = c
		}
	}
}

// NewAliyunEmbedder 创建阿里云 Embedder。未配置 API Key 时返回 ErrModelUnavailable。
func NewAliyunEmbedder(apiKey string, cfg config.EmbeddingConfig, opts ...AliyunEmbedderOption) (*AliyunEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: 未配置阿里云 API 密钥", matcher.ErrModelUnavailable)
	}

	model := cfg.Model
	if model == "" {
		model = "text-embedding-v3"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/embeddings"
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.QPM > 0 {
		limit = rate.Limit(float64(cfg.QPM) / 60.0)
	}

	a := &AliyunEmbedder{
		apiKey:     apiKey,
		model:      model,
		dimensions: cfg.Dimensions,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
		log:        logger.Component("aliyun_embedder"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// GetDimensions 返回配置的维度
func (a *AliyunEmbedder) GetDimensions() int {
	return a.dimensions
}

// AliyunOpenAIEmbeddingRequest 阿里云Embedding请求结构 (OpenAI compatible)
type AliyunOpenAIEmbeddingRequest struct {
	Input          []string `json:"input"`
	Model          string   `json:"model"`
	Dimensions     int      `json:"dimensions,omitempty"`
	EncodingFormat string   `json:"encoding_format,omitempty"`
}

// AliyunOpenAIEmbeddingResponse 阿里云Embedding响应结构 (OpenAI compatible)
type AliyunOpenAIEmbeddingResponse struct {
	Object string                  `json:"object"`
	Data   []AliyunOpenAIDataEntry `json:"data"`
	Model  string                  `json:"model"`
	Usage  AliyunOpenAIUsage       `json:"usage"`
	ID     string                  `json:"id,omitempty"`
	Error  *AliyunOpenAIError      `json:"error,omitempty"`
}

// AliyunOpenAIDataEntry part of the response
type AliyunOpenAIDataEntry struct {
	Object    string    `json:"object"`
	Embedding []float64 `json:"embedding"`
	Index     int       `json:"index"`
}

// AliyunOpenAIUsage part of the response
type AliyunOpenAIUsage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// AliyunOpenAIError for API-level errors returned with 200 OK
type AliyunOpenAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param"`
	Code    string `json:"code"`
}

// EmbedStrings 将文本转换为向量，按批次请求并保持输入顺序
func (a *AliyunEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	options := &embedding.Options{}
	embedding.GetCommonOptions(options, opts...)
	model := a.model
	if options.Model != nil && *options.Model != "" {
		model = *options.Model
	}

	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += aliyunMaxBatch {
		end := start + aliyunMaxBatch
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := a.embedBatch(ctx, model, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (a *AliyunEmbedder) embedBatch(ctx context.Context, model string, texts []string) ([][]float64, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("等待限流令牌失败: %w", err)
	}

	reqBody := AliyunOpenAIEmbeddingRequest{Input: texts, Model: model, EncodingFormat: "float"}
	if a.dimensions > 0 {
		reqBody.Dimensions = a.dimensions
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	start := time.Now()
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("发送HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var wrapped struct {
			Error *AliyunOpenAIError `json:"error"`
		}
		if json.Unmarshal(body, &wrapped) == nil && wrapped.Error != nil && wrapped.Error.Message != "" {
			return nil, fmt.Errorf("API调用失败, 状态码: %d, 类型: %s, 错误: %s, Code: %s",
				resp.StatusCode, wrapped.Error.Type, wrapped.Error.Message, wrapped.Error.Code)
		}
		return nil, fmt.Errorf("API调用失败, 状态码: %d, 响应: %s", resp.StatusCode, truncateBody(body))
	}

	var parsed AliyunOpenAIEmbeddingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("解析响应JSON失败: %w", err)
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return nil, fmt.Errorf("API返回错误: 类型=%s, 消息='%s', Code=%s", parsed.Error.Type, parsed.Error.Message, parsed.Error.Code)
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("API返回向量数量 %d 与输入数量 %d 不一致", len(parsed.Data), len(texts))
	}

	sort.Slice(parsed.Data, func(i, j int) bool { return parsed.Data[i].Index < parsed.Data[j].Index })
	vectors := make([][]float64, len(parsed.Data))
	for i, entry := range parsed.Data {
		vectors[i] = entry.Embedding
	}

	a.log.Debug().
		Int("texts", len(texts)).
		Int("total_tokens", parsed.Usage.TotalTokens).
		Dur("duration", time.Since(start)).
		Msg("embedding 请求完成")
	return vectors, nil
}

func truncateBody(body []byte) string {
	const limit = 512
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}
