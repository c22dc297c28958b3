package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"

	"resume-matcher-go/internal/logger"
)

const defaultPDFTimeout = 30 * time.Second

// EinoPDFTextExtractor 使用 Eino PDF Parser 提取文本
type EinoPDFTextExtractor struct {
	parser  *pdf.PDFParser
	timeout time.Duration
}

// EinoPDFOption PDF提取器的配置选项
type EinoPDFOption func(*EinoPDFTextExtractor)

// WithPDFTimeout 单个文件的解析超时
func WithPDFTimeout(d time.Duration) EinoPDFOption {
	return func(e *EinoPDFTextExtractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEinoPDFTextExtractor 初始化 Eino PDF 文本提取器，不按页面分割以获取整个文档的连续文本
func NewEinoPDFTextExtractor(ctx context.Context, options ...EinoPDFOption) (*EinoPDFTextExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: false})
	if err != nil {
		return nil, fmt.Errorf("failed to create Eino PDF parser: %w", err)
	}

	extractor := &EinoPDFTextExtractor{parser: p, timeout: defaultPDFTimeout}
	for _, option := range options {
		option(extractor)
	}
	return extractor, nil
}

// ExtractText 实现 FormatExtractor
func (e *EinoPDFTextExtractor) ExtractText(ctx context.Context, data []byte, uri string) (string, error) {
	startTime := time.Now()
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	docs, err := e.parser.Parse(ctx, bytes.NewReader(data),
		einoParser.WithURI(uri),
		einoParser.WithExtraMeta(map[string]any{"file_size": len(data)}),
	)
	duration := time.Since(startTime)
	if err != nil {
		return "", fmt.Errorf("%w: eino PDF parser failed for %s: %v", ErrExtractionFailure, uri, err)
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("%w: eino PDF parser returned no documents for %s", ErrExtractionFailure, uri)
	}

	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		parts = append(parts, doc.Content)
	}
	text := strings.Join(parts, "\n\n")

	logger.Debug().
		Str("uri", uri).
		Int("documents", len(docs)).
		Int("chars", len(text)).
		Dur("duration", duration).
		Msg("PDF提取完成")
	return text, nil
}
