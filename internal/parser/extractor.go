package parser

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"resume-matcher-go/internal/logger"
)

var (
	// ErrUnsupportedFormat 不支持的文件扩展名
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrExtractionFailure 文件无法解析或解析结果为空
	ErrExtractionFailure = errors.New("text extraction failed")
)

// 支持的文件格式
const (
	FormatPDF  = "pdf"
	FormatDOCX = "docx"
	FormatDOC  = "doc"
	FormatTXT  = "txt"
)

// FormatExtractor 单一格式的文本提取器
type FormatExtractor interface {
	ExtractText(ctx context.Context, data []byte, uri string) (string, error)
}

// FileTextExtractor 按扩展名分派到具体格式的提取器
type FileTextExtractor struct {
	extractors map[string]FormatExtractor
}

// ExtractorOption FileTextExtractor 的配置选项
type ExtractorOption func(*FileTextExtractor)

// WithFormatExtractor 注册或替换某个格式的提取器
func WithFormatExtractor(format string, ex FormatExtractor) ExtractorOption {
	return func(f *FileTextExtractor) {
		f.extractors[strings.ToLower(format)] = ex
	}
}

// NewFileTextExtractor 创建默认的多格式提取器：pdf 使用 eino PDF parser，docx/doc 使用 go-docx，txt 直接读取
func NewFileTextExtractor(ctx context.Context, opts ...ExtractorOption) (*FileTextExtractor, error) {
	pdfExtractor, err := NewEinoPDFTextExtractor(ctx)
	if err != nil {
		return nil, err
	}
	docx := &DocxTextExtractor{}
	f := &FileTextExtractor{
		extractors: map[string]FormatExtractor{
			FormatPDF:  pdfExtractor,
			FormatDOCX: docx,
			FormatDOC:  docx,
			FormatTXT:  PlainTextExtractor{},
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// FormatOf 返回小写的扩展名（不带点），不支持时返回 ErrUnsupportedFormat
func (f *FileTextExtractor) FormatOf(filename string) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if _, ok := f.extractors[ext]; !ok || ext == "" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
	return ext, nil
}

// SupportedFormats 返回支持的扩展名
func (f *FileTextExtractor) SupportedFormats() []string {
	out := make([]string, 0, len(f.extractors))
	for _, format := range []string{FormatPDF, FormatDOCX, FormatDOC, FormatTXT} {
		if _, ok := f.extractors[format]; ok {
			out = append(out, "."+format)
		}
	}
	return out
}

// Extract 提取文件文本，返回文本和格式
func (f *FileTextExtractor) Extract(ctx context.Context, filename string, data []byte) (string, string, error) {
	format, err := f.FormatOf(filename)
	if err != nil {
		return "", "", err
	}

	text, err := f.extractors[format].ExtractText(ctx, data, filename)
	if err != nil {
		logger.Warn().Err(err).Str("file_name", filename).Str("format", format).Msg("文件文本提取失败")
		if errors.Is(err, ErrExtractionFailure) {
			return "", format, err
		}
		return "", format, fmt.Errorf("%w: %v", ErrExtractionFailure, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", format, fmt.Errorf("%w: %s 中没有可提取的文本", ErrExtractionFailure, filename)
	}
	return text, format, nil
}

// PlainTextExtractor 读取 UTF-8 文本文件
type PlainTextExtractor struct{}

// ExtractText 实现 FormatExtractor
func (PlainTextExtractor) ExtractText(_ context.Context, data []byte, uri string) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s 不是有效的 UTF-8 文本", ErrExtractionFailure, uri)
	}
	return strings.TrimPrefix(string(data), "\ufeff"), nil
}
