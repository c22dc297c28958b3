package parser

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/lukasjarosch/go-docx"
)

const docxBodyPart = "word/document.xml"

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>|<w:br\s*/>|<w:cr\s*/>`)
	docxTab          = regexp.MustCompile(`<w:tab\s*/>`)
	xmlTag           = regexp.MustCompile(`<[^>]+>`)
	blankLines       = regexp.MustCompile(`\n[ \t]*\n+`)
)

// DocxTextExtractor 读取 docx 的正文 XML 并去除标签
type DocxTextExtractor struct{}

// ExtractText 实现 FormatExtractor。旧版二进制 .doc 不是 zip 包，会以 ErrExtractionFailure 失败。
func (DocxTextExtractor) ExtractText(_ context.Context, data []byte, uri string) (string, error) {
	doc, err := docx.OpenBytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: 打开 docx 失败 %s: %v", ErrExtractionFailure, uri, err)
	}
	defer doc.Close()

	body := doc.GetFile(docxBodyPart)
	if len(body) == 0 {
		return "", fmt.Errorf("%w: %s 中没有 %s", ErrExtractionFailure, uri, docxBodyPart)
	}
	return documentXMLToText(string(body)), nil
}

// documentXMLToText 段落与换行转为 \n，制表符转为 \t，其余标签删除
func documentXMLToText(xml string) string {
	s := docxParagraphEnd.ReplaceAllString(xml, "\n")
	s = docxTab.ReplaceAllString(s, "\t")
	s = xmlTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = blankLines.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}
