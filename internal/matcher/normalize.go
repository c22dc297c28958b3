// Package matcher 实现简历与岗位描述的文本匹配引擎：文本清洗、字段提取、向量化相似度与排序。
package matcher

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	urlPattern       = regexp.MustCompile(`(?:https?|www)\S+`)
	numericPattern   = regexp.MustCompile(`\b\d+\b`)
	nonWordPattern   = regexp.MustCompile(`[^\p{L}\p{N}_\s\p{Z}]`)
	whitespaceRunPat = regexp.MustCompile(`[\s\p{Z}]+`)
)

// 单次清洗只会删除字符，理论上几轮内即可收敛
const maxNormalizePasses = 8

// Normalize 清洗文本：转小写、去除 URL、去除纯数字词、去除标点符号、合并空白。
// 结果满足 Normalize(Normalize(x)) == Normalize(x)。
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	cur := normalizeOnce(text)
	// 去标点后可能拼接出新的 URL 前缀或独立数字，继续清洗直到不动点
	for i := 1; i < maxNormalizePasses; i++ {
		next := normalizeOnce(cur)
		if next == cur {
			break
		}
		cur = next
	}
	return cur
}

func normalizeOnce(text string) string {
	s := strings.ToLower(text)
	s = urlPattern.ReplaceAllString(s, "")
	s = numericPattern.ReplaceAllString(s, "")
	s = nonWordPattern.ReplaceAllString(s, "")
	s = whitespaceRunPat.ReplaceAllString(s, " ")
	return dropDigitFields(strings.TrimSpace(s))
}

// dropDigitFields 删除全部由数字组成的词。RE2 的 \d 和 \b 只认 ASCII，全角或阿拉伯-印度数字在这里处理
func dropDigitFields(s string) string {
	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		if strings.IndexFunc(f, func(r rune) bool { return !unicode.IsDigit(r) }) >= 0 {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}
