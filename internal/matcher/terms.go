package matcher

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ContainsTerm 判断 haystack 中是否以完整词的形式出现 term（不区分大小写）。
// 词边界为文本首尾或任意非字母、非数字的字符，因此 "C++"、"C#"、"Node.js" 这类技能名也能命中。
func ContainsTerm(haystack, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return false
	}
	return containsLowerTerm(strings.ToLower(haystack), term)
}

// containsLowerTerm 要求两个参数都已经是小写
func containsLowerTerm(haystack, term string) bool {
	if term == "" {
		return false
	}
	offset := 0
	for offset <= len(haystack) {
		idx := strings.Index(haystack[offset:], term)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(term)
		if boundaryBefore(haystack, start, term) && boundaryAfter(haystack, end, term) {
			return true
		}
		_, size := utf8.DecodeRuneInString(haystack[start:])
		offset = start + size
	}
	return false
}

// 若 term 本身以符号开头（如 ".net"），则不要求前面是边界
func boundaryBefore(s string, start int, term string) bool {
	first, _ := utf8.DecodeRuneInString(term)
	if !isTermRune(first) {
		return true
	}
	if start == 0 {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(s[:start])
	return !isTermRune(prev)
}

func boundaryAfter(s string, end int, term string) bool {
	last, _ := utf8.DecodeLastRuneInString(term)
	if !isTermRune(last) {
		return true
	}
	if end >= len(s) {
		return true
	}
	next, _ := utf8.DecodeRuneInString(s[end:])
	return !isTermRune(next)
}

func isTermRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
