package matcher_test

import (
	"regexp"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"

	"resume-matcher-go/internal/matcher"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"空字符串", "", ""},
		{"大小写与标点", "Hello, World!", "hello world"},
		{"去除URL", "See https://example.com/jobs and www.acme.io now", "see and now"},
		{"去除纯数字词", "Worked 5 years in 2019", "worked years in"},
		{"保留字母数字混合词", "Python3 and k8s", "python3 and k8s"},
		{"合并空白", "  a \t\n b  ", "a b"},
		{"小数", "GPA 3.8 overall", "gpa overall"},
		{"只有符号", "!!! ??? ...", ""},
		{"非ASCII数字", "experience ٣ years ５ skills", "experience years skills"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matcher.Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Senior Go Engineer @ ACME (2019-2023): built APIs; 10+ years experience.",
		"ht-tpfoo bar",
		"w.ww.example test",
		"x-1 y_2 3-z",
		"Email: JANE.DOE@Example.COM, Phone: (555) 123-4567",
		"C++ / C# / Node.js developer with unicode spaces",
		"Ünïcödé CAFÉ 42 naïve",
	}
	for _, in := range inputs {
		once := matcher.Normalize(in)
		assert.Equal(t, once, matcher.Normalize(once), "input: %q", in)
	}
}

func TestNormalize_OutputShape(t *testing.T) {
	inputs := []string{
		"Visit HTTP://Jobs.Example.com or https://x.y/z?q=1 | call 555 1234. Team of 12 ENGINEERS!",
		"experience ٣ years ５ skills, ١٢٣ projects, ９９ reviews",
	}
	digitsOnly := regexp.MustCompile(`^\p{Nd}+$`)
	for _, in := range inputs {
		out := matcher.Normalize(in)
		for _, r := range out {
			assert.False(t, unicode.IsUpper(r), "输出不应包含大写字母: %q", out)
		}
		assert.NotContains(t, out, "http")
		assert.NotContains(t, out, "www")
		for _, tok := range strings.Fields(out) {
			assert.False(t, digitsOnly.MatchString(tok), "不应包含纯数字词: %q", tok)
		}
		assert.Equal(t, strings.TrimSpace(out), out)
		assert.NotContains(t, out, "  ")
	}
}
