package tracing

import (
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

const (
	// DefaultMaxLength 默认最大属性长度
	DefaultMaxLength = 200

	// MaxTextLength 简历/JD文本属性最大长度
	MaxTextLength = 150
)

// 属性名包含这些关键字时值按个人信息掩码
var piiKeywords = []string{"email", "phone", "name", "姓名", "电话", "邮箱", "secret", "token", "password"}

// SafeAttribute 生成可安全写入 span 的字符串属性：个人信息掩码，过长的值截断
func SafeAttribute(name, value string) attribute.KeyValue {
	return attribute.String(name, SafeAttributeValue(name, value, DefaultMaxLength))
}

// SafeAttributeValue 处理属性值，不泄露个人信息
func SafeAttributeValue(name string, value string, maxLength int) string {
	lowerName := strings.ToLower(name)
	for _, keyword := range piiKeywords {
		if strings.Contains(lowerName, keyword) {
			return MaskPII(value)
		}
	}
	return TruncateString(value, maxLength)
}

// MaskPII 对个人敏感信息进行掩码处理
func MaskPII(value string) string {
	if value == "" {
		return ""
	}

	runes := []rune(value)
	length := len(runes)

	if length <= 1 {
		return "*"
	}
	// "张三" -> "张*", "王小明" -> "王*明"
	if length <= 4 {
		if length == 2 {
			return string(runes[0:1]) + "*"
		}
		return string(runes[0:1]) + strings.Repeat("*", length-2) + string(runes[length-1:])
	}

	// "13812345678" -> "13*******78"
	return string(runes[0:2]) + strings.Repeat("*", length-4) + string(runes[length-2:])
}

// TruncateString 截断字符串，保留首尾并用省略号连接
func TruncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}

	half := (maxLength - 3) / 2
	if half < 1 {
		half = 1
	}
	return string(runes[:half]) + "..." + string(runes[len(runes)-half:])
}

// SafeText 截断简历或JD正文
func SafeText(content string) string {
	return TruncateString(content, MaxTextLength)
}
