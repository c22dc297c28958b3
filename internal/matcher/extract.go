package matcher

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"resume-matcher-go/internal/types"
)

// Extractor 基于规则的简历字段提取器，编译后的规则只读，可并发使用
type Extractor struct {
	email      *regexp.Regexp
	phone      *regexp.Regexp
	experience *regexp.Regexp
	skills     []string // 规范拼写，按目录顺序
	education  []string // 小写的学历/院校关键词
}

// NewExtractor 编译提取规则
func NewExtractor(rules ExtractionRules) (*Extractor, error) {
	email, err := regexp.Compile(rules.EmailPattern)
	if err != nil {
		return nil, fmt.Errorf("编译邮箱规则失败: %w", err)
	}
	phone, err := regexp.Compile(rules.PhonePattern)
	if err != nil {
		return nil, fmt.Errorf("编译电话规则失败: %w", err)
	}
	experience, err := regexp.Compile(rules.ExperiencePattern)
	if err != nil {
		return nil, fmt.Errorf("编译工作年限规则失败: %w", err)
	}
	if experience.NumSubexp() < 1 {
		return nil, fmt.Errorf("工作年限规则必须包含一个数字捕获组: %q", rules.ExperiencePattern)
	}

	e := &Extractor{email: email, phone: phone, experience: experience}

	seen := make(map[string]struct{})
	for _, category := range rules.SkillCategories {
		for _, skill := range category.Skills {
			skill = strings.TrimSpace(skill)
			key := strings.ToLower(skill)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			e.skills = append(e.skills, skill)
		}
	}
	for _, kw := range append(append([]string{}, rules.DegreeKeywords...), rules.InstitutionKeywords...) {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			e.education = append(e.education, kw)
		}
	}
	return e, nil
}

// MustDefaultExtractor 使用内置规则构建提取器
func MustDefaultExtractor() *Extractor {
	e, err := NewExtractor(DefaultRules())
	if err != nil {
		panic(err)
	}
	return e
}

// Extract 从原始文本中提取候选人字段，未命中的字段保持默认值
func (e *Extractor) Extract(raw string) types.CandidateInfo {
	info := types.CandidateInfo{
		Name:      types.UnknownName,
		Skills:    []string{},
		Education: types.EducationNotSpecified,
	}
	if raw == "" {
		return info
	}

	if m := e.email.FindString(raw); m != "" {
		info.Email = m
	}

	if groups := e.phone.FindStringSubmatch(raw); groups != nil {
		info.Phone = phoneDigits(groups[1:])
	}

	if groups := e.experience.FindStringSubmatch(raw); groups != nil {
		if years, err := strconv.Atoi(groups[1]); err == nil {
			info.ExperienceYears = years
		}
	}

	lower := strings.ToLower(raw)
	for _, skill := range e.skills {
		if containsLowerTerm(lower, strings.ToLower(skill)) {
			info.Skills = append(info.Skills, skill)
		}
	}

	for _, kw := range e.education {
		if containsLowerTerm(lower, kw) {
			info.Education = types.EducationHigher
			break
		}
	}
	return info
}

// phoneDigits 拼接捕获组，只保留数字和国家码前的加号
func phoneDigits(groups []string) string {
	var b strings.Builder
	for _, g := range groups {
		for _, r := range g {
			if (r >= '0' && r <= '9') || (r == '+' && b.Len() == 0) {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}
