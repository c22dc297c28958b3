package matcher

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SkillCategory 一类技能关键词
type SkillCategory struct {
	Name   string   `yaml:"name" json:"name"`
	Skills []string `yaml:"skills" json:"skills"`
}

// ExtractionRules 字段提取规则。规则是数据，可以独立于提取算法测试和扩展。
type ExtractionRules struct {
	EmailPattern        string          `yaml:"email_pattern"`
	PhonePattern        string          `yaml:"phone_pattern"`
	ExperiencePattern   string          `yaml:"experience_pattern"`
	SkillCategories     []SkillCategory `yaml:"skill_categories"`
	DegreeKeywords      []string        `yaml:"degree_keywords"`
	InstitutionKeywords []string        `yaml:"institution_keywords"`
}

// DefaultRules 返回内置的提取规则
func DefaultRules() ExtractionRules {
	return ExtractionRules{
		EmailPattern:      `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`,
		PhonePattern:      `(\+?1?[-.\s]?)?\(?(\d{3})\)?[-.\s]?(\d{3})[-.\s]?(\d{4})`,
		ExperiencePattern: `(?i)(\d+)\s*(?:years?|yrs?)\s*(?:of\s*)?experience`,
		SkillCategories: []SkillCategory{
			{Name: "programming", Skills: []string{"JavaScript", "JS", "React", "Angular", "Vue", "Node.js", "Python", "Java", "C++", "C#", "PHP", "Ruby", "Go", "Rust", "Swift", "Kotlin"}},
			{Name: "web", Skills: []string{"HTML", "CSS", "SASS", "LESS", "Bootstrap", "Tailwind", "jQuery", "TypeScript"}},
			{Name: "database", Skills: []string{"SQL", "MySQL", "PostgreSQL", "MongoDB", "Redis", "Oracle", "SQLite"}},
			{Name: "cloud", Skills: []string{"AWS", "Azure", "GCP", "Docker", "Kubernetes", "Jenkins", "Git", "GitHub", "GitLab"}},
			{Name: "ml_ai", Skills: []string{"Machine Learning", "ML", "AI", "Deep Learning", "NLP", "Computer Vision", "TensorFlow", "PyTorch", "Scikit-learn"}},
			{Name: "tools", Skills: []string{"Agile", "Scrum", "Kanban", "JIRA", "Confluence", "Slack", "Microsoft Office", "Excel", "PowerPoint"}},
		},
		DegreeKeywords:      []string{"Bachelor", "Master", "PhD", "BSc", "MSc", "MBA"},
		InstitutionKeywords: []string{"University", "College", "Institute", "School"},
	}
}

// LoadRules 从 YAML 文件加载提取规则，文件中缺失的部分沿用内置规则
func LoadRules(path string) (ExtractionRules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("读取提取规则文件失败: %w", err)
	}
	var override ExtractionRules
	if err := yaml.Unmarshal(data, &override); err != nil {
		return rules, fmt.Errorf("解析提取规则文件失败: %w", err)
	}
	if override.EmailPattern != "" {
		rules.EmailPattern = override.EmailPattern
	}
	if override.PhonePattern != "" {
		rules.PhonePattern = override.PhonePattern
	}
	if override.ExperiencePattern != "" {
		rules.ExperiencePattern = override.ExperiencePattern
	}
	if len(override.SkillCategories) > 0 {
		rules.SkillCategories = override.SkillCategories
	}
	if len(override.DegreeKeywords) > 0 {
		rules.DegreeKeywords = override.DegreeKeywords
	}
	if len(override.InstitutionKeywords) > 0 {
		rules.InstitutionKeywords = override.InstitutionKeywords
	}
	return rules, nil
}
