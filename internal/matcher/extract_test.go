package matcher_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-matcher-go/internal/matcher"
	"resume-matcher-go/internal/types"
)

const sampleResume = `Jane Doe
jane@example.com | +1 (555) 123-4567
Senior engineer with 7 years of experience building Python services on AWS.
Skills: python, Docker, Kubernetes, React, C++, Node.js, PostgreSQL
Education: BSc Computer Science, State University`

func TestExtractor_Extract(t *testing.T) {
	ex := matcher.MustDefaultExtractor()
	info := ex.Extract(sampleResume)

	assert.Equal(t, types.UnknownName, info.Name)
	assert.Equal(t, "jane@example.com", info.Email)
	assert.Equal(t, "+15551234567", info.Phone)
	assert.Equal(t, 7, info.ExperienceYears)
	assert.Equal(t, types.EducationHigher, info.Education)
	// "Node.js" 中的 "js" 前面是 "."，因此 JS 也会命中
	assert.Equal(t, []string{"JS", "React", "Node.js", "Python", "C++", "PostgreSQL", "AWS", "Docker", "Kubernetes"}, info.Skills)
}

func TestExtractor_Defaults(t *testing.T) {
	ex := matcher.MustDefaultExtractor()

	for _, raw := range []string{"", "nothing useful here"} {
		info := ex.Extract(raw)
		assert.Equal(t, types.UnknownName, info.Name)
		assert.Empty(t, info.Email)
		assert.Empty(t, info.Phone)
		assert.Zero(t, info.ExperienceYears)
		assert.NotNil(t, info.Skills)
		assert.Empty(t, info.Skills)
		assert.Equal(t, types.EducationNotSpecified, info.Education)
	}
}

func TestExtractor_FirstMatchWins(t *testing.T) {
	ex := matcher.MustDefaultExtractor()
	info := ex.Extract("a@b.io then c@d.org; 3 yrs experience, later 10 years of experience; 555.987.6543")

	assert.Equal(t, "a@b.io", info.Email)
	assert.Equal(t, 3, info.ExperienceYears)
	assert.Equal(t, "5559876543", info.Phone)
}

func TestExtractor_SkillsWholeWordCaseInsensitive(t *testing.T) {
	ex := matcher.MustDefaultExtractor()

	info := ex.Extract("HTML5 and html, JAVASCRIPT, javascript, golang, Java")
	assert.Equal(t, []string{"JavaScript", "Java", "HTML"}, info.Skills)

	// "ML" 不应在 "HTML" 中命中
	assert.NotContains(t, info.Skills, "ML")
}

func TestExtractor_MultiWordSkills(t *testing.T) {
	ex := matcher.MustDefaultExtractor()
	info := ex.Extract("Applied machine learning and deep   learning; used Microsoft Office daily")
	assert.Contains(t, info.Skills, "Machine Learning")
	assert.Contains(t, info.Skills, "Microsoft Office")
	assert.NotContains(t, info.Skills, "Deep Learning")
}

func TestNewExtractor_InvalidRules(t *testing.T) {
	rules := matcher.DefaultRules()
	rules.EmailPattern = "("
	_, err := matcher.NewExtractor(rules)
	assert.Error(t, err)

	rules = matcher.DefaultRules()
	rules.ExperiencePattern = `\d+ years`
	_, err = matcher.NewExtractor(rules)
	assert.Error(t, err)
}

func TestLoadRules_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `skill_categories:
  - name: data
    skills: [Spark, Airflow]
degree_keywords: [Diploma]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rules, err := matcher.LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, matcher.DefaultRules().EmailPattern, rules.EmailPattern)
	require.Len(t, rules.SkillCategories, 1)

	ex, err := matcher.NewExtractor(rules)
	require.NoError(t, err)
	info := ex.Extract("Airflow pipelines, Python, Diploma in IT")
	assert.Equal(t, []string{"Airflow"}, info.Skills)
	assert.Equal(t, types.EducationHigher, info.Education)
}

func TestLoadRules_MissingFile(t *testing.T) {
	_, err := matcher.LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	rules, err := matcher.LoadRules("")
	require.NoError(t, err)
	assert.Equal(t, matcher.DefaultRules(), rules)
}

func TestContainsTerm(t *testing.T) {
	assert.True(t, matcher.ContainsTerm("Looking for C++ devs", "c++"))
	assert.True(t, matcher.ContainsTerm("we use C#.", "C#"))
	assert.True(t, matcher.ContainsTerm("node.js backend", "Node.js"))
	assert.False(t, matcher.ContainsTerm("javascript", "java"))
	assert.False(t, matcher.ContainsTerm("anything", ""))
	assert.True(t, matcher.ContainsTerm("go, rust", "Go"))
}
