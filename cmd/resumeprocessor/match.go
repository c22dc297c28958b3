package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"resume-matcher-go/internal/logger"
	"resume-matcher-go/internal/matcher"
	"resume-matcher-go/internal/parser"
	"resume-matcher-go/internal/processor"
	"resume-matcher-go/internal/storage"
	"resume-matcher-go/internal/types"
)

// 匹配命令的参数
var (
	matchDir         = pflag.String("dir", "resumes", "简历目录")
	matchJobsFile    = pflag.String("jobs", "", "JD 列表 YAML 文件")
	matchTopK        = pflag.Int("top", 3, "每个 JD 输出的候选人数量")
	matchMaxFeatures = pflag.Int("max-features", 0, "TF-IDF 词表上限，0 使用默认值")
	matchOutput      = pflag.String("out", "", "把匹配结果保存为 JSON 文件")
)

// jobSpec JD 文件中的一项
type jobSpec struct {
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description"`
	Requirements string   `yaml:"requirements"`
	Skills       []string `yaml:"skills"`
}

func loadJobs(path string) ([]processor.JobDescriptionInput, error) {
	if path == "" {
		return nil, errors.New("必须提供 -jobs 参数")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取 JD 文件失败: %w", err)
	}
	var specs []jobSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("解析 JD 文件失败: %w", err)
	}
	out := make([]processor.JobDescriptionInput, 0, len(specs))
	for _, s := range specs {
		out = append(out, processor.JobDescriptionInput{
			Title:        s.Title,
			Description:  s.Description,
			Requirements: s.Requirements,
			Skills:       strings.Join(s.Skills, ","),
		})
	}
	return out, nil
}

// handleMatchCommand 加载目录中的简历，对 JD 文件中的每个岗位输出排名
func handleMatchCommand() error {
	ctx := context.Background()

	jobs, err := loadJobs(*matchJobsFile)
	if err != nil {
		return err
	}

	text, err := parser.NewFileTextExtractor(ctx)
	if err != nil {
		return fmt.Errorf("创建文本提取器失败: %w", err)
	}
	proc, err := processor.NewMatchProcessor(processor.NewComponents(
		processor.WithRecordStore(storage.NewMemoryStore()),
		processor.WithTextExtractor(text),
		processor.WithFieldExtractor(matcher.MustDefaultExtractor()),
		processor.WithRanker(matcher.NewRanker(matcher.NewTFIDFStrategy(*matchMaxFeatures))),
	), nil)
	if err != nil {
		return err
	}

	loaded, err := loadResumeDir(ctx, proc, *matchDir)
	if err != nil {
		return err
	}
	fmt.Printf("已加载 %d 份简历\n", loaded)

	for _, jd := range jobs {
		if _, err := proc.UploadJobDescription(ctx, jd); err != nil {
			return fmt.Errorf("JD %q 无效: %w", jd.Title, err)
		}
	}

	all, err := proc.MatchAll(ctx, *matchTopK)
	if err != nil {
		if d := processor.Detail(err); d != "" {
			return errors.New(d)
		}
		return err
	}
	for _, jm := range all {
		printJobMatches(jm)
	}

	if *matchOutput != "" {
		data, err := json.MarshalIndent(all, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(*matchOutput, data, 0o644); err != nil {
			return fmt.Errorf("保存结果失败: %w", err)
		}
		fmt.Printf("\n结果已保存到 %s\n", *matchOutput)
	}
	return nil
}

// loadResumeDir 上传目录下的所有文件，无法解析的文件跳过
func loadResumeDir(ctx context.Context, proc *processor.MatchProcessor, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("读取简历目录失败: %w", err)
	}
	loaded := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn().Err(err).Str("file", path).Msg("读取简历失败，跳过")
			continue
		}
		if _, err := proc.UploadResume(ctx, e.Name(), data); err != nil {
			logger.Warn().Err(err).Str("file", path).Msg("解析简历失败，跳过")
			continue
		}
		loaded++
	}
	return loaded, nil
}

func printJobMatches(jm types.JobMatches) {
	line := strings.Repeat("=", 50)
	fmt.Printf("\n%s\nJob: %s\n%s\n", line, jm.JobDescription.Title, line)
	for _, r := range jm.Results {
		fmt.Printf("\nRank #%d\n", r.Rank)
		fmt.Printf("Score: %.2f%%\n", r.SimilarityScore)
		fmt.Printf("File: %s\n", r.FileName)
		fmt.Printf("Candidate: %s\n", r.CandidateName)
		fmt.Printf("Email: %s\n", r.Email)
		fmt.Printf("Experience: %d years\n", r.ExperienceYears)
		fmt.Printf("Skills: %s\n", strings.Join(r.Skills, ", "))
		fmt.Printf("Matched Skills: %s\n", strings.Join(r.MatchedSkills, ", "))
		fmt.Printf("Highlights: %s\n", strings.Join(r.Highlights, ", "))
	}
}
