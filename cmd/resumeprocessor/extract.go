package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"resume-matcher-go/internal/matcher"
	"resume-matcher-go/internal/parser"
)

// 提取命令的参数
var (
	extractInputFile = pflag.String("file", "", "要提取的简历文件路径 (pdf/docx/doc/txt)")
	extractFormat    = pflag.String("format", "text", "输出格式，可选项：text, json")
	extractSaveFile  = pflag.String("save", "", "保存提取的原始文本到文件")
)

// extractOutput json 格式的提取结果
type extractOutput struct {
	FileName    string                 `json:"file_name"`
	Format      string                 `json:"format"`
	CleanedText string                 `json:"cleaned_text"`
	Candidate   map[string]interface{} `json:"candidate"`
}

// handleExtractCommand 提取单个文件的文本和候选人字段
func handleExtractCommand() error {
	if *extractInputFile == "" {
		pflag.Usage()
		return fmt.Errorf("必须提供 -file 参数")
	}
	absPath, err := filepath.Abs(*extractInputFile)
	if err != nil {
		return fmt.Errorf("无法获取文件的绝对路径: %w", err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("读取文件失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	extractor, err := parser.NewFileTextExtractor(ctx)
	if err != nil {
		return fmt.Errorf("创建文本提取器失败: %w", err)
	}

	start := time.Now()
	text, format, err := extractor.Extract(ctx, filepath.Base(absPath), data)
	if err != nil {
		return err
	}
	info := matcher.MustDefaultExtractor().Extract(text)
	cleaned := matcher.Normalize(text)

	if *extractSaveFile != "" {
		if err := os.WriteFile(*extractSaveFile, []byte(text), 0o644); err != nil {
			return fmt.Errorf("保存到文件失败: %w", err)
		}
	}

	if *extractFormat == "json" {
		out := extractOutput{
			FileName:    filepath.Base(absPath),
			Format:      format,
			CleanedText: cleaned,
			Candidate: map[string]interface{}{
				"candidate_name":   info.Name,
				"email":            info.Email,
				"phone":            info.Phone,
				"experience_years": info.ExperienceYears,
				"skills":           info.Skills,
				"education":        info.Education,
			},
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("提取完成! 格式: %s, 耗时: %v\n", format, time.Since(start))
	fmt.Printf("\n===== 清洗后的文本 (总计 %d 字符) =====\n", len(cleaned))
	fmt.Println(truncate(cleaned, *maxLen))

	fmt.Println("\n===== 候选人信息 =====")
	fmt.Printf("姓名: %s\n", info.Name)
	fmt.Printf("邮箱: %s\n", info.Email)
	fmt.Printf("电话: %s\n", info.Phone)
	fmt.Printf("工作年限: %d\n", info.ExperienceYears)
	fmt.Printf("技能: %v\n", info.Skills)
	fmt.Printf("学历: %s\n", info.Education)
	return nil
}

func truncate(text string, n int) string {
	if n < 0 {
		return text
	}
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "...(已截断，使用 -maxlen 参数显示更多)"
}
