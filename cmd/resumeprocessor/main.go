package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"resume-matcher-go/internal/logger"
)

// 命令行参数定义
var (
	command  = pflag.String("cmd", "extract", "执行的命令: extract=提取文本和字段, match=批量匹配目录中的简历")
	maxLen   = pflag.Int("maxlen", 1000, "显示的文本最大长度，设为-1显示全部")
	logLevel = pflag.String("log-level", "warn", "日志级别")
)

func main() {
	pflag.Parse()
	logger.Init(logger.Config{Level: *logLevel, Format: "pretty", TimeFormat: "15:04:05", Output: os.Stderr})

	var err error
	switch *command {
	case "extract":
		err = handleExtractCommand()
	case "match":
		err = handleMatchCommand()
	default:
		fmt.Printf("错误: 未知命令 '%s'。支持的命令: extract, match\n", *command)
		pflag.Usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
