package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"resume-matcher-go/internal/api/handler"
	"resume-matcher-go/internal/api/router"
	"resume-matcher-go/internal/config"
	"resume-matcher-go/internal/constants"
	"resume-matcher-go/internal/logger"
	"resume-matcher-go/internal/matcher"
	"resume-matcher-go/internal/metrics"
	"resume-matcher-go/internal/parser"
	"resume-matcher-go/internal/processor"
	"resume-matcher-go/internal/storage"
	"resume-matcher-go/internal/tracing"
)

var version = "1.0.0" //nolint:gochecknoglobals

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		glog.Fatalf("加载配置失败: %v", err)
	}

	logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})
	logger.Info().Str("version", version).Str("config", configPath).Msg("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = constants.ServiceName
	}
	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化链路追踪失败")
	}

	rules, err := matcher.LoadRules(cfg.Matcher.RulesPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Matcher.RulesPath).Msg("加载字段提取规则失败")
	}
	fields, err := matcher.NewExtractor(rules)
	if err != nil {
		logger.Fatal().Err(err).Msg("编译字段提取规则失败")
	}

	sel, err := matcher.SelectStrategy(ctx, matcher.StrategyConfig{
		Name:        cfg.Matcher.Strategy,
		MaxFeatures: cfg.Matcher.MaxFeatures,
	}, parser.NewEmbedderFactory(cfg))
	if err != nil {
		logger.Fatal().Err(err).Msg("选择向量化策略失败")
	}
	logger.Info().Str("requested", sel.Requested).Str("active", sel.Active()).Msg("向量化策略就绪")

	text, err := parser.NewFileTextExtractor(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化文件文本提取器失败")
	}

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化存储失败")
	}
	defer storageManager.Close()

	m := metrics.New(prometheus.DefaultRegisterer)
	m.SetStrategy(sel.Requested, sel.Active())

	maxUpload := int64(cfg.Server.MaxUploadMB) << 20
	proc, err := processor.NewMatchProcessor(
		processor.NewComponents(
			processor.WithStorage(storageManager),
			processor.WithTextExtractor(text),
			processor.WithFieldExtractor(fields),
			processor.WithRanker(matcher.NewRanker(sel.Strategy)),
			processor.WithMetrics(m),
		),
		processor.NewSettings(
			processor.WithDefaultTopK(cfg.Matcher.DefaultTopK),
			processor.WithDefaultMatchAllTopK(cfg.Matcher.DefaultMatchAllTopK),
			processor.WithMaxUploadBytes(maxUpload),
			processor.WithStrategyNames(sel.Requested, sel.Active()),
		),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化匹配处理器失败")
	}
	// 用持久化存储启动时，同步一次记录数指标
	if stats, err := proc.Stats(ctx); err == nil {
		logger.Info().Int("resumes", stats.TotalResumes).Int("job_descriptions", stats.TotalJobDescriptions).Msg("记录存储就绪")
	}

	// multipart 包装会多出少量字节
	h := router.NewServer(cfg.Server.Address, int(maxUpload)+1<<20)
	router.RegisterRoutes(h, handler.NewMatchHandler(proc), router.Options{
		APIKeys:      cfg.Server.APIKeys,
		AllowOrigins: cfg.Server.AllowOrigins,
		Metrics:      m,
	})

	go func() {
		logger.Info().Str("address", cfg.Server.Address).Msg("HTTP 服务器启动中")
		if err := h.Run(); err != nil {
			logger.Fatal().Err(err).Msg("启动HTTP服务器失败")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout, 10*time.Second))
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("关闭链路追踪失败")
	}
	logger.Info().Msg("优雅退出完成")
}
