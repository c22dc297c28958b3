package router

import (
	"context"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/adaptor"
	"github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"resume-matcher-go/internal/api/handler"
	"resume-matcher-go/internal/metrics"
)

// HealthPath 健康检查路径，不需要 API Key
const HealthPath = "/api/v1/health"

// Options 路由选项
type Options struct {
	// APIKeys 非空时 /api/v1 需要 X-API-Key
	APIKeys []string
	// AllowOrigins 跨域白名单，为空时不输出 CORS 头
	AllowOrigins []string
	Metrics      *metrics.Metrics
	// Gatherer 为空时使用 prometheus.DefaultGatherer
	Gatherer prometheus.Gatherer
}

// NewServer 创建带服务端追踪的 Hertz 实例。maxBodyBytes<=0 时使用 Hertz 默认上限
func NewServer(address string, maxBodyBytes int) *server.Hertz {
	tracer, tracerCfg := hertztracing.NewServerTracer()
	opts := []config.Option{
		server.WithHostPorts(address),
		server.WithHandleMethodNotAllowed(true),
		tracer,
	}
	if maxBodyBytes > 0 {
		opts = append(opts, server.WithMaxRequestBodySize(maxBodyBytes))
	}
	h := server.New(opts...)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))
	return h
}

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz, mh *handler.MatchHandler, opts Options) {
	h.Use(RequestID(), AccessLog())
	if len(opts.AllowOrigins) > 0 {
		h.Use(CORS(opts.AllowOrigins))
	}
	if opts.Metrics != nil {
		h.Use(opts.Metrics.Middleware())
	}

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	h.GET("/metrics", wrapHTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	h.GET("/", mh.HandleBanner)

	api := h.Group("/api/v1")
	if len(opts.APIKeys) > 0 {
		api.Use(APIKeyAuth(opts.APIKeys, func(_ context.Context, c *app.RequestContext) bool {
			return string(c.Path()) == HealthPath
		}))
	}

	api.GET("/health", mh.HandleHealth)

	api.POST("/resumes", mh.HandleUploadResume)
	api.GET("/resumes", mh.HandleListResumes)
	api.GET("/resumes/:id", mh.HandleGetResume)
	api.DELETE("/resumes/:id", mh.HandleDeleteResume)

	api.POST("/job-descriptions", mh.HandleUploadJobDescription)
	api.GET("/job-descriptions", mh.HandleListJobDescriptions)
	api.GET("/job-descriptions/:id", mh.HandleGetJobDescription)
	api.DELETE("/job-descriptions/:id", mh.HandleDeleteJobDescription)

	api.POST("/match", mh.HandleMatch)
	api.POST("/match-all", mh.HandleMatchAll)
	api.GET("/stats", mh.HandleStats)
}

// wrapHTTPHandler 把 net/http 的 Handler 挂到 Hertz 路由上
func wrapHTTPHandler(h http.Handler) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		req, err := adaptor.GetCompatRequest(&ctx.Request)
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"success": false, "error": err.Error()})
			return
		}
		h.ServeHTTP(adaptor.GetCompatResponseWriter(&ctx.Response), req.WithContext(c))
	}
}
