package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "resume_matcher"

// Metrics 服务的 Prometheus 指标
//
//   - resume_matcher_http_requests_total{method,path,status_code}
//   - resume_matcher_http_request_duration_seconds{method,path}
//   - resume_matcher_uploads_total{kind,result}    kind: resume|job
//   - resume_matcher_match_total{op,result}        op: match|match_all
//   - resume_matcher_match_duration_seconds{op,strategy}
//   - resume_matcher_records{kind}
//   - resume_matcher_strategy_info{requested,active}
type Metrics struct {
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	Uploads       *prometheus.CounterVec
	Matches       *prometheus.CounterVec
	MatchDuration *prometheus.HistogramVec
	Records       *prometheus.GaugeVec
	StrategyInfo  *prometheus.GaugeVec
}

// New 创建指标并注册到 reg。测试中传入独立的 prometheus.NewRegistry()，避免重复注册
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status_code"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		Uploads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Total number of resume and job description uploads",
		}, []string{"kind", "result"}),
		Matches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_total",
			Help:      "Total number of match requests",
		}, []string{"op", "result"}),
		MatchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_duration_seconds",
			Help:      "Duration of ranking a corpus against job descriptions",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"op", "strategy"}),
		Records: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records",
			Help:      "Number of stored records",
		}, []string{"kind"}),
		StrategyInfo: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "strategy_info",
			Help:      "Requested and active vectorization strategy, value is always 1",
		}, []string{"requested", "active"}),
	}
}

// Result 把 error 转为 result 标签
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveUpload 记录一次上传
func (m *Metrics) ObserveUpload(kind string, err error) {
	if m == nil {
		return
	}
	m.Uploads.WithLabelValues(kind, Result(err)).Inc()
}

// ObserveMatch 记录一次匹配
func (m *Metrics) ObserveMatch(op, strategy string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.Matches.WithLabelValues(op, Result(err)).Inc()
	if err == nil {
		m.MatchDuration.WithLabelValues(op, strategy).Observe(time.Since(start).Seconds())
	}
}

// SetRecords 更新记录数
func (m *Metrics) SetRecords(kind string, n int) {
	if m == nil {
		return
	}
	m.Records.WithLabelValues(kind).Set(float64(n))
}

// AddRecords 按增量调整记录数
func (m *Metrics) AddRecords(kind string, delta int) {
	if m == nil {
		return
	}
	m.Records.WithLabelValues(kind).Add(float64(delta))
}

// SetStrategy 记录启动时选定的向量化策略
func (m *Metrics) SetStrategy(requested, active string) {
	if m == nil {
		return
	}
	m.StrategyInfo.Reset()
	m.StrategyInfo.WithLabelValues(requested, active).Set(1)
}

// Middleware Hertz 中间件，按路由模板统计请求数和耗时
func (m *Metrics) Middleware() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c)

		path := ctx.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := string(ctx.Method())
		m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(ctx.Response.StatusCode())).Inc()
		m.HTTPDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
