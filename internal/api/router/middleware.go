package router

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"
	"github.com/hertz-contrib/cors"
	"github.com/hertz-contrib/keyauth"

	"resume-matcher-go/internal/logger"
)

// HeaderRequestID 请求ID头
const HeaderRequestID = "X-Request-ID"

// HeaderAPIKey API Key 头
const HeaderAPIKey = "X-API-Key"

var errInvalidAPIKey = errors.New("invalid API key")

// RequestID 透传或生成请求ID，并把带 request_id 字段的 logger 放入上下文
func RequestID() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		id := string(ctx.GetHeader(HeaderRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		ctx.Response.Header.Set(HeaderRequestID, id)
		ctx.Set("request_id", id)

		l := logger.Logger.With().Str("request_id", id).Logger()
		ctx.Next(l.WithContext(c))
	}
}

// AccessLog 记录请求方法、路径、状态码和耗时
func AccessLog() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c)
		logger.Ctx(c).Info().
			Str("method", string(ctx.Method())).
			Str("path", string(ctx.Path())).
			Int("status", ctx.Response.StatusCode()).
			Dur("latency", time.Since(start)).
			Msg("HTTP请求")
	}
}

// CORS 按白名单输出跨域头，"*" 允许所有来源
func CORS(origins []string) app.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{consts.MethodGet, consts.MethodPost, consts.MethodDelete, consts.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", HeaderAPIKey, HeaderRequestID},
		ExposeHeaders: []string{HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch {
		case o == "*":
			cfg.AllowAllOrigins = true
		case o != "":
			cfg.AllowOrigins = append(cfg.AllowOrigins, o)
		}
	}
	if cfg.AllowAllOrigins {
		cfg.AllowOrigins = nil
	} else if len(cfg.AllowOrigins) == 0 {
		return func(c context.Context, ctx *app.RequestContext) { ctx.Next(c) }
	}
	return cors.New(cfg)
}

// APIKeyAuth 校验 X-API-Key，skip 返回 true 的请求不校验
func APIKeyAuth(keys []string, skip func(context.Context, *app.RequestContext) bool) app.HandlerFunc {
	valid := make([][]byte, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			valid = append(valid, []byte(k))
		}
	}
	return keyauth.New(
		keyauth.WithKeyLookUp("header:"+HeaderAPIKey, ""),
		keyauth.WithFilter(skip),
		keyauth.WithValidator(func(_ context.Context, _ *app.RequestContext, key string) (bool, error) {
			for _, v := range valid {
				if subtle.ConstantTimeCompare(v, []byte(key)) == 1 {
					return true, nil
				}
			}
			return false, errInvalidAPIKey
		}),
		keyauth.WithErrorHandler(func(c context.Context, ctx *app.RequestContext, err error) {
			logger.Ctx(c).Warn().Err(err).Str("path", string(ctx.Path())).Msg("API Key 校验失败")
			ctx.AbortWithStatusJSON(consts.StatusUnauthorized, utils.H{
				"success": false,
				"error":   "missing or invalid API key",
			})
		}),
	)
}
