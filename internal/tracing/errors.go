package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorType 错误分类，写入 span 的 error.type 属性
type ErrorType string

const (
	ErrorTypeHTTP       ErrorType = "http"
	ErrorTypeDB         ErrorType = "db"
	ErrorTypeRedis      ErrorType = "redis"
	ErrorTypeRabbitMQ   ErrorType = "rabbitmq"
	ErrorTypeEmbedding  ErrorType = "embedding"
	ErrorTypeParsing    ErrorType = "parsing"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeInternal   ErrorType = "internal"
	ErrorTypeExternal   ErrorType = "external_system"
	ErrorTypeTimeout    ErrorType = "timeout"
)

func markError(span trace.Span, errorType ErrorType, msg string, attrs ...attribute.KeyValue) {
	span.SetAttributes(
		attribute.String("error.type", string(errorType)),
		attribute.String("error.message", msg),
	)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	span.SetStatus(codes.Error, msg)
}

// RecordError 记录错误并标记 span 失败
func RecordError(span trace.Span, err error, errorType ErrorType) {
	RecordErrorWithInfo(span, err, errorType)
}

// RecordErrorWithInfo 记录错误并附加额外属性
func RecordErrorWithInfo(span trace.Span, err error, errorType ErrorType, attributes ...attribute.KeyValue) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	markError(span, errorType, err.Error(), attributes...)
}

// RecordHTTPError 记录HTTP错误，按状态码区分客户端和服务端错误
func RecordHTTPError(span trace.Span, err error, statusCode int) {
	if span == nil || err == nil {
		return
	}
	category := "unknown"
	switch {
	case statusCode >= 500:
		category = "server_error"
	case statusCode >= 400:
		category = "client_error"
	}
	span.RecordError(err)
	markError(span, ErrorTypeHTTP, err.Error(),
		attribute.Int("http.status_code", statusCode),
		attribute.String("error.category", category),
	)
}

// RecordRabbitMQNack 记录消息被 broker 拒绝
func RecordRabbitMQNack(span trace.Span, messageID string, reason string) {
	if span == nil {
		return
	}
	if reason == "" {
		reason = "message not acknowledged by broker"
	}
	markError(span, ErrorTypeRabbitMQ, reason,
		attribute.String("messaging.message_id", messageID),
		attribute.String("messaging.error_type", "nack"),
		attribute.Bool("messaging.rabbitmq.confirmed", false),
	)
}

// RecordRabbitMQTimeout 记录发布确认超时
func RecordRabbitMQTimeout(span trace.Span, messageID string, timeoutDuration string) {
	if span == nil {
		return
	}
	markError(span, ErrorTypeRabbitMQ, "confirm timeout after "+timeoutDuration,
		attribute.String("messaging.message_id", messageID),
		attribute.String("messaging.error_type", "timeout"),
		attribute.Bool("messaging.rabbitmq.confirmed", false),
	)
}
