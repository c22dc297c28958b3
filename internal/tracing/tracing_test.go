package tracing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"resume-matcher-go/internal/config"
)

func attrMap(kvs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value
	}
	return m
}

func TestRecordHTTPError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	RecordHTTPError(span, errors.New("not found"), 404)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, "http", attrs["error.type"].AsString())
	assert.Equal(t, "client_error", attrs["error.category"].AsString())
	assert.Equal(t, int64(404), attrs["http.status_code"].AsInt64())
}

func TestRecordError_NilSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordError(nil, errors.New("x"), ErrorTypeInternal)
		RecordRabbitMQNack(nil, "id", "")
		RecordRabbitMQTimeout(nil, "id", "5s")
	})
}

func TestRecordRabbitMQNack_DefaultReason(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	_, span := tp.Tracer("test").Start(context.Background(), "publish")
	RecordRabbitMQNack(span, "msg-1", "")
	span.End()

	attrs := attrMap(recorder.Ended()[0].Attributes())
	assert.Equal(t, "message not acknowledged by broker", attrs["error.message"].AsString())
	assert.Equal(t, "msg-1", attrs["messaging.message_id"].AsString())
}

func TestMaskPII(t *testing.T) {
	cases := map[string]string{
		"":            "",
		"a":           "*",
		"张三":          "张*",
		"王小明":         "王*明",
		"13812345678": "13*******78",
	}
	for in, want := range cases {
		assert.Equal(t, want, MaskPII(in), in)
	}
}

func TestSafeAttributeValue(t *testing.T) {
	assert.Equal(t, "jo"+strings.Repeat("*", 18)+"om", SafeAttributeValue("candidate.email", "john.smith@example.com", 200))
	assert.Equal(t, "Jo******th", SafeAttributeValue("candidate.name", "John Smith", 200))
	assert.Equal(t, "short", SafeAttributeValue("job.title", "short", 200))
	assert.Equal(t, "ab...yz", SafeAttributeValue("job.title", "abcdefghijklmnopqrstuvwxyz", 7))
}

func TestInit_NoEndpointIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), config.TracingConfig{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_WithCustomProcessor(t *testing.T) {
	prev := otel.GetTracerProvider()
	defer otel.SetTracerProvider(prev)

	recorder := tracetest.NewSpanRecorder()
	shutdown, err := Init(context.Background(),
		config.TracingConfig{ServiceName: "test-svc", SampleRatio: 1},
		sdktrace.WithSpanProcessor(recorder),
	)
	require.NoError(t, err)

	_, span := otel.Tracer("x").Start(context.Background(), "op")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	require.Len(t, recorder.Ended(), 1)
	assert.Equal(t, "op", recorder.Ended()[0].Name())
}
