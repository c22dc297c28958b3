package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-matcher-go/internal/config"
	"resume-matcher-go/internal/logger"
	"resume-matcher-go/internal/tracing"
)

var mqTracer = otel.Tracer("resume-matcher/storage/rabbitmq")

// EventPublisher 领域事件发布
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event Event) error
	Close() error
}

// NoopPublisher 未配置消息队列时使用，丢弃所有事件
type NoopPublisher struct{}

// Publish 无操作
func (NoopPublisher) Publish(context.Context, string, Event) error { return nil }

// Close 无操作
func (NoopPublisher) Close() error { return nil }

// RabbitMQ 把领域事件发布到 topic exchange，每条消息等待 broker 确认
type RabbitMQ struct {
	conn           *amqp.Connection
	channelPool    sync.Pool
	exchange       string
	confirmTimeout time.Duration
}

var _ EventPublisher = (*RabbitMQ)(nil)

// NewRabbitMQ 连接 RabbitMQ 并声明事件 exchange
func NewRabbitMQ(cfg *config.RabbitMQConfig) (*RabbitMQ, error) {
	if cfg == nil {
		return nil, fmt.Errorf("RabbitMQ配置不能为空")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("RabbitMQ URL配置不能为空")
	}
	if cfg.EventExchange == "" {
		return nil, fmt.Errorf("exchange名称不能为空")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("无法连接到RabbitMQ服务器: %w", err)
	}

	mq := &RabbitMQ{
		conn:           conn,
		exchange:       cfg.EventExchange,
		confirmTimeout: config.GetDuration(cfg.ConfirmTimeout, 5*time.Second),
	}
	mq.channelPool = sync.Pool{
		New: func() interface{} {
			ch, errPool := mq.openChannel()
			if errPool != nil {
				logger.Error().Err(errPool).Msg("创建RabbitMQ通道失败")
				return nil
			}
			return ch
		},
	}

	ch := mq.getChannel()
	if ch == nil {
		_ = conn.Close()
		return nil, fmt.Errorf("无法创建RabbitMQ通道")
	}
	defer mq.putChannel(ch)

	err = ch.ExchangeDeclare(
		mq.exchange, // exchange名称
		"topic",     // exchange类型
		true,        // 持久化
		false,       // 自动删除
		false,       // 内部专用
		false,       // 非阻塞
		nil,         // 参数
	)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("声明exchange失败: %w", err)
	}

	return mq, nil
}

// openChannel 打开一个处于 confirm 模式的通道
func (r *RabbitMQ) openChannel() (*amqp.Channel, error) {
	ch, err := r.conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("开启发布确认失败: %w", err)
	}
	return ch, nil
}

func (r *RabbitMQ) getChannel() *amqp.Channel {
	v := r.channelPool.Get()
	if ch, ok := v.(*amqp.Channel); ok && ch != nil && !ch.IsClosed() {
		return ch
	}
	ch, err := r.openChannel()
	if err != nil {
		logger.Error().Err(err).Msg("创建新RabbitMQ通道失败")
		return nil
	}
	return ch
}

func (r *RabbitMQ) putChannel(ch *amqp.Channel) {
	if ch != nil && !ch.IsClosed() {
		r.channelPool.Put(ch)
	}
}

// Publish 以 JSON 发布事件并等待确认
func (r *RabbitMQ) Publish(ctx context.Context, routingKey string, event Event) error {
	ctx, span := mqTracer.Start(ctx, "rabbitmq.publish", trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "rabbitmq"),
			attribute.String("messaging.destination", r.exchange),
			attribute.String("messaging.rabbitmq.routing_key", routingKey),
			attribute.String("messaging.message_id", event.EventID),
		))
	defer span.End()

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("JSON序列化失败: %w", err)
	}

	ch := r.getChannel()
	if ch == nil {
		err := errors.New("无法获取RabbitMQ通道")
		tracing.RecordError(span, err, tracing.ErrorTypeRabbitMQ)
		return err
	}
	defer r.putChannel(ch)

	confirm, err := ch.PublishWithDeferredConfirmWithContext(
		ctx,
		r.exchange, // exchange名
		routingKey, // 路由键
		false,      // 强制
		false,      // 立即
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    event.EventID,
			Body:         body,
			Timestamp:    event.OccurredAt,
		},
	)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRabbitMQ)
		return fmt.Errorf("发布消息失败: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, r.confirmTimeout)
	defer cancel()
	acked, err := confirm.WaitContext(waitCtx)
	if err != nil {
		tracing.RecordRabbitMQTimeout(span, event.EventID, r.confirmTimeout.String())
		return fmt.Errorf("等待发布确认失败: %w", err)
	}
	if !acked {
		tracing.RecordRabbitMQNack(span, event.EventID, "")
		return fmt.Errorf("消息 %s 未被broker确认", event.EventID)
	}
	return nil
}

// Close 关闭连接
func (r *RabbitMQ) Close() error {
	return r.conn.Close()
}
