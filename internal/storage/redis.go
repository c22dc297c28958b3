package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-matcher-go/internal/config"
	"resume-matcher-go/internal/constants"
	"resume-matcher-go/internal/logger"
	"resume-matcher-go/internal/tracing"
	"resume-matcher-go/internal/types"
)

var redisTracer = otel.Tracer("resume-matcher/storage/redis")

// redisCollection 一类记录在 Redis 中的布局：JSON 字符串 + 按序号排序的 ZSET 索引
type redisCollection[T any] struct {
	client    *redis.Client
	recordKey string // 含 %s 的格式
	indexKey  string
	seqKey    string
	name      string
}

func (c redisCollection[T]) add(ctx context.Context, id string, rec T) error {
	ctx, span := redisTracer.Start(ctx, "redis.add_"+c.name, trace.WithAttributes(attribute.String("record.id", id)))
	defer span.End()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("序列化%s失败: %w", c.name, err)
	}
	seq, err := c.client.Incr(ctx, c.seqKey).Result()
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return fmt.Errorf("获取%s序号失败: %w", c.name, err)
	}

	ok, err := c.client.SetNX(ctx, fmt.Sprintf(c.recordKey, id), data, 0).Result()
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return fmt.Errorf("写入%s失败: %w", c.name, err)
	}
	if !ok {
		return fmt.Errorf("记录已存在: %s", id)
	}
	if err := c.client.ZAdd(ctx, c.indexKey, redis.Z{Score: float64(seq), Member: id}).Err(); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		// 回滚记录，避免出现索引外的孤儿数据
		_ = c.client.Del(ctx, fmt.Sprintf(c.recordKey, id)).Err()
		return fmt.Errorf("写入%s索引失败: %w", c.name, err)
	}
	return nil
}

func (c redisCollection[T]) list(ctx context.Context) ([]T, error) {
	ctx, span := redisTracer.Start(ctx, "redis.list_"+c.name)
	defer span.End()

	ids, err := c.client.ZRange(ctx, c.indexKey, 0, -1).Result()
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return nil, fmt.Errorf("读取%s索引失败: %w", c.name, err)
	}
	out := make([]T, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = fmt.Sprintf(c.recordKey, id)
	}
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return nil, fmt.Errorf("批量读取%s失败: %w", c.name, err)
	}
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			// 并发删除时索引和记录可能短暂不一致
			logger.Debug().Str("id", ids[i]).Str("kind", c.name).Msg("索引中的记录已不存在，跳过")
			continue
		}
		var rec T
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			return nil, fmt.Errorf("反序列化%s %s失败: %w", c.name, ids[i], err)
		}
		out = append(out, rec)
	}
	span.SetAttributes(attribute.Int("record.count", len(out)))
	return out, nil
}

func (c redisCollection[T]) get(ctx context.Context, id string) (T, error) {
	var rec T
	data, err := c.client.Get(ctx, fmt.Sprintf(c.recordKey, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return rec, ErrNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("读取%s失败: %w", c.name, err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("反序列化%s失败: %w", c.name, err)
	}
	return rec, nil
}

func (c redisCollection[T]) remove(ctx context.Context, id string) error {
	ctx, span := redisTracer.Start(ctx, "redis.delete_"+c.name, trace.WithAttributes(attribute.String("record.id", id)))
	defer span.End()

	var del *redis.IntCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, fmt.Sprintf(c.recordKey, id))
		pipe.ZRem(ctx, c.indexKey, id)
		return nil
	})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return fmt.Errorf("删除%s失败: %w", c.name, err)
	}
	if del.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

// RedisStore 基于 Redis 的记录存储
type RedisStore struct {
	client  *redis.Client
	resumes redisCollection[types.ResumeRecord]
	jobs    redisCollection[types.JobDescriptionRecord]
}

var _ RecordStore = (*RedisStore)(nil)

// NewRedisStore 连接 Redis 并启用 OpenTelemetry 追踪
func NewRedisStore(ctx context.Context, cfg *config.RedisConfig) (*RedisStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	})

	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Warn().Err(err).Msg("启用Redis追踪失败")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("连接Redis失败: %w", err)
	}

	return newRedisStoreWithClient(client), nil
}

func newRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		resumes: redisCollection[types.ResumeRecord]{
			client:    client,
			recordKey: constants.KeyResumeRecord,
			indexKey:  constants.KeyResumeIndex,
			seqKey:    constants.KeyResumeSeq,
			name:      "resume",
		},
		jobs: redisCollection[types.JobDescriptionRecord]{
			client:    client,
			recordKey: constants.KeyJobRecord,
			indexKey:  constants.KeyJobIndex,
			seqKey:    constants.KeyJobSeq,
			name:      "job",
		},
	}
}

// AddResume 追加简历
func (r *RedisStore) AddResume(ctx context.Context, rec types.ResumeRecord) error {
	return r.resumes.add(ctx, rec.ID, rec)
}

// ListResumes 按创建顺序列出简历
func (r *RedisStore) ListResumes(ctx context.Context) ([]types.ResumeRecord, error) {
	return r.resumes.list(ctx)
}

// GetResume 按ID获取简历
func (r *RedisStore) GetResume(ctx context.Context, id string) (types.ResumeRecord, error) {
	return r.resumes.get(ctx, id)
}

// DeleteResume 删除简历
func (r *RedisStore) DeleteResume(ctx context.Context, id string) error {
	return r.resumes.remove(ctx, id)
}

// AddJob 追加JD
func (r *RedisStore) AddJob(ctx context.Context, rec types.JobDescriptionRecord) error {
	return r.jobs.add(ctx, rec.ID, rec)
}

// ListJobs 按创建顺序列出JD
func (r *RedisStore) ListJobs(ctx context.Context) ([]types.JobDescriptionRecord, error) {
	return r.jobs.list(ctx)
}

// GetJob 按ID获取JD
func (r *RedisStore) GetJob(ctx context.Context, id string) (types.JobDescriptionRecord, error) {
	return r.jobs.get(ctx, id)
}

// DeleteJob 删除JD
func (r *RedisStore) DeleteJob(ctx context.Context, id string) error {
	return r.jobs.remove(ctx, id)
}

// Close 关闭Redis连接
func (r *RedisStore) Close() error {
	return r.client.Close()
}
