package storage

import (
	"context"
	"errors"
	"fmt"

	"resume-matcher-go/internal/config"
	"resume-matcher-go/internal/logger"
	"resume-matcher-go/internal/types"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// 记录存储驱动
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverMySQL  = "mysql"
)

// RecordStore 简历与 JD 的记录存储。List 返回按创建顺序排列的快照副本，
// 调用方对快照的修改不影响存储，之后的写入也不影响已返回的快照。
type RecordStore interface {
	AddResume(ctx context.Context, rec types.ResumeRecord) error
	ListResumes(ctx context.Context) ([]types.ResumeRecord, error)
	GetResume(ctx context.Context, id string) (types.ResumeRecord, error)
	DeleteResume(ctx context.Context, id string) error

	AddJob(ctx context.Context, rec types.JobDescriptionRecord) error
	ListJobs(ctx context.Context) ([]types.JobDescriptionRecord, error)
	GetJob(ctx context.Context, id string) (types.JobDescriptionRecord, error)
	DeleteJob(ctx context.Context, id string) error

	Close() error
}

// Storage 存储管理器，聚合记录存储、原始文件归档和事件发布
type Storage struct {
	Records RecordStore
	Archive ObjectArchive
	Events  EventPublisher
}

// NewStorage 按配置创建存储管理器。
// 记录存储驱动初始化失败时返回错误；MinIO 和 RabbitMQ 是可选组件，初始化失败只记录告警并使用空实现。
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	records, err := NewRecordStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s := &Storage{Records: records, Archive: NoopArchive{}, Events: NoopPublisher{}}

	if cfg.MinIO.Endpoint != "" {
		archive, err := NewMinIO(ctx, &cfg.MinIO)
		if err != nil {
			logger.Warn().Err(err).Str("endpoint", cfg.MinIO.Endpoint).Msg("初始化MinIO失败，原始文件将不归档")
		} else {
			s.Archive = archive
			logger.Info().Str("bucket", cfg.MinIO.BucketName).Msg("MinIO客户端初始化成功")
		}
	}

	if cfg.RabbitMQ.URL != "" {
		mq, err := NewRabbitMQ(&cfg.RabbitMQ)
		if err != nil {
			logger.Warn().Err(err).Msg("初始化RabbitMQ失败，领域事件将不发布")
		} else {
			s.Events = mq
			logger.Info().Str("exchange", cfg.RabbitMQ.EventExchange).Msg("RabbitMQ事件发布器初始化成功")
		}
	}

	return s, nil
}

// NewRecordStore 按 storage.driver 创建记录存储
func NewRecordStore(ctx context.Context, cfg *config.Config) (RecordStore, error) {
	switch cfg.Storage.Driver {
	case DriverMemory, "":
		logger.Info().Str("driver", DriverMemory).Msg("使用内存记录存储")
		return NewMemoryStore(), nil
	case DriverRedis:
		store, err := NewRedisStore(ctx, &cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("初始化Redis记录存储失败: %w", err)
		}
		logger.Info().Str("driver", DriverRedis).Str("address", cfg.Redis.Address).Msg("使用Redis记录存储")
		return store, nil
	case DriverMySQL:
		store, err := NewMySQLStore(&cfg.MySQL)
		if err != nil {
			return nil, fmt.Errorf("初始化MySQL记录存储失败: %w", err)
		}
		logger.Info().Str("driver", DriverMySQL).Str("host", cfg.MySQL.Host).Msg("使用MySQL记录存储")
		return store, nil
	default:
		return nil, fmt.Errorf("未知的存储驱动: %q", cfg.Storage.Driver)
	}
}

// Close 关闭所有连接
func (s *Storage) Close() {
	if s.Events != nil {
		if err := s.Events.Close(); err != nil {
			logger.Error().Err(err).Msg("关闭RabbitMQ连接失败")
		}
	}
	if s.Records != nil {
		if err := s.Records.Close(); err != nil {
			logger.Error().Err(err).Msg("关闭记录存储失败")
		}
	}
}
