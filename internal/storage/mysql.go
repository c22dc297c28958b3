package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"resume-matcher-go/internal/config"
	"resume-matcher-go/internal/logger"
	"resume-matcher-go/internal/storage/models"
	"resume-matcher-go/internal/types"
)

var mysqlTracer = otel.Tracer("resume-matcher/storage/mysql")

type gormSpanKey struct{}

// GormTracingPlugin 为 GORM 的增删查操作创建 OpenTelemetry span
type GormTracingPlugin struct {
	tracer trace.Tracer
	dbName string
}

// NewGormTracingPlugin 创建追踪插件
func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{tracer: mysqlTracer, dbName: dbName}
}

// Name 插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 注册回调
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Create().Before("gorm:create").Register("otel:before_create", p.before("INSERT")); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("otel:after_create", p.after); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("otel:before_query", p.before("SELECT")); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("otel:after_query", p.after); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("otel:before_delete", p.before("DELETE")); err != nil {
		return err
	}
	return cb.Delete().After("gorm:delete").Register("otel:after_delete", p.after)
}

func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}
		ctx, span := p.tracer.Start(ctx, operation+" "+table,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", table),
			))
		db.Statement.Context = context.WithValue(ctx, gormSpanKey{}, span)
	}
}

func (p *GormTracingPlugin) after(db *gorm.DB) {
	span, ok := db.Statement.Context.Value(gormSpanKey{}).(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.RecordError(db.Error)
		span.SetStatus(codes.Error, db.Error.Error())
	}
}

// MySQLStore 基于 MySQL 的记录存储
type MySQLStore struct {
	db *gorm.DB
}

var _ RecordStore = (*MySQLStore)(nil)

// NewMySQLStore 连接 MySQL、注册追踪插件并迁移表结构
func NewMySQLStore(cfg *config.MySQLConfig) (*MySQLStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	db, err := gorm.Open(mysql.Open(cfg.MySQLDSN()), &gorm.Config{
		Logger:      gormlogger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}

	if err := db.Use(NewGormTracingPlugin(cfg.Database)); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	silent := db.Session(&gorm.Session{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err := silent.AutoMigrate(&models.Resume{}, &models.JobDescription{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	logger.Info().Str("database", cfg.Database).Msg("成功连接到MySQL并完成表结构迁移")
	return &MySQLStore{db: db}, nil
}

func gormLogLevel(level int) gormlogger.LogLevel {
	switch level {
	case 1:
		return gormlogger.Silent
	case 2:
		return gormlogger.Error
	case 3:
		return gormlogger.Warn
	case 4:
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

// AddResume 追加简历
func (s *MySQLStore) AddResume(ctx context.Context, rec types.ResumeRecord) error {
	row, err := models.FromResumeRecord(rec)
	if err != nil {
		return fmt.Errorf("序列化简历技能失败: %w", err)
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("写入简历失败: %w", err)
	}
	return nil
}

// ListResumes 按创建顺序列出简历
func (s *MySQLStore) ListResumes(ctx context.Context) ([]types.ResumeRecord, error) {
	var rows []models.Resume
	if err := s.db.WithContext(ctx).Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询简历失败: %w", err)
	}
	out := make([]types.ResumeRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.ToRecord()
		if err != nil {
			return nil, fmt.Errorf("解析简历 %s 失败: %w", row.ResumeID, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// GetResume 按ID获取简历
func (s *MySQLStore) GetResume(ctx context.Context, id string) (types.ResumeRecord, error) {
	var row models.Resume
	err := s.db.WithContext(ctx).Where("resume_id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.ResumeRecord{}, ErrNotFound
	}
	if err != nil {
		return types.ResumeRecord{}, fmt.Errorf("查询简历失败: %w", err)
	}
	return row.ToRecord()
}

// DeleteResume 删除简历
func (s *MySQLStore) DeleteResume(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("resume_id = ?", id).Delete(&models.Resume{})
	if res.Error != nil {
		return fmt.Errorf("删除简历失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddJob 追加JD
func (s *MySQLStore) AddJob(ctx context.Context, rec types.JobDescriptionRecord) error {
	row, err := models.FromJobRecord(rec)
	if err != nil {
		return fmt.Errorf("序列化JD技能失败: %w", err)
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("写入JD失败: %w", err)
	}
	return nil
}

// ListJobs 按创建顺序列出JD
func (s *MySQLStore) ListJobs(ctx context.Context) ([]types.JobDescriptionRecord, error) {
	var rows []models.JobDescription
	if err := s.db.WithContext(ctx).Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询JD失败: %w", err)
	}
	out := make([]types.JobDescriptionRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.ToRecord()
		if err != nil {
			return nil, fmt.Errorf("解析JD %s 失败: %w", row.JobID, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// GetJob 按ID获取JD
func (s *MySQLStore) GetJob(ctx context.Context, id string) (types.JobDescriptionRecord, error) {
	var row models.JobDescription
	err := s.db.WithContext(ctx).Where("job_id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.JobDescriptionRecord{}, ErrNotFound
	}
	if err != nil {
		return types.JobDescriptionRecord{}, fmt.Errorf("查询JD失败: %w", err)
	}
	return row.ToRecord()
}

// DeleteJob 删除JD
func (s *MySQLStore) DeleteJob(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("job_id = ?", id).Delete(&models.JobDescription{})
	if res.Error != nil {
		return fmt.Errorf("删除JD失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close 关闭数据库连接
func (s *MySQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
