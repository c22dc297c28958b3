package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-matcher-go/internal/config"
	"resume-matcher-go/internal/constants"
	"resume-matcher-go/internal/logger"
	"resume-matcher-go/internal/tracing"
)

var minioTracer = otel.Tracer("resume-matcher/storage/minio")

// ObjectArchive 原始简历文件归档
type ObjectArchive interface {
	// PutOriginal 保存原始文件，返回对象键
	PutOriginal(ctx context.Context, resumeID, format string, data []byte) (string, error)
	// Delete 删除对象，key 为空时不做任何事
	Delete(ctx context.Context, key string) error
}

// NoopArchive 未配置对象存储时使用，不保存任何内容
type NoopArchive struct{}

// PutOriginal 返回空对象键
func (NoopArchive) PutOriginal(context.Context, string, string, []byte) (string, error) {
	return "", nil
}

// Delete 无操作
func (NoopArchive) Delete(context.Context, string) error { return nil }

// MinIO 基于 MinIO 的原始文件归档
type MinIO struct {
	client *minio.Client
	bucket string
}

var _ ObjectArchive = (*MinIO)(nil)

// NewMinIO 创建MinIO客户端并确保存储桶存在
func NewMinIO(ctx context.Context, cfg *config.MinIOConfig) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("MinIO存储桶名称不能为空")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	m := &MinIO{client: client, bucket: cfg.BucketName}
	if err := m.ensureBucketExists(ctx, cfg.Location); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MinIO) ensureBucketExists(ctx context.Context, location string) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", m.bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: location}); err != nil {
		return fmt.Errorf("创建存储桶 %s 失败: %w", m.bucket, err)
	}
	logger.Info().Str("bucket", m.bucket).Msg("MinIO存储桶已创建")
	return nil
}

// PutOriginal 上传原始简历文件，对象键为 resume/{resumeID}/original.{format}
func (m *MinIO) PutOriginal(ctx context.Context, resumeID, format string, data []byte) (string, error) {
	format = strings.TrimPrefix(strings.ToLower(format), ".")
	key := ArchiveKey(resumeID, format)

	ctx, span := minioTracer.Start(ctx, "minio.put_original", trace.WithAttributes(
		attribute.String("resume.id", resumeID),
		attribute.String("minio.object_key", key),
		attribute.Int("file.size", len(data)),
	))
	defer span.End()

	sum := md5.Sum(data)
	info, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentTypeOf(format),
		UserMetadata: map[string]string{"md5": hex.EncodeToString(sum[:])},
	})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExternal)
		return "", fmt.Errorf("上传对象 %s/%s 失败: %w", m.bucket, key, err)
	}

	logger.Debug().Str("key", key).Str("etag", info.ETag).Int64("size", info.Size).Msg("原始简历已归档")
	return key, nil
}

// Delete 删除归档对象
func (m *MinIO) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("删除对象 %s 失败: %w", key, err)
	}
	return nil
}

// ArchiveKey 原始简历的对象键
func ArchiveKey(resumeID, format string) string {
	return fmt.Sprintf(constants.ArchiveObjectFormat, resumeID, format)
}

func contentTypeOf(format string) string {
	if ct, ok := constants.ContentTypes[format]; ok {
		return ct
	}
	return "application/octet-stream"
}
