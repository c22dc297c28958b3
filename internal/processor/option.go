package processor

import (
	"resume-matcher-go/internal/metrics"
	"resume-matcher-go/internal/storage"
)

// Components 处理器依赖的组件
type Components struct {
	Store   storage.RecordStore
	Archive storage.ObjectArchive
	Events  storage.EventPublisher
	Text    TextExtractor
	Fields  FieldExtractor
	Ranker  Ranker
	Metrics *metrics.Metrics
}

// Settings 处理器设置
type Settings struct {
	DefaultTopK         int
	DefaultMatchAllTopK int
	MaxUploadBytes      int64
	// RequestedStrategy 配置中请求的策略名
	RequestedStrategy string
	// ActiveStrategy 实际生效的策略名
	ActiveStrategy string
}

// ComponentOpt 组件选项，仅改变 Components 结构体内的字段
type ComponentOpt func(*Components)

// SettingOpt 设置选项，仅改变 Settings 结构体内的字段
type SettingOpt func(*Settings)

// WithStorage 使用存储管理器中的记录存储、归档和事件发布
func WithStorage(s *storage.Storage) ComponentOpt {
	return func(c *Components) {
		if s == nil {
			return
		}
		c.Store = s.Records
		if s.Archive != nil {
			c.Archive = s.Archive
		}
		if s.Events != nil {
			c.Events = s.Events
		}
	}
}

// WithRecordStore 设置记录存储
func WithRecordStore(store storage.RecordStore) ComponentOpt {
	return func(c *Components) { c.Store = store }
}

// WithArchive 设置原始文件归档
func WithArchive(archive storage.ObjectArchive) ComponentOpt {
	return func(c *Components) { c.Archive = archive }
}

// WithEvents 设置事件发布器
func WithEvents(events storage.EventPublisher) ComponentOpt {
	return func(c *Components) { c.Events = events }
}

// WithTextExtractor 设置文件文本提取器
func WithTextExtractor(ex TextExtractor) ComponentOpt {
	return func(c *Components) { c.Text = ex }
}

// WithFieldExtractor 设置字段提取器
func WithFieldExtractor(ex FieldExtractor) ComponentOpt {
	return func(c *Components) { c.Fields = ex }
}

// WithRanker 设置排序器
func WithRanker(r Ranker) ComponentOpt {
	return func(c *Components) { c.Ranker = r }
}

// WithMetrics 设置 Prometheus 指标
func WithMetrics(m *metrics.Metrics) ComponentOpt {
	return func(c *Components) { c.Metrics = m }
}

// WithDefaultTopK 设置单 JD 匹配的默认 top_k
func WithDefaultTopK(k int) SettingOpt {
	return func(s *Settings) { s.DefaultTopK = k }
}

// WithDefaultMatchAllTopK 设置全量匹配的默认 top_k
func WithDefaultMatchAllTopK(k int) SettingOpt {
	return func(s *Settings) { s.DefaultMatchAllTopK = k }
}

// WithMaxUploadBytes 设置上传文件大小上限，0 表示不限制
func WithMaxUploadBytes(n int64) SettingOpt {
	return func(s *Settings) { s.MaxUploadBytes = n }
}

// WithStrategyNames 设置请求与生效的策略名，用于统计输出
func WithStrategyNames(requested, active string) SettingOpt {
	return func(s *Settings) {
		s.RequestedStrategy = requested
		s.ActiveStrategy = active
	}
}
