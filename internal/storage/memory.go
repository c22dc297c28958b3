package storage

import (
	"context"
	"fmt"
	"sync"

	"resume-matcher-go/internal/types"
)

// memoryCollection 按插入顺序保存记录
type memoryCollection[T any] struct {
	order []string
	items map[string]T
}

func newMemoryCollection[T any]() *memoryCollection[T] {
	return &memoryCollection[T]{items: make(map[string]T)}
}

func (c *memoryCollection[T]) add(id string, rec T) error {
	if _, exists := c.items[id]; exists {
		return fmt.Errorf("记录已存在: %s", id)
	}
	c.items[id] = rec
	c.order = append(c.order, id)
	return nil
}

func (c *memoryCollection[T]) list() []T {
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}

func (c *memoryCollection[T]) get(id string) (T, bool) {
	rec, ok := c.items[id]
	return rec, ok
}

func (c *memoryCollection[T]) remove(id string) bool {
	if _, ok := c.items[id]; !ok {
		return false
	}
	delete(c.items, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// MemoryStore 进程内记录存储，重启后数据丢失
type MemoryStore struct {
	mu      sync.RWMutex
	resumes *memoryCollection[types.ResumeRecord]
	jobs    *memoryCollection[types.JobDescriptionRecord]
}

var _ RecordStore = (*MemoryStore)(nil)

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		resumes: newMemoryCollection[types.ResumeRecord](),
		jobs:    newMemoryCollection[types.JobDescriptionRecord](),
	}
}

// AddResume 追加简历
func (m *MemoryStore) AddResume(_ context.Context, rec types.ResumeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resumes.add(rec.ID, cloneResume(rec))
}

// ListResumes 返回简历快照
func (m *MemoryStore) ListResumes(_ context.Context) ([]types.ResumeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.resumes.list()
	for i := range out {
		out[i] = cloneResume(out[i])
	}
	return out, nil
}

// GetResume 按ID获取简历
func (m *MemoryStore) GetResume(_ context.Context, id string) (types.ResumeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.resumes.get(id)
	if !ok {
		return types.ResumeRecord{}, ErrNotFound
	}
	return cloneResume(rec), nil
}

// DeleteResume 删除简历
func (m *MemoryStore) DeleteResume(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.resumes.remove(id) {
		return ErrNotFound
	}
	return nil
}

// AddJob 追加JD
func (m *MemoryStore) AddJob(_ context.Context, rec types.JobDescriptionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs.add(rec.ID, cloneJob(rec))
}

// ListJobs 返回JD快照
func (m *MemoryStore) ListJobs(_ context.Context) ([]types.JobDescriptionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.jobs.list()
	for i := range out {
		out[i] = cloneJob(out[i])
	}
	return out, nil
}

// GetJob 按ID获取JD
func (m *MemoryStore) GetJob(_ context.Context, id string) (types.JobDescriptionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.jobs.get(id)
	if !ok {
		return types.JobDescriptionRecord{}, ErrNotFound
	}
	return cloneJob(rec), nil
}

// DeleteJob 删除JD
func (m *MemoryStore) DeleteJob(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.jobs.remove(id) {
		return ErrNotFound
	}
	return nil
}

// Close 无操作
func (m *MemoryStore) Close() error { return nil }

// Skills 深拷贝，调用方不能通过快照修改存储
func cloneResume(rec types.ResumeRecord) types.ResumeRecord {
	rec.Skills = cloneSkills(rec.Skills)
	return rec
}

func cloneJob(rec types.JobDescriptionRecord) types.JobDescriptionRecord {
	rec.Skills = cloneSkills(rec.Skills)
	return rec
}

func cloneSkills(skills []string) []string {
	out := make([]string, len(skills))
	copy(out, skills)
	return out
}
