package storage

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Event 发布到事件 exchange 的消息体
type Event struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"` // 与路由键一致
	OccurredAt time.Time `json:"occurred_at"`

	ResumeID         string `json:"resume_id,omitempty"`
	JobDescriptionID string `json:"job_description_id,omitempty"`
	FileName         string `json:"file_name,omitempty"`
	ArchiveKey       string `json:"archive_key,omitempty"`

	// match.completed
	TopK       int      `json:"top_k,omitempty"`
	MatchCount int      `json:"match_count,omitempty"`
	TopResumes []string `json:"top_resumes,omitempty"`
	Strategy   string   `json:"strategy,omitempty"`
}

// NewEvent 创建带 UUIDv7 事件ID的事件
func NewEvent(eventType string) Event {
	id, err := uuid.NewV7()
	eventID := id.String()
	if err != nil {
		eventID = uuid.Must(uuid.NewV4()).String()
	}
	return Event{
		EventID:    eventID,
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
	}
}
