package audit

import "time"

// Outcome values recorded on an event.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeDenied  = "denied"
)

// Event is an immutable record of one mutating API call.
type Event struct {
	ID            string         `gorm:"primaryKey;column:id;type:varchar(36)"`
	CorrelationID string         `gorm:"column:correlation_id;index"`
	Actor         string         `gorm:"column:actor;index:idx_audit_actor_time,priority:1;not null"`
	RequestID     string         `gorm:"column:request_id;index"`
	DocumentID    string         `gorm:"column:document_id;index:idx_audit_doc_time,priority:1"`
	ResourceType  string         `gorm:"column:resource_type"`
	ResourceID    string         `gorm:"column:resource_id;index"`
	Action        string         `gorm:"column:action"`
	Outcome       string         `gorm:"column:outcome;not null"`
	StatusCode    int            `gorm:"column:status_code"`
	Metadata      map[string]any `gorm:"column:metadata;type:text;serializer:json"`
	CreatedAt     time.Time      `gorm:"column:created_at;index:idx_audit_actor_time,priority:2;index:idx_audit_doc_time,priority:2"`
}

// TableName returns the GORM table name.
func (Event) TableName() string { return "audit_events" }
