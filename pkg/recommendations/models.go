package recommendations

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/firesurvey/risk-engine/pkg/executive"
)

// Priority band stored on a recommendation.
type Priority string

const (
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
	PriorityAdvisory Priority = "Advisory"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow, PriorityAdvisory:
		return true
	}
	return false
}

// Band maps the stored priority onto the executive P1..P4 scale.
func (p Priority) Band() executive.Priority {
	switch p {
	case PriorityHigh:
		return executive.P1
	case PriorityMedium:
		return executive.P2
	case PriorityLow:
		return executive.P3
	default:
		return executive.P4
	}
}

// Status is the workflow status of a recommendation.
type Status string

const (
	StatusOpen          Status = "open"
	StatusInProgress    Status = "in_progress"
	StatusComplete      Status = "complete"
	StatusDeferred      Status = "deferred"
	StatusNotApplicable Status = "not_applicable"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// transitions lists the statuses reachable from each status.
var transitions = map[Status][]Status{
	StatusOpen:          {StatusInProgress, StatusComplete, StatusDeferred, StatusNotApplicable},
	StatusInProgress:    {StatusOpen, StatusComplete, StatusDeferred, StatusNotApplicable},
	StatusDeferred:      {StatusOpen, StatusInProgress, StatusNotApplicable},
	StatusNotApplicable: {StatusOpen},
	StatusComplete:      {},
}

// CanTransition reports whether from -> to is an allowed status change.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Source tells auto-generated and manual recommendations apart.
type Source string

const (
	SourceAuto   Source = "auto"
	SourceManual Source = "manual"
)

// Identity is the tuple that identifies at most one auto-generated
// recommendation.
type Identity struct {
	DocumentID string `json:"documentId"`
	ModuleKey  string `json:"moduleKey"`
	FactorKey  string `json:"factorKey"`
	Variant    string `json:"variant,omitempty"`
}

// Key returns a fixed-width digest of the identity suitable for a unique
// index on every supported database.
func (id Identity) Key() string {
	raw, _ := json.Marshal([]string{id.DocumentID, id.ModuleKey, id.FactorKey, id.Variant})
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Recommendation is the GORM model for a remediation item.
type Recommendation struct {
	ID              string     `gorm:"primaryKey;column:id;type:varchar(36)"`
	DocumentID      string     `gorm:"column:document_id;type:varchar(128);index:idx_rec_doc_status,priority:1;not null"`
	SourceModuleKey string     `gorm:"column:source_module_key;type:varchar(128)"`
	SourceFactorKey string     `gorm:"column:source_factor_key;type:varchar(128)"`
	Variant         string     `gorm:"column:variant;type:varchar(255)"`
	IdentityKey     *string    `gorm:"column:identity_key;type:varchar(64);uniqueIndex:idx_rec_identity"`
	Source          Source     `gorm:"column:source;type:varchar(16);not null"`
	TemplateID      *string    `gorm:"column:template_id;type:varchar(36)"`
	Category        string     `gorm:"column:category;type:varchar(64)"`
	Priority        Priority   `gorm:"column:priority;type:varchar(16);not null"`
	Status          Status     `gorm:"column:status;type:varchar(32);index:idx_rec_doc_status,priority:2;not null"`
	Title           string     `gorm:"column:title;not null"`
	Observation     string     `gorm:"column:observation;type:text"`
	ActionRequired  string     `gorm:"column:action_required;type:text"`
	Hazard          string     `gorm:"column:hazard;type:text"`
	TriggerRating   int        `gorm:"column:trigger_rating"`
	TargetDate      *time.Time `gorm:"column:target_date"`
	Owner           string     `gorm:"column:owner"`
	SuppressedAt    *time.Time `gorm:"column:suppressed_at"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

// TableName returns the GORM table name.
func (Recommendation) TableName() string { return "recommendations" }

// Suppressed reports whether the recommendation has been suppressed.
func (r *Recommendation) Suppressed() bool { return r.SuppressedAt != nil }

// Identity returns the source identity of the recommendation.
func (r *Recommendation) Identity() Identity {
	return Identity{
		DocumentID: r.DocumentID,
		ModuleKey:  r.SourceModuleKey,
		FactorKey:  r.SourceFactorKey,
		Variant:    r.Variant,
	}
}

// ToAction converts the record into the shape used by the executive summary.
// The observation doubles as trigger text.
func (r *Recommendation) ToAction() executive.Action {
	cat := executive.Category(r.Category)
	if cat == "" {
		cat = executive.CategoryOther
	}
	return executive.Action{
		ID:          r.ID,
		Title:       r.Title,
		Priority:    r.Priority.Band(),
		Category:    cat,
		TriggerText: r.Observation,
		Status:      executive.Status(r.Status),
	}
}

// Template is a reusable recommendation text with relevance rules. An empty
// rule list on an axis matches everything on that axis.
type Template struct {
	ID             string    `gorm:"primaryKey;column:id;type:varchar(36)"`
	Name           string    `gorm:"column:name;not null"`
	Active         bool      `gorm:"column:active;index:idx_tpl_active;not null"`
	Priority       int       `gorm:"column:priority;not null"`
	ModuleKeys     []string  `gorm:"column:module_keys;serializer:json"`
	FactorKeys     []string  `gorm:"column:factor_keys;serializer:json"`
	IndustryKeys   []string  `gorm:"column:industry_keys;serializer:json"`
	RatingMin      *int      `gorm:"column:rating_min"`
	RatingMax      *int      `gorm:"column:rating_max"`
	Title          string    `gorm:"column:title"`
	Observation    string    `gorm:"column:observation;type:text"`
	ActionRequired string    `gorm:"column:action_required;type:text"`
	Hazard         string    `gorm:"column:hazard;type:text"`
	Source         string    `gorm:"column:source;index:idx_tpl_source;type:varchar(512)"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

// TableName returns the GORM table name.
func (Template) TableName() string { return "recommendation_templates" }
