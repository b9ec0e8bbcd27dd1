package recommendations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is returned when a recommendation does not exist.
	ErrNotFound = errors.New("recommendation not found")
	// ErrInvalidTransition is returned for a disallowed status change.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrSuppressed is returned when updating a suppressed recommendation.
	ErrSuppressed = errors.New("recommendation is suppressed")
	// ErrInvalidRecommendation is returned when a manual recommendation is
	// missing required fields.
	ErrInvalidRecommendation = errors.New("invalid recommendation")
)

// Store provides database operations for recommendations.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore creates a new Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// AutoMigrate creates or updates the recommendation tables.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(&Recommendation{}, &Template{})
}

// ListFilter narrows ListByDocument.
type ListFilter struct {
	Status            Status
	Source            Source
	IncludeSuppressed bool
}

// FindActive returns the non-suppressed auto recommendation holding the
// given identity, or nil when none exists.
func (s *Store) FindActive(ctx context.Context, id Identity) (*Recommendation, error) {
	var rec Recommendation
	err := s.db.WithContext(ctx).
		Where("identity_key = ? AND suppressed_at IS NULL", id.Key()).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active recommendation: %w", err)
	}
	return &rec, nil
}

// CreateAuto inserts an auto recommendation for rec's identity. When another
// writer already holds the identity the existing row is returned and created
// is false. Safe for concurrent use: the unique index on identity_key is the
// arbiter.
func (s *Store) CreateAuto(ctx context.Context, rec *Recommendation) (result *Recommendation, created bool, err error) {
	key := rec.Identity().Key()
	rec.IdentityKey = &key
	rec.Source = SourceAuto
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Status == "" {
		rec.Status = StatusOpen
	}

	db := s.db.WithContext(ctx)
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identity_key"}},
		DoNothing: true,
	}).Create(rec)
	if res.Error != nil {
		return nil, false, fmt.Errorf("create recommendation: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return rec, true, nil
	}

	var existing Recommendation
	if err := db.Where("identity_key = ?", key).First(&existing).Error; err != nil {
		return nil, false, fmt.Errorf("load conflicting recommendation: %w", err)
	}
	return &existing, false, nil
}

// CreateManual inserts an author-written recommendation. Manual rows carry no
// identity and are never deduplicated.
func (s *Store) CreateManual(ctx context.Context, rec *Recommendation) (*Recommendation, error) {
	if rec.DocumentID == "" || rec.Title == "" {
		return nil, fmt.Errorf("%w: documentId and title are required", ErrInvalidRecommendation)
	}
	if rec.Priority == "" {
		rec.Priority = PriorityMedium
	}
	if !rec.Priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidRecommendation, rec.Priority)
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.Source = SourceManual
	rec.IdentityKey = nil
	if rec.Status == "" {
		rec.Status = StatusOpen
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, fmt.Errorf("create manual recommendation: %w", err)
	}
	return rec, nil
}

// Get retrieves a recommendation by ID.
func (s *Store) Get(ctx context.Context, id string) (*Recommendation, error) {
	var rec Recommendation
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get recommendation: %w", err)
	}
	return &rec, nil
}

// ListByDocument returns a document's recommendations oldest first.
func (s *Store) ListByDocument(ctx context.Context, documentID string, filter ListFilter) ([]Recommendation, error) {
	q := s.db.WithContext(ctx).Model(&Recommendation{}).Where("document_id = ?", documentID)
	if !filter.IncludeSuppressed {
		q = q.Where("suppressed_at IS NULL")
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Source != "" {
		q = q.Where("source = ?", filter.Source)
	}

	var records []Recommendation
	if err := q.Order("created_at ASC").Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	return records, nil
}

// ListOpen returns a document's non-suppressed recommendations that still
// need action.
func (s *Store) ListOpen(ctx context.Context, documentID string) ([]Recommendation, error) {
	var records []Recommendation
	err := s.db.WithContext(ctx).
		Where("document_id = ? AND suppressed_at IS NULL AND status IN ?",
			documentID, []Status{StatusOpen, StatusInProgress}).
		Order("created_at ASC").Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list open recommendations: %w", err)
	}
	return records, nil
}

// UpdateStatus moves a recommendation to a new status.
func (s *Store) UpdateStatus(ctx context.Context, id string, to Status) (*Recommendation, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}

	var out *Recommendation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec Recommendation
		if err := tx.First(&rec, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load recommendation: %w", err)
		}
		if rec.Suppressed() {
			return ErrSuppressed
		}
		if rec.Status == to {
			out = &rec
			return nil
		}
		if !CanTransition(rec.Status, to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, rec.Status, to)
		}

		res := tx.Model(&Recommendation{}).
			Where("id = ? AND status = ?", id, rec.Status).
			Updates(map[string]any{"status": to, "updated_at": s.now()})
		if res.Error != nil {
			return fmt.Errorf("update status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: status changed concurrently", ErrInvalidTransition)
		}
		rec.Status = to
		out = &rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Suppress hides a recommendation and releases its identity so that a later
// inadequate rating can generate a fresh one. Suppressing twice is a no-op.
func (s *Store) Suppress(ctx context.Context, id string) (*Recommendation, error) {
	now := s.now()
	res := s.db.WithContext(ctx).Model(&Recommendation{}).
		Where("id = ? AND suppressed_at IS NULL", id).
		Updates(map[string]any{
			"suppressed_at": now,
			"identity_key":  nil,
			"updated_at":    now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("suppress recommendation: %w", res.Error)
	}
	return s.Get(ctx, id)
}
