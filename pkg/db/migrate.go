package db

import (
	"context"
	"fmt"
	"hash/crc32"
	"os"
	"time"

	"gorm.io/gorm"
)

const lockName = "risk-engine-migration"

// Locker serializes schema migration so that replicas starting together do
// not run AutoMigrate concurrently.
type Locker interface {
	// WithLock runs fn while holding the lock.
	WithLock(ctx context.Context, fn func() error) error
}

// NewLocker returns the lock suited to the database: an advisory lock on
// postgres and a lock table elsewhere. A nil db or disabled locking runs fn
// unguarded.
func NewLocker(gdb *gorm.DB, enabled bool) (Locker, error) {
	if gdb == nil || !enabled {
		return noopLock{}, nil
	}
	if gdb.Dialector.Name() == TypePostgres {
		return &advisoryLock{
			db:     gdb,
			lockID: int64(crc32.ChecksumIEEE([]byte(lockName))),
		}, nil
	}
	if err := gdb.AutoMigrate(&lockRecord{}); err != nil {
		return nil, fmt.Errorf("create migration lock table: %w", err)
	}
	return &tableLock{
		db:           gdb,
		retries:      30,
		retryBackoff: time.Second,
		staleAfter:   5 * time.Minute,
	}, nil
}

// Migrate applies AutoMigrate for models under the lock.
func Migrate(ctx context.Context, gdb *gorm.DB, locker Locker, models ...any) error {
	return locker.WithLock(ctx, func() error {
		if err := gdb.WithContext(ctx).AutoMigrate(models...); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	})
}

type noopLock struct{}

func (noopLock) WithLock(_ context.Context, fn func() error) error { return fn() }

type advisoryLock struct {
	db     *gorm.DB
	lockID int64
}

// WithLock holds one pooled connection for the whole critical section.
// Advisory locks belong to a session, so unlocking from another connection
// would silently fail.
func (l *advisoryLock) WithLock(ctx context.Context, fn func() error) error {
	return l.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		if err := conn.Exec("SELECT pg_advisory_lock(?)", l.lockID).Error; err != nil {
			return fmt.Errorf("acquire migration advisory lock: %w", err)
		}
		defer func() {
			_ = conn.Exec("SELECT pg_advisory_unlock(?)", l.lockID).Error
		}()
		return fn()
	})
}

// lockRecord is the single row held while a migration runs.
type lockRecord struct {
	ID       string    `gorm:"primaryKey;column:id"`
	LockedAt time.Time `gorm:"column:locked_at"`
	LockedBy string    `gorm:"column:locked_by"`
}

func (lockRecord) TableName() string { return "migration_lock" }

// tableLock relies on the primary key rejecting a second insert. Rows older
// than staleAfter belong to crashed holders and are removed.
type tableLock struct {
	db           *gorm.DB
	retries      int
	retryBackoff time.Duration
	staleAfter   time.Duration
}

func (l *tableLock) WithLock(ctx context.Context, fn func() error) error {
	holder, _ := os.Hostname()
	if holder == "" {
		holder = "unknown"
	}

	var lastErr error
	for i := 0; i < l.retries; i++ {
		l.db.WithContext(ctx).
			Where("id = ? AND locked_at < ?", lockName, time.Now().Add(-l.staleAfter)).
			Delete(&lockRecord{})

		row := lockRecord{ID: lockName, LockedAt: time.Now(), LockedBy: holder}
		if lastErr = l.db.WithContext(ctx).Create(&row).Error; lastErr == nil {
			defer l.db.Where("id = ?", lockName).Delete(&lockRecord{})
			return fn()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.retryBackoff):
		}
	}
	return fmt.Errorf("acquire migration lock after %d attempts: %w", l.retries, lastErr)
}
