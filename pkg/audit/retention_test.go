package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestNewRetentionWorker(t *testing.T) {
	w := NewRetentionWorker(nil, 30, nil)
	require.NotNil(t, w)
	assert.Equal(t, 30*24*time.Hour, w.retention)
	assert.Equal(t, 24*time.Hour, w.interval)
}

func TestRetentionWorkerDisabledReturns(t *testing.T) {
	done := make(chan struct{})
	go func() {
		NewRetentionWorker(nil, 30, nil).Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled worker did not return")
	}
}

func TestRetentionWorkerCleanup(t *testing.T) {
	s := setupTestStore(t)
	now := time.Now().UTC()
	appendAt(t, s, "old", "doc-1", now.Add(-31*24*time.Hour))
	appendAt(t, s, "new", "doc-1", now.Add(-time.Hour))

	w := NewRetentionWorker(s, 30, nil)
	assert.Equal(t, int64(1), w.cleanup(context.Background(), now))
}

func TestRetentionWorkerStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t,
		goleak.IgnoreCurrent(),
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))

	s := setupTestStore(t)
	appendAt(t, s, "old", "doc-1", time.Now().UTC().Add(-40*24*time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewRetentionWorker(s, 30, nil).Run(ctx)
		close(done)
	}()

	// The first sweep runs immediately on start.
	require.Eventually(t, func() bool {
		ev, err := s.Get(context.Background(), "old")
		return err == nil && ev == nil
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
