package taxonomy

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconcilePrefersCanonicalRow(t *testing.T) {
	c := loadTestCatalog(t)

	in := []instance{
		{"old_b", "legacy"},
		{"a", "a"},
		{"b", "canonical"},
	}
	got := ReconcileInstances(c, in, []string{"a", "b"}, nil)

	assert.Equal(t, []string{"a", "canonical"}, ids(got))
}

func TestReconcileKeepsLegacyRowWhenAlone(t *testing.T) {
	c := loadTestCatalog(t)

	got := ReconcileInstances(c, []instance{{"old_b", "legacy"}}, []string{"b"}, nil)
	assert.Equal(t, []string{"legacy"}, ids(got))
}

func TestReconcileFirstCanonicalRowWins(t *testing.T) {
	c := loadTestCatalog(t)

	in := []instance{{"b", "first"}, {"b", "second"}, {"old_b", "legacy"}}
	got := ReconcileInstances(c, in, []string{"b"}, nil)
	assert.Equal(t, []string{"first"}, ids(got))
}

func TestReconcileDropsAndLogsUnknownKeys(t *testing.T) {
	c := loadTestCatalog(t)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	in := []instance{{"mystery", "m"}, {"a", "a"}, {"c", "c"}}
	got := ReconcileInstances(c, in, []string{"a"}, logger)

	assert.Equal(t, []string{"a"}, ids(got))
	assert.Contains(t, buf.String(), "mystery")
	assert.Contains(t, buf.String(), "dropping module instance")
}
