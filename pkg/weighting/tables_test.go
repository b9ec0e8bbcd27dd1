package weighting

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTablesLoad(t *testing.T) {
	tables, err := DefaultTables()
	require.NoError(t, err)
	assert.NotEmpty(t, tables.Version())
}

func TestFactorWeight(t *testing.T) {
	tables, err := DefaultTables()
	require.NoError(t, err)

	tests := []struct {
		name     string
		industry string
		factor   Factor
		want     float64
	}{
		{"known industry and factor", "chemical_processing", OccupancyHazards, 2.0},
		{"known industry, unweighted factor", "chemical_processing", MeansOfEscape, DefaultWeight},
		{"unknown industry", "space_mining", OccupancyHazards, DefaultWeight},
		{"unknown factor", "office", Factor("vibes"), DefaultWeight},
		{"empty keys", "", "", DefaultWeight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tables.FactorWeight(tt.industry, tt.factor))
		})
	}
}

func TestEnabledFactors(t *testing.T) {
	tables, err := DefaultTables()
	require.NoError(t, err)

	office := tables.EnabledFactors("office")
	assert.True(t, office.Contains(Utilities))
	assert.False(t, office.Contains(WaterSupply))
	assert.False(t, office.Contains(Construction), "global factors are not part of the lookup")

	fallback := tables.EnabledFactors("submarine")
	assert.ElementsMatch(t, []Factor{DetectionAndAlarm, MeansOfEscape}, fallback.ToSlice())

	// Callers get a copy.
	office.Add(WaterSupply)
	assert.False(t, tables.EnabledFactors("office").Contains(WaterSupply))
}

func TestIsFactorEnabledIncludesGlobals(t *testing.T) {
	tables, err := DefaultTables()
	require.NoError(t, err)

	for _, g := range GlobalFactors() {
		assert.True(t, tables.IsFactorEnabled("office", g))
		assert.True(t, tables.IsFactorEnabled("unknown", g))
	}
	assert.False(t, tables.IsFactorEnabled("care_home", Utilities))
	assert.True(t, tables.IsFactorEnabled("care_home", Compartmentation))
}

func TestLoadTablesValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown factor weight", "industries:\n  office:\n    vibes: 1.0\ndefaultEnabled: [means_of_escape]\n"},
		{"zero weight", "industries:\n  office:\n    utilities: 0\ndefaultEnabled: [means_of_escape]\n"},
		{"negative weight", "industries:\n  office:\n    utilities: -2\ndefaultEnabled: [means_of_escape]\n"},
		{"unknown occupancy factor", "occupancies:\n  office: [vibes]\ndefaultEnabled: [means_of_escape]\n"},
		{"global factor listed", "occupancies:\n  office: [construction]\ndefaultEnabled: [means_of_escape]\n"},
		{"empty default set", "industries: {}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTables(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTable), "got %v", err)
		})
	}
}

func TestLookupFactor(t *testing.T) {
	info, ok := LookupFactor("detection_and_alarm")
	require.True(t, ok)
	assert.Equal(t, "DetectionAlarm", info.Category)
	assert.Equal(t, "Fire detection and alarm", DetectionAndAlarm.Label())

	_, ok = LookupFactor("nope")
	assert.False(t, ok)
	assert.Equal(t, "nope", Factor("nope").Label())
	assert.Len(t, Factors(), 10)
}
