package triggers

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firesurvey/risk-engine/pkg/scoring"
	"github.com/firesurvey/risk-engine/pkg/weighting"
)

func descriptorIDs(ds []Descriptor) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.ID
	}
	return out
}

func TestEvaluateBuildingIdentifiers(t *testing.T) {
	b := scoring.Building{
		ID: "B1",
		Factors: scoring.BuildingFactors{
			Sprinklers:        1,
			Detection:         2,
			SprinklerCoverage: scoring.Coverage{Required: pct(100), Provided: pct(90)},
		},
	}
	got := EvaluateBuilding(b)

	assert.Equal(t, []string{
		"building:B1:sprinklers_inadequate",
		"building:B1:sprinklers_coverage_gap",
		"building:B1:detection_inadequate",
	}, descriptorIDs(got))

	assert.Equal(t, PriorityHigh, got[0].Priority)
	assert.Equal(t, weighting.FireProtection, got[0].Category)
	assert.Equal(t, PriorityMedium, got[1].Priority)
	assert.InDelta(t, 10, got[1].Gap, 1e-9)
	assert.Equal(t, weighting.DetectionAndAlarm, got[2].Category)
	assert.Equal(t, scoring.Rating(2), got[2].Rating)
}

func TestEvaluateBuildingIsDeterministic(t *testing.T) {
	b := scoring.Building{ID: "B7", Factors: scoring.BuildingFactors{
		WaterMist:         2,
		DetectionCoverage: scoring.Coverage{Required: pct(100), Provided: pct(50)},
	}}
	assert.Equal(t, EvaluateBuilding(b), EvaluateBuilding(b))
}

func TestSecondarySuppressedWhenPrimaryFires(t *testing.T) {
	b := scoring.Building{ID: "B1", Factors: scoring.BuildingFactors{
		Sprinklers:        2,
		WaterMist:         1,
		SprinklerCoverage: scoring.Coverage{Required: pct(80), Provided: pct(40)},
		WaterMistCoverage: scoring.Coverage{Required: pct(80), Provided: pct(10)},
	}}
	got := EvaluateBuilding(b)

	require.Len(t, got, 2)
	assert.Equal(t, Sprinklers, got[0].Subsystem)
	assert.Equal(t, FamilyInadequate, got[0].Family)
	assert.Equal(t, Sprinklers, got[1].Subsystem)
	assert.Equal(t, FamilyCoverage, got[1].Family)
}

func TestSecondaryFiresWhenPrimaryIsFine(t *testing.T) {
	b := scoring.Building{ID: "B1", Factors: scoring.BuildingFactors{
		Sprinklers: 4,
		WaterMist:  1,
	}}
	got := EvaluateBuilding(b)

	require.Len(t, got, 1)
	assert.Equal(t, "building:B1:water_mist_inadequate", got[0].ID)
	assert.Equal(t, PriorityHigh, got[0].Priority)
}

func TestEvaluateNothingToReport(t *testing.T) {
	b := scoring.Building{ID: "B1", Factors: scoring.BuildingFactors{Sprinklers: 3, Detection: 5}}
	assert.Empty(t, EvaluateBuilding(b))
	assert.Empty(t, EvaluateBuilding(scoring.Building{ID: "empty"}), "absent ratings never trigger")
}

func TestEvaluateSite(t *testing.T) {
	got := EvaluateSite(scoring.SiteFactors{WaterSupplyRating: 1})
	require.Len(t, got, 1)
	assert.Equal(t, "site:water_supply_inadequate", got[0].ID)
	assert.Empty(t, got[0].BuildingID)
	assert.Equal(t, ScopeSite, got[0].Scope)

	assert.Empty(t, EvaluateSite(scoring.SiteFactors{WaterSupplyRating: 3}))
}

func TestEvaluateDeduplicatesAcrossBuildings(t *testing.T) {
	dup := scoring.Building{ID: "B1", Factors: scoring.BuildingFactors{Detection: 1}}
	other := scoring.Building{ID: "B2", Factors: scoring.BuildingFactors{Detection: 1}}

	got := Evaluate([]scoring.Building{dup, other, dup}, scoring.SiteFactors{WaterSupplyRating: 2})
	assert.Equal(t, []string{
		"building:B1:detection_inadequate",
		"building:B2:detection_inadequate",
		"site:water_supply_inadequate",
	}, descriptorIDs(got))
}

func TestEvaluateSiteDescriptor(t *testing.T) {
	want := []Descriptor{{
		ID:        "site:water_supply_inadequate",
		Scope:     ScopeSite,
		Category:  weighting.WaterSupply,
		Subsystem: WaterSupply,
		Family:    FamilyInadequate,
		Code:      "water_supply_inadequate",
		Priority:  PriorityHigh,
		Rating:    1,
		Title:     "Improve fire-fighting water supply",
		Detail:    "Fire-fighting water supply was rated 1/5 for the site, which is below an acceptable standard.",
	}}
	got := EvaluateSite(scoring.SiteFactors{WaterSupplyRating: 1})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("EvaluateSite mismatch (-want +got):\n%s", diff)
	}
}
