package scoring

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/firesurvey/risk-engine/pkg/weighting"
)

func f64(v float64) *float64 { return &v }

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{2.5, 3},
		{2.4999, 2},
		{3.4, 3},
		{3.5, 4},
		{1.0, 1},
		{4.5, 5},
		{0.7*3 + 0.3*2, 3}, // 2.7
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundHalfUp(tt.in), "RoundHalfUp(%v)", tt.in)
	}
}

func TestNewRating(t *testing.T) {
	assert.Equal(t, Unknown, NewRating(0))
	assert.Equal(t, Unknown, NewRating(-1))
	assert.Equal(t, Unknown, NewRating(6))
	assert.Equal(t, Rating(3), NewRating(3))
	assert.False(t, Unknown.Known())
	assert.Nil(t, Unknown.Ptr())
	require.NotNil(t, Rating(2).Ptr())
	assert.Equal(t, 2, *Rating(2).Ptr())
}

func TestRatingJSON(t *testing.T) {
	var f BuildingFactors
	require.NoError(t, json.Unmarshal([]byte(`{"sprinklers":4,"waterMist":null,"detection":9}`), &f))
	assert.Equal(t, Rating(4), f.Sprinklers)
	assert.Equal(t, Unknown, f.WaterMist)
	assert.Equal(t, Unknown, f.Detection, "out of range decodes as absent")

	require.NoError(t, json.Unmarshal([]byte(`{"sprinklers":2.5}`), &f))
	assert.Equal(t, Unknown, f.Sprinklers)

	out, err := json.Marshal(struct {
		A Rating `json:"a"`
		B Rating `json:"b"`
	}{A: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":3,"b":null}`, string(out))
}

func TestRatingYAML(t *testing.T) {
	var s SiteFactors
	require.NoError(t, yaml.Unmarshal([]byte("waterSupplyReliability: Unreliable\nwaterSupplyRating: 2\n"), &s))
	assert.Equal(t, Unreliable, s.WaterSupplyReliability)
	assert.Equal(t, Rating(2), s.WaterSupplyRating)
}

func TestComputeBuildingScoreEqualInputs(t *testing.T) {
	for r := MinRating; r <= MaxRating; r++ {
		got, ok := ComputeBuildingScore(BuildingFactors{Sprinklers: r, Detection: r})
		require.True(t, ok)
		assert.Equal(t, r, got, "rating %d", r)
	}
}

func TestComputeBuildingScore(t *testing.T) {
	tests := []struct {
		name    string
		factors BuildingFactors
		want    Rating
		ok      bool
	}{
		{"weighted blend", BuildingFactors{Sprinklers: 4, Detection: 2}, 3, true},
		{"water mist fallback", BuildingFactors{WaterMist: 4, Detection: 2}, 3, true},
		{"sprinklers preferred over water mist", BuildingFactors{Sprinklers: 5, WaterMist: 1, Detection: 5}, 5, true},
		{"suppression only", BuildingFactors{Sprinklers: 2}, 2, true},
		{"detection only", BuildingFactors{Detection: 4}, 4, true},
		{"blend rounds half up", BuildingFactors{Sprinklers: 1, Detection: 5}, 2, true}, // 2.2
		{"nothing rated", BuildingFactors{}, Unknown, false},
		{"out of range ignored", BuildingFactors{Sprinklers: 7}, Unknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ComputeBuildingScore(tt.factors)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeSiteScore(t *testing.T) {
	buildings := []Building{
		{ID: "b1", Factors: BuildingFactors{Sprinklers: 4, Detection: 4}},
		{ID: "b2", Factors: BuildingFactors{Sprinklers: 2, Detection: 2}},
	}
	meta := map[string]BuildingMeta{
		"b1": {FloorArea: f64(100)},
		"b2": {FloorArea: f64(300)},
	}

	got, ok := ComputeSiteScore(buildings, SiteFactors{WaterSupplyReliability: Reliable}, meta)
	require.True(t, ok)
	assert.Equal(t, Rating(3), got, "(4*100+2*300)/400 = 2.5 rounds to 3")

	got, ok = ComputeSiteScore(buildings, SiteFactors{WaterSupplyReliability: Unreliable}, meta)
	require.True(t, ok)
	assert.Equal(t, Rating(3), got)
}

func TestComputeSiteScoreReliabilityCap(t *testing.T) {
	buildings := []Building{{ID: "b1", Factors: BuildingFactors{Sprinklers: 5, Detection: 5}}}
	meta := map[string]BuildingMeta{"b1": {FloorArea: f64(100)}}

	tests := []struct {
		reliability Reliability
		want        Rating
	}{
		{Reliable, 5},
		{ReliabilityUnknown, 4},
		{"", 4},
		{Unreliable, 3},
	}
	for _, tt := range tests {
		t.Run(string(tt.reliability), func(t *testing.T) {
			got, ok := ComputeSiteScore(buildings, SiteFactors{WaterSupplyReliability: tt.reliability}, meta)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeSiteScoreCapNeverRaises(t *testing.T) {
	buildings := []Building{{ID: "b1", Factors: BuildingFactors{Sprinklers: 1, Detection: 1}}}
	got, ok := ComputeSiteScore(buildings, SiteFactors{WaterSupplyReliability: Unreliable}, nil)
	require.True(t, ok)
	assert.Equal(t, Rating(1), got)
}

func TestComputeSiteScoreEqualWeightsAndSkips(t *testing.T) {
	buildings := []Building{
		{ID: "b1", Factors: BuildingFactors{Sprinklers: 5}},
		{ID: "b2", Factors: BuildingFactors{}},
		{ID: "b3", Factors: BuildingFactors{Detection: 2}},
	}
	res := ScoreSite(buildings, SiteFactors{WaterSupplyReliability: Reliable}, map[string]BuildingMeta{
		"b3": {FloorArea: f64(0)},
	})
	require.True(t, res.Scored)
	assert.InDelta(t, 3.5, res.Raw, 1e-9)
	assert.Equal(t, Rating(4), res.Score)
	require.Len(t, res.Buildings, 3)
	assert.False(t, res.Buildings[1].Scored)
	assert.Equal(t, 1.0, res.Buildings[2].Weight, "non-positive floor area falls back to weight 1")
}

func TestComputeSiteScoreNoBuildings(t *testing.T) {
	_, ok := ComputeSiteScore(nil, SiteFactors{}, nil)
	assert.False(t, ok)

	_, ok = ComputeSiteScore([]Building{{ID: "empty"}}, SiteFactors{}, nil)
	assert.False(t, ok)
}

func TestWeightedOverall(t *testing.T) {
	tables, err := weighting.DefaultTables()
	require.NoError(t, err)

	ratings := map[weighting.Factor]Rating{
		weighting.OccupancyHazards: 1,
		weighting.MeansOfEscape:    5,
		weighting.Utilities:        Unknown,
	}

	// chemical_processing weighs occupancy hazards 2.0: (1*2+5*1)/3 = 2.33
	got, ok := WeightedOverall(ratings, "chemical_processing", tables)
	require.True(t, ok)
	assert.Equal(t, Rating(2), got)

	// Unknown industry uses default weights: (1+5)/2 = 3
	got, ok = WeightedOverall(ratings, "unknown", tables)
	require.True(t, ok)
	assert.Equal(t, Rating(3), got)

	_, ok = WeightedOverall(map[weighting.Factor]Rating{weighting.Utilities: Unknown}, "office", tables)
	assert.False(t, ok)
}
