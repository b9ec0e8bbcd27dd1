package survey

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firesurvey/risk-engine/pkg/scoring"
	"github.com/firesurvey/risk-engine/pkg/weighting"
)

func TestDecodeFireProtectionPayload(t *testing.T) {
	raw := json.RawMessage(`{
		"site": {"waterSupplyReliability": "unreliable", "waterSupplyRating": 2},
		"buildings": [
			{"id": "B1", "factors": {"sprinklers": 4, "detection": 2,
				"sprinklerCoverage": {"required": 80, "provided": 40}}}
		],
		"buildingMeta": {"B1": {"floorArea": 1200}}
	}`)

	p, err := DecodePayload("fire_protection", raw)
	require.NoError(t, err)
	fp, ok := p.(FireProtectionPayload)
	require.True(t, ok)

	assert.Equal(t, scoring.Unreliable, fp.Site.WaterSupplyReliability)
	assert.Equal(t, scoring.Rating(2), fp.Site.WaterSupplyRating)
	require.Len(t, fp.Buildings, 1)
	assert.Equal(t, scoring.Rating(4), fp.Buildings[0].Factors.Sprinklers)
	require.NotNil(t, fp.Buildings[0].Factors.SprinklerCoverage.Provided)
	assert.Equal(t, 40.0, *fp.Buildings[0].Factors.SprinklerCoverage.Provided)
	require.NotNil(t, fp.BuildingMeta["B1"].FloorArea)
}

func TestDecodeFireProtectionDefaultsReliability(t *testing.T) {
	p, err := DecodePayload("fire_protection", json.RawMessage(`{"buildings": []}`))
	require.NoError(t, err)
	assert.Equal(t, scoring.ReliabilityUnknown, p.(FireProtectionPayload).Site.WaterSupplyReliability)
}

func TestDecodeFactorRatingsDropsUnknownFactors(t *testing.T) {
	raw := json.RawMessage(`{"ratings": {"means_of_escape": 2, "vibes": 1, "compartmentation": 8}}`)

	p, err := DecodePayload("means_of_escape", raw)
	require.NoError(t, err)
	fr := p.(FactorRatingsPayload)

	assert.Equal(t, scoring.Rating(2), fr.Ratings[weighting.MeansOfEscape])
	assert.Equal(t, scoring.Unknown, fr.Ratings[weighting.Compartmentation])
	assert.Equal(t, []string{"vibes"}, fr.Dropped)
}

func TestDecodeMalformedPayload(t *testing.T) {
	_, err := DecodePayload("fire_protection", json.RawMessage(`{"buildings": "nope"}`))
	assert.Error(t, err)

	_, err = DecodePayload("construction", json.RawMessage(`[1,2`))
	assert.Error(t, err)
}

func TestDecodeEmptyPayloads(t *testing.T) {
	p, err := DecodePayload("executive_summary", json.RawMessage(`{"anything": true}`))
	require.NoError(t, err)
	assert.Equal(t, KindEmpty, p.Kind())

	p, err = DecodePayload("construction", nil)
	require.NoError(t, err)
	assert.Equal(t, KindFactorRatings, p.Kind())
	assert.Empty(t, p.(FactorRatingsPayload).Ratings)

	p, err = DecodePayload("fire_protection", json.RawMessage("null"))
	require.NoError(t, err)
	assert.Equal(t, KindFireProtection, p.Kind())
}

func TestOutcomeValid(t *testing.T) {
	assert.True(t, OutcomeMaterialDef.Valid())
	assert.True(t, Outcome("").Valid())
	assert.False(t, Outcome("great").Valid())
}
