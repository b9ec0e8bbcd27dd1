package scoring

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Reliability is the site's water-supply reliability assessment.
type Reliability string

const (
	Reliable           Reliability = "reliable"
	Unreliable         Reliability = "unreliable"
	ReliabilityUnknown Reliability = "unknown"
)

// ParseReliability normalizes a reliability value. Anything unrecognized,
// including the empty string, is unknown.
func ParseReliability(s string) Reliability {
	switch Reliability(strings.ToLower(strings.TrimSpace(s))) {
	case Reliable:
		return Reliable
	case Unreliable:
		return Unreliable
	default:
		return ReliabilityUnknown
	}
}

// UnmarshalJSON normalizes the decoded value with ParseReliability.
func (r *Reliability) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("reliability: %w", err)
	}
	if s == nil {
		*r = ReliabilityUnknown
		return nil
	}
	*r = ParseReliability(*s)
	return nil
}

// UnmarshalYAML normalizes the decoded value with ParseReliability.
func (r *Reliability) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("reliability: %w", err)
	}
	*r = ParseReliability(s)
	return nil
}

// Cap returns the highest site score the reliability allows, and whether a
// cap applies at all.
func (r Reliability) Cap() (Rating, bool) {
	switch ParseReliability(string(r)) {
	case Reliable:
		return MaxRating, false
	case Unreliable:
		return 3, true
	default:
		return 4, true
	}
}

// SiteFactors are the factors assessed once per site.
type SiteFactors struct {
	WaterSupplyReliability Reliability `json:"waterSupplyReliability" yaml:"waterSupplyReliability"`
	WaterSupplyRating      Rating      `json:"waterSupplyRating" yaml:"waterSupplyRating"`
}

// BuildingResult is one building's contribution to a site score.
type BuildingResult struct {
	BuildingID string  `json:"buildingId"`
	Score      Rating  `json:"score"`
	Scored     bool    `json:"scored"`
	Weight     float64 `json:"weight"`
}

// SiteResult is the full breakdown behind a site score.
type SiteResult struct {
	Buildings []BuildingResult `json:"buildings"`
	Raw       float64          `json:"raw"`
	Uncapped  Rating           `json:"uncapped"`
	Score     Rating           `json:"score"`
	Scored    bool             `json:"scored"`
	Capped    bool             `json:"capped"`
}

// ScoreSite computes a site score together with its per-building breakdown.
// Buildings without a score are listed but do not contribute. Each scoring
// building is weighted by its floor area when known and positive, else by 1.
// The water-supply reliability cap can only lower the result.
func ScoreSite(buildings []Building, site SiteFactors, meta map[string]BuildingMeta) SiteResult {
	res := SiteResult{Buildings: make([]BuildingResult, 0, len(buildings))}

	var sum, weights float64
	for _, b := range buildings {
		br := BuildingResult{BuildingID: b.ID}
		score, ok := ComputeBuildingScore(b.Factors)
		if ok {
			w := 1.0
			if m, found := meta[b.ID]; found && m.FloorArea != nil && *m.FloorArea > 0 {
				w = *m.FloorArea
			}
			br.Score, br.Scored, br.Weight = score, true, w
			sum += float64(score) * w
			weights += w
		}
		res.Buildings = append(res.Buildings, br)
	}

	if weights == 0 {
		return res
	}

	res.Raw = sum / weights
	res.Uncapped = clampRating(res.Raw)
	res.Score = res.Uncapped
	res.Scored = true
	if limit, applies := site.WaterSupplyReliability.Cap(); applies && res.Score > limit {
		res.Score = limit
		res.Capped = true
	}
	return res
}

// ComputeSiteScore returns the area-weighted, reliability-capped site score.
// ok is false when no building could be scored.
func ComputeSiteScore(buildings []Building, site SiteFactors, meta map[string]BuildingMeta) (score Rating, ok bool) {
	res := ScoreSite(buildings, site, meta)
	return res.Score, res.Scored
}
