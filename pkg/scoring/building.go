package scoring

// Weights applied when both suppression and detection are rated.
const (
	SuppressionWeight = 0.7
	DetectionWeight   = 0.3
)

// Coverage holds the required and provided system coverage of a building in
// percent. Either side may be absent.
type Coverage struct {
	Required *float64 `json:"required,omitempty" yaml:"required,omitempty"`
	Provided *float64 `json:"provided,omitempty" yaml:"provided,omitempty"`
}

// BuildingFactors are the per-building protection ratings and coverages.
// Sprinklers is the primary suppression sub-system, water mist the fallback.
type BuildingFactors struct {
	Sprinklers Rating `json:"sprinklers" yaml:"sprinklers"`
	WaterMist  Rating `json:"waterMist" yaml:"waterMist"`
	Detection  Rating `json:"detection" yaml:"detection"`

	SprinklerCoverage Coverage `json:"sprinklerCoverage" yaml:"sprinklerCoverage"`
	WaterMistCoverage Coverage `json:"waterMistCoverage" yaml:"waterMistCoverage"`
	DetectionCoverage Coverage `json:"detectionCoverage" yaml:"detectionCoverage"`
}

// Suppression returns the rating of the suppression sub-system in use:
// sprinklers when rated, otherwise water mist.
func (f BuildingFactors) Suppression() Rating {
	if f.Sprinklers.Known() {
		return f.Sprinklers
	}
	if f.WaterMist.Known() {
		return f.WaterMist
	}
	return Unknown
}

// Building is one building of a site.
type Building struct {
	ID      string          `json:"id" yaml:"id"`
	Name    string          `json:"name,omitempty" yaml:"name,omitempty"`
	Factors BuildingFactors `json:"factors" yaml:"factors"`
}

// BuildingMeta carries optional weighting inputs for a building.
type BuildingMeta struct {
	FloorArea *float64 `json:"floorArea,omitempty" yaml:"floorArea,omitempty"`
}

// ComputeBuildingScore blends the suppression and detection ratings of a
// building into a single 1-5 score. When only one of them is rated that
// rating is used alone. With neither rated the score is absent and ok is
// false.
func ComputeBuildingScore(f BuildingFactors) (score Rating, ok bool) {
	raw, ok := buildingRaw(f)
	if !ok {
		return Unknown, false
	}
	return clampRating(raw), true
}

func buildingRaw(f BuildingFactors) (float64, bool) {
	s, d := f.Suppression(), f.Detection
	switch {
	case s.Known() && d.Known():
		return SuppressionWeight*float64(s) + DetectionWeight*float64(d), true
	case s.Known():
		return float64(s), true
	case d.Known():
		return float64(d), true
	default:
		return 0, false
	}
}
