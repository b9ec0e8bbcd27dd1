// Package triggers decides, from the current state of one factor, whether a
// remediation recommendation is warranted and at what priority. The rules
// are pure; identical inputs always yield identical descriptors, including
// their identifiers.
package triggers

import "github.com/firesurvey/risk-engine/pkg/scoring"

// Priority of a triggered recommendation.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
)

// Thresholds used by the trigger rules.
const (
	// InadequateThreshold is the highest rating that still triggers.
	InadequateThreshold scoring.Rating = 2
	// HighGapPoints is the coverage shortfall, in percentage points, at
	// which a coverage gap becomes high priority.
	HighGapPoints = 30.0
)

// InadequateRating fires for a known rating of 2 or less: high priority at 1,
// medium at 2. An absent rating never fires.
func InadequateRating(r scoring.Rating) (Priority, bool) {
	if !r.Known() || r > InadequateThreshold {
		return "", false
	}
	if r == scoring.MinRating {
		return PriorityHigh, true
	}
	return PriorityMedium, true
}

// CoverageGap fires when both percentages are present and the provided
// coverage falls short of the required coverage. It returns the gap in
// percentage points.
func CoverageGap(required, provided *float64) (Priority, float64, bool) {
	if required == nil || provided == nil || *provided >= *required {
		return "", 0, false
	}
	gap := *required - *provided
	if gap >= HighGapPoints {
		return PriorityHigh, gap, true
	}
	return PriorityMedium, gap, true
}
