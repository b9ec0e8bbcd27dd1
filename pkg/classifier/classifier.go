// Package classifier is the reference severity and complexity policy used by
// the risk-engine binary. Deployments with their own policy implement
// executive.SeverityClassifier instead.
package classifier

import (
	"github.com/firesurvey/risk-engine/pkg/executive"
)

var _ executive.SeverityClassifier = Basic{}

// Basic derives outcomes from the most urgent open priority.
type Basic struct{}

// DeriveExecutiveOutcome maps the most urgent open action to an outcome.
func (Basic) DeriveExecutiveOutcome(actions []executive.Action) executive.Outcome {
	best := 5
	for _, a := range actions {
		if r := a.Priority.Rank(); r < best {
			best = r
		}
	}
	switch best {
	case 1:
		return executive.OutcomeSignificantDeficiency
	case 2:
		return executive.OutcomeImprovementsRequired
	case 3, 4:
		return executive.OutcomeImprovementsAdvised
	default:
		return executive.OutcomeSatisfactory
	}
}

// CheckMaterialDeficiency flags any P1 action, and P2 life-safety actions
// where the premises are complex or people sleep there or are vulnerable.
func (Basic) CheckMaterialDeficiency(actions []executive.Action, ctx executive.Context) bool {
	sensitive := ctx.ComplexityBand.Elevated() ||
		ctx.OccupancyRiskClass == executive.OccupancySleeping ||
		ctx.OccupancyRiskClass == executive.OccupancyVulnerable
	for _, a := range actions {
		switch a.Priority.Rank() {
		case 1:
			return true
		case 2:
			if sensitive && lifeSafety(a.Category) {
				return true
			}
		}
	}
	return false
}

func lifeSafety(c executive.Category) bool {
	switch c {
	case executive.CategoryMeansOfEscape, executive.CategoryDetectionAlarm, executive.CategoryCompartmentation:
		return true
	}
	return false
}

// SiteMetrics are the inputs to the complexity band.
type SiteMetrics struct {
	Buildings     int     `json:"buildings" yaml:"buildings"`
	MaxStoreys    int     `json:"maxStoreys" yaml:"maxStoreys"`
	TotalArea     float64 `json:"totalArea" yaml:"totalArea"`
	EngineeredFSD bool    `json:"engineeredFireStrategy" yaml:"engineeredFireStrategy"`
}

// DeriveComplexityBand scores size, height and building count and maps the
// total onto a band. An engineered fire strategy is always VeryHigh.
func DeriveComplexityBand(m SiteMetrics) executive.ComplexityBand {
	if m.EngineeredFSD {
		return executive.BandVeryHigh
	}
	points := 0
	switch {
	case m.MaxStoreys >= 10:
		points += 3
	case m.MaxStoreys >= 4:
		points += 2
	case m.MaxStoreys >= 2:
		points++
	}
	switch {
	case m.TotalArea >= 20000:
		points += 3
	case m.TotalArea >= 5000:
		points += 2
	case m.TotalArea >= 1000:
		points++
	}
	if m.Buildings > 3 {
		points++
	}
	switch {
	case points >= 6:
		return executive.BandVeryHigh
	case points >= 4:
		return executive.BandHigh
	case points >= 2:
		return executive.BandModerate
	default:
		return executive.BandLow
	}
}

var occupancyClasses = map[string]executive.OccupancyRiskClass{
	"hotel":       executive.OccupancySleeping,
	"residential": executive.OccupancySleeping,
	"hostel":      executive.OccupancySleeping,
	"care_home":   executive.OccupancyVulnerable,
	"hospital":    executive.OccupancyVulnerable,
	"school":      executive.OccupancyVulnerable,
}

// DeriveOccupancyRiskClass maps an occupancy key to its risk class; anything
// not listed is non-sleeping.
func DeriveOccupancyRiskClass(occupancy string) executive.OccupancyRiskClass {
	if c, ok := occupancyClasses[occupancy]; ok {
		return c
	}
	return executive.OccupancyNonSleeping
}
