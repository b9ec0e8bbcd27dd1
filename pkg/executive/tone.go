package executive

import "strings"

var complexitySentences = map[ComplexityBand]string{
	BandLow:      "The premises are of low complexity with a straightforward layout and fire strategy.",
	BandModerate: "The premises are of moderate complexity and the fire strategy relies on several interacting measures.",
	BandHigh:     "The premises are of high complexity, so shortcomings in escape, detection or compartmentation carry greater weight.",
	BandVeryHigh: "The premises are of very high complexity and depend on an engineered fire strategy that must be maintained as a whole.",
}

var occupancySentences = map[OccupancyRiskClass]string{
	OccupancyNonSleeping: "Occupants are awake and generally familiar with the building.",
	OccupancySleeping:    "People sleep on the premises, which increases the time needed to raise the alarm and evacuate.",
	OccupancyVulnerable:  "Occupants include vulnerable people who may need assistance to escape.",
}

var outcomeSentences = map[Outcome]string{
	OutcomeSatisfactory:          "Overall, fire safety arrangements were found to be satisfactory.",
	OutcomeImprovementsAdvised:   "Overall, arrangements are broadly adequate but some improvements are advised.",
	OutcomeImprovementsRequired:  "Overall, improvements are required to bring arrangements to an acceptable standard.",
	OutcomeSignificantDeficiency: "Overall, significant deficiencies were identified that require prompt action.",
}

const (
	fallbackComplexity = "The complexity of the premises has not been classified."
	fallbackOccupancy  = "The occupancy risk profile has not been classified."
	fallbackOutcome    = "An overall outcome could not be determined from the information available."
)

// ToneParagraph concatenates one sentence per axis, in the fixed order
// complexity, occupancy, outcome. Unclassified values select a neutral
// sentence so every axis always contributes exactly one.
func ToneParagraph(band ComplexityBand, occupancy OccupancyRiskClass, outcome Outcome) string {
	parts := []string{
		pick(complexitySentences, band, fallbackComplexity),
		pick(occupancySentences, occupancy, fallbackOccupancy),
		pick(outcomeSentences, outcome, fallbackOutcome),
	}
	return strings.Join(parts, " ")
}

func pick[K comparable](m map[K]string, k K, fallback string) string {
	if s, ok := m[k]; ok {
		return s
	}
	return fallback
}
