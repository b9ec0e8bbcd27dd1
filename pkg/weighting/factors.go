// Package weighting provides the static factor universe together with the
// per-industry factor weights and per-occupancy factor relevance tables.
package weighting

// Factor is a canonical assessable dimension of risk or protection.
type Factor string

const (
	Construction            Factor = "construction"
	FireProtection          Factor = "fire_protection"
	ManagementSystems       Factor = "management_systems"
	SafetyAndControlSystems Factor = "safety_and_control_systems"
	DetectionAndAlarm       Factor = "detection_and_alarm"
	MeansOfEscape           Factor = "means_of_escape"
	Compartmentation        Factor = "compartmentation"
	OccupancyHazards        Factor = "occupancy_hazards"
	Utilities               Factor = "utilities"
	WaterSupply             Factor = "water_supply"
)

// FactorInfo is the display metadata attached to a factor.
type FactorInfo struct {
	Key   Factor
	Label string
	// Category is the executive-summary category an issue on this factor
	// is filed under.
	Category string
}

var factorTable = []FactorInfo{
	{Construction, "Construction", "Construction"},
	{FireProtection, "Fire protection", "FireProtection"},
	{ManagementSystems, "Management systems", "Management"},
	{SafetyAndControlSystems, "Safety and control systems", "SafetyControls"},
	{DetectionAndAlarm, "Fire detection and alarm", "DetectionAlarm"},
	{MeansOfEscape, "Means of escape", "MeansOfEscape"},
	{Compartmentation, "Compartmentation", "Compartmentation"},
	{OccupancyHazards, "Occupancy hazards", "ProcessHazards"},
	{Utilities, "Utilities", "Utilities"},
	{WaterSupply, "Water supply", "WaterSupply"},
}

var factorIndex = func() map[Factor]FactorInfo {
	m := make(map[Factor]FactorInfo, len(factorTable))
	for _, f := range factorTable {
		m[f.Key] = f
	}
	return m
}()

// globalFactors apply to every occupancy and are never part of an
// occupancy's enabled set.
var globalFactors = []Factor{Construction, FireProtection, ManagementSystems}

// Factors returns the factor universe in display order.
func Factors() []FactorInfo {
	return append([]FactorInfo(nil), factorTable...)
}

// LookupFactor returns metadata for a factor key.
func LookupFactor(key string) (FactorInfo, bool) {
	f, ok := factorIndex[Factor(key)]
	return f, ok
}

// Known reports whether f belongs to the factor universe.
func (f Factor) Known() bool {
	_, ok := factorIndex[f]
	return ok
}

// Label returns the display label, or the raw key for unknown factors.
func (f Factor) Label() string {
	if info, ok := factorIndex[f]; ok {
		return info.Label
	}
	return string(f)
}

// IsGlobal reports whether f is always enabled regardless of occupancy.
func (f Factor) IsGlobal() bool {
	for _, g := range globalFactors {
		if g == f {
			return true
		}
	}
	return false
}

// GlobalFactors returns the always-enabled factors.
func GlobalFactors() []Factor {
	return append([]Factor(nil), globalFactors...)
}
