package triggers

import (
	"fmt"

	"github.com/firesurvey/risk-engine/pkg/scoring"
	"github.com/firesurvey/risk-engine/pkg/weighting"
)

// Scope of a trigger.
type Scope string

const (
	ScopeBuilding Scope = "building"
	ScopeSite     Scope = "site"
)

// Family groups the two kinds of trigger rule.
type Family string

const (
	FamilyInadequate Family = "inadequate"
	FamilyCoverage   Family = "coverage_gap"
)

// Subsystem is the protection sub-system a trigger is about.
type Subsystem string

const (
	Sprinklers  Subsystem = "sprinklers"
	WaterMist   Subsystem = "water_mist"
	Detection   Subsystem = "detection"
	WaterSupply Subsystem = "water_supply"
)

var subsystemLabels = map[Subsystem]string{
	Sprinklers:  "Sprinkler protection",
	WaterMist:   "Water mist protection",
	Detection:   "Fire detection",
	WaterSupply: "Fire-fighting water supply",
}

// Label returns a human readable sub-system name.
func (s Subsystem) Label() string {
	if l, ok := subsystemLabels[s]; ok {
		return l
	}
	return string(s)
}

// Descriptor is a recommendation the rules decided to emit.
type Descriptor struct {
	ID         string           `json:"id"`
	Scope      Scope            `json:"scope"`
	BuildingID string           `json:"buildingId,omitempty"`
	Category   weighting.Factor `json:"category"`
	Subsystem  Subsystem        `json:"subsystem"`
	Family     Family           `json:"family"`
	Code       string           `json:"code"`
	Priority   Priority         `json:"priority"`

	Rating   scoring.Rating `json:"rating,omitempty"`
	Required float64        `json:"required,omitempty"`
	Provided float64        `json:"provided,omitempty"`
	Gap      float64        `json:"gap,omitempty"`

	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// Code builds the trigger code for a sub-system and family.
func Code(sub Subsystem, fam Family) string {
	return string(sub) + "_" + string(fam)
}

// BuildingTriggerID returns the deterministic identifier of a building trigger.
func BuildingTriggerID(buildingID, code string) string {
	return string(ScopeBuilding) + ":" + buildingID + ":" + code
}

// SiteTriggerID returns the deterministic identifier of a site trigger.
func SiteTriggerID(code string) string {
	return string(ScopeSite) + ":" + code
}

func inadequateDescriptor(scope Scope, buildingID string, cat weighting.Factor, sub Subsystem, r scoring.Rating, p Priority) Descriptor {
	code := Code(sub, FamilyInadequate)
	d := Descriptor{
		Scope:      scope,
		BuildingID: buildingID,
		Category:   cat,
		Subsystem:  sub,
		Family:     FamilyInadequate,
		Code:       code,
		Priority:   p,
		Rating:     r,
		Title:      fmt.Sprintf("Improve %s", lowerFirst(sub.Label())),
		Detail: fmt.Sprintf("%s was rated %d/5%s, which is below an acceptable standard.",
			sub.Label(), int(r), where(scope, buildingID)),
	}
	d.ID = descriptorID(scope, buildingID, code)
	return d
}

func coverageDescriptor(buildingID string, cat weighting.Factor, sub Subsystem, required, provided, gap float64, p Priority) Descriptor {
	code := Code(sub, FamilyCoverage)
	return Descriptor{
		ID:         BuildingTriggerID(buildingID, code),
		Scope:      ScopeBuilding,
		BuildingID: buildingID,
		Category:   cat,
		Subsystem:  sub,
		Family:     FamilyCoverage,
		Code:       code,
		Priority:   p,
		Required:   required,
		Provided:   provided,
		Gap:        gap,
		Title:      fmt.Sprintf("Extend %s coverage", lowerFirst(sub.Label())),
		Detail: fmt.Sprintf("%s covers %.0f%% of the areas requiring it in building %s (%.0f%% required, a shortfall of %.0f points).",
			sub.Label(), provided, buildingID, required, gap),
	}
}

func descriptorID(scope Scope, buildingID, code string) string {
	if scope == ScopeSite {
		return SiteTriggerID(code)
	}
	return BuildingTriggerID(buildingID, code)
}

func where(scope Scope, buildingID string) string {
	if scope == ScopeSite {
		return " for the site"
	}
	return " in building " + buildingID
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}
