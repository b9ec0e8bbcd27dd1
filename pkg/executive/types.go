// Package executive aggregates the open actions of a document into the
// executive summary: per-priority counts, ranked top issues, the outcome
// reported by the severity classifier and a templated tone paragraph.
package executive

import "strings"

// Priority is an action priority band, P1 being the most urgent.
type Priority string

const (
	P1 Priority = "P1"
	P2 Priority = "P2"
	P3 Priority = "P3"
	P4 Priority = "P4"
)

// Rank orders priorities; unknown values rank after P4.
func (p Priority) Rank() int {
	switch Priority(strings.ToUpper(string(p))) {
	case P1:
		return 1
	case P2:
		return 2
	case P3:
		return 3
	case P4:
		return 4
	default:
		return 5
	}
}

// Category is the area an action addresses.
type Category string

const (
	CategoryMeansOfEscape    Category = "MeansOfEscape"
	CategoryDetectionAlarm   Category = "DetectionAlarm"
	CategoryCompartmentation Category = "Compartmentation"
	CategoryFireProtection   Category = "FireProtection"
	CategoryConstruction     Category = "Construction"
	CategoryManagement       Category = "Management"
	CategoryProcessHazards   Category = "ProcessHazards"
	CategorySafetyControls   Category = "SafetyControls"
	CategoryUtilities        Category = "Utilities"
	CategoryWaterSupply      Category = "WaterSupply"
	CategoryOther            Category = "Other"
)

// ComplexityBand is the external classification of site complexity.
type ComplexityBand string

const (
	BandLow      ComplexityBand = "Low"
	BandModerate ComplexityBand = "Moderate"
	BandHigh     ComplexityBand = "High"
	BandVeryHigh ComplexityBand = "VeryHigh"
)

// Elevated reports whether the band switches on category tie-breaking.
func (b ComplexityBand) Elevated() bool {
	return b == BandHigh || b == BandVeryHigh
}

// OccupancyRiskClass is the external classification of who is at risk.
type OccupancyRiskClass string

const (
	OccupancyNonSleeping OccupancyRiskClass = "NonSleeping"
	OccupancySleeping    OccupancyRiskClass = "Sleeping"
	OccupancyVulnerable  OccupancyRiskClass = "Vulnerable"
)

// Outcome is the overall executive outcome reported by the classifier.
type Outcome string

const (
	OutcomeSatisfactory          Outcome = "Satisfactory"
	OutcomeImprovementsAdvised   Outcome = "ImprovementsAdvised"
	OutcomeImprovementsRequired  Outcome = "ImprovementsRequired"
	OutcomeSignificantDeficiency Outcome = "SignificantDeficiency"
	OutcomeUndetermined          Outcome = "Undetermined"
)

// Status of an action.
type Status string

const (
	StatusOpen          Status = "open"
	StatusInProgress    Status = "in_progress"
	StatusComplete      Status = "complete"
	StatusDeferred      Status = "deferred"
	StatusNotApplicable Status = "not_applicable"
)

// Open reports whether the status still needs attention. An empty status is
// treated as open.
func (s Status) Open() bool {
	return s == "" || s == StatusOpen || s == StatusInProgress
}

// Action is an open remediation item as seen by the summary.
type Action struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Priority    Priority `json:"priority"`
	Category    Category `json:"category"`
	TriggerText string   `json:"triggerText,omitempty"`
	Status      Status   `json:"status,omitempty"`
}

// Context is passed through to the severity classifier.
type Context struct {
	ComplexityBand     ComplexityBand     `json:"complexityBand"`
	OccupancyRiskClass OccupancyRiskClass `json:"occupancyRiskClass"`
}

// SeverityClassifier owns the outcome policy. The summary only forwards
// actions and context to it.
type SeverityClassifier interface {
	DeriveExecutiveOutcome(actions []Action) Outcome
	CheckMaterialDeficiency(actions []Action, ctx Context) bool
}

// Counts tallies open actions per priority band.
type Counts struct {
	P1 int `json:"p1"`
	P2 int `json:"p2"`
	P3 int `json:"p3"`
	P4 int `json:"p4"`
}

// Total returns the number of counted actions.
func (c Counts) Total() int { return c.P1 + c.P2 + c.P3 + c.P4 }

// TopIssue is one of the ranked issues shown in the summary.
type TopIssue struct {
	ActionID    string   `json:"actionId"`
	Title       string   `json:"title"`
	Priority    Priority `json:"priority"`
	Category    Category `json:"category"`
	TriggerText string   `json:"triggerText,omitempty"`
}

// Summary is the executive aggregation of a document's open actions.
type Summary struct {
	ComputedOutcome    Outcome    `json:"computedOutcome"`
	MaterialDeficiency bool       `json:"materialDeficiency"`
	Counts             Counts     `json:"counts"`
	TopIssues          []TopIssue `json:"topIssues"`
	ToneParagraph      string     `json:"toneParagraph"`
}
