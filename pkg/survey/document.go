// Package survey defines the survey document and module instance shapes the
// engine reads, and decodes module payloads into typed variants once at the
// boundary.
package survey

import (
	"encoding/json"
	"time"

	"github.com/firesurvey/risk-engine/pkg/classifier"
)

// Outcome is the assessor's verdict on a module.
type Outcome string

const (
	OutcomeCompliant   Outcome = "compliant"
	OutcomeMinorDef    Outcome = "minor_def"
	OutcomeMaterialDef Outcome = "material_def"
	OutcomeInfoGap     Outcome = "info_gap"
	OutcomeNA          Outcome = "na"
)

// Valid reports whether o is a recognized outcome. The empty outcome (not
// yet assessed) is valid.
func (o Outcome) Valid() bool {
	switch o {
	case "", OutcomeCompliant, OutcomeMinorDef, OutcomeMaterialDef, OutcomeInfoGap, OutcomeNA:
		return true
	}
	return false
}

// ModuleInstance is one occurrence of a catalog module on a document.
type ModuleInstance struct {
	ID         string          `json:"id"`
	DocumentID string          `json:"documentId,omitempty"`
	ModuleKey  string          `json:"moduleKey"`
	Outcome    Outcome         `json:"outcome,omitempty"`
	Notes      string          `json:"notes,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Key returns the stored module key.
func (m ModuleInstance) Key() string { return m.ModuleKey }

// Document is a survey document with its module instances.
type Document struct {
	ID             string                 `json:"id"`
	Type           string                 `json:"type"`
	IndustryKey    string                 `json:"industry,omitempty"`
	OccupancyKey   string                 `json:"occupancy,omitempty"`
	AssessmentDate *time.Time             `json:"assessmentDate,omitempty"`
	Scope          string                 `json:"scope,omitempty"`
	SiteMetrics    classifier.SiteMetrics `json:"siteMetrics"`
	Modules        []ModuleInstance       `json:"modules"`
}
