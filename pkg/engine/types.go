package engine

import (
	"github.com/firesurvey/risk-engine/pkg/executive"
	"github.com/firesurvey/risk-engine/pkg/scoring"
	"github.com/firesurvey/risk-engine/pkg/survey"
	"github.com/firesurvey/risk-engine/pkg/triggers"
	"github.com/firesurvey/risk-engine/pkg/weighting"
)

// ModuleResult describes one reconciled module of a document.
type ModuleResult struct {
	ID          string                              `json:"id"`
	ModuleKey   string                              `json:"moduleKey"`
	StoredKey   string                              `json:"storedKey,omitempty"`
	DisplayName string                              `json:"displayName"`
	Outcome     survey.Outcome                      `json:"outcome,omitempty"`
	PayloadKind survey.PayloadKind                  `json:"payloadKind"`
	Ratings     map[weighting.Factor]scoring.Rating `json:"ratings,omitempty"`
}

// RatingTrigger is an inadequate factor rating found on a module.
type RatingTrigger struct {
	ModuleKey string             `json:"moduleKey"`
	Factor    weighting.Factor   `json:"factor"`
	Rating    scoring.Rating     `json:"rating"`
	Priority  triggers.Priority  `json:"priority"`
	Category  executive.Category `json:"category"`
}

// Evaluation is everything the engine derives from one survey document.
type Evaluation struct {
	DocumentID   string `json:"documentId"`
	DocumentType string `json:"documentType"`

	Modules []ModuleResult `json:"modules"`

	// Site is nil when the document has no fire protection module.
	Site *scoring.SiteResult `json:"site,omitempty"`

	// Factors holds the worst rating recorded per relevant factor.
	Factors        map[weighting.Factor]scoring.Rating `json:"factors"`
	EnabledFactors []weighting.Factor                  `json:"enabledFactors"`
	Overall        scoring.Rating                      `json:"overall"`
	OverallScored  bool                                `json:"overallScored"`

	RatingTriggers []RatingTrigger       `json:"ratingTriggers"`
	Triggers       []triggers.Descriptor `json:"triggers"`

	// RecommendationIDs lists the persisted recommendations ensured during
	// this evaluation. Empty when the engine runs without a store.
	RecommendationIDs []string `json:"recommendationIds,omitempty"`

	ComplexityBand     executive.ComplexityBand     `json:"complexityBand"`
	OccupancyRiskClass executive.OccupancyRiskClass `json:"occupancyRiskClass"`
	Summary            executive.Summary            `json:"summary"`

	Warnings []string `json:"warnings,omitempty"`

	siteWater scoring.Rating
}
