package survey

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/firesurvey/risk-engine/pkg/scoring"
	"github.com/firesurvey/risk-engine/pkg/weighting"
)

// PayloadKind discriminates module payload variants.
type PayloadKind string

const (
	KindFireProtection PayloadKind = "fire_protection"
	KindFactorRatings  PayloadKind = "factor_ratings"
	KindEmpty          PayloadKind = "empty"
)

// Payload is a decoded, validated module payload.
type Payload interface {
	Kind() PayloadKind
}

// FireProtectionPayload carries the building and site protection data used
// by derived scoring and the trigger rules.
type FireProtectionPayload struct {
	Site         scoring.SiteFactors             `json:"site"`
	Buildings    []scoring.Building              `json:"buildings"`
	BuildingMeta map[string]scoring.BuildingMeta `json:"buildingMeta,omitempty"`
}

func (FireProtectionPayload) Kind() PayloadKind { return KindFireProtection }

// FactorRatingsPayload carries per-factor ratings recorded on a module.
type FactorRatingsPayload struct {
	Ratings map[weighting.Factor]scoring.Rating `json:"ratings"`
	// Dropped lists rating keys that were not canonical factors.
	Dropped []string `json:"-"`
}

func (FactorRatingsPayload) Kind() PayloadKind { return KindFactorRatings }

// EmptyPayload is used by modules without structured data.
type EmptyPayload struct{}

func (EmptyPayload) Kind() PayloadKind { return KindEmpty }

// payloadKinds maps canonical module keys to their payload variant. Keys not
// listed carry factor ratings.
var payloadKinds = map[string]PayloadKind{
	"fire_protection":   KindFireProtection,
	"survey_info":       KindEmpty,
	"risk_scoring":      KindEmpty,
	"executive_summary": KindEmpty,
}

// KindFor returns the payload variant for a canonical module key.
func KindFor(canonicalKey string) PayloadKind {
	if k, ok := payloadKinds[canonicalKey]; ok {
		return k
	}
	return KindFactorRatings
}

// DecodePayload validates raw against the variant of canonicalKey. Malformed
// JSON is an error; unknown factor keys and out-of-range ratings are not,
// they are dropped or treated as absent.
func DecodePayload(canonicalKey string, raw json.RawMessage) (Payload, error) {
	kind := KindFor(canonicalKey)
	if len(strings.TrimSpace(string(raw))) == 0 || string(raw) == "null" {
		switch kind {
		case KindFireProtection:
			return FireProtectionPayload{}, nil
		case KindFactorRatings:
			return FactorRatingsPayload{Ratings: map[weighting.Factor]scoring.Rating{}}, nil
		default:
			return EmptyPayload{}, nil
		}
	}

	switch kind {
	case KindFireProtection:
		var p FireProtectionPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", canonicalKey, err)
		}
		if p.Site.WaterSupplyReliability == "" {
			p.Site.WaterSupplyReliability = scoring.ReliabilityUnknown
		}
		return p, nil

	case KindFactorRatings:
		var wire struct {
			Ratings map[string]scoring.Rating `json:"ratings"`
		}
		if err := json.Unmarshal(raw, &wire); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", canonicalKey, err)
		}
		p := FactorRatingsPayload{Ratings: make(map[weighting.Factor]scoring.Rating, len(wire.Ratings))}
		for k, r := range wire.Ratings {
			f := weighting.Factor(k)
			if !f.Known() {
				p.Dropped = append(p.Dropped, k)
				continue
			}
			p.Ratings[f] = r
		}
		return p, nil

	default:
		return EmptyPayload{}, nil
	}
}
