package recommendations

import (
	"fmt"
	"strings"

	"github.com/firesurvey/risk-engine/pkg/scoring"
)

// Text holds the four narrative fields of a recommendation.
type Text struct {
	Title          string
	Observation    string
	ActionRequired string
	Hazard         string
}

// fill returns t with blank fields taken from fallback.
func (t Text) fill(fallback Text) Text {
	if strings.TrimSpace(t.Title) == "" {
		t.Title = fallback.Title
	}
	if strings.TrimSpace(t.Observation) == "" {
		t.Observation = fallback.Observation
	}
	if strings.TrimSpace(t.ActionRequired) == "" {
		t.ActionRequired = fallback.ActionRequired
	}
	if strings.TrimSpace(t.Hazard) == "" {
		t.Hazard = fallback.Hazard
	}
	return t
}

func templateText(t *Template) Text {
	return Text{
		Title:          t.Title,
		Observation:    t.Observation,
		ActionRequired: t.ActionRequired,
		Hazard:         t.Hazard,
	}
}

// GenericText builds the text used when no template applies.
func GenericText(moduleName, factorLabel string, rating scoring.Rating) Text {
	subject := factorLabel
	if subject == "" {
		subject = moduleName
	}
	lower := strings.ToLower(subject)

	severity := "inadequate"
	if rating == scoring.MinRating {
		severity = "critically deficient"
	}

	obs := fmt.Sprintf("%s was assessed as %s", subject, severity)
	if rating.Known() {
		obs += fmt.Sprintf(" (rated %d/5)", int(rating))
	}
	if moduleName != "" && moduleName != subject {
		obs += " in " + moduleName
	}
	obs += "."

	return Text{
		Title:          "Improve " + lower,
		Observation:    obs,
		ActionRequired: fmt.Sprintf("Review %s arrangements and implement improvements to achieve at least an adequate standard.", lower),
		Hazard:         fmt.Sprintf("Deficient %s increases the likelihood of a fire developing or the severity of its consequences.", lower),
	}
}
