package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/firesurvey/risk-engine/pkg/classifier"
	"github.com/firesurvey/risk-engine/pkg/executive"
	"github.com/firesurvey/risk-engine/pkg/recommendations"
	"github.com/firesurvey/risk-engine/pkg/triggers"
)

// summarize aggregates the document's open actions. With a store the
// persisted open recommendations are used, manual ones included; without one,
// or when the store fails, the actions are derived from this evaluation.
func (s *Service) summarize(ctx context.Context, documentID string, ev *Evaluation, log *slog.Logger) executive.Summary {
	execCtx := executive.Context{
		ComplexityBand:     ev.ComplexityBand,
		OccupancyRiskClass: ev.OccupancyRiskClass,
	}

	actions := derivedActions(ev)
	if s.store != nil {
		stored, err := s.openActions(ctx, documentID)
		if err != nil {
			log.Error("loading open actions failed, summarizing evaluation only", "error", err)
			ev.warn("summary built without stored actions: %v", err)
		} else {
			actions = stored
		}
	}
	return executive.ComputeSummary(actions, ev.ComplexityBand, execCtx, s.classifier)
}

// DocumentSummary builds the executive summary from the open actions stored
// for a document.
func (s *Service) DocumentSummary(ctx context.Context, documentID string, metrics classifier.SiteMetrics, occupancy string) (executive.Summary, error) {
	if s.store == nil {
		return executive.Summary{}, fmt.Errorf("document summary: no recommendation store configured")
	}
	actions, err := s.openActions(ctx, documentID)
	if err != nil {
		return executive.Summary{}, err
	}
	band := classifier.DeriveComplexityBand(metrics)
	return executive.ComputeSummary(actions, band, executive.Context{
		ComplexityBand:     band,
		OccupancyRiskClass: classifier.DeriveOccupancyRiskClass(occupancy),
	}, s.classifier), nil
}

func (s *Service) openActions(ctx context.Context, documentID string) ([]executive.Action, error) {
	recs, err := s.store.ListOpen(ctx, documentID)
	if err != nil {
		return nil, err
	}
	actions := make([]executive.Action, len(recs))
	for i := range recs {
		actions[i] = recs[i].ToAction()
	}
	return actions, nil
}

// derivedActions turns the evaluation's triggers into open actions, rating
// triggers first, in evaluation order.
func derivedActions(ev *Evaluation) []executive.Action {
	actions := make([]executive.Action, 0, len(ev.RatingTriggers)+len(ev.Triggers))
	for _, t := range ev.RatingTriggers {
		actions = append(actions, executive.Action{
			ID:          t.ModuleKey + ":" + string(t.Factor),
			Title:       "Improve " + lowerLabel(t.Factor.Label()),
			Priority:    band(t.Priority),
			Category:    t.Category,
			TriggerText: fmt.Sprintf("%s rated %d/5.", t.Factor.Label(), int(t.Rating)),
			Status:      executive.StatusOpen,
		})
	}
	for _, d := range ev.Triggers {
		actions = append(actions, executive.Action{
			ID:          d.ID,
			Title:       d.Title,
			Priority:    band(d.Priority),
			Category:    recommendations.CategoryFor(d.Category),
			TriggerText: d.Detail,
			Status:      executive.StatusOpen,
		})
	}
	return actions
}

func band(p triggers.Priority) executive.Priority {
	return recommendations.PriorityFromTrigger(p).Band()
}

func lowerLabel(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}
