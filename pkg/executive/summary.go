package executive

import (
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// TopIssueLimit is the number of ranked issues in a summary.
const TopIssueLimit = 3

// highPriorityCategories sort first within a priority band when the site is
// of high complexity.
var highPriorityCategories = mapset.NewSet(
	CategoryMeansOfEscape,
	CategoryDetectionAlarm,
	CategoryCompartmentation,
)

// ComputeSummary builds the executive summary for the open actions of a
// document. Closed actions in the input are ignored.
func ComputeSummary(actions []Action, band ComplexityBand, ctx Context, classifier SeverityClassifier) Summary {
	ctx.ComplexityBand = band
	open := OpenActions(actions)

	s := Summary{
		ComputedOutcome: OutcomeUndetermined,
		Counts:          CountByPriority(open),
		TopIssues:       TopIssues(open, band),
	}
	if classifier != nil {
		s.ComputedOutcome = classifier.DeriveExecutiveOutcome(open)
		s.MaterialDeficiency = classifier.CheckMaterialDeficiency(open, ctx)
	}
	s.ToneParagraph = ToneParagraph(band, ctx.OccupancyRiskClass, s.ComputedOutcome)
	return s
}

// OpenActions filters actions down to those still open.
func OpenActions(actions []Action) []Action {
	out := make([]Action, 0, len(actions))
	for _, a := range actions {
		if a.Status.Open() {
			out = append(out, a)
		}
	}
	return out
}

// CountByPriority tallies actions per band. Actions with an unrecognized
// priority are not counted.
func CountByPriority(actions []Action) Counts {
	var c Counts
	for _, a := range actions {
		switch a.Priority.Rank() {
		case 1:
			c.P1++
		case 2:
			c.P2++
		case 3:
			c.P3++
		case 4:
			c.P4++
		}
	}
	return c
}

// Rank returns a sorted copy of actions: by priority, then, only for High
// and VeryHigh complexity, high-priority categories first, then by input
// position.
func Rank(actions []Action, band ComplexityBand) []Action {
	type indexed struct {
		a   Action
		idx int
	}
	tmp := make([]indexed, len(actions))
	for i, a := range actions {
		tmp[i] = indexed{a: a, idx: i}
	}
	elevated := band.Elevated()
	sort.Slice(tmp, func(i, j int) bool {
		a, b := tmp[i], tmp[j]
		if ra, rb := a.a.Priority.Rank(), b.a.Priority.Rank(); ra != rb {
			return ra < rb
		}
		if elevated {
			ha := highPriorityCategories.Contains(a.a.Category)
			hb := highPriorityCategories.Contains(b.a.Category)
			if ha != hb {
				return ha
			}
		}
		return a.idx < b.idx
	})
	out := make([]Action, len(tmp))
	for i, t := range tmp {
		out[i] = t.a
	}
	return out
}

// TopIssues returns the first TopIssueLimit ranked actions. Trigger text is
// kept for P1 and P2 issues only.
func TopIssues(actions []Action, band ComplexityBand) []TopIssue {
	ranked := Rank(actions, band)
	if len(ranked) > TopIssueLimit {
		ranked = ranked[:TopIssueLimit]
	}
	out := make([]TopIssue, 0, len(ranked))
	for _, a := range ranked {
		issue := TopIssue{
			ActionID: a.ID,
			Title:    a.Title,
			Priority: Priority(strings.ToUpper(string(a.Priority))),
			Category: a.Category,
		}
		if r := a.Priority.Rank(); r == 1 || r == 2 {
			issue.TriggerText = a.TriggerText
		}
		out = append(out, issue)
	}
	return out
}
