package triggers

import (
	"github.com/firesurvey/risk-engine/pkg/scoring"
	"github.com/firesurvey/risk-engine/pkg/weighting"
)

// tier is an ordered list of sub-systems protecting one category. Only the
// first sub-system that fires in a family emits a descriptor.
type tier struct {
	category weighting.Factor
	systems  []subsystemState
}

type subsystemState struct {
	sub      Subsystem
	rating   scoring.Rating
	coverage scoring.Coverage
}

func buildingTiers(f scoring.BuildingFactors) []tier {
	return []tier{
		{
			category: weighting.FireProtection,
			systems: []subsystemState{
				{Sprinklers, f.Sprinklers, f.SprinklerCoverage},
				{WaterMist, f.WaterMist, f.WaterMistCoverage},
			},
		},
		{
			category: weighting.DetectionAndAlarm,
			systems: []subsystemState{
				{Detection, f.Detection, f.DetectionCoverage},
			},
		},
	}
}

// EvaluateBuilding applies both trigger families to one building. Per
// category at most one inadequate-rating and one coverage-gap descriptor is
// emitted; a secondary sub-system is only considered when the primary did not
// fire in that family.
func EvaluateBuilding(b scoring.Building) []Descriptor {
	var out []Descriptor
	for _, t := range buildingTiers(b.Factors) {
		for _, s := range t.systems {
			if p, ok := InadequateRating(s.rating); ok {
				out = append(out, inadequateDescriptor(ScopeBuilding, b.ID, t.category, s.sub, s.rating, p))
				break
			}
		}
		for _, s := range t.systems {
			if p, gap, ok := CoverageGap(s.coverage.Required, s.coverage.Provided); ok {
				out = append(out, coverageDescriptor(b.ID, t.category, s.sub,
					*s.coverage.Required, *s.coverage.Provided, gap, p))
				break
			}
		}
	}
	return out
}

// EvaluateSite applies the site-scoped rules.
func EvaluateSite(site scoring.SiteFactors) []Descriptor {
	if p, ok := InadequateRating(site.WaterSupplyRating); ok {
		return []Descriptor{inadequateDescriptor(ScopeSite, "", weighting.WaterSupply, WaterSupply, site.WaterSupplyRating, p)}
	}
	return nil
}

// Evaluate runs every rule over a site and its buildings. Descriptors come
// back in building input order followed by site descriptors; an identifier
// seen twice, for example from a repeated building ID, is emitted once.
func Evaluate(buildings []scoring.Building, site scoring.SiteFactors) []Descriptor {
	seen := make(map[string]struct{})
	var out []Descriptor
	add := func(ds []Descriptor) {
		for _, d := range ds {
			if _, dup := seen[d.ID]; dup {
				continue
			}
			seen[d.ID] = struct{}{}
			out = append(out, d)
		}
	}
	for _, b := range buildings {
		add(EvaluateBuilding(b))
	}
	add(EvaluateSite(site))
	return out
}
