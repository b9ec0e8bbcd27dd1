package scoring

import "github.com/firesurvey/risk-engine/pkg/weighting"

// WeightedOverall combines per-factor ratings into one 1-5 score using the
// industry's factor weights. Absent ratings are skipped, never counted as
// zero. ok is false when no factor is rated.
func WeightedOverall(ratings map[weighting.Factor]Rating, industry string, tables *weighting.Tables) (score Rating, ok bool) {
	var sum, weights float64
	// Iterate the fixed factor universe so the float sum is order-stable.
	for _, info := range weighting.Factors() {
		r, found := ratings[info.Key]
		if !found || !r.Known() {
			continue
		}
		w := weighting.DefaultWeight
		if tables != nil {
			w = tables.FactorWeight(industry, info.Key)
		}
		sum += float64(r) * w
		weights += w
	}
	if weights == 0 {
		return Unknown, false
	}
	return clampRating(sum / weights), true
}
