package completeness

import (
	"math"

	"catalogops/domain/catalog"
)

// Weight split between the two field groups. Critical fields dominate the
// score so a product cannot look healthy on recommended fields alone.
const (
	criticalWeight    = 70.0
	recommendedWeight = 30.0
)

// Score computes the product's 0-100 completeness. A backend-attached
// quality_score/completeness_percentage is authoritative and wins over
// recomputation. A group with zero configured fields counts as fully
// satisfied.
func Score(p *catalog.Product, cfg *catalog.CategoryConfig) int {
	if pre, ok := p.PrecomputedScore(); ok {
		return pre
	}
	return Recompute(p, cfg)
}

// Recompute derives the score purely from the classified fields, ignoring any
// precomputed value.
func Recompute(p *catalog.Product, cfg *catalog.CategoryConfig) int {
	critical := groupFraction(p, cfg, cfg.CriticalFields)
	recommended := groupFraction(p, cfg, cfg.RecommendedFields)
	raw := criticalWeight*critical + recommendedWeight*recommended
	return int(math.Round(raw))
}

func groupFraction(p *catalog.Product, cfg *catalog.CategoryConfig, fields []string) float64 {
	if len(fields) == 0 {
		return 1
	}
	present := 0
	for _, key := range fields {
		if FieldPresent(p, key, cfg.RuleFor(key)) {
			present++
		}
	}
	return float64(present) / float64(len(fields))
}
