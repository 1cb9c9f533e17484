// Package filter narrows the cached product set by quality bucket, explicit
// selection, missing-field choice, free text, and brand. Everything operates
// on a cache snapshot; criteria compose with logical AND.
package filter

import (
	"sort"
	"strings"

	"catalogops/domain/catalog"
	"catalogops/domain/completeness"
)

// Quick names the one-click quality filters.
type Quick string

const (
	QuickAll             Quick = "all"
	QuickMissingCritical Quick = "missing-critical" // score < 30
	QuickMissingSome     Quick = "missing-some"     // 30 <= score < 80
	QuickComplete        Quick = "complete"         // score >= 80
	QuickSelected        Quick = "selected"
	QuickMissingCustom   Quick = "missing-custom-fields"
)

// Score bucket boundaries shared with the dashboard summary.
const (
	CriticalBelow = 30
	CompleteFrom  = 80
)

// Criteria is one filter request. Zero value means "everything".
type Criteria struct {
	Quick        Quick
	Selected     map[int]bool
	CustomFields []string
	Search       string
	Brand        string
}

// Entry pairs a product with its computed completeness, ready for rendering.
type Entry struct {
	Product        *catalog.Product
	Score          int
	Classification completeness.Classification
}

// identitySearchKeys are always searched regardless of category; the
// category's configured critical and recommended fields are searched on top,
// so attributes like fuel_type or bulb_type match where they exist.
var identitySearchKeys = []string{"title", "sku", "variant_sku", "brand_name", "vendor"}

// Apply filters a snapshot and returns entries sorted ascending by row
// number. All present criteria must hold for a product to be included.
func Apply(products []*catalog.Product, cfg *catalog.CategoryConfig, crit Criteria) []Entry {
	search := strings.ToLower(strings.TrimSpace(crit.Search))

	out := make([]Entry, 0, len(products))
	for _, p := range products {
		entry := Entry{
			Product:        p,
			Score:          completeness.Score(p, cfg),
			Classification: completeness.Classify(p, cfg),
		}
		if !matchesQuick(entry, cfg, crit) {
			continue
		}
		if search != "" && !matchesSearch(p, cfg, search) {
			continue
		}
		if crit.Brand != "" && p.Brand() != crit.Brand {
			continue
		}
		out = append(out, entry)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Product.RowNum < out[j].Product.RowNum })
	return out
}

func matchesQuick(entry Entry, cfg *catalog.CategoryConfig, crit Criteria) bool {
	switch crit.Quick {
	case "", QuickAll:
		return true
	case QuickMissingCritical:
		return entry.Score < CriticalBelow
	case QuickMissingSome:
		return entry.Score >= CriticalBelow && entry.Score < CompleteFrom
	case QuickComplete:
		return entry.Score >= CompleteFrom
	case QuickSelected:
		return crit.Selected[entry.Product.RowNum]
	case QuickMissingCustom:
		for _, key := range crit.CustomFields {
			if !completeness.FieldPresent(entry.Product, key, cfg.RuleFor(key)) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

func matchesSearch(p *catalog.Product, cfg *catalog.CategoryConfig, loweredTerm string) bool {
	for _, key := range identitySearchKeys {
		if strings.Contains(strings.ToLower(p.Str(key)), loweredTerm) {
			return true
		}
	}
	for _, key := range cfg.CriticalFields {
		if strings.Contains(strings.ToLower(p.Str(key)), loweredTerm) {
			return true
		}
	}
	for _, key := range cfg.RecommendedFields {
		if strings.Contains(strings.ToLower(p.Str(key)), loweredTerm) {
			return true
		}
	}
	return false
}
