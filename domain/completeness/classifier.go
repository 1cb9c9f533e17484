// Package completeness classifies product fields as present or missing and
// turns the result into a 0-100 completeness score. Everything here is a pure
// function of (product, category config).
package completeness

import (
	"net/url"
	"strconv"

	"catalogops/domain/catalog"
)

// Classification holds the disjoint missing-field lists for one product,
// ordered as the category config declares them.
type Classification struct {
	MissingCritical    []string
	MissingRecommended []string
}

// CriticalCount returns how many critical fields are missing.
func (c Classification) CriticalCount() int {
	return len(c.MissingCritical)
}

// Classify checks every configured field of the product and splits the absent
// or invalid ones into critical and recommended lists.
func Classify(p *catalog.Product, cfg *catalog.CategoryConfig) Classification {
	var out Classification
	for _, key := range cfg.CriticalFields {
		if !FieldPresent(p, key, cfg.RuleFor(key)) {
			out.MissingCritical = append(out.MissingCritical, catalog.NormalizeKey(key))
		}
	}
	for _, key := range cfg.RecommendedFields {
		if !FieldPresent(p, key, cfg.RuleFor(key)) {
			out.MissingRecommended = append(out.MissingRecommended, catalog.NormalizeKey(key))
		}
	}
	return out
}

// FieldPresent applies the emptiness rule plus the field's validity rule.
// Numeric zero is only rejected by RulePositiveCount; bare emptiness checking
// accepts it.
func FieldPresent(p *catalog.Product, key string, rule catalog.FieldRule) bool {
	value := p.Str(key)
	if !catalog.IsMeaningful(value) {
		return false
	}
	switch rule {
	case catalog.RulePositiveCount:
		f, err := strconv.ParseFloat(value, 64)
		return err == nil && f > 0
	case catalog.RuleURL:
		u, err := url.ParseRequestURI(value)
		return err == nil && u.Scheme != "" && u.Host != ""
	default:
		return true
	}
}
