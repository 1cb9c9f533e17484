// Package analysis reconciles the backend's heterogeneous missing-info
// payloads into canonical per-product records and merges duplicate entries
// that describe the same logical product.
package analysis

import (
	"catalogops/domain/catalog"
)

// MissingField is one field's classification on one product.
type MissingField struct {
	Key      string `json:"key"`
	Critical bool   `json:"critical"`
	Display  string `json:"display"`
}

// Record is the canonical per-product missing-field summary used by the
// filter engine and the guided-fix wizard.
type Record struct {
	RowNum      int            `json:"row_num"` // 0 when unresolved
	SKU         string         `json:"sku"`
	Title       string         `json:"title"`
	Brand       string         `json:"brand"`
	Score       int            `json:"score"`
	Missing     []MissingField `json:"missing_fields"`
	ProductData map[string]any `json:"product_data,omitempty"`
}

// CriticalCount returns how many of the record's missing fields are critical.
func (r *Record) CriticalCount() int {
	n := 0
	for _, mf := range r.Missing {
		if mf.Critical {
			n++
		}
	}
	return n
}

// HasMissing reports whether the field key is on the record's missing list.
func (r *Record) HasMissing(key string) bool {
	norm := catalog.NormalizeKey(key)
	for _, mf := range r.Missing {
		if mf.Key == norm {
			return true
		}
	}
	return false
}

// newMissingField builds the canonical missing-field entry, forcing the
// critical flag for keys on the fallback-critical list.
func newMissingField(key string, declaredCritical bool) (MissingField, bool) {
	norm := catalog.NormalizeKey(key)
	if norm == "" {
		return MissingField{}, false
	}
	return MissingField{
		Key:      norm,
		Critical: declaredCritical || catalog.IsFallbackCritical(norm),
		Display:  catalog.HumanizeKey(norm),
	}, true
}
