package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// HydrationState tags how much of a product record has been loaded. Partially
// loaded records must never be treated as authoritative for save or export.
type HydrationState int

const (
	StateStub HydrationState = iota
	StatePartial
	StateHydrated
)

func (s HydrationState) String() string {
	switch s {
	case StateStub:
		return "stub"
	case StatePartial:
		return "partial"
	case StateHydrated:
		return "hydrated"
	default:
		return "unknown"
	}
}

// hydratedKeys must all be present before a record may be marked Hydrated.
var hydratedKeys = []string{"spec_sheet", "shopify_images", "body_html", "features"}

// Product is one catalog item keyed by its source-sheet row number. Fields
// holds the open-ended attribute set under canonical snake_case keys; values
// are whatever JSON shape the backend sent (strings, numbers, arrays).
type Product struct {
	RowNum int
	State  HydrationState
	Fields map[string]any
}

// NewStub creates a minimal product record for a row referenced before it has
// been loaded.
func NewStub(rowNum int) *Product {
	return &Product{
		RowNum: rowNum,
		State:  StateStub,
		Fields: map[string]any{"row_num": rowNum},
	}
}

// Str returns the field value coerced to a trimmed string. Numeric values
// format without a trailing ".0" so "5" and 5 compare equal downstream.
func (p *Product) Str(key string) string {
	if p == nil || p.Fields == nil {
		return ""
	}
	return coerceString(p.Fields[NormalizeKey(key)])
}

func coerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", val))
	}
}

// Has reports whether the field carries a meaningful value per the shared
// non-value token rule. Numeric zero is meaningful here; validity rules that
// reject non-positive counts live in the classifier.
func (p *Product) Has(key string) bool {
	return IsMeaningful(p.Str(key))
}

// SKU resolves the product's SKU, preferring variant_sku over sku.
func (p *Product) SKU() string {
	if v := p.Str("variant_sku"); IsMeaningful(v) {
		return v
	}
	if v := p.Str("sku"); IsMeaningful(v) {
		return v
	}
	return ""
}

// Title resolves the display title with identity fallbacks, never returning
// an empty string while any identity data exists.
func (p *Product) Title() string {
	for _, key := range []string{"title", "product_title", "seo_title"} {
		if v := p.Str(key); IsMeaningful(v) {
			return v
		}
	}
	return FallbackTitle(p.Brand(), p.SKU(), p.RowNum)
}

// Brand resolves the brand/vendor name.
func (p *Product) Brand() string {
	if v := p.Str("brand_name"); IsMeaningful(v) {
		return v
	}
	if v := p.Str("vendor"); IsMeaningful(v) {
		return v
	}
	return ""
}

// FallbackTitle builds a title from whatever identity data exists, in fixed
// priority order.
func FallbackTitle(brand, sku string, rowNum int) string {
	switch {
	case IsMeaningful(brand) && IsMeaningful(sku):
		return fmt.Sprintf("%s - %s", brand, sku)
	case IsMeaningful(sku):
		return fmt.Sprintf("Product %s", sku)
	case IsMeaningful(brand):
		return fmt.Sprintf("%s Product", brand)
	case rowNum > 0:
		return fmt.Sprintf("Product %d", rowNum)
	default:
		return ""
	}
}

// PrecomputedScore returns an authoritative backend-provided completeness
// score, rounded to the nearest integer, when one is attached.
func (p *Product) PrecomputedScore() (int, bool) {
	for _, key := range []string{"quality_score", "completeness_percentage"} {
		raw := p.Str(key)
		if !IsMeaningful(raw) {
			continue
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return clampScore(int(f + 0.5)), true
		}
	}
	return 0, false
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Merge overlays fetched fields onto the record: fetched values win, except
// that a non-empty existing SKU is never replaced by an empty fetched one.
func (p *Product) Merge(fetched map[string]any) {
	if p.Fields == nil {
		p.Fields = make(map[string]any, len(fetched))
	}
	for key, value := range fetched {
		norm := NormalizeKey(key)
		if norm == "" {
			continue
		}
		if (norm == "sku" || norm == "variant_sku") &&
			!IsMeaningful(coerceString(value)) && IsMeaningful(coerceString(p.Fields[norm])) {
			continue
		}
		p.Fields[norm] = value
	}
	p.Fields["row_num"] = p.RowNum
}

// MarkHydratedIfComplete upgrades the record to Hydrated when the required
// key set is present, otherwise leaves it Partial.
func (p *Product) MarkHydratedIfComplete() {
	for _, key := range hydratedKeys {
		if _, ok := p.Fields[key]; !ok {
			p.State = StatePartial
			return
		}
	}
	p.State = StateHydrated
}

// Clone returns a shallow copy with its own field map, so a caller can hand
// out snapshots without exposing the cache's backing map.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	fields := make(map[string]any, len(p.Fields))
	for k, v := range p.Fields {
		fields[k] = v
	}
	return &Product{RowNum: p.RowNum, State: p.State, Fields: fields}
}
