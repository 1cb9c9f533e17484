package catalog

import (
	"testing"
)

// TestProductTitleFallbacks tests the title resolution priority chain
func TestProductTitleFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		fields   map[string]any
		rowNum   int
		expected string
	}{
		{"explicit title", map[string]any{"title": "Roma Double Bowl"}, 4, "Roma Double Bowl"},
		{"seo title fallback", map[string]any{"seo_title": "Roma Sink"}, 4, "Roma Sink"},
		{"brand and sku", map[string]any{"brand_name": "Acme", "variant_sku": "AC-100"}, 4, "Acme - AC-100"},
		{"sku only", map[string]any{"sku": "AC-100"}, 4, "Product AC-100"},
		{"brand only", map[string]any{"brand_name": "Acme"}, 4, "Acme Product"},
		{"row only", map[string]any{}, 7, "Product 7"},
	}
	for _, tt := range tests {
		p := &Product{RowNum: tt.rowNum, Fields: tt.fields}
		if got := p.Title(); got != tt.expected {
			t.Errorf("%s: Title() = %q, expected %q", tt.name, got, tt.expected)
		}
	}
}

// TestProductSKUPrefersVariant tests variant_sku over sku resolution
func TestProductSKUPrefersVariant(t *testing.T) {
	p := &Product{Fields: map[string]any{"sku": "S-1", "variant_sku": "VS-1"}}
	if p.SKU() != "VS-1" {
		t.Errorf("expected variant_sku to win, got %q", p.SKU())
	}

	p = &Product{Fields: map[string]any{"sku": "S-1", "variant_sku": "n/a"}}
	if p.SKU() != "S-1" {
		t.Errorf("expected placeholder variant_sku to be skipped, got %q", p.SKU())
	}
}

// TestMergeNeverClearsSKU tests that an empty fetched SKU keeps the existing one
func TestMergeNeverClearsSKU(t *testing.T) {
	p := NewStub(3)
	p.Merge(map[string]any{"variant_sku": "VS-9", "title": "Old"})
	p.Merge(map[string]any{"variant_sku": "", "title": "New"})

	if p.Str("variant_sku") != "VS-9" {
		t.Errorf("expected SKU preserved, got %q", p.Str("variant_sku"))
	}
	if p.Str("title") != "New" {
		t.Errorf("expected fetched title to override, got %q", p.Str("title"))
	}
	if p.Fields["row_num"] != 3 {
		t.Errorf("expected row_num pinned to 3, got %v", p.Fields["row_num"])
	}
}

// TestMarkHydratedIfComplete tests the required-key invariant
func TestMarkHydratedIfComplete(t *testing.T) {
	p := NewStub(1)
	p.Merge(map[string]any{"spec_sheet": "https://e.com/s.pdf", "body_html": "<p>x</p>"})
	p.MarkHydratedIfComplete()
	if p.State != StatePartial {
		t.Errorf("expected partial, got %s", p.State)
	}

	p.Merge(map[string]any{"shopify_images": []any{"a.jpg"}, "features": "Bullet"})
	p.MarkHydratedIfComplete()
	if p.State != StateHydrated {
		t.Errorf("expected hydrated, got %s", p.State)
	}
}

// TestPrecomputedScore tests authoritative score extraction and rounding
func TestPrecomputedScore(t *testing.T) {
	p := &Product{Fields: map[string]any{"quality_score": 54.6}}
	score, ok := p.PrecomputedScore()
	if !ok || score != 55 {
		t.Errorf("expected (55, true), got (%d, %v)", score, ok)
	}

	p = &Product{Fields: map[string]any{"completeness_percentage": "80"}}
	score, ok = p.PrecomputedScore()
	if !ok || score != 80 {
		t.Errorf("expected (80, true), got (%d, %v)", score, ok)
	}

	p = &Product{Fields: map[string]any{}}
	if _, ok := p.PrecomputedScore(); ok {
		t.Error("expected no precomputed score")
	}
}

// TestStrCoercion tests numeric field values reading back as clean strings
func TestStrCoercion(t *testing.T) {
	p := &Product{Fields: map[string]any{"warranty_years": float64(5), "bowl_depth_mm": "190"}}
	if got := p.Str("warranty_years"); got != "5" {
		t.Errorf("expected \"5\", got %q", got)
	}
	if got := p.Str("Bowl Depth (mm)"); got != "190" {
		t.Errorf("expected key-normalized lookup, got %q", got)
	}
}
