package filter

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalogops/domain/catalog"
)

func tapsConfig(t *testing.T) *catalog.CategoryConfig {
	t.Helper()
	cfg, ok := catalog.ConfigFor(catalog.CollectionTaps)
	require.True(t, ok)
	return cfg
}

func snapshot() []*catalog.Product {
	return []*catalog.Product{
		{RowNum: 3, Fields: map[string]any{"title": "Wall Mixer Tap", "brand_name": "Acme", "quality_score": 85}},
		{RowNum: 1, Fields: map[string]any{"title": "Chrome Mixer", "brand_name": "Acme", "quality_score": 55}},
		{RowNum: 2, Fields: map[string]any{"title": "Basin Tap", "brand_name": "Bravo", "quality_score": 10}},
	}
}

// TestQuickFilterBuckets tests the score-bucket quick filters
func TestQuickFilterBuckets(t *testing.T) {
	cfg := tapsConfig(t)
	products := snapshot()

	tests := []struct {
		quick    Quick
		expected []int
	}{
		{QuickAll, []int{1, 2, 3}},
		{QuickMissingCritical, []int{2}},
		{QuickMissingSome, []int{1}},
		{QuickComplete, []int{3}},
	}
	for _, tt := range tests {
		entries := Apply(products, cfg, Criteria{Quick: tt.quick})
		var rows []int
		for _, e := range entries {
			rows = append(rows, e.Product.RowNum)
		}
		assert.Equal(t, tt.expected, rows, "quick=%s", tt.quick)
	}
}

// TestSortedAscendingByRow tests output ordering regardless of input order
func TestSortedAscendingByRow(t *testing.T) {
	entries := Apply(snapshot(), tapsConfig(t), Criteria{})
	require.Len(t, entries, 3)
	assert.Equal(t, 1, entries[0].Product.RowNum)
	assert.Equal(t, 2, entries[1].Product.RowNum)
	assert.Equal(t, 3, entries[2].Product.RowNum)
}

// TestFreeTextSearch tests case-insensitive matching on identity fields
func TestFreeTextSearch(t *testing.T) {
	entries := Apply(snapshot(), tapsConfig(t), Criteria{Search: "ACME"})
	assert.Len(t, entries, 2, "search is case-insensitive")
}

// TestSearchMatchesCategoryFields tests that a term present only in a
// category-specific attribute still finds exactly that product
func TestSearchMatchesCategoryFields(t *testing.T) {
	cfg, ok := catalog.ConfigFor(catalog.CollectionHotWater)
	require.True(t, ok)
	products := []*catalog.Product{
		{RowNum: 1, Fields: map[string]any{"title": "Compact Continuous Flow", "fuel_type": "Gas"}},
		{RowNum: 2, Fields: map[string]any{"title": "Storage Unit", "fuel_type": "Electric"}},
	}

	entries := Apply(products, cfg, Criteria{Search: "gas"})
	require.Len(t, entries, 1, "fuel_type is searchable for hot water")
	assert.Equal(t, 1, entries[0].Product.RowNum)

	entries = Apply(products, cfg, Criteria{Search: "electric"})
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].Product.RowNum)
}

// TestCriteriaCompose tests AND composition and order-independence in effect
func TestCriteriaCompose(t *testing.T) {
	cfg := tapsConfig(t)
	a := Apply(snapshot(), cfg, Criteria{Quick: QuickMissingSome, Brand: "Acme"})
	require.Len(t, a, 1)
	assert.Equal(t, 1, a[0].Product.RowNum)

	// Same criteria expressed through successive application
	first := Apply(snapshot(), cfg, Criteria{Brand: "Acme"})
	var products []*catalog.Product
	for _, e := range first {
		products = append(products, e.Product)
	}
	b := Apply(products, cfg, Criteria{Quick: QuickMissingSome})
	require.Len(t, b, 1)
	assert.Equal(t, a[0].Product.RowNum, b[0].Product.RowNum)
}

// TestSelectedFilter tests the explicit row selection set
func TestSelectedFilter(t *testing.T) {
	entries := Apply(snapshot(), tapsConfig(t), Criteria{
		Quick:    QuickSelected,
		Selected: map[int]bool{2: true, 3: true},
	})
	require.Len(t, entries, 2)
	assert.Equal(t, 2, entries[0].Product.RowNum)
	assert.Equal(t, 3, entries[1].Product.RowNum)
}

// TestMissingCustomFields tests operator-chosen field emptiness filtering
func TestMissingCustomFields(t *testing.T) {
	cfg := tapsConfig(t)
	products := []*catalog.Product{
		{RowNum: 1, Fields: map[string]any{"finish": "Chrome"}},
		{RowNum: 2, Fields: map[string]any{"finish": "none"}},
		{RowNum: 3, Fields: map[string]any{}},
	}
	entries := Apply(products, cfg, Criteria{Quick: QuickMissingCustom, CustomFields: []string{"finish"}})
	require.Len(t, entries, 2)
	assert.Equal(t, 2, entries[0].Product.RowNum)
	assert.Equal(t, 3, entries[1].Product.RowNum)
}

// TestDebouncerQuietPeriod tests that only the last rapid submission applies
func TestDebouncerQuietPeriod(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)

	var mu sync.Mutex
	var applied []string
	apply := func(term string, gen uint64) {
		mu.Lock()
		defer mu.Unlock()
		if d.Stale(gen) {
			return
		}
		applied = append(applied, term)
	}

	d.Submit("ch", apply)
	d.Submit("chr", apply)
	d.Submit("chrome", apply)

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"chrome"}, applied)
}

// TestDebouncerClearsImmediately tests the short-term fast path
func TestDebouncerClearsImmediately(t *testing.T) {
	d := NewDebouncer(time.Hour)

	fired := false
	d.Submit("", func(term string, gen uint64) { fired = true })
	assert.True(t, fired, "empty term must not wait for the quiet period")
}

// TestDebouncerStaleGenerations tests that superseded searches are droppable
func TestDebouncerStaleGenerations(t *testing.T) {
	d := NewDebouncer(time.Hour)
	gen1 := d.Submit("a", func(string, uint64) {})
	gen2 := d.Submit("b", func(string, uint64) {})

	assert.True(t, d.Stale(gen1))
	assert.False(t, d.Stale(gen2))
}
