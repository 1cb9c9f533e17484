package cache

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalogops/domain/catalog"
	"catalogops/ports"
)

// fakeAPI serves canned single-product responses and counts fetches.
type fakeAPI struct {
	ports.CatalogAPI
	products map[int]map[string]any
	fetches  atomic.Int64
}

func (f *fakeAPI) Product(_ context.Context, _ catalog.Collection, rowNum int) (map[string]any, error) {
	f.fetches.Add(1)
	fields, ok := f.products[rowNum]
	if !ok {
		return map[string]any{"row_num": rowNum}, nil
	}
	return fields, nil
}

func fullRecord() map[string]any {
	return map[string]any{
		"title":          "Roma Sink",
		"variant_sku":    "RS-1",
		"spec_sheet":     "https://example.com/rs1.pdf",
		"shopify_images": []any{"rs1.jpg"},
		"body_html":      "<p>desc</p>",
		"features":       "Deep bowl",
	}
}

// TestHydrateShortCircuit tests that a hydrated record is never refetched
func TestHydrateShortCircuit(t *testing.T) {
	api := &fakeAPI{products: map[int]map[string]any{5: fullRecord()}}
	c := New(catalog.CollectionSinks, api)

	p, err := c.Hydrate(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, catalog.StateHydrated, p.State)
	assert.Equal(t, int64(1), api.fetches.Load())

	_, err = c.Hydrate(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), api.fetches.Load(), "hydrated record must short-circuit")
}

// TestHydratePartialResponse tests that an incomplete fetch stays partial
func TestHydratePartialResponse(t *testing.T) {
	api := &fakeAPI{products: map[int]map[string]any{9: {"title": "Half Loaded"}}}
	c := New(catalog.CollectionSinks, api)

	p, err := c.Hydrate(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, catalog.StatePartial, p.State, "partially loaded records are not authoritative")

	// Not hydrated, so the next call fetches again.
	_, err = c.Hydrate(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, int64(2), api.fetches.Load())
}

// TestHydrateKeepsExistingSKU tests the never-clear-SKU merge rule
func TestHydrateKeepsExistingSKU(t *testing.T) {
	record := fullRecord()
	record["variant_sku"] = ""
	delete(record, "sku")
	api := &fakeAPI{products: map[int]map[string]any{3: record}}
	c := New(catalog.CollectionSinks, api)

	c.Upsert(3, map[string]any{"variant_sku": "KEEP-3"})
	p, err := c.Hydrate(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "KEEP-3", p.SKU())
}

// TestUpsertCreatesStub tests stub synthesis and row pinning
func TestUpsertCreatesStub(t *testing.T) {
	c := New(catalog.CollectionTaps, &fakeAPI{})
	p := c.Upsert(12, map[string]any{"title": "New Tap"})

	assert.Equal(t, 12, p.RowNum)
	assert.Equal(t, catalog.StatePartial, p.State)
	assert.Equal(t, 12, p.Fields["row_num"])

	got, ok := c.Get(12)
	require.True(t, ok)
	assert.Equal(t, "New Tap", got.Str("title"))
}

// TestGetBySKU tests the linear-scan SKU lookup
func TestGetBySKU(t *testing.T) {
	c := New(catalog.CollectionTaps, &fakeAPI{})
	c.Upsert(1, map[string]any{"variant_sku": "T-1"})
	c.Upsert(2, map[string]any{"sku": "T-2"})

	p, ok := c.GetBySKU("T-2")
	require.True(t, ok)
	assert.Equal(t, 2, p.RowNum)

	_, ok = c.GetBySKU("unknown")
	assert.False(t, ok)
	_, ok = c.GetBySKU("n/a")
	assert.False(t, ok, "placeholder tokens never match")
}

// TestSnapshotSortedAndDetached tests ordering and clone isolation
func TestSnapshotSortedAndDetached(t *testing.T) {
	c := New(catalog.CollectionTaps, &fakeAPI{})
	c.Upsert(7, map[string]any{"title": "C"})
	c.Upsert(2, map[string]any{"title": "A"})
	c.Upsert(4, map[string]any{"title": "B"})

	snap := c.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, []int{2, 4, 7}, []int{snap[0].RowNum, snap[1].RowNum, snap[2].RowNum})

	snap[0].Fields["title"] = "mutated"
	fresh, _ := c.Get(2)
	assert.Equal(t, "A", fresh.Str("title"), "snapshot mutation must not leak into the cache")
}

// TestReplaceDiscardsOldRows tests wholesale replacement on reload
func TestReplaceDiscardsOldRows(t *testing.T) {
	c := New(catalog.CollectionTaps, &fakeAPI{})
	c.Upsert(1, map[string]any{"title": "Old"})

	c.Replace(map[int]map[string]any{8: {"title": "Fresh"}})
	_, ok := c.Get(1)
	assert.False(t, ok)
	p, ok := c.Get(8)
	require.True(t, ok)
	assert.Equal(t, "Fresh", p.Str("title"))
}
