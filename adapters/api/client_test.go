package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalogops/domain/catalog"
	"catalogops/internal/config"
	"catalogops/internal/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.BackendConfig{
		BaseURL:        server.URL,
		RequestTimeout: 5 * time.Second,
		BulkTimeout:    5 * time.Second,
		RetryMax:       0,
	})
}

// TestPaginatedProducts tests page decoding and row-key conversion
func TestPaginatedProducts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sinks/products/paginated", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		io.WriteString(w, `{
			"success": true,
			"products": {"4": {"title": "Roma"}, "7": {"title": "Capri"}, "bad": {}},
			"pagination": {"current_page": 2, "has_next": true, "total_count": 120, "total_pages": 3}
		}`)
	})

	page, err := client.PaginatedProducts(context.Background(), catalog.CollectionSinks, 2, 50)
	require.NoError(t, err)
	assert.Len(t, page.Products, 2, "unusable row keys are dropped")
	assert.Equal(t, "Roma", page.Products[4]["title"])
	assert.True(t, page.Pagination.HasNext)
	assert.Equal(t, 120, page.Pagination.TotalCount)
}

// TestProductNotFound tests the missing-product classification
func TestProductNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success": true}`)
	})

	_, err := client.Product(context.Background(), catalog.CollectionSinks, 9)
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

// TestSaveFieldsSingleUsesFieldValueForm tests the single-edit payload shape
func TestSaveFieldsSingleUsesFieldValueForm(t *testing.T) {
	var received map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		io.WriteString(w, `{"success": true}`)
	})

	err := client.SaveFields(context.Background(), catalog.CollectionTaps, 3, map[string]string{"title": "New Title"})
	require.NoError(t, err)
	assert.Equal(t, "title", received["field"])
	assert.Equal(t, "New Title", received["value"])
}

// TestSaveFieldsMapForm tests the multi-edit payload shape
func TestSaveFieldsMapForm(t *testing.T) {
	var received map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		io.WriteString(w, `{"success": true}`)
	})

	err := client.SaveFields(context.Background(), catalog.CollectionTaps, 3,
		map[string]string{"title": "T", "brand_name": "B"})
	require.NoError(t, err)
	assert.Equal(t, "T", received["title"])
	assert.Equal(t, "B", received["brand_name"])
}

// TestSuccessFalseSurfacesBackendMessage tests the success-flag envelope rule
func TestSuccessFalseSurfacesBackendMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success": false, "error": "row is locked"}`)
	})

	err := client.SaveFields(context.Background(), catalog.CollectionTaps, 3, map[string]string{"title": "T"})
	require.Error(t, err)
	assert.Equal(t, errors.CodeBackendError, errors.GetCode(err))
	assert.Contains(t, err.Error(), "row is locked")
}

// TestMissingInfoReturnsRawAnalysis tests extraction of the analysis array
func TestMissingInfoReturnsRawAnalysis(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success": true, "missing_info_analysis": [{"sku": "A1"}], "summary": {}}`)
	})

	raw, err := client.MissingInfo(context.Background(), catalog.CollectionSinks)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"sku": "A1"}]`, string(raw))
}

// TestProcessDecodesSummaryShapes tests tolerant bulk-outcome decoding
func TestProcessDecodesSummaryShapes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success": true, "summary": {"successful": 2, "failed": 1, "skipped": 1}}`)
	})

	outcome, err := client.ProcessExtract(context.Background(), catalog.CollectionSinks, []int{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Succeeded)
	assert.Equal(t, 1, outcome.Failed)
	assert.Equal(t, 1, outcome.Skipped)
}

// TestProcessTimeoutIsStillRunning tests the background-continuation outcome
func TestProcessTimeoutIsStillRunning(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		io.WriteString(w, `{"success": true}`)
	})
	client.bulkTimeout = 50 * time.Millisecond

	_, err := client.ProcessDescriptions(context.Background(), catalog.CollectionSinks, []int{1})
	require.Error(t, err)
	assert.True(t, errors.IsStillRunning(err), "client timeout must not read as failure: %v", err)
}

// TestSyncStatusEnvelope tests the sync status contract
func TestSyncStatusEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/hot_water/sync", r.URL.Path)
		io.WriteString(w, `{"status": "success"}`)
	})
	require.NoError(t, client.Sync(context.Background(), catalog.CollectionHotWater))

	failing := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status": "error", "error": "sheet busy"}`)
	})
	err := failing.Sync(context.Background(), catalog.CollectionHotWater)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheet busy")
}

// TestNonOKStatus tests the non-2xx classification
func TestNonOKStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	_, err := client.Product(context.Background(), catalog.CollectionSinks, 1)
	require.Error(t, err)
	assert.Equal(t, errors.CodeBackendError, errors.GetCode(err))
}
