package ports

import (
	"context"

	"catalogops/domain/catalog"
)

// Page is one paginated slice of products keyed by row number.
type Page struct {
	Products   map[int]map[string]any
	Pagination Pagination
}

// Pagination mirrors the backend's paging envelope.
type Pagination struct {
	CurrentPage int  `json:"current_page"`
	HasNext     bool `json:"has_next"`
	HasPrev     bool `json:"has_prev"`
	TotalCount  int  `json:"total_count"`
	TotalPages  int  `json:"total_pages"`
}

// BulkOutcome reports a multi-item backend operation: partial failures
// report counts rather than failing the batch.
type BulkOutcome struct {
	Succeeded int
	Failed    int
	Skipped   int
	Detail    string
}

// CatalogAPI is the external catalog backend this dashboard curates. All
// persistence lives behind it.
type CatalogAPI interface {
	// PaginatedProducts fetches one page of products for a collection.
	PaginatedProducts(ctx context.Context, collection catalog.Collection, page, limit int) (*Page, error)

	// Product fetches the full single-product record.
	Product(ctx context.Context, collection catalog.Collection, rowNum int) (map[string]any, error)

	// SaveFields writes one or more field edits back to the sheet row.
	SaveFields(ctx context.Context, collection catalog.Collection, rowNum int, fields map[string]string) error

	// MissingInfo fetches the raw per-product missing-field analysis payload.
	MissingInfo(ctx context.Context, collection catalog.Collection) ([]byte, error)

	// ProcessExtract triggers AI attribute extraction for the selected rows.
	ProcessExtract(ctx context.Context, collection catalog.Collection, rows []int) (*BulkOutcome, error)

	// ProcessDescriptions triggers AI description generation for the selected rows.
	ProcessDescriptions(ctx context.Context, collection catalog.Collection, rows []int) (*BulkOutcome, error)

	// ProcessExtractImages triggers image extraction for the selected rows.
	ProcessExtractImages(ctx context.Context, collection catalog.Collection, rows []int) (*BulkOutcome, error)

	// Sync pushes the sheet state to the e-commerce platform.
	Sync(ctx context.Context, collection catalog.Collection) error
}
