package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"catalogops/domain/analysis"
	"catalogops/domain/catalog"
	"catalogops/internal/cache"
	"catalogops/internal/errors"
	"catalogops/internal/filter"
	"catalogops/internal/insights"
	"catalogops/internal/wizard"
	"catalogops/ports"
)

// Concurrency ceilings for backend traffic: page prefetch fans out, bulk
// process operations are serialized harder because the backend runs AI jobs.
const (
	pageFetchParallelism = 4
	bulkSlots            = 2
)

// CurationService orchestrates the dashboard's work against the catalog
// backend: loading collections into the cache, refreshing the missing-field
// analysis, saving edits, bulk operations, sync, and export.
type CurationService struct {
	api      ports.CatalogAPI
	audit    ports.AuditRepository
	exporter ports.Exporter
	pageSize int

	caches map[catalog.Collection]*cache.ProductCache

	analysesMu sync.RWMutex
	analyses   map[catalog.Collection][]analysis.Record

	wizardMu         sync.Mutex
	wizard           *wizard.Manager
	wizardCollection catalog.Collection

	bulkSem *semaphore.Weighted
}

// SaveResult reports a multi-field save: partial failures surface as counts
// and named fields, never as a batch-wide error. Code carries
// PARTIAL_FAILURE when any field was rejected.
type SaveResult struct {
	Saved        int      `json:"saved"`
	Skipped      int      `json:"skipped"`
	FailedFields []string `json:"failed_fields,omitempty"`
	Code         string   `json:"code,omitempty"`
}

// BulkOperation names the backend process endpoints.
type BulkOperation string

const (
	BulkExtract       BulkOperation = "extract"
	BulkDescriptions  BulkOperation = "descriptions"
	BulkExtractImages BulkOperation = "extract-images"
)

// NewCurationService creates the service with one cache per curated
// collection.
func NewCurationService(api ports.CatalogAPI, audit ports.AuditRepository, exporter ports.Exporter, collections []catalog.Collection, pageSize, wizardMaxQueue int) *CurationService {
	caches := make(map[catalog.Collection]*cache.ProductCache, len(collections))
	for _, coll := range collections {
		caches[coll] = cache.New(coll, api)
	}
	return &CurationService{
		api:      api,
		audit:    audit,
		exporter: exporter,
		pageSize: pageSize,
		caches:   caches,
		analyses: make(map[catalog.Collection][]analysis.Record),
		wizard:   wizard.NewManager(wizardMaxQueue),
		bulkSem:  semaphore.NewWeighted(bulkSlots),
	}
}

// Cache returns the product cache for a collection.
func (s *CurationService) Cache(collection catalog.Collection) (*cache.ProductCache, error) {
	c, ok := s.caches[collection]
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("collection %s", collection))
	}
	return c, nil
}

// Config returns the category configuration for a curated collection.
func (s *CurationService) Config(collection catalog.Collection) (*catalog.CategoryConfig, error) {
	if _, err := s.Cache(collection); err != nil {
		return nil, err
	}
	cfg, ok := catalog.ConfigFor(collection)
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("category config for %s", collection))
	}
	return cfg, nil
}

// LoadCollection walks the paginated endpoint into the cache: the first page
// replaces the store wholesale, remaining pages are prefetched concurrently
// and absorbed. Returns the number of cached products.
func (s *CurationService) LoadCollection(ctx context.Context, collection catalog.Collection) (int, error) {
	c, err := s.Cache(collection)
	if err != nil {
		return 0, err
	}

	first, err := s.api.PaginatedProducts(ctx, collection, 1, s.pageSize)
	if err != nil {
		return 0, errors.Wrapf(err, "loading %s page 1", collection)
	}
	c.Replace(first.Products)

	totalPages := first.Pagination.TotalPages
	if totalPages > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(pageFetchParallelism)
		for page := 2; page <= totalPages; page++ {
			g.Go(func() error {
				p, err := s.api.PaginatedProducts(gctx, collection, page, s.pageSize)
				if err != nil {
					return errors.Wrapf(err, "loading %s page %d", collection, page)
				}
				c.Absorb(p.Products)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return c.Len(), err
		}
	}

	log.Printf("[Curation] loaded %d products into %s cache", c.Len(), collection)
	return c.Len(), nil
}

// RefreshAnalysis pulls the missing-info payload, normalizes and merges it,
// and folds any nested product data back into the cache.
func (s *CurationService) RefreshAnalysis(ctx context.Context, collection catalog.Collection) ([]analysis.Record, error) {
	c, err := s.Cache(collection)
	if err != nil {
		return nil, err
	}

	raw, err := s.api.MissingInfo(ctx, collection)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching missing-info analysis for %s", collection)
	}

	records := analysis.Deduplicate(analysis.Normalize(raw))
	for i := range records {
		rec := &records[i]
		if rec.RowNum == 0 && rec.SKU != "" {
			if p, ok := c.GetBySKU(rec.SKU); ok {
				rec.RowNum = p.RowNum
			}
		}
		if rec.RowNum > 0 && len(rec.ProductData) > 0 {
			c.Upsert(rec.RowNum, rec.ProductData)
		}
	}

	s.analysesMu.Lock()
	s.analyses[collection] = records
	s.analysesMu.Unlock()

	log.Printf("[Curation] analysis for %s: %d merged records", collection, len(records))
	return records, nil
}

// Analysis returns the last refreshed analysis records for a collection.
func (s *CurationService) Analysis(collection catalog.Collection) []analysis.Record {
	s.analysesMu.RLock()
	defer s.analysesMu.RUnlock()
	records := s.analyses[collection]
	out := make([]analysis.Record, len(records))
	copy(out, records)
	return out
}

// SaveField pushes one edit to the backend, updates the cache, and records
// the audit entry. Auditing failures are logged, never propagated.
func (s *CurationService) SaveField(ctx context.Context, collection catalog.Collection, rowNum int, fieldKey, value, actor string) error {
	c, err := s.Cache(collection)
	if err != nil {
		return err
	}
	cfg, err := s.Config(collection)
	if err != nil {
		return err
	}
	fieldKey = cfg.DataKey(fieldKey)
	if fieldKey == "" {
		return errors.ValidationError("field key is required")
	}

	oldValue := ""
	if existing, ok := c.Get(rowNum); ok {
		oldValue = existing.Str(fieldKey)
	}

	if err := s.api.SaveFields(ctx, collection, rowNum, map[string]string{fieldKey: value}); err != nil {
		return errors.Wrapf(err, "saving %s on row %d", fieldKey, rowNum)
	}
	c.Upsert(rowNum, map[string]any{fieldKey: value})

	entry := ports.AuditEntry{
		Collection: collection,
		RowNum:     rowNum,
		FieldKey:   fieldKey,
		OldValue:   oldValue,
		NewValue:   value,
		Actor:      actor,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		log.Printf("[Curation] audit record failed for %s row %d: %v", collection, rowNum, err)
	}
	return nil
}

// SaveFields saves a set of edits field by field so one rejected value does
// not sink the rest. Unchanged values are skipped.
func (s *CurationService) SaveFields(ctx context.Context, collection catalog.Collection, rowNum int, fields map[string]string, actor string) (*SaveResult, error) {
	c, err := s.Cache(collection)
	if err != nil {
		return nil, err
	}
	cfg, err := s.Config(collection)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errors.ValidationError("no fields to save")
	}

	existing, _ := c.Get(rowNum)
	result := &SaveResult{}
	for key, value := range fields {
		norm := cfg.DataKey(key)
		if norm == "" {
			result.Skipped++
			continue
		}
		if existing != nil && existing.Str(norm) == value {
			result.Skipped++
			continue
		}
		if err := s.SaveField(ctx, collection, rowNum, norm, value, actor); err != nil {
			log.Printf("[Curation] save failed for %s.%s row %d: %v", collection, norm, rowNum, err)
			result.FailedFields = append(result.FailedFields, norm)
			continue
		}
		result.Saved++
	}
	if len(result.FailedFields) > 0 {
		result.Code = errors.CodePartialFailure
	}
	return result, nil
}

// RunBulk triggers one backend process operation for the selected rows,
// bounded by the bulk semaphore. A client-side timeout comes back as the
// still-running status and must be surfaced as such.
func (s *CurationService) RunBulk(ctx context.Context, collection catalog.Collection, op BulkOperation, rows []int) (*ports.BulkOutcome, error) {
	if _, err := s.Cache(collection); err != nil {
		return nil, err
	}
	if err := s.bulkSem.Acquire(ctx, 1); err != nil {
		return nil, errors.Wrap(err, "waiting for a bulk slot")
	}
	defer s.bulkSem.Release(1)

	switch op {
	case BulkExtract:
		return s.api.ProcessExtract(ctx, collection, rows)
	case BulkDescriptions:
		return s.api.ProcessDescriptions(ctx, collection, rows)
	case BulkExtractImages:
		return s.api.ProcessExtractImages(ctx, collection, rows)
	default:
		return nil, errors.ValidationError(fmt.Sprintf("unknown bulk operation %q", op))
	}
}

// SyncCollection pushes the sheet state to the e-commerce platform.
func (s *CurationService) SyncCollection(ctx context.Context, collection catalog.Collection) error {
	if _, err := s.Cache(collection); err != nil {
		return err
	}
	if err := s.api.Sync(ctx, collection); err != nil {
		return errors.Wrapf(err, "syncing %s", collection)
	}
	return nil
}

// Filter applies criteria over the current cache snapshot.
func (s *CurationService) Filter(collection catalog.Collection, crit filter.Criteria) ([]filter.Entry, error) {
	c, err := s.Cache(collection)
	if err != nil {
		return nil, err
	}
	cfg, err := s.Config(collection)
	if err != nil {
		return nil, err
	}
	return filter.Apply(c.Snapshot(), cfg, crit), nil
}

// Summary computes the completeness distribution for the dashboard strip.
func (s *CurationService) Summary(collection catalog.Collection) (*insights.Summary, error) {
	entries, err := s.Filter(collection, filter.Criteria{})
	if err != nil {
		return nil, err
	}
	scores := make([]int, len(entries))
	for i, e := range entries {
		scores[i] = e.Score
	}
	return insights.Summarize(scores)
}

// Export writes the current collection view as an xlsx workbook.
func (s *CurationService) Export(w io.Writer, collection catalog.Collection) error {
	entries, err := s.Filter(collection, filter.Criteria{})
	if err != nil {
		return err
	}
	rows := make([]ports.ExportRow, len(entries))
	for i, e := range entries {
		missing := append(append([]string{}, e.Classification.MissingCritical...), e.Classification.MissingRecommended...)
		rows[i] = ports.ExportRow{Product: e.Product, Score: e.Score, Missing: missing}
	}
	return s.exporter.Export(w, collection, rows)
}

// GuidedFixQueue builds the wizard queue from the freshest analysis: every
// record with missing fields and a resolvable row, in backend order; the
// wizard applies the priority sort itself.
func (s *CurationService) GuidedFixQueue(collection catalog.Collection) []wizard.Item {
	var items []wizard.Item
	for _, rec := range s.Analysis(collection) {
		if len(rec.Missing) == 0 {
			continue
		}
		if rec.RowNum == 0 {
			log.Printf("[Curation] guided fix skipping %q: no resolvable row", rec.Title)
			continue
		}
		items = append(items, wizard.Item{
			RowNum:          rec.RowNum,
			SKU:             rec.SKU,
			Title:           rec.Title,
			CriticalMissing: rec.CriticalCount(),
			Score:           rec.Score,
		})
	}
	return items
}

// StartWizard opens the single guided-fix session over a collection's queue,
// replacing any session that was active (even on another collection).
func (s *CurationService) StartWizard(collection catalog.Collection) (wizard.State, error) {
	if _, err := s.Cache(collection); err != nil {
		return wizard.State{}, err
	}
	queue := s.GuidedFixQueue(collection)

	s.wizardMu.Lock()
	defer s.wizardMu.Unlock()
	state, err := s.wizard.Start(queue)
	if err != nil {
		return wizard.State{}, err
	}
	s.wizardCollection = collection
	return state, nil
}

// WizardState returns the active session and its collection.
func (s *CurationService) WizardState() (wizard.State, catalog.Collection, error) {
	s.wizardMu.Lock()
	defer s.wizardMu.Unlock()
	state, err := s.wizard.Current()
	return state, s.wizardCollection, err
}

// WizardAdvance moves the session to the next product.
func (s *CurationService) WizardAdvance() (wizard.State, error) { return s.wizard.Advance() }

// WizardRetreat steps the session back one product.
func (s *CurationService) WizardRetreat() (wizard.State, error) { return s.wizard.Retreat() }

// WizardRecordFix counts a successful save without advancing.
func (s *CurationService) WizardRecordFix() (wizard.State, error) { return s.wizard.RecordFix() }

// WizardExit discards the session.
func (s *CurationService) WizardExit() { s.wizard.Exit() }

// RecentAudit returns the newest edit-trail entries for a collection.
func (s *CurationService) RecentAudit(ctx context.Context, collection catalog.Collection, limit int) ([]ports.AuditEntry, error) {
	return s.audit.Recent(ctx, collection, limit)
}
