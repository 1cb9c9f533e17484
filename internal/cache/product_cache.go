// Package cache holds the in-memory product store the whole dashboard reads
// and writes. It only grows or is wholesale replaced on collection reload;
// nothing is evicted implicitly.
package cache

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"catalogops/domain/catalog"
	"catalogops/internal/errors"
	"catalogops/ports"
)

// ProductCache is the row-number-keyed single source of truth for one
// collection. Hydration requests for the same row are collapsed through
// singleflight so concurrent callers observe one fetch, not divergent stubs.
type ProductCache struct {
	collection catalog.Collection
	api        ports.CatalogAPI

	mu       sync.RWMutex
	products map[int]*catalog.Product

	flight singleflight.Group
}

// New creates an empty cache bound to one collection and its backend.
func New(collection catalog.Collection, api ports.CatalogAPI) *ProductCache {
	return &ProductCache{
		collection: collection,
		api:        api,
		products:   make(map[int]*catalog.Product),
	}
}

// Collection returns the collection this cache serves.
func (c *ProductCache) Collection() catalog.Collection {
	return c.collection
}

// Len returns the number of cached records.
func (c *ProductCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

// Get returns a snapshot of the record for a row number.
func (c *ProductCache) Get(rowNum int) (*catalog.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[rowNum]
	return p.Clone(), ok
}

// GetBySKU resolves a record by SKU with a linear scan, for callers that do
// not know the row number.
func (c *ProductCache) GetBySKU(sku string) (*catalog.Product, bool) {
	if !catalog.IsMeaningful(sku) {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.products {
		if p.SKU() == sku {
			return p.Clone(), true
		}
	}
	return nil, false
}

// Upsert shallow-merges partial fields into the record, creating a stub when
// the row is unknown. The row number field is always pinned.
func (c *ProductCache) Upsert(rowNum int, partial map[string]any) *catalog.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[rowNum]
	if !ok {
		p = catalog.NewStub(rowNum)
		c.products[rowNum] = p
	}
	p.Merge(partial)
	if p.State == catalog.StateStub && len(partial) > 0 {
		p.State = catalog.StatePartial
	}
	return p.Clone()
}

// Hydrate returns the full record for a row, fetching it from the backend
// unless the cached copy already satisfies the hydration invariant.
func (c *ProductCache) Hydrate(ctx context.Context, rowNum int) (*catalog.Product, error) {
	c.mu.RLock()
	p, ok := c.products[rowNum]
	if ok && p.State == catalog.StateHydrated {
		clone := p.Clone()
		c.mu.RUnlock()
		return clone, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.flight.Do(fmt.Sprintf("hydrate:%d", rowNum), func() (any, error) {
		fetched, err := c.api.Product(ctx, c.collection, rowNum)
		if err != nil {
			return nil, errors.Wrapf(err, "hydrating row %d of %s", rowNum, c.collection)
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		p, ok := c.products[rowNum]
		if !ok {
			p = catalog.NewStub(rowNum)
			c.products[rowNum] = p
		}
		p.Merge(fetched)
		p.MarkHydratedIfComplete()
		if p.State != catalog.StateHydrated {
			log.Printf("[ProductCache] row %d of %s fetched without the full key set, kept %s",
				rowNum, c.collection, p.State)
		}
		return p.Clone(), nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*catalog.Product), nil
}

// Replace swaps the whole store for freshly fetched rows, used on collection
// reload. Existing entries are discarded.
func (c *ProductCache) Replace(rows map[int]map[string]any) {
	products := make(map[int]*catalog.Product, len(rows))
	for rowNum, fields := range rows {
		p := catalog.NewStub(rowNum)
		p.Merge(fields)
		p.State = catalog.StatePartial
		p.MarkHydratedIfComplete()
		products[rowNum] = p
	}
	c.mu.Lock()
	c.products = products
	c.mu.Unlock()
}

// Absorb merges one fetched page into the store without discarding rows the
// page does not cover.
func (c *ProductCache) Absorb(rows map[int]map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for rowNum, fields := range rows {
		p, ok := c.products[rowNum]
		if !ok {
			p = catalog.NewStub(rowNum)
			c.products[rowNum] = p
		}
		p.Merge(fields)
		if p.State == catalog.StateStub {
			p.State = catalog.StatePartial
		}
	}
}

// Snapshot returns clones of every record, sorted ascending by row number.
// Continuations must call this again after any await point instead of holding
// on to an earlier copy.
func (c *ProductCache) Snapshot() []*catalog.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*catalog.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RowNum < out[j].RowNum })
	return out
}
