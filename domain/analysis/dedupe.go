package analysis

import (
	"fmt"
	"strings"

	"catalogops/domain/catalog"
)

// Deduplicate merges records describing the same logical product. The key
// prefers SKU, then row number, then lower-cased title; keyless records pass
// through untouched. Merged records are re-validated against their combined
// product data. First-seen input order decides which non-empty identity
// string survives a collision; merged content is otherwise order-independent.
func Deduplicate(records []Record) []Record {
	merged := make(map[string]*Record)
	var order []string

	for i := range records {
		rec := records[i]
		key := dedupeKey(&rec, i)
		existing, ok := merged[key]
		if !ok {
			copied := rec
			merged[key] = &copied
			order = append(order, key)
			continue
		}
		mergeInto(existing, &rec)
	}

	out := make([]Record, 0, len(order))
	for _, key := range order {
		rec := merged[key]
		Revalidate(rec)
		out = append(out, *rec)
	}
	return out
}

func dedupeKey(rec *Record, index int) string {
	if rec.SKU != "" {
		return "sku:" + rec.SKU
	}
	if rec.RowNum > 0 {
		return fmt.Sprintf("row:%d", rec.RowNum)
	}
	if catalog.IsMeaningful(rec.Title) {
		return "title:" + strings.ToLower(rec.Title)
	}
	// No identity at all; keep the record but never merge it.
	return fmt.Sprintf("anon:%d", index)
}

// mergeInto folds src into dst: union of missing fields (a critical flag from
// either side sticks), max score, first non-empty identity, and union-merged
// product data where existing non-empty values win.
func mergeInto(dst, src *Record) {
	seen := make(map[string]int, len(dst.Missing))
	for i, mf := range dst.Missing {
		seen[mf.Key] = i
	}
	for _, mf := range src.Missing {
		if i, ok := seen[mf.Key]; ok {
			if mf.Critical {
				dst.Missing[i].Critical = true
			}
			continue
		}
		seen[mf.Key] = len(dst.Missing)
		dst.Missing = append(dst.Missing, mf)
	}

	if src.Score > dst.Score {
		dst.Score = src.Score
	}
	if dst.RowNum == 0 {
		dst.RowNum = src.RowNum
	}
	if dst.SKU == "" {
		dst.SKU = src.SKU
	}
	if !catalog.IsMeaningful(dst.Title) {
		dst.Title = src.Title
	}
	if !catalog.IsMeaningful(dst.Brand) {
		dst.Brand = src.Brand
	}

	if len(src.ProductData) > 0 {
		if dst.ProductData == nil {
			dst.ProductData = make(map[string]any, len(src.ProductData))
		}
		existing := &catalog.Product{Fields: dst.ProductData}
		for k, v := range src.ProductData {
			if existing.Has(k) {
				continue
			}
			dst.ProductData[k] = v
		}
	}
}
