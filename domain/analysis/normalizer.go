package analysis

import (
	"encoding/json"
	"log"
	"math"

	"github.com/tidwall/gjson"

	"catalogops/domain/catalog"
)

// Key paths checked in priority order during identity resolution. Nested
// product-data equivalents are consulted after the top level.
var (
	rowKeys     = []string{"row_num", "row_number", "product_data.row_num", "product_data.row_number"}
	skuKeys     = []string{"variant_sku", "sku", "handle", "product_data.variant_sku", "product_data.sku", "product_data.handle"}
	titleKeys   = []string{"title", "product_title", "seo_title", "product_data.title", "product_data.product_title", "product_data.seo_title"}
	brandKeys   = []string{"brand_name", "vendor", "product_data.brand_name", "product_data.vendor"}
	scoreKeys   = []string{"completeness_percentage", "quality_score", "score"}
	missingKeys = []string{"missing_fields", "missing_info", "missing"}
)

// Normalize converts a raw missing-info analysis payload (the JSON array the
// backend returns) into canonical records. Malformed entries degrade to
// best-effort stubs and are logged, never dropped wholesale or panicked on.
func Normalize(raw []byte) []Record {
	parsed := gjson.ParseBytes(raw)
	if !parsed.IsArray() {
		if parsed.Type != gjson.Null && parsed.Raw != "" {
			log.Printf("[Normalizer] expected array payload, got %s", parsed.Type)
		}
		return nil
	}

	var out []Record
	parsed.ForEach(func(_, entry gjson.Result) bool {
		out = append(out, normalizeEntry(entry))
		return true
	})
	return out
}

func normalizeEntry(entry gjson.Result) Record {
	rec := Record{
		RowNum:      resolveRow(entry),
		SKU:         resolveString(entry, skuKeys),
		Brand:       resolveString(entry, brandKeys),
		Score:       resolveScore(entry),
		ProductData: resolveProductData(entry),
	}

	rec.Title = resolveString(entry, titleKeys)
	if rec.Title == "" {
		rec.Title = catalog.FallbackTitle(rec.Brand, rec.SKU, rec.RowNum)
	}

	rec.Missing = resolveMissing(entry)
	return rec
}

// resolveRow returns the first finite positive row number, or 0 when none of
// the candidate keys resolve.
func resolveRow(entry gjson.Result) int {
	for _, path := range rowKeys {
		v := entry.Get(path)
		if !v.Exists() {
			continue
		}
		f := v.Float()
		if f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return int(f)
		}
	}
	return 0
}

func resolveString(entry gjson.Result, paths []string) string {
	for _, path := range paths {
		if v := entry.Get(path); v.Exists() && catalog.IsMeaningful(v.String()) {
			return v.String()
		}
	}
	return ""
}

func resolveScore(entry gjson.Result) int {
	for _, path := range scoreKeys {
		if v := entry.Get(path); v.Exists() {
			f := v.Float()
			if math.IsInf(f, 0) || math.IsNaN(f) {
				continue
			}
			return clamp(int(math.Round(f)))
		}
	}
	return 0
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// resolveMissing accepts the two shapes the backend emits: bare field-name
// strings and {field, is_critical} objects. Both land in the same key space.
func resolveMissing(entry gjson.Result) []MissingField {
	var out []MissingField
	seen := map[string]bool{}

	for _, path := range missingKeys {
		list := entry.Get(path)
		if !list.IsArray() {
			continue
		}
		list.ForEach(func(_, item gjson.Result) bool {
			key, critical := decodeMissingItem(item)
			mf, ok := newMissingField(key, critical)
			if !ok {
				log.Printf("[Normalizer] skipping unusable missing-field entry %q", item.Raw)
				return true
			}
			if !seen[mf.Key] {
				seen[mf.Key] = true
				out = append(out, mf)
			} else if mf.Critical {
				markCritical(out, mf.Key)
			}
			return true
		})
		break
	}
	return out
}

func decodeMissingItem(item gjson.Result) (key string, critical bool) {
	if item.IsObject() {
		for _, k := range []string{"field", "key", "name"} {
			if v := item.Get(k); v.Exists() && v.String() != "" {
				key = v.String()
				break
			}
		}
		critical = item.Get("is_critical").Bool() || item.Get("critical").Bool()
		return key, critical
	}
	return item.String(), false
}

func markCritical(fields []MissingField, key string) {
	for i := range fields {
		if fields[i].Key == key {
			fields[i].Critical = true
			return
		}
	}
}

// resolveProductData flattens the nested product-data object into a map under
// normalized keys. Nested objects/arrays are kept as decoded JSON values.
func resolveProductData(entry gjson.Result) map[string]any {
	pd := entry.Get("product_data")
	if !pd.IsObject() {
		return nil
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(pd.Raw), &decoded); err != nil {
		log.Printf("[Normalizer] undecodable product_data: %v", err)
		return nil
	}
	out := make(map[string]any, len(decoded))
	for k, v := range decoded {
		if norm := catalog.NormalizeKey(k); norm != "" {
			out[norm] = v
		}
	}
	return out
}

// Revalidate drops declared-missing fields whose value in the record's merged
// product data is actually meaningful. Guards against stale backend analysis.
func Revalidate(rec *Record) {
	if len(rec.Missing) == 0 || len(rec.ProductData) == 0 {
		return
	}
	p := &catalog.Product{RowNum: rec.RowNum, Fields: rec.ProductData}
	kept := rec.Missing[:0]
	for _, mf := range rec.Missing {
		if p.Has(mf.Key) {
			continue
		}
		kept = append(kept, mf)
	}
	rec.Missing = kept
}
