package catalog

import (
	"strings"
	"unicode"
)

// nonValueTokens are strings that count as "no value" even though they are
// non-empty. Comparison is case-insensitive after trimming.
var nonValueTokens = map[string]bool{
	"":     true,
	"none": true,
	"null": true,
	"n/a":  true,
	"na":   true,
	"-":    true,
	"tbd":  true,
	"tbc":  true,
}

// fallbackCriticalKeys are always treated as critical regardless of what the
// backend analysis claims.
var fallbackCriticalKeys = map[string]bool{
	"title":                   true,
	"sku":                     true,
	"variant_sku":             true,
	"brand_name":              true,
	"product_material":        true,
	"installation_type":       true,
	"style":                   true,
	"grade_of_material":       true,
	"waste_outlet_dimensions": true,
	"body_html":               true,
	"features":                true,
	"care_instructions":       true,
	"faqs":                    true,
}

// NormalizeKey converts an arbitrary field label into the canonical
// snake_case key space. It is idempotent: NormalizeKey(NormalizeKey(k)) ==
// NormalizeKey(k) for all inputs.
func NormalizeKey(key string) string {
	key = strings.TrimSpace(strings.ToLower(key))
	var b strings.Builder
	b.Grow(len(key))
	lastUnderscore := false
	for _, r := range key {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}

// humanOverrides fixes words the generic title-casing would mangle.
var humanOverrides = map[string]string{
	"sku":  "SKU",
	"url":  "URL",
	"faqs": "FAQs",
	"html": "HTML",
	"mm":   "(mm)",
	"lpm":  "(L/min)",
	"ip":   "IP",
	"seo":  "SEO",
}

// HumanizeKey derives a display name from a canonical field key.
func HumanizeKey(key string) string {
	parts := strings.Split(NormalizeKey(key), "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if override, ok := humanOverrides[p]; ok {
			parts[i] = override
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// IsMeaningful reports whether a raw string carries an actual value, i.e. it
// is non-empty and not one of the non-value placeholder tokens.
func IsMeaningful(value string) bool {
	return !nonValueTokens[strings.ToLower(strings.TrimSpace(value))]
}

// IsFallbackCritical reports whether a field key is on the always-critical
// list, applied after key normalization.
func IsFallbackCritical(key string) bool {
	return fallbackCriticalKeys[NormalizeKey(key)]
}
