package catalog

// Collection identifies one product category synced from the source sheet.
type Collection string

const (
	CollectionSinks    Collection = "sinks"
	CollectionTaps     Collection = "taps"
	CollectionLighting Collection = "lighting"
	CollectionHotWater Collection = "hot_water"
)

// FieldRule is an optional type-specific validity check applied on top of the
// emptiness rule.
type FieldRule int

const (
	// RuleNone means plain emptiness checking.
	RuleNone FieldRule = iota
	// RulePositiveCount rejects values that parse to a number <= 0.
	RulePositiveCount
	// RuleURL rejects values the platform cannot parse as a URL.
	RuleURL
)

// CategoryConfig is the typed per-collection field mapping: which keys count
// as critical vs recommended, per-field validity rules, and the UI-form to
// data-key mapping used by the edit modal.
type CategoryConfig struct {
	Collection        Collection
	CriticalFields    []string
	RecommendedFields []string
	FieldRules        map[string]FieldRule
	FieldMap          map[string]string
}

var baseFieldRules = map[string]FieldRule{
	"spec_sheet":     RuleURL,
	"warranty_years": RulePositiveCount,
}

var baseFieldMap = map[string]string{
	"Title":             "title",
	"Brand":             "brand_name",
	"Material":          "product_material",
	"Installation Type": "installation_type",
	"Style":             "style",
	"Description":       "body_html",
	"Features":          "features",
	"Care Instructions": "care_instructions",
	"FAQs":              "faqs",
	"Spec Sheet URL":    "spec_sheet",
}

var categoryConfigs = map[Collection]*CategoryConfig{
	CollectionSinks: newCategoryConfig(CollectionSinks,
		[]string{"title", "variant_sku", "brand_name", "product_material", "installation_type", "body_html", "features"},
		[]string{"style", "grade_of_material", "waste_outlet_dimensions", "bowl_depth_mm", "overall_width_mm", "overall_depth_mm", "warranty_years", "spec_sheet", "care_instructions", "faqs"},
		map[string]FieldRule{
			"bowl_depth_mm":    RulePositiveCount,
			"overall_width_mm": RulePositiveCount,
			"overall_depth_mm": RulePositiveCount,
		}),
	CollectionTaps: newCategoryConfig(CollectionTaps,
		[]string{"title", "variant_sku", "brand_name", "product_material", "installation_type", "body_html", "features"},
		[]string{"style", "spout_type", "flow_rate_lpm", "pressure_rating", "finish", "warranty_years", "spec_sheet", "care_instructions", "faqs"},
		map[string]FieldRule{
			"flow_rate_lpm": RulePositiveCount,
		}),
	CollectionLighting: newCategoryConfig(CollectionLighting,
		[]string{"title", "variant_sku", "brand_name", "bulb_type", "ip_rating", "body_html", "features"},
		[]string{"style", "wattage", "lumens", "colour_temperature", "dimmable", "warranty_years", "spec_sheet", "care_instructions"},
		map[string]FieldRule{
			"wattage": RulePositiveCount,
			"lumens":  RulePositiveCount,
		}),
	CollectionHotWater: newCategoryConfig(CollectionHotWater,
		[]string{"title", "variant_sku", "brand_name", "fuel_type", "capacity_litres", "body_html", "features"},
		[]string{"energy_rating", "flow_rate_lpm", "installation_type", "warranty_years", "spec_sheet", "care_instructions", "faqs"},
		map[string]FieldRule{
			"capacity_litres": RulePositiveCount,
			"flow_rate_lpm":   RulePositiveCount,
		}),
}

func newCategoryConfig(c Collection, critical, recommended []string, extraRules map[string]FieldRule) *CategoryConfig {
	rules := make(map[string]FieldRule, len(baseFieldRules)+len(extraRules))
	for k, v := range baseFieldRules {
		rules[k] = v
	}
	for k, v := range extraRules {
		rules[k] = v
	}
	fieldMap := make(map[string]string, len(baseFieldMap))
	for k, v := range baseFieldMap {
		fieldMap[k] = v
	}
	return &CategoryConfig{
		Collection:        c,
		CriticalFields:    critical,
		RecommendedFields: recommended,
		FieldRules:        rules,
		FieldMap:          fieldMap,
	}
}

// ConfigFor returns the category configuration for a collection, or false for
// collections this deployment does not curate.
func ConfigFor(c Collection) (*CategoryConfig, bool) {
	cfg, ok := categoryConfigs[c]
	return cfg, ok
}

// Collections lists the curated collections in a stable order.
func Collections() []Collection {
	return []Collection{CollectionSinks, CollectionTaps, CollectionLighting, CollectionHotWater}
}

// RuleFor returns the validity rule registered for a field key.
func (c *CategoryConfig) RuleFor(key string) FieldRule {
	if c == nil || c.FieldRules == nil {
		return RuleNone
	}
	return c.FieldRules[NormalizeKey(key)]
}

// DataKey translates a UI form label into its canonical data key, defaulting
// to normalizing the label itself.
func (c *CategoryConfig) DataKey(uiKey string) string {
	if c != nil && c.FieldMap != nil {
		if dk, ok := c.FieldMap[uiKey]; ok {
			return dk
		}
	}
	return NormalizeKey(uiKey)
}
