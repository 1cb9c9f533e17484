package ui

import (
	"html/template"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"

	"catalogops/domain/catalog"
)

// longFormKeys are the narrative fields the edit modal previews rendered
// instead of raw.
var longFormKeys = []string{"body_html", "features", "care_instructions", "faqs"}

func isLongForm(key string) bool {
	for _, k := range longFormKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Preview is one rendered long-form field.
type Preview struct {
	Key     string
	Display string
	HTML    template.HTML
}

// longFormPreviews renders the product's narrative fields for the modal's
// preview pane. Values that already carry HTML pass through; everything else
// is treated as markdown.
func longFormPreviews(p *catalog.Product) []Preview {
	var previews []Preview
	for _, key := range longFormKeys {
		value := strings.TrimSpace(p.Str(key))
		if !catalog.IsMeaningful(value) {
			continue
		}
		previews = append(previews, Preview{
			Key:     key,
			Display: catalog.HumanizeKey(key),
			HTML:    renderLongForm(value),
		})
	}
	return previews
}

func renderLongForm(value string) template.HTML {
	if strings.HasPrefix(value, "<") {
		return template.HTML(value)
	}
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	p := parser.NewWithExtensions(extensions)
	return template.HTML(markdown.ToHTML([]byte(value), p, nil))
}
