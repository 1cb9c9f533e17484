package ports

import (
	"io"

	"catalogops/domain/catalog"
)

// ExportRow is one product flattened for spreadsheet export, paired with its
// computed completeness.
type ExportRow struct {
	Product *catalog.Product
	Score   int
	Missing []string
}

// Exporter writes a collection view to a spreadsheet stream.
type Exporter interface {
	Export(w io.Writer, collection catalog.Collection, rows []ExportRow) error
}
