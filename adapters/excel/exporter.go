// Package excel writes collection exports as xlsx workbooks.
package excel

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"catalogops/domain/catalog"
	"catalogops/internal/errors"
	"catalogops/ports"
)

// Exporter writes one collection view per workbook: identity columns, the
// computed completeness, and every configured category field.
type Exporter struct{}

var _ ports.Exporter = (*Exporter)(nil)

// NewExporter creates a workbook exporter.
func NewExporter() *Exporter {
	return &Exporter{}
}

// Export writes the rows to w as an xlsx workbook with one sheet named after
// the collection.
func (e *Exporter) Export(w io.Writer, collection catalog.Collection, rows []ports.ExportRow) error {
	cfg, ok := catalog.ConfigFor(collection)
	if !ok {
		return errors.ValidationError(fmt.Sprintf("unknown collection %q", collection))
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := string(collection)
	index, err := f.NewSheet(sheet)
	if err != nil {
		return errors.Wrap(err, "creating export sheet")
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return errors.Wrap(err, "removing default sheet")
	}

	fieldKeys := append(append([]string{}, cfg.CriticalFields...), cfg.RecommendedFields...)
	headers := []string{"Row", "SKU", "Title", "Brand", "Completeness %", "Missing Fields"}
	for _, key := range fieldKeys {
		headers = append(headers, catalog.HumanizeKey(key))
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return errors.Wrap(err, "addressing header cell")
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return errors.Wrap(err, "writing header cell")
		}
	}

	for i, row := range rows {
		values := []any{
			row.Product.RowNum,
			row.Product.SKU(),
			row.Product.Title(),
			row.Product.Brand(),
			row.Score,
			strings.Join(row.Missing, ", "),
		}
		for _, key := range fieldKeys {
			values = append(values, row.Product.Str(key))
		}

		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return errors.Wrap(err, "addressing data cell")
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return errors.Wrapf(err, "writing row %d", row.Product.RowNum)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	return nil
}
