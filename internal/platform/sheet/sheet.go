// Package sheet writes tabular exports as xlsx workbooks.
package sheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the produced workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Table is a single-sheet export.
type Table struct {
	Sheet  string
	Header []string
	Widths map[string]float64
	Rows   [][]any
}

// Write renders the table as an xlsx workbook with a bold, frozen header row.
func Write(w io.Writer, table Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	name := table.Sheet
	if name == "" {
		name = "Sheet1"
	}
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return fmt.Errorf("sheet: rename: %w", err)
	}

	header := make([]any, len(table.Header))
	for i, h := range table.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("sheet: header: %w", err)
	}
	if len(table.Header) > 0 {
		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return fmt.Errorf("sheet: style: %w", err)
		}
		last, err := excelize.CoordinatesToCellName(len(table.Header), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(name, "A1", last, style); err != nil {
			return fmt.Errorf("sheet: header style: %w", err)
		}
		if err := f.SetPanes(name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
			return fmt.Errorf("sheet: freeze header: %w", err)
		}
	}
	for col, width := range table.Widths {
		if err := f.SetColWidth(name, col, col, width); err != nil {
			return fmt.Errorf("sheet: width %s: %w", col, err)
		}
	}

	for i, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return fmt.Errorf("sheet: row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("sheet: write: %w", err)
	}
	return nil
}
