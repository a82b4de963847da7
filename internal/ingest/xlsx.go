package ingest

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// CatalogSheet is the sheet name written by WriteXLSX
const CatalogSheet = "Catalog"

var quoteStripper = strings.NewReplacer(`"`, "", "'", "")

// ParseXLSX reads the first sheet of a workbook into a Table. The first
// non-empty row is the header. Cells are read as delimited text values are:
// trimmed, with quote characters removed. Trailing blank cells are blank
// values, so data rows are padded to the header width.
func ParseXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	table := &Table{}
	for i, row := range rows {
		lineNo := i + 1
		if isBlankRow(row) {
			continue
		}

		values := make([]string, len(row))
		for j, cell := range row {
			values[j] = strings.TrimSpace(quoteStripper.Replace(cell))
		}

		if table.Headers == nil {
			table.Headers = values
			continue
		}

		table.TotalRows++
		// GetRows drops trailing empty cells
		for len(values) < len(table.Headers) {
			values = append(values, "")
		}
		table.Records = append(table.Records, newRawRecord(lineNo, table.Headers, values))
	}

	if table.Headers == nil {
		return nil, ErrNoHeader
	}
	return table, nil
}

// WriteXLSX writes a header row and data rows as a single-sheet workbook
func WriteXLSX(w io.Writer, headers []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), CatalogSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := writeSheetRow(f, 1, headers); err != nil {
		return err
	}
	for i, row := range rows {
		if err := writeSheetRow(f, i+2, row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}

func writeSheetRow(f *excelize.File, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := f.SetSheetRow(CatalogSheet, cell, &row); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
