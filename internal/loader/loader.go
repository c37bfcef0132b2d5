package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"

	"data-analyst/internal/table"
)

// ErrInvalidInput reports a missing file, an unrecognized extension or an
// empty table.
var ErrInvalidInput = errors.New("invalid input")

// Load reads a tabular file into a table. Recognized extensions are
// .csv, .xlsx and .ods; anything else fails with ErrInvalidInput.
func Load(filePath string) (*table.Table, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".csv":
		return loadCSV(filePath)
	case ".xlsx":
		return loadXLSX(filePath)
	case ".ods":
		return loadODS(filePath)
	default:
		return nil, fmt.Errorf("%w: unsupported file format: %s", ErrInvalidInput, ext)
	}
}

// LoadCSVReader reads CSV content from a reader. The name is only used
// for extension validation.
func LoadCSVReader(name string, r io.Reader) (*table.Table, error) {
	if !strings.EqualFold(filepath.Ext(name), ".csv") {
		return nil, fmt.Errorf("%w: please provide a CSV file", ErrInvalidInput)
	}
	tbl, err := table.FromCSV(r)
	if err != nil {
		return nil, wrapTableErr(err)
	}
	return tbl, nil
}

func loadCSV(filePath string) (*table.Table, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	defer f.Close()

	tbl, err := table.FromCSV(f)
	if err != nil {
		return nil, wrapTableErr(err)
	}
	return tbl, nil
}

func loadXLSX(filePath string) (*table.Table, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", table.ErrParse, err)
	}
	if len(f.Sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidInput)
	}

	// Only the first sheet is treated as the dataset.
	sheet := f.Sheets[0]
	var records [][]string
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			cells[i] = cell.String()
		}
		records = append(records, cells)
	}
	return recordsToTable(records)
}

func loadODS(filePath string) (*table.Table, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", table.ErrParse, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidInput)
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", table.ErrParse, err)
	}
	return recordsToTable(records)
}

func recordsToTable(records [][]string) (*table.Table, error) {
	records = normalizeRecords(records)
	tbl, err := table.FromRecords(records)
	if err != nil {
		return nil, wrapTableErr(err)
	}
	return tbl, nil
}

// normalizeRecords pads ragged rows to the header width and drops fully
// empty trailing rows, which spreadsheet readers commonly emit.
func normalizeRecords(records [][]string) [][]string {
	if len(records) == 0 {
		return records
	}
	width := len(records[0])
	out := make([][]string, 0, len(records))
	for _, row := range records {
		empty := true
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			row = padded
		} else if len(row) > width {
			row = row[:width]
		}
		out = append(out, row)
	}
	return out
}

func wrapTableErr(err error) error {
	if errors.Is(err, table.ErrEmpty) {
		return fmt.Errorf("%w: the uploaded file is empty", ErrInvalidInput)
	}
	return err
}
