package profiler

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"data-analyst/internal/models"
	"data-analyst/internal/table"
)

// ErrInvalidInput reports a nil/empty table or an unrecognized file name.
var ErrInvalidInput = errors.New("invalid input")

var recognizedExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
	".ods":  true,
}

// Profile generates a deterministic English text summary of the table's
// structure and content, plus the metadata used to tag its chunks. The
// text is the sole document the vector store indexes.
func Profile(tbl *table.Table, fileName string) (string, models.FileMetadata, error) {
	if tbl == nil || tbl.NumRows() == 0 {
		return "", models.FileMetadata{}, fmt.Errorf("%w: table is empty", ErrInvalidInput)
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if !recognizedExtensions[ext] {
		return "", models.FileMetadata{}, fmt.Errorf("%w: unrecognized file extension %q", ErrInvalidInput, ext)
	}

	var b strings.Builder

	// 1. Basic info
	fmt.Fprintf(&b, "# PROFILING REPORT FOR: %s\n\n", fileName)
	fmt.Fprintf(&b, "This dataset has **%d rows** and **%d columns**.\n\n", tbl.NumRows(), tbl.NumCols())

	// 2. Column names and types
	b.WriteString("## COLUMN SUMMARY\n")
	types := tbl.Types()
	for i, col := range tbl.Columns() {
		fmt.Fprintf(&b, "%d. `%s` : *%s*\n", i+1, col, types[col])
	}
	b.WriteString("\n")

	// 3. Preview of the first 3 rows
	b.WriteString("## DATA PREVIEW (First 3 rows)\n")
	b.WriteString(tbl.Head(3).Markdown())
	b.WriteString("\n\n")

	// 4. Summary statistics for numeric columns
	numeric := tbl.NumericColumns()
	if len(numeric) > 0 {
		b.WriteString("## BASIC STATISTICS (Numeric Columns)\n")
		b.WriteString(statsMarkdown(tbl, numeric))
		b.WriteString("\n\n")
	} else {
		b.WriteString("## BASIC STATISTICS\n*No numeric columns found for statistical analysis.*\n\n")
	}

	// 5. Missing values
	b.WriteString("## MISSING VALUES\n")
	found := false
	for _, nc := range tbl.NullCounts() {
		if nc.Count > 0 {
			fmt.Fprintf(&b, "- Column `%s` has **%d** missing values.\n", nc.Column, nc.Count)
			found = true
		}
	}
	if !found {
		b.WriteString("*No missing values found in any column.*\n")
	}

	meta := models.FileMetadata{
		FileName:    fileName,
		NumRows:     tbl.NumRows(),
		NumColumns:  tbl.NumCols(),
		ColumnNames: tbl.Columns(),
		ColumnTypes: types,
	}
	return b.String(), meta, nil
}

// statsMarkdown renders count/mean/std/min/quartiles/max for the given
// numeric columns as a markdown table, one column per dataset column,
// values rounded to 2 decimal places.
func statsMarkdown(tbl *table.Table, numeric []string) string {
	rows := []struct {
		label string
		pick  func(table.Stats) float64
	}{
		{"count", func(s table.Stats) float64 { return float64(s.Count) }},
		{"mean", func(s table.Stats) float64 { return s.Mean }},
		{"std", func(s table.Stats) float64 { return s.Std }},
		{"min", func(s table.Stats) float64 { return s.Min }},
		{"25%", func(s table.Stats) float64 { return s.Q25 }},
		{"50%", func(s table.Stats) float64 { return s.Median }},
		{"75%", func(s table.Stats) float64 { return s.Q75 }},
		{"max", func(s table.Stats) float64 { return s.Max }},
	}

	stats := make([]table.Stats, len(numeric))
	for i, col := range numeric {
		s, err := tbl.Stats(col)
		if err != nil {
			continue
		}
		stats[i] = s
	}

	records := make([][]string, 0, len(rows)+1)
	header := append([]string{""}, numeric...)
	records = append(records, header)
	for _, row := range rows {
		cells := make([]string, 0, len(numeric)+1)
		cells = append(cells, row.label)
		for i := range numeric {
			cells = append(cells, fmt.Sprintf("%.2f", row.pick(stats[i])))
		}
		records = append(records, cells)
	}
	return table.RecordsMarkdown(records)
}
