package table

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrParse reports bytes that could not be read as tabular data.
	ErrParse = errors.New("parse error")
	// ErrEmpty reports a table with no data rows.
	ErrEmpty = errors.New("table is empty")
	// ErrNoColumn reports a reference to a column that does not exist.
	ErrNoColumn = errors.New("no such column")
	// ErrNotNumeric reports a numeric operation on a non-numeric column.
	ErrNotNumeric = errors.New("column is not numeric")
)

// nanValues are cell values treated as missing during load.
var nanValues = []string{"", "NA", "NaN", "null"}

// Table is an in-memory rectangular dataset with named, typed columns.
// Read-only after construction.
type Table struct {
	df dataframe.DataFrame
}

// Stats holds summary statistics for one numeric column.
type Stats struct {
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q25    float64
	Median float64
	Q75    float64
	Max    float64
}

// NullCount pairs a column name with its missing-value count.
type NullCount struct {
	Column string
	Count  int
}

// FromCSV loads a table from CSV bytes. The first row is the header and
// per-column types are inferred.
func FromCSV(r io.Reader) (*Table, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nanValues),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, df.Err)
	}
	return fromFrame(df)
}

// FromRecords loads a table from raw string records, header row first.
// Used by the XLSX and ODS loaders.
func FromRecords(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, ErrEmpty
	}
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nanValues),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, df.Err)
	}
	return fromFrame(df)
}

func fromFrame(df dataframe.DataFrame) (*Table, error) {
	if df.Nrow() == 0 || df.Ncol() == 0 {
		return nil, ErrEmpty
	}
	return &Table{df: df}, nil
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int { return t.df.Nrow() }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return t.df.Ncol() }

// Columns returns column names in original order.
func (t *Table) Columns() []string { return t.df.Names() }

// Types maps each column name to its inferred type as a string
// (one of "int", "float", "string", "bool").
func (t *Table) Types() map[string]string {
	names := t.df.Names()
	types := t.df.Types()
	out := make(map[string]string, len(names))
	for i, name := range names {
		out[name] = string(types[i])
	}
	return out
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	for _, n := range t.df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// IsNumeric reports whether the named column holds int or float values.
func (t *Table) IsNumeric(name string) bool {
	names := t.df.Names()
	types := t.df.Types()
	for i, n := range names {
		if n == name {
			return types[i] == series.Int || types[i] == series.Float
		}
	}
	return false
}

// NumericColumns returns the names of all numeric columns, in order.
func (t *Table) NumericColumns() []string {
	var out []string
	for _, name := range t.Columns() {
		if t.IsNumeric(name) {
			out = append(out, name)
		}
	}
	return out
}

func (t *Table) column(name string) (series.Series, error) {
	if !t.HasColumn(name) {
		return series.Series{}, fmt.Errorf("%w: %s", ErrNoColumn, name)
	}
	return t.df.Col(name), nil
}

func (t *Table) numericColumn(name string) (series.Series, error) {
	col, err := t.column(name)
	if err != nil {
		return col, err
	}
	if !t.IsNumeric(name) {
		return col, fmt.Errorf("%w: %s", ErrNotNumeric, name)
	}
	return col, nil
}

// Head returns a new table holding the first n rows (fewer if the table
// is shorter).
func (t *Table) Head(n int) *Table {
	if n > t.df.Nrow() {
		n = t.df.Nrow()
	}
	if n < 1 {
		n = 1
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return &Table{df: t.df.Subset(idx)}
}

// SortBy returns a new table ordered by the named column.
func (t *Table) SortBy(name string, descending bool) (*Table, error) {
	if !t.HasColumn(name) {
		return nil, fmt.Errorf("%w: %s", ErrNoColumn, name)
	}
	order := dataframe.Sort(name)
	if descending {
		order = dataframe.RevSort(name)
	}
	sorted := t.df.Arrange(order)
	if sorted.Err != nil {
		return nil, fmt.Errorf("failed to sort by %s: %w", name, sorted.Err)
	}
	return &Table{df: sorted}, nil
}

// Select returns a new table with only the named columns.
func (t *Table) Select(names []string) (*Table, error) {
	for _, n := range names {
		if !t.HasColumn(n) {
			return nil, fmt.Errorf("%w: %s", ErrNoColumn, n)
		}
	}
	sub := t.df.Select(names)
	if sub.Err != nil {
		return nil, fmt.Errorf("failed to select columns: %w", sub.Err)
	}
	return &Table{df: sub}, nil
}

// Records returns the table as string records, header row first.
func (t *Table) Records() [][]string { return t.df.Records() }

// NullCounts reports the true missing-value count per column, in column
// order. Columns without missing values are included with a zero count.
func (t *Table) NullCounts() []NullCount {
	out := make([]NullCount, 0, t.df.Ncol())
	for _, name := range t.Columns() {
		col := t.df.Col(name)
		n := 0
		for _, isNaN := range col.IsNaN() {
			if isNaN {
				n++
			}
		}
		out = append(out, NullCount{Column: name, Count: n})
	}
	return out
}

// Count returns the number of non-missing values in the named column.
func (t *Table) Count(name string) (int, error) {
	col, err := t.column(name)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, isNaN := range col.IsNaN() {
		if !isNaN {
			n++
		}
	}
	return n, nil
}

// Missing values are skipped by every aggregate below, so a column with
// nulls still yields finite statistics over the values it does have.

// Sum returns the sum of a numeric column.
func (t *Table) Sum(name string) (float64, error) {
	vs, err := t.Floats(name)
	if err != nil {
		return 0, err
	}
	return floats.Sum(vs), nil
}

// Mean returns the arithmetic mean of a numeric column.
func (t *Table) Mean(name string) (float64, error) {
	vs, err := t.Floats(name)
	if err != nil {
		return 0, err
	}
	if len(vs) == 0 {
		return math.NaN(), nil
	}
	return stat.Mean(vs, nil), nil
}

// Median returns the median of a numeric column.
func (t *Table) Median(name string) (float64, error) {
	return t.Quantile(name, 0.5)
}

// Std returns the sample standard deviation of a numeric column.
func (t *Table) Std(name string) (float64, error) {
	vs, err := t.Floats(name)
	if err != nil {
		return 0, err
	}
	if len(vs) < 2 {
		return math.NaN(), nil
	}
	return stat.StdDev(vs, nil), nil
}

// Min returns the minimum of a numeric column.
func (t *Table) Min(name string) (float64, error) {
	vs, err := t.Floats(name)
	if err != nil {
		return 0, err
	}
	if len(vs) == 0 {
		return math.NaN(), nil
	}
	return floats.Min(vs), nil
}

// Max returns the maximum of a numeric column.
func (t *Table) Max(name string) (float64, error) {
	vs, err := t.Floats(name)
	if err != nil {
		return 0, err
	}
	if len(vs) == 0 {
		return math.NaN(), nil
	}
	return floats.Max(vs), nil
}

// Quantile returns the p-quantile of a numeric column.
func (t *Table) Quantile(name string, p float64) (float64, error) {
	vs, err := t.Floats(name)
	if err != nil {
		return 0, err
	}
	if len(vs) == 0 {
		return math.NaN(), nil
	}
	sorted := make([]float64, len(vs))
	copy(sorted, vs)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil), nil
}

// Floats returns the non-missing values of a numeric column.
func (t *Table) Floats(name string) ([]float64, error) {
	col, err := t.numericColumn(name)
	if err != nil {
		return nil, err
	}
	var out []float64
	for _, v := range col.Float() {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

// Stats computes summary statistics for a numeric column over its
// non-missing values.
func (t *Table) Stats(name string) (Stats, error) {
	vs, err := t.Floats(name)
	if err != nil {
		return Stats{}, err
	}
	mean, _ := t.Mean(name)
	std, _ := t.Std(name)
	min, _ := t.Min(name)
	q25, _ := t.Quantile(name, 0.25)
	median, _ := t.Quantile(name, 0.5)
	q75, _ := t.Quantile(name, 0.75)
	max, _ := t.Max(name)
	return Stats{
		Count:  len(vs),
		Mean:   mean,
		Std:    std,
		Min:    min,
		Q25:    q25,
		Median: median,
		Q75:    q75,
		Max:    max,
	}, nil
}

// Unique returns the distinct non-missing values of a column in first
// appearance order.
func (t *Table) Unique(name string) ([]string, error) {
	col, err := t.column(name)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	isNaN := col.IsNaN()
	for i, v := range col.Records() {
		if isNaN[i] || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out, nil
}

// ValueCount pairs a distinct column value with its occurrence count.
type ValueCount struct {
	Value string
	Count int
}

// ValueCounts returns the distinct non-missing values of a column with
// their counts, in first appearance order.
func (t *Table) ValueCounts(name string) ([]ValueCount, error) {
	col, err := t.column(name)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]int)
	var out []ValueCount
	isNaN := col.IsNaN()
	for i, v := range col.Records() {
		if isNaN[i] {
			continue
		}
		if j, ok := idx[v]; ok {
			out[j].Count++
			continue
		}
		idx[v] = len(out)
		out = append(out, ValueCount{Value: v, Count: 1})
	}
	return out, nil
}

// Corr computes the Pearson correlation of two numeric columns over
// pairwise complete rows.
func (t *Table) Corr(a, b string) (float64, error) {
	colA, err := t.numericColumn(a)
	if err != nil {
		return 0, err
	}
	colB, err := t.numericColumn(b)
	if err != nil {
		return 0, err
	}
	fa := colA.Float()
	fb := colB.Float()
	var xs, ys []float64
	for i := range fa {
		if math.IsNaN(fa[i]) || math.IsNaN(fb[i]) {
			continue
		}
		xs = append(xs, fa[i])
		ys = append(ys, fb[i])
	}
	if len(xs) < 2 {
		return 0, fmt.Errorf("not enough complete rows to correlate %s and %s", a, b)
	}
	return stat.Correlation(xs, ys, nil), nil
}

// Markdown renders the table as a markdown pipe table.
func (t *Table) Markdown() string {
	return RecordsMarkdown(t.Records())
}

// RecordsMarkdown renders string records (header first) as a markdown
// pipe table.
func RecordsMarkdown(records [][]string) string {
	if len(records) == 0 {
		return ""
	}
	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for _, c := range cells {
			b.WriteString(" ")
			b.WriteString(c)
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}
	writeRow(records[0])
	sep := make([]string, len(records[0]))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(sep)
	for _, row := range records[1:] {
		writeRow(row)
	}
	return strings.TrimRight(b.String(), "\n")
}
