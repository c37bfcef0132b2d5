package query

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"data-analyst/internal/table"
)

// Engine evaluates query-language programs against exactly two bound
// capabilities: the active table and the chart renderer. Nothing else
// from the surrounding process is reachable from a program.
type Engine struct {
	tbl *table.Table
	log zerolog.Logger
}

// NewEngine binds an engine to a table.
func NewEngine(tbl *table.Table, log zerolog.Logger) *Engine {
	return &Engine{tbl: tbl, log: log}
}

// Run parses and evaluates a program. Statements run in order; the final
// statement's value is the result, except that a chart rendered earlier
// wins over a final no-value statement. Run never panics and never lets
// an error escape as anything but a KindError result.
func (e *Engine) Run(src string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn().Interface("panic", r).Msg("Recovered panic during query evaluation")
			res = errorResult(fmt.Errorf("evaluation panic: %v", r))
		}
	}()

	calls, err := parseProgram(src)
	if err != nil {
		return errorResult(err)
	}
	if len(calls) == 0 {
		return Result{Kind: KindNone}
	}

	var chart string
	last := Result{Kind: KindNone}
	for _, c := range calls {
		last = e.eval(c)
		if last.Kind == KindError {
			return last
		}
		if last.Kind == KindChart {
			chart = last.Chart
		}
	}
	if last.Kind == KindNone && chart != "" {
		return chartResult(chart)
	}
	return last
}

func (e *Engine) eval(c call) Result {
	switch c.name {
	case "columns":
		if err := arity(c, 0, 0); err != nil {
			return errorResult(err)
		}
		return listResult(e.tbl.Columns())

	case "shape":
		if err := arity(c, 0, 0); err != nil {
			return errorResult(err)
		}
		return scalarResult(fmt.Sprintf("%d rows x %d columns", e.tbl.NumRows(), e.tbl.NumCols()))

	case "dtypes":
		if err := arity(c, 0, 0); err != nil {
			return errorResult(err)
		}
		types := e.tbl.Types()
		out := make([]string, 0, e.tbl.NumCols())
		for _, col := range e.tbl.Columns() {
			out = append(out, fmt.Sprintf("%s: %s", col, types[col]))
		}
		return listResult(out)

	case "head":
		if err := arity(c, 0, 1); err != nil {
			return errorResult(err)
		}
		n := 5
		if len(c.args) == 1 {
			v, err := e.intArg(c, 0)
			if err != nil {
				return errorResult(err)
			}
			n = v
		}
		return tableResult(e.tbl.Head(n).Records())

	case "describe":
		if err := arity(c, 0, 0); err != nil {
			return errorResult(err)
		}
		return e.describe()

	case "count":
		if err := arity(c, 0, 1); err != nil {
			return errorResult(err)
		}
		if len(c.args) == 0 {
			return scalarResult(e.tbl.NumRows())
		}
		col, err := e.columnArg(c, 0)
		if err != nil {
			return errorResult(err)
		}
		n, err := e.tbl.Count(col)
		if err != nil {
			return errorResult(err)
		}
		return scalarResult(n)

	case "sum", "mean", "median", "std", "min", "max":
		return e.aggregate(c)

	case "unique":
		if err := arity(c, 1, 1); err != nil {
			return errorResult(err)
		}
		col, err := e.columnArg(c, 0)
		if err != nil {
			return errorResult(err)
		}
		vals, err := e.tbl.Unique(col)
		if err != nil {
			return errorResult(err)
		}
		return listResult(vals)

	case "nulls":
		if err := arity(c, 0, 0); err != nil {
			return errorResult(err)
		}
		var out []string
		for _, nc := range e.tbl.NullCounts() {
			if nc.Count > 0 {
				out = append(out, fmt.Sprintf("Column %s has %d missing values", nc.Column, nc.Count))
			}
		}
		if len(out) == 0 {
			return scalarResult("No missing values found in any column.")
		}
		return listResult(out)

	case "corr":
		if err := arity(c, 2, 2); err != nil {
			return errorResult(err)
		}
		a, err := e.columnArg(c, 0)
		if err != nil {
			return errorResult(err)
		}
		b, err := e.columnArg(c, 1)
		if err != nil {
			return errorResult(err)
		}
		v, err := e.tbl.Corr(a, b)
		if err != nil {
			return errorResult(err)
		}
		return scalarResult(v)

	case "top", "bottom":
		if err := arity(c, 1, 2); err != nil {
			return errorResult(err)
		}
		col, err := e.columnArg(c, 0)
		if err != nil {
			return errorResult(err)
		}
		n := 5
		if len(c.args) == 2 {
			v, err := e.intArg(c, 1)
			if err != nil {
				return errorResult(err)
			}
			n = v
		}
		sorted, err := e.tbl.SortBy(col, c.name == "top")
		if err != nil {
			return errorResult(err)
		}
		return tableResult(sorted.Head(n).Records())

	case "hist":
		if err := arity(c, 1, 2); err != nil {
			return errorResult(err)
		}
		col, err := e.columnArg(c, 0)
		if err != nil {
			return errorResult(err)
		}
		bins := 10
		if len(c.args) == 2 {
			v, err := e.intArg(c, 1)
			if err != nil {
				return errorResult(err)
			}
			bins = v
		}
		values, err := e.tbl.Floats(col)
		if err != nil {
			return errorResult(err)
		}
		chart, err := renderHistogram(col, values, bins)
		if err != nil {
			return errorResult(err)
		}
		return chartResult(chart)

	case "bar":
		if err := arity(c, 1, 1); err != nil {
			return errorResult(err)
		}
		col, err := e.columnArg(c, 0)
		if err != nil {
			return errorResult(err)
		}
		counts, err := e.tbl.ValueCounts(col)
		if err != nil {
			return errorResult(err)
		}
		chart, err := renderBar(col, counts)
		if err != nil {
			return errorResult(err)
		}
		return chartResult(chart)

	default:
		return errorResult(fmt.Errorf("unknown function %q", c.name))
	}
}

func (e *Engine) aggregate(c call) Result {
	if err := arity(c, 1, 1); err != nil {
		return errorResult(err)
	}
	col, err := e.columnArg(c, 0)
	if err != nil {
		return errorResult(err)
	}
	var v float64
	switch c.name {
	case "sum":
		v, err = e.tbl.Sum(col)
	case "mean":
		v, err = e.tbl.Mean(col)
	case "median":
		v, err = e.tbl.Median(col)
	case "std":
		v, err = e.tbl.Std(col)
	case "min":
		v, err = e.tbl.Min(col)
	case "max":
		v, err = e.tbl.Max(col)
	}
	if err != nil {
		return errorResult(err)
	}
	return scalarResult(v)
}

func (e *Engine) describe() Result {
	numeric := e.tbl.NumericColumns()
	if len(numeric) == 0 {
		return scalarResult("No numeric columns found for statistical analysis.")
	}
	records := [][]string{append([]string{""}, numeric...)}
	labels := []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}
	stats := make([]table.Stats, len(numeric))
	for i, col := range numeric {
		s, err := e.tbl.Stats(col)
		if err != nil {
			return errorResult(err)
		}
		stats[i] = s
	}
	for _, label := range labels {
		row := []string{label}
		for _, s := range stats {
			var v float64
			switch label {
			case "count":
				v = float64(s.Count)
			case "mean":
				v = s.Mean
			case "std":
				v = s.Std
			case "min":
				v = s.Min
			case "25%":
				v = s.Q25
			case "50%":
				v = s.Median
			case "75%":
				v = s.Q75
			case "max":
				v = s.Max
			}
			row = append(row, fmt.Sprintf("%.2f", v))
		}
		records = append(records, row)
	}
	return tableResult(records)
}

func arity(c call, min, max int) error {
	if len(c.args) < min || len(c.args) > max {
		return fmt.Errorf("%s expects between %d and %d arguments, got %d", c.name, min, max, len(c.args))
	}
	return nil
}

func (e *Engine) columnArg(c call, i int) (string, error) {
	name, ok := c.args[i].text()
	if !ok {
		return "", fmt.Errorf("argument %d of %s must be a column name", i+1, c.name)
	}
	if !e.tbl.HasColumn(name) {
		return "", fmt.Errorf("unknown column %q", name)
	}
	return name, nil
}

func (e *Engine) intArg(c call, i int) (int, error) {
	v, ok := c.args[i].number()
	if !ok {
		return 0, fmt.Errorf("argument %d of %s must be a number", i+1, c.name)
	}
	if v != math.Trunc(v) {
		return 0, fmt.Errorf("argument %d of %s must be a whole number", i+1, c.name)
	}
	n := int(v)
	if n < 1 {
		return 0, fmt.Errorf("argument %d of %s must be positive", i+1, c.name)
	}
	return n, nil
}
