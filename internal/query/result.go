package query

// Kind tags the outcome of evaluating an expression program.
type Kind int

const (
	// KindError: evaluation failed; Err carries the cause.
	KindError Kind = iota
	// KindNone: the program produced no value.
	KindNone
	// KindScalar: a single value (int, float64 or string).
	KindScalar
	// KindList: an ordered sequence of values.
	KindList
	// KindTable: tabular records, header row first.
	KindTable
	// KindChart: a rendered text chart.
	KindChart
)

// Result is the tagged outcome of Engine.Run. Exactly the field matching
// Kind is meaningful.
type Result struct {
	Kind    Kind
	Scalar  any
	List    []string
	Records [][]string
	Chart   string
	Err     error
}

func errorResult(err error) Result { return Result{Kind: KindError, Err: err} }

func scalarResult(v any) Result { return Result{Kind: KindScalar, Scalar: v} }

func listResult(vs []string) Result { return Result{Kind: KindList, List: vs} }

func tableResult(records [][]string) Result { return Result{Kind: KindTable, Records: records} }

func chartResult(chart string) Result { return Result{Kind: KindChart, Chart: chart} }
