package query

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"data-analyst/internal/table"
)

const sampleCSV = `Product,Price,Units_Sold,Customer_Rating
Widget A,19.99,100,4.5
Widget B,24.99,85,4.2
Widget C,15.50,120,4.8
`

func testEngine(t *testing.T) *Engine {
	t.Helper()
	tbl, err := table.FromCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	return NewEngine(tbl, zerolog.Nop())
}

func TestRunColumns(t *testing.T) {
	res := testEngine(t).Run("columns()")
	require.Equal(t, KindList, res.Kind)
	assert.Equal(t, []string{"Product", "Price", "Units_Sold", "Customer_Rating"}, res.List)
}

func TestRunMean(t *testing.T) {
	res := testEngine(t).Run("mean(Price)")
	require.Equal(t, KindScalar, res.Kind)
	assert.InDelta(t, 20.16, res.Scalar.(float64), 1e-9)
}

func TestRunCount(t *testing.T) {
	res := testEngine(t).Run("count()")
	require.Equal(t, KindScalar, res.Kind)
	assert.Equal(t, 3, res.Scalar)

	res = testEngine(t).Run("count(Price)")
	require.Equal(t, KindScalar, res.Kind)
	assert.Equal(t, 3, res.Scalar)
}

func TestRunHead(t *testing.T) {
	res := testEngine(t).Run("head(2)")
	require.Equal(t, KindTable, res.Kind)
	require.Len(t, res.Records, 3) // header + 2 rows
	assert.Equal(t, "Widget A", res.Records[1][0])
}

func TestRunTop(t *testing.T) {
	res := testEngine(t).Run("top(Price, 1)")
	require.Equal(t, KindTable, res.Kind)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "Widget B", res.Records[1][0])

	res = testEngine(t).Run("bottom(Price, 1)")
	require.Equal(t, KindTable, res.Kind)
	assert.Equal(t, "Widget C", res.Records[1][0])
}

func TestRunUnique(t *testing.T) {
	res := testEngine(t).Run("unique(Product)")
	require.Equal(t, KindList, res.Kind)
	assert.Equal(t, []string{"Widget A", "Widget B", "Widget C"}, res.List)
}

func TestRunDescribe(t *testing.T) {
	res := testEngine(t).Run("describe()")
	require.Equal(t, KindTable, res.Kind)
	assert.Equal(t, []string{"", "Price", "Units_Sold", "Customer_Rating"}, res.Records[0])
	assert.Equal(t, "mean", res.Records[2][0])
	assert.Equal(t, "20.16", res.Records[2][1])
}

func TestRunNulls(t *testing.T) {
	res := testEngine(t).Run("nulls()")
	require.Equal(t, KindScalar, res.Kind)
	assert.Equal(t, "No missing values found in any column.", res.Scalar)
}

func TestRunHist(t *testing.T) {
	res := testEngine(t).Run("hist(Price)")
	require.Equal(t, KindChart, res.Kind)
	assert.Contains(t, res.Chart, "Histogram of Price")
}

func TestRunBar(t *testing.T) {
	res := testEngine(t).Run("bar(Product)")
	require.Equal(t, KindChart, res.Kind)
	assert.Contains(t, res.Chart, "Value counts of Product")
	assert.Contains(t, res.Chart, "Widget A")
}

func TestRunCorr(t *testing.T) {
	res := testEngine(t).Run("corr(Price, Units_Sold)")
	require.Equal(t, KindScalar, res.Kind)
	_, ok := res.Scalar.(float64)
	assert.True(t, ok)
}

func TestRunShapeAndDtypes(t *testing.T) {
	res := testEngine(t).Run("shape()")
	require.Equal(t, KindScalar, res.Kind)
	assert.Equal(t, "3 rows x 4 columns", res.Scalar)

	res = testEngine(t).Run("dtypes()")
	require.Equal(t, KindList, res.Kind)
	assert.Contains(t, res.List, "Price: float")
}

func TestRunMultiStatement(t *testing.T) {
	res := testEngine(t).Run("columns()\nmean(Price)")
	require.Equal(t, KindScalar, res.Kind)
	assert.InDelta(t, 20.16, res.Scalar.(float64), 1e-9)
}

func TestRunChartSurvivesTrailingComment(t *testing.T) {
	res := testEngine(t).Run("hist(Price)\n# done")
	require.Equal(t, KindChart, res.Kind)
}

func TestRunErrors(t *testing.T) {
	cases := []string{
		"explode()",                      // unknown function
		"mean(Discount)",                 // unknown column
		"mean(Product)",                  // non-numeric column
		"mean()",                         // arity
		"os.system('rm -rf /')",          // not in the grammar
		"import os",                      // not in the grammar
		"df['Price'].mean()",             // host-language syntax
		"open(\"/etc/passwd\")",          // no such function
		"mean(Price); exec(evil)",        // second statement invalid
		"head(2.9)",                      // fractional count
		"top(Price, 1.5)",                // fractional count
	}
	for _, src := range cases {
		res := testEngine(t).Run(src)
		assert.Equal(t, KindError, res.Kind, "source %q", src)
		assert.Error(t, res.Err, "source %q", src)
	}
}

func TestRunEmptyProgram(t *testing.T) {
	res := testEngine(t).Run("")
	assert.Equal(t, KindNone, res.Kind)

	res = testEngine(t).Run("# I need more context to answer this.")
	assert.Equal(t, KindNone, res.Kind)
}
