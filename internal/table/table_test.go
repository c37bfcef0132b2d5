package table

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `Product,Price,Units_Sold,Customer_Rating
Widget A,19.99,100,4.5
Widget B,24.99,85,4.2
Widget C,15.50,120,4.8
`

const missingCSV = `Name,Score,City
alice,10,Berlin
bob,,Lisbon
carol,30,
`

func sampleTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := FromCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	return tbl
}

func TestFromCSVShapeAndTypes(t *testing.T) {
	tbl := sampleTable(t)

	assert.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, 4, tbl.NumCols())
	assert.Equal(t, []string{"Product", "Price", "Units_Sold", "Customer_Rating"}, tbl.Columns())

	assert.False(t, tbl.IsNumeric("Product"))
	assert.True(t, tbl.IsNumeric("Price"))
	assert.True(t, tbl.IsNumeric("Units_Sold"))
	assert.Equal(t, []string{"Price", "Units_Sold", "Customer_Rating"}, tbl.NumericColumns())

	types := tbl.Types()
	assert.Equal(t, "string", types["Product"])
	assert.Equal(t, "float", types["Price"])
}

func TestFromCSVEmpty(t *testing.T) {
	_, err := FromCSV(strings.NewReader("Product,Price\n"))
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestAggregates(t *testing.T) {
	tbl := sampleTable(t)

	mean, err := tbl.Mean("Price")
	require.NoError(t, err)
	assert.InDelta(t, 20.16, mean, 1e-9)

	sum, err := tbl.Sum("Units_Sold")
	require.NoError(t, err)
	assert.InDelta(t, 305, sum, 1e-9)

	max, err := tbl.Max("Customer_Rating")
	require.NoError(t, err)
	assert.InDelta(t, 4.8, max, 1e-9)

	min, err := tbl.Min("Price")
	require.NoError(t, err)
	assert.InDelta(t, 15.50, min, 1e-9)
}

func TestAggregateErrors(t *testing.T) {
	tbl := sampleTable(t)

	_, err := tbl.Mean("Discount")
	assert.ErrorIs(t, err, ErrNoColumn)

	_, err = tbl.Mean("Product")
	assert.ErrorIs(t, err, ErrNotNumeric)
}

func TestNullCounts(t *testing.T) {
	tbl, err := FromCSV(strings.NewReader(missingCSV))
	require.NoError(t, err)

	counts := tbl.NullCounts()
	require.Len(t, counts, 3)
	assert.Equal(t, NullCount{Column: "Name", Count: 0}, counts[0])
	assert.Equal(t, NullCount{Column: "Score", Count: 1}, counts[1])
	assert.Equal(t, NullCount{Column: "City", Count: 1}, counts[2])

	n, err := tbl.Count("Score")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Aggregates skip missing values instead of poisoning the result.
	mean, err := tbl.Mean("Score")
	require.NoError(t, err)
	assert.InDelta(t, 20, mean, 1e-9)
}

func TestHeadAndSort(t *testing.T) {
	tbl := sampleTable(t)

	head := tbl.Head(2)
	assert.Equal(t, 2, head.NumRows())
	records := head.Records()
	require.Len(t, records, 3) // header + 2 rows
	assert.Equal(t, "Widget A", records[1][0])

	sorted, err := tbl.SortBy("Price", true)
	require.NoError(t, err)
	assert.Equal(t, "Widget B", sorted.Records()[1][0])

	sorted, err = tbl.SortBy("Price", false)
	require.NoError(t, err)
	assert.Equal(t, "Widget C", sorted.Records()[1][0])
}

func TestUniqueAndValueCounts(t *testing.T) {
	csv := "Color\nred\nblue\nred\nred\n"
	tbl, err := FromCSV(strings.NewReader(csv))
	require.NoError(t, err)

	uniq, err := tbl.Unique("Color")
	require.NoError(t, err)
	assert.Equal(t, []string{"red", "blue"}, uniq)

	counts, err := tbl.ValueCounts("Color")
	require.NoError(t, err)
	assert.Equal(t, []ValueCount{{Value: "red", Count: 3}, {Value: "blue", Count: 1}}, counts)
}

func TestCorr(t *testing.T) {
	csv := "X,Y\n1,2\n2,4\n3,6\n4,8\n"
	tbl, err := FromCSV(strings.NewReader(csv))
	require.NoError(t, err)

	r, err := tbl.Corr("X", "Y")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r, 1e-9)
}

func TestStats(t *testing.T) {
	tbl := sampleTable(t)

	s, err := tbl.Stats("Units_Sold")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 101.666666, s.Mean, 1e-4)
	assert.InDelta(t, 85, s.Min, 1e-9)
	assert.InDelta(t, 120, s.Max, 1e-9)
}

func TestMarkdown(t *testing.T) {
	tbl := sampleTable(t)

	md := tbl.Head(1).Markdown()
	lines := strings.Split(md, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "| Product | Price | Units_Sold | Customer_Rating |", lines[0])
	assert.Contains(t, lines[2], "Widget A")
}

func TestFromRecords(t *testing.T) {
	records := [][]string{
		{"A", "B"},
		{"1", "x"},
		{"2", "y"},
	}
	tbl, err := FromRecords(records)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.NumRows())
	assert.True(t, tbl.IsNumeric("A"))

	_, err = FromRecords(nil)
	assert.ErrorIs(t, err, ErrEmpty)
}
