package query

import (
	"fmt"
	"math"
	"strings"

	"data-analyst/internal/table"
)

// Text charts stand in for plot figures on the CLI surface. Rendering is
// deterministic for a given input.

const (
	barWidth   = 40
	maxBarRows = 15
)

func renderHistogram(col string, values []float64, bins int) (string, error) {
	if len(values) == 0 {
		return "", fmt.Errorf("no numeric values in column %q to plot", col)
	}
	if bins < 1 {
		bins = 10
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		// Degenerate distribution, one bin holds everything.
		bins = 1
		hi = lo + 1
	}

	counts := make([]int, bins)
	width := (hi - lo) / float64(bins)
	for _, v := range values {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		counts[i]++
	}
	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Histogram of %s (%d values)\n", col, len(values))
	for i, c := range counts {
		binLo := lo + float64(i)*width
		binHi := binLo + width
		fmt.Fprintf(&b, "[%10.2f, %10.2f) %-*s %d\n", binLo, binHi, barWidth, bar(c, maxCount), c)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func renderBar(col string, counts []table.ValueCount) (string, error) {
	if len(counts) == 0 {
		return "", fmt.Errorf("no values in column %q to plot", col)
	}
	if len(counts) > maxBarRows {
		counts = counts[:maxBarRows]
	}

	maxCount := 0
	labelWidth := 0
	for _, vc := range counts {
		if vc.Count > maxCount {
			maxCount = vc.Count
		}
		if len(vc.Value) > labelWidth {
			labelWidth = len(vc.Value)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Value counts of %s\n", col)
	for _, vc := range counts {
		fmt.Fprintf(&b, "%-*s %-*s %d\n", labelWidth, vc.Value, barWidth, bar(vc.Count, maxCount), vc.Count)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func bar(count, maxCount int) string {
	if maxCount == 0 {
		return ""
	}
	n := count * barWidth / maxCount
	if n == 0 && count > 0 {
		n = 1
	}
	return strings.Repeat("#", n)
}
