// Package report renders benchmark run statistics as a fixed-column
// table.
package report

import (
	"fmt"
	"io"

	"github.com/cosmikwolf/exprbench"
)

const (
	nameWidth = 12
	colWidth  = 14
)

var columns = []string{"runs", "avg ticks", "med ticks", "min ticks", "max ticks", "stdev", "fails", "short", "repairs"}

// Prints the table header
//
//nolint:errcheck
func PrintHeader(sink io.Writer) {
	fmt.Fprintf(sink, "%-*s", nameWidth, "workload")
	for _, col := range columns {
		fmt.Fprintf(sink, " %*s", colWidth, col)
	}
	fmt.Fprintln(sink)
}

// Prints one statistics row
//
//nolint:errcheck
func PrintRow(sink io.Writer, name string, stats exprbench.RunStats) {
	fmt.Fprintf(sink, "%-*s", nameWidth, name)
	fmt.Fprintf(sink, " %*d", colWidth, stats.Count)
	fmt.Fprintf(sink, " %*.1f", colWidth, stats.AvgTicks)
	fmt.Fprintf(sink, " %*d", colWidth, stats.MedTicks)
	fmt.Fprintf(sink, " %*d", colWidth, stats.MinTicks)
	fmt.Fprintf(sink, " %*d", colWidth, stats.MaxTicks)
	fmt.Fprintf(sink, " %*.1f", colWidth, stats.StdDev)
	fmt.Fprintf(sink, " %*d", colWidth, stats.Fails)
	fmt.Fprintf(sink, " %*d", colWidth, stats.ShortIntervals)
	fmt.Fprintf(sink, " %*d", colWidth, stats.Repairs)
	fmt.Fprintln(sink)
}

// Prints raw per-run tick values
//
//nolint:errcheck
func PrintRaw(sink io.Writer, name string, stats exprbench.RunStats) {
	fmt.Fprintf(sink, "        Raw tick counts for %s:\n", name)
	for i, v := range stats.Values {
		fmt.Fprintf(sink, "%4d\t%d\n", i+1, v)
	}
}
