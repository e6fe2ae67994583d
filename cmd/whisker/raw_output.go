package main

import (
	"bufio"
	"fmt"
	"io"
)

// RawOutput prints bar heights as percentages, one line per frame.
type RawOutput struct {
	w        *bufio.Writer
	binCount int
}

func NewRawOutput(w io.Writer, binCount int) *RawOutput {
	return &RawOutput{
		w:        bufio.NewWriter(w),
		binCount: binCount,
	}
}

// Bins returns the number of bars we will print.
func (d *RawOutput) Bins(chCount int) int {
	return d.binCount
}

// Write prints the first channel low to high and the second high to low.
func (d *RawOutput) Write(buffers [][]float64, channels int) error {
	for xSet, chBins := range buffers {
		count := len(chBins)

		for xBar := 0; xBar < count; xBar++ {
			xBin := (xBar * (1 - xSet)) + (((count - 1) - xBar) * xSet)

			fmt.Fprintf(d.w, "%6.2f ", chBins[xBin]*100)
		}
	}

	fmt.Fprintln(d.w)

	return d.w.Flush()
}
