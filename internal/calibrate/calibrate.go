package calibrate

import (
	"math"

	"github.com/jpequegn/ubench/internal/clock"
	"github.com/jpequegn/ubench/internal/stats"
)

// DefaultOverheadIterations is the sample count used by Overhead when the
// caller does not override it.
const DefaultOverheadIterations = 20_000_000

// resSamples is the number of consecutive clock reads Resolution samples.
const resSamples = 10_000

// Overhead samples now()-now() for n iterations (after three warm-up reads),
// iteratively strips 3-sigma outliers, and returns the rounded mean: the
// self-read latency of the clock itself.
func Overhead(n int) int64 {
	if n <= 0 {
		n = DefaultOverheadIterations
	}

	clock.Now()
	clock.Now()
	clock.Now()

	data := make([]int64, n)
	for i := 0; i < n; i++ {
		s := clock.Now()
		data[i] = clock.Now() - s
	}

	_, corrected := stats.IterateOutliers(data)
	return int64(math.Round(corrected.Mean))
}

// Resolution finds the smallest busy-loop iteration count that produces a
// strictly positive delta between two clock reads, then samples resSamples
// intervals of linearly increasing length and returns the smallest strictly
// positive first difference observed (or 1, if the counter is so fast and
// consistent that every difference is zero).
func Resolution() int64 {
	nops := findMinBusyLoop()

	y := make([]int64, resSamples)
	for i := 0; i < resSamples; i++ {
		start := clock.Now()
		busyLoop(nops * i)
		y[i] = clock.Now() - start
	}

	var res int64
	for i := 1; i < resSamples; i++ {
		diff := y[i] - y[i-1]
		if diff > 0 && (res == 0 || res > diff) {
			res = diff
		}
	}
	if res <= 0 {
		res = 1
	}
	return res
}

func findMinBusyLoop() int {
	maxIter := 1000
	for {
		for i := 1; i <= maxIter; i++ {
			start := clock.Now()
			busyLoop(i)
			stop := clock.Now()
			if stop > start {
				return i
			}
		}
		maxIter *= 10
	}
}

// busyLoop spends n iterations of pure CPU work. A volatile-counter trick
// to prevent optimization has no Go equivalent;
// sinking the final value into a package-level variable keeps the compiler
// from eliding the loop.
var sink int

func busyLoop(n int) {
	x := 0
	for j := n; j > 0; j-- {
		x++
	}
	sink = x
}
