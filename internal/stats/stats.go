package stats

import (
	"math"
	"sort"
)

// Stats holds the derived statistics over a set of per-batch ns/op values.
type Stats struct {
	Min       int64
	Max       int64
	Mean      float64
	Median    int64
	StdDev    float64
	StdErr    float64
	CI99      float64
	Skew      float64
	Kurtosis  float64
	TimeCorr  float64
	Outliers  int
	BatchesFinal int
}

// Compute fills every field of Stats from sorted sample data. The caller is
// responsible for sorting data first; Compute itself only reads.
//
// Median is the element at index len(data)/2 of the sorted input (the
// "upper median" convention for even-length inputs).
func Compute(data []int64) Stats {
	var s Stats
	n := len(data)
	if n == 0 {
		return s
	}

	var sum float64
	for _, v := range data {
		sum += float64(v)
	}
	mean := sum / float64(n)
	s.Mean = mean
	s.Median = data[n/2]

	_, b := FitLine(nil, data)
	s.TimeCorr = b

	s.Max = math.MinInt64
	s.Min = math.MaxInt64

	var std, sk, ku float64
	for _, v := range data {
		if v > s.Max {
			s.Max = v
		}
		if v < s.Min {
			s.Min = v
		}
		diff := float64(v) - mean
		diff2 := diff * diff
		std += diff2
		diff3 := diff2 * diff
		sk += diff3
		ku += diff3 * diff
	}

	if n == 1 {
		// A single sample has no meaningful spread; avoid dividing by zero.
		return s
	}

	cm1 := float64(n - 1)
	std = math.Sqrt(std / cm1)
	s.StdDev = std
	s.StdErr = std / math.Sqrt(float64(n))
	s.CI99 = s.StdErr * 2.576
	std3 := std * std * std
	if std3 != 0 {
		s.Skew = sk / (cm1 * std3)
		s.Kurtosis = ku/(cm1*(std3*std)) - 3
	}
	return s
}

// RemoveOutliers drops entries outside [mean-3*stddev, mean+3*stddev] from a
// sorted slice, compacting survivors to the front in place. Since the input
// is sorted, the surviving set is always a contiguous interval — this is
// the sorted-interval trim form, chosen uniformly (see DESIGN.md).
// Returns the number of entries dropped.
func RemoveOutliers(data []int64, s Stats) int {
	n := len(data)
	if n == 0 {
		return 0
	}

	outMin := int64(math.Round(s.Mean - 3*s.StdDev))
	outMax := int64(math.Round(s.Mean + 3*s.StdDev))

	minIdx := n
	for i := 0; i < n; i++ {
		if data[i] >= outMin {
			minIdx = i
			break
		}
	}

	maxIdx := -1
	for i := n - 1; i >= 0; i-- {
		if data[i] <= outMax {
			maxIdx = i
			break
		}
	}

	if minIdx > 0 {
		i := 0
		for idx := minIdx; idx <= maxIdx && i < n; idx, i = idx+1, i+1 {
			data[i] = data[idx]
		}
		return n - i
	}
	return n - (maxIdx + 1)
}

// IterateOutliers sorts data, computes raw Stats, then repeatedly applies
// RemoveOutliers + recompute until a round removes nothing or the surviving
// population drops to 40 or fewer (a tiny population bypasses outlier
// removal entirely, gated on batches > 40). It
// returns the raw Stats (over the full sorted sample) and the corrected
// Stats (over the surviving samples), with Corrected.BatchesFinal set to
// the surviving count.
func IterateOutliers(data []int64) (raw, corrected Stats) {
	sort.Slice(data, func(i, j int) bool { return data[i] < data[j] })

	n := len(data)
	raw = Compute(data[:n])
	raw.BatchesFinal = n

	corrected = raw
	outliers := 0

	if n > 40 {
		remaining := data
		for {
			removed := RemoveOutliers(remaining, corrected)
			outliers += removed
			remaining = remaining[:len(remaining)-removed]
			corrected = Compute(remaining)
			if removed == 0 || len(remaining) <= 40 {
				break
			}
		}
		corrected.BatchesFinal = len(remaining)
	} else {
		corrected.BatchesFinal = n
	}
	corrected.Outliers = outliers

	return raw, corrected
}

// FitLine performs a least-squares fit of y = a + b*x. When x is nil,
// x[i] = i is used. Returns (NaN, NaN) when the fit is degenerate (the
// denominator is zero, e.g. a single point).
func FitLine(x, y []int64) (a, b float64) {
	n := len(y)
	var sumx, sumy, sumxy, sumx2 float64

	for i := 0; i < n; i++ {
		var xi float64
		if x == nil {
			xi = float64(i)
		} else {
			xi = float64(x[i])
		}
		yi := float64(y[i])
		sumx += xi
		sumx2 += xi * xi
		sumy += yi
		sumxy += xi * yi
	}

	denom := float64(n)*sumx2 - sumx*sumx
	if denom == 0.0 {
		return math.NaN(), math.NaN()
	}

	a = (sumy*sumx2 - sumx*sumxy) / denom
	b = (float64(n)*sumxy - sumx*sumy) / denom
	return a, b
}

// Percentile returns the index of the p-th percentile element of a sorted
// slice (p in [0,1]), scanning downward from floor(p*n) past any
// non-positive or non-finite entry — matching the reporter's v95 cutoff
// rule. ok is false when no valid (positive) entry exists at or before the
// computed index.
func Percentile(sorted []int64, p float64) (idx int, ok bool) {
	n := len(sorted)
	if n == 0 {
		return 0, false
	}
	i := int(float64(n) * p)
	if i >= n {
		i = n - 1
	}
	for i >= 0 && sorted[i] <= 0 {
		i--
	}
	if i < 0 {
		return 0, false
	}
	return i, true
}
