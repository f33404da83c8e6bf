// Package stats computes the derived statistics the measurement engine
// reports: min/max/mean/median/stddev/stderr/ci99/skew/kurtosis/timecorr,
// iterated 3-sigma outlier removal, a least-squares line fit, and the
// percentile lookup used by the reporter's histogram cutoff.
package stats
