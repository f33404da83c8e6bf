package report

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"text/tabwriter"
	"time"

	"github.com/jpequegn/ubench/internal/sharedstate"
	"github.com/jpequegn/ubench/internal/stats"
	"github.com/jpequegn/ubench/internal/storage"
)

// Config carries the display-affecting flags and run identity a Reporter
// needs: everything in the flag table that shapes the text output
// rather than the measurement itself.
type Config struct {
	Name          string
	Processes     int
	Threads       int
	NoHeader      bool // -H
	ReportMean    bool // -M
	DetailedStats bool // -S
	Warnings      bool // -W, implies DetailedStats
	StartedAt     time.Time
	// BatchSize and Resolution feed only the quantization warning's
	// suggested-factor formula: the per-call iteration count workers were
	// using and the calibrated clock resolution
	// in ns (internal/calibrate.Resolution, possibly overridden by -R).
	BatchSize  int64
	Resolution int64
}

// Reporter renders a finished SharedState.
type Reporter struct {
	Config       Config
	Shared       *sharedstate.SharedState
	PluginResult string
}

// Render writes the header/data line (unless -H) and, when -S or -W is
// set, the "#"-prefixed stats block, histogram, and warnings to w. It
// returns the storage.RunRecord the caller may hand to an optional history
// sink.
func (r *Reporter) Render(w io.Writer) (*storage.RunRecord, error) {
	cfg := r.Config
	ss := r.Shared

	n := ss.Batches()
	if ds := ss.DataSize(); n > ds {
		n = ds
	}
	data := ss.Snapshot(n)
	raw, corrected := stats.IterateOutliers(data)
	correctedSorted := data[:corrected.BatchesFinal]

	display := int64(math.Round(corrected.Mean))
	if !cfg.ReportMean {
		display = corrected.Median
	}

	count := ss.Count()
	batches := ss.Batches()
	var opsPerSample int64
	if batches > 0 {
		opsPerSample = count / batches
	}
	errs := ss.Errors()
	killed := killedString(ss.Killed())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if !cfg.NoHeader {
		fmt.Fprintf(tw, "%s\tP\tT\tns/call\tsamples\terrors\tops/sample\tresult\n", "name")
	}
	fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
		cfg.Name, cfg.Processes, cfg.Threads, display, batches, errs, opsPerSample, r.PluginResult)
	if err := tw.Flush(); err != nil {
		return nil, fmt.Errorf("report: flush header/data line: %w", err)
	}

	if cfg.DetailedStats || cfg.Warnings {
		if err := renderStatsBlock(w, raw, corrected); err != nil {
			return nil, err
		}
		if err := renderHistogram(w, correctedSorted); err != nil {
			return nil, err
		}
	}
	if cfg.Warnings {
		if err := renderWarnings(w, cfg, ss, raw, corrected, display); err != nil {
			return nil, err
		}
	}

	rec := &storage.RunRecord{
		Name:      cfg.Name,
		StartedAt: cfg.StartedAt,
		Processes: cfg.Processes,
		Threads:   cfg.Threads,
		NsPerCall: display,
		Samples:   batches,
		Errors:    errs,
		Killed:    killed,
		Raw:       raw,
		Corrected: corrected,
	}
	return rec, nil
}

func killedString(v int64) string {
	switch v {
	case sharedstate.KilledLong:
		return "long"
	case sharedstate.KilledInterrupt:
		return "interrupt"
	default:
		return "none"
	}
}

// renderStatsBlock prints the "raw"/"corrected" two-column stats table
// the -S flag requests.
func renderStatsBlock(w io.Writer, raw, corrected stats.Stats) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "#\tstat\traw\tcorrected\n")
	fmt.Fprintf(tw, "#\tn\t%d\t%d\n", raw.BatchesFinal, corrected.BatchesFinal)
	fmt.Fprintf(tw, "#\tmin\t%d\t%d\n", raw.Min, corrected.Min)
	fmt.Fprintf(tw, "#\tmax\t%d\t%d\n", raw.Max, corrected.Max)
	fmt.Fprintf(tw, "#\tmean\t%.2f\t%.2f\n", raw.Mean, corrected.Mean)
	fmt.Fprintf(tw, "#\tmedian\t%d\t%d\n", raw.Median, corrected.Median)
	fmt.Fprintf(tw, "#\tstddev\t%.2f\t%.2f\n", raw.StdDev, corrected.StdDev)
	fmt.Fprintf(tw, "#\tstderr\t%.4f\t%.4f\n", raw.StdErr, corrected.StdErr)
	fmt.Fprintf(tw, "#\tci99\t%.4f\t%.4f\n", raw.CI99, corrected.CI99)
	fmt.Fprintf(tw, "#\tskew\t%.4f\t%.4f\n", raw.Skew, corrected.Skew)
	fmt.Fprintf(tw, "#\tkurtosis\t%.4f\t%.4f\n", raw.Kurtosis, corrected.Kurtosis)
	fmt.Fprintf(tw, "#\toutliers\t-\t%d\n", corrected.Outliers)
	return tw.Flush()
}

// renderHistogram prints 32 equal-width buckets over [min, v95] plus an
// overflow bucket for samples above the 95th percentile.
func renderHistogram(w io.Writer, sorted []int64) error {
	const numBuckets = 32

	idx, ok := stats.Percentile(sorted, 0.95)
	if !ok {
		fmt.Fprintf(w, "# histogram: no valid data\n")
		return nil
	}
	v95 := sorted[idx]
	lo := sorted[0]

	width := int64(math.Ceil(float64(v95-lo+1) / float64(numBuckets)))
	if width < 1 {
		width = 1
	}

	counts := make([]int, numBuckets)
	overflow := 0
	for _, v := range sorted {
		if v > v95 {
			overflow++
			continue
		}
		bi := int((v - lo) / width)
		if bi >= numBuckets {
			bi = numBuckets - 1
		}
		if bi < 0 {
			bi = 0
		}
		counts[bi]++
	}

	fmt.Fprintf(w, "# histogram: %d buckets of width %d over [%d, %d]\n", numBuckets, width, lo, v95)
	for i, c := range counts {
		if c == 0 {
			continue
		}
		fmt.Fprintf(w, "#   [%d, %d) %d\n", lo+int64(i)*width, lo+int64(i+1)*width, c)
	}
	if overflow > 0 {
		fmt.Fprintf(w, "#   >%d %d\n", v95, overflow)
	}
	return nil
}

// renderWarnings prints heuristic warnings about clock quantization, too
// few samples, mean/median divergence, a low in-benchmark time fraction
// (single-participant runs only), the termination cause, and plugin errors.
func renderWarnings(w io.Writer, cfg Config, ss *sharedstate.SharedState, raw, corrected stats.Stats, display int64) error {
	quant := ss.Quant()
	if quant > 0 {
		medianUS := float64(corrected.Median) / 1000.0
		batchSize := cfg.BatchSize
		if batchSize <= 0 {
			batchSize = 1
		}
		factor := int64(math.Floor(float64(cfg.Resolution)*100/(float64(batchSize)*medianUS*1000))) + 1
		fmt.Fprintf(w, "# warning: %d batches looked quantized; consider raising the batch size by roughly %dx\n", quant, factor)
		slog.Warn("clock quantization detected", "name", cfg.Name, "quantized_batches", quant, "suggested_factor", factor)
	}

	if ss.Batches() < 100 {
		fmt.Fprintf(w, "# warning: fewer than 100 samples recorded; results may be unreliable\n")
	}

	if !cfg.ReportMean {
		if math.Abs(corrected.Mean-float64(corrected.Median)) > corrected.StdDev/2 {
			fmt.Fprintf(w, "# warning: mean and median diverge by more than half a standard deviation; distribution may be skewed\n")
		}
	}

	if cfg.Processes*cfg.Threads == 1 {
		wall := ss.EndTime() - ss.StartTime()
		if wall > 0 {
			frac := float64(ss.TotalTime()) / float64(wall)
			if frac < 0.8 {
				fmt.Fprintf(w, "# warning: only %.0f%% of wall time was spent inside the timed region\n", frac*100)
			}
		}
	}

	switch ss.Killed() {
	case sharedstate.KilledLong:
		fmt.Fprintf(w, "# warning: run was terminated by the deadline watchdog\n")
	case sharedstate.KilledInterrupt:
		fmt.Fprintf(w, "# warning: run was interrupted\n")
	}
	if ss.Errors() > 0 {
		fmt.Fprintf(w, "# warning: %d plugin errors recorded\n", ss.Errors())
	}

	return nil
}
