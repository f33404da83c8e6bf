package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpequegn/ubench/internal/barrier"
	"github.com/jpequegn/ubench/internal/config"
	"github.com/jpequegn/ubench/internal/report"
	"github.com/jpequegn/ubench/internal/storage"
	"github.com/jpequegn/ubench/internal/supervisor"
)

// runFlags mirrors the single-letter flag table; fields holding
// an integer-with-unit argument (-B -D -I -O -R -X) are parsed as
// strings and passed through config.ParseUnitInt so the k/K/m/M/g/G
// multiplier suffix works uniformly.
var runFlags struct {
	singleProcess    bool
	align            bool
	batchSize        string
	minSamples       int64
	minDuration      string
	echoName         bool
	debug            int
	noHeader         bool
	nominalNs        string
	printInvocation  bool
	reportMean       bool
	name             string
	overhead         string
	processes        int
	resolution       string
	detailedStats    bool
	threads          int
	printVersion     bool
	warnings         bool
	deadline         string
	usage            bool
	barrierKind      string

	// Engine-selection flags outside the single-letter table: rather
	// than linking one benchmark object per binary, this engine
	// selects among the built-in demo plug-ins instead.
	pluginName    string
	sleepDuration time.Duration
	history       string

	// Hidden re-exec flags, set only by internal/supervisor.workerArgs.
	worker      bool
	workerIndex int
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a benchmark plug-in under controlled process/thread fan-out",
	Long: `run executes a benchmark plug-in, measures its per-operation latency with
nanosecond resolution, and reports statistically characterized results.

Example:
  ubench run -N noop -P 2 -T 4 -C 1000
  ubench run --plugin spin -N spin -S -W`,
	RunE:          runBenchmark,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.BoolVarP(&runFlags.singleProcess, "single-process", "1", false, "single-process; forces P=1")
	f.BoolVarP(&runFlags.align, "align", "A", false, "clock-align before each timed batch")
	f.StringVarP(&runFlags.batchSize, "batch-size", "B", "", "fixed operations per batch; disables auto-tune")
	f.Int64VarP(&runFlags.minSamples, "min-samples", "C", 100, "minimum number of samples")
	f.StringVarP(&runFlags.minDuration, "min-duration", "D", "10000", "minimum duration in ms")
	f.BoolVarP(&runFlags.echoName, "echo-name", "E", false, "echo name to diagnostic stream")
	f.IntVarP(&runFlags.debug, "debug", "G", 0, "framework debug verbosity (0-9)")
	f.BoolVarP(&runFlags.noHeader, "no-header", "H", false, "suppress header")
	f.StringVarP(&runFlags.nominalNs, "nominal-ns", "I", "", "nominal ns/op hint for initial batch sizing; disables auto-tune")
	f.BoolVarP(&runFlags.printInvocation, "print-invocation", "L", false, "print the invocation line")
	f.BoolVarP(&runFlags.reportMean, "report-mean", "M", false, "report mean rather than median")
	f.StringVarP(&runFlags.name, "name", "N", "", "test name")
	f.StringVarP(&runFlags.overhead, "overhead", "O", "", "override clock overhead (ns)")
	f.IntVarP(&runFlags.processes, "processes", "P", 1, "number of processes")
	f.StringVarP(&runFlags.resolution, "resolution", "R", "", "override clock resolution (ns)")
	f.BoolVarP(&runFlags.detailedStats, "detailed-stats", "S", false, "print detailed stats block")
	f.IntVarP(&runFlags.threads, "threads", "T", 1, "threads per process")
	f.BoolVarP(&runFlags.printVersion, "print-version", "V", false, "print version, exit 0")
	f.BoolVarP(&runFlags.warnings, "warnings", "W", false, "emit warning heuristics (implies -S)")
	f.StringVarP(&runFlags.deadline, "deadline", "X", "0", "hard maximum duration in ms (must exceed -D)")
	f.BoolVarP(&runFlags.usage, "usage", "?", false, "usage, exit 0")
	f.StringVar(&runFlags.barrierKind, "barrier", "sysv", "barrier realization: sysv or spin")

	f.StringVar(&runFlags.pluginName, "plugin", "noop", "built-in plug-in: noop, spin, or sleep")
	f.DurationVar(&runFlags.sleepDuration, "sleep", 10*time.Millisecond, "per-batch sleep duration for the sleep plug-in")
	f.StringVar(&runFlags.history, "history", "", "optional SQLite path to persist this run's RunRecord")

	f.BoolVar(&runFlags.worker, "ubench-worker", false, "internal: re-exec'd worker process")
	f.IntVar(&runFlags.workerIndex, "ubench-worker-index", 0, "internal: worker process index")
	_ = f.MarkHidden("ubench-worker")
	_ = f.MarkHidden("ubench-worker-index")
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	if runFlags.printVersion {
		fmt.Println(rootCmd.Version)
		return nil
	}
	if runFlags.usage {
		return cmd.Usage()
	}

	cfg, err := buildConfig()
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	p, err := resolvePlugin(runFlags.pluginName, runFlags.sleepDuration)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	sup := &supervisor.Supervisor{Config: cfg, Plugin: p}

	if runFlags.worker {
		w := supervisor.DefaultWorkerAttachment(runFlags.workerIndex)
		os.Exit(sup.RunWorker(w))
		return nil
	}

	if runFlags.echoName {
		fmt.Fprintln(os.Stderr, cfg.Name)
	}
	if runFlags.printInvocation {
		fmt.Fprintln(os.Stderr, os.Args)
	}

	startedAt := time.Now()
	result, err := sup.Run()
	if err != nil {
		slog.Error("run failed", "error", err)
		return fmt.Errorf("run: %w", err)
	}

	rep := &report.Reporter{
		Config: report.Config{
			Name:          cfg.Name,
			Processes:     cfg.Processes,
			Threads:       cfg.Threads,
			NoHeader:      cfg.NoHeader,
			ReportMean:    cfg.ReportMean,
			DetailedStats: cfg.DetailedStats,
			Warnings:      cfg.Warnings,
			StartedAt:     startedAt,
			BatchSize:     cfg.InitialBatchSize(),
			Resolution:    result.Resolution,
		},
		Shared:       result.Shared,
		PluginResult: p.ResultString(),
	}

	rec, err := rep.Render(os.Stdout)
	if err != nil {
		return fmt.Errorf("run: render report: %w", err)
	}

	if runFlags.history != "" {
		if err := saveHistory(runFlags.history, rec); err != nil {
			slog.Warn("failed to persist run history", "error", err)
		}
	}

	if result.ExitCode != 0 {
		os.Exit(result.ExitCode)
	}
	return nil
}

func buildConfig() (config.Config, error) {
	batchSize, err := parseOptionalUnit(runFlags.batchSize)
	if err != nil {
		return config.Config{}, fmt.Errorf("-B: %w", err)
	}
	nominalNs, err := parseOptionalUnit(runFlags.nominalNs)
	if err != nil {
		return config.Config{}, fmt.Errorf("-I: %w", err)
	}
	minDuration, err := config.ParseUnitInt(runFlags.minDuration)
	if err != nil {
		return config.Config{}, fmt.Errorf("-D: %w", err)
	}
	overhead, err := parseOptionalUnit(runFlags.overhead)
	if err != nil {
		return config.Config{}, fmt.Errorf("-O: %w", err)
	}
	resolution, err := parseOptionalUnit(runFlags.resolution)
	if err != nil {
		return config.Config{}, fmt.Errorf("-R: %w", err)
	}
	deadline, err := config.ParseUnitInt(runFlags.deadline)
	if err != nil {
		return config.Config{}, fmt.Errorf("-X: %w", err)
	}

	kind, err := barrier.ParseKind(runFlags.barrierKind)
	if err != nil {
		return config.Config{}, err
	}

	processes := runFlags.processes
	if runFlags.singleProcess {
		processes = 1
	}

	return config.Config{
		Name:               runFlags.name,
		SingleProcess:      runFlags.singleProcess,
		Processes:          processes,
		Threads:            runFlags.threads,
		Align:              runFlags.align,
		BatchSize:          batchSize,
		NominalNsOp:        nominalNs,
		MinSamples:         runFlags.minSamples,
		MinDurationMS:      minDuration,
		DeadlineMS:         deadline,
		OverheadOverride:   overhead,
		ResolutionOverride: resolution,
		NoHeader:           runFlags.noHeader,
		ReportMean:         runFlags.reportMean,
		DetailedStats:      runFlags.detailedStats || runFlags.warnings,
		Warnings:           runFlags.warnings,
		EchoName:           runFlags.echoName,
		PrintInvocation:    runFlags.printInvocation,
		Debug:              runFlags.debug,
		Barrier:            kind,
	}, nil
}

// parseOptionalUnit returns 0 for an empty flag value rather than an
// error, since -B/-I/-O/-R are all "0 means unset".
func parseOptionalUnit(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return config.ParseUnitInt(s)
}

func saveHistory(path string, rec *storage.RunRecord) error {
	st, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Init(); err != nil {
		return err
	}
	return st.SaveRun(rec)
}
