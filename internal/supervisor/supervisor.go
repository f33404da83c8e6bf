package supervisor

import (
	"log/slog"
	"sync"

	"github.com/jpequegn/ubench/internal/barrier"
	"github.com/jpequegn/ubench/internal/calibrate"
	"github.com/jpequegn/ubench/internal/clock"
	"github.com/jpequegn/ubench/internal/config"
	"github.com/jpequegn/ubench/internal/measure"
	"github.com/jpequegn/ubench/internal/plugin"
	"github.com/jpequegn/ubench/internal/sharedstate"
	"github.com/jpequegn/ubench/internal/shm"
)

// overheadFn/resolutionFn indirect the (expensive, multi-million-iteration)
// real calibration routines so tests can substitute cheap stand-ins.
var (
	overheadFn   = func() int64 { return calibrate.Overhead(calibrate.DefaultOverheadIterations) }
	resolutionFn = calibrate.Resolution
)

// barrierFn constructs a worker's barrier view, attaching to an existing
// SysV semaphore set when ss.SemID() was already populated by whichever
// process created it. Indirected so tests can substitute a fake.
var barrierFn = func(cfg config.Config, ss *sharedstate.SharedState) (barrier.Barrier, error) {
	return barrier.New(cfg.Barrier, ss, barrier.Config{
		HWM:        cfg.HWM(),
		MinSamples: cfg.MinSamples,
		Overhead:   cfg.OverheadOverride,
		Resolution: cfg.ResolutionOverride,
	})
}

// tsdAlign is the padding boundary for a worker's thread-local-data slot,
// chosen to keep adjacent workers' hot fields off the same cache line.
const tsdAlign = 128

// Result is the outcome of a completed run: the aggregation record left in
// shared memory (already finalized, safe to read after Run returns) plus
// the process exit code the caller should surface. Run does not unmap
// Shared; the caller closes it when done.
type Result struct {
	ExitCode   int
	Shared     *sharedstate.SharedState
	Overhead   int64
	Resolution int64
}

// Supervisor owns one invocation's plugin lifecycle, shared memory, barrier,
// and worker fan-out.
type Supervisor struct {
	Config config.Config
	Plugin plugin.Benchmark

	closers []func() error
}

func (s *Supervisor) addCloser(f func() error) {
	s.closers = append(s.closers, f)
}

func (s *Supervisor) closeAll() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i]()
	}
	s.closers = nil
}

func roundUpTSD(n int) int {
	if n <= 0 {
		return tsdAlign
	}
	return ((n + tsdAlign - 1) / tsdAlign) * tsdAlign
}

// Run executes the full startup sequence in the
// parent process: plugin Init/InitRun, shared-memory and barrier
// construction, timing-field computation, then dispatches to either the
// in-process (single-process) or re-exec (multi-process) worker fan-out,
// and finally the teardown cascade (FiniRun, Fini).
func (s *Supervisor) Run() (*Result, error) {
	cfg := s.Config

	overhead := cfg.OverheadOverride
	if overhead <= 0 {
		overhead = calibrateOverhead()
	}
	resolution := cfg.ResolutionOverride
	if resolution <= 0 {
		resolution = calibrateResolution()
	}

	if err := s.Plugin.Init(); err != nil {
		return nil, setupError("plugin Init", err)
	}
	defer func() { _ = s.Plugin.Fini() }()

	if err := s.Plugin.InitRun(); err != nil {
		return nil, setupError("plugin InitRun", err)
	}

	hwm := int(cfg.HWM())
	datasize := sharedstate.DataSizeFor(hwm)
	ss, err := sharedstate.New(hwm, datasize)
	if err != nil {
		return nil, setupError("sharedstate.New", err)
	}

	tsdSlotSize := roundUpTSD(s.Plugin.TSDSize())
	tsdSeg, err := shm.Create("ubench-tsd", hwm*tsdSlotSize)
	if err != nil {
		return nil, setupError("tsd shm.Create", err)
	}
	s.addCloser(tsdSeg.Close)

	br, err := barrier.New(cfg.Barrier, ss, barrier.Config{
		HWM:        int64(hwm),
		MinSamples: cfg.MinSamples,
		Overhead:   overhead,
		Resolution: resolution,
	})
	if err != nil {
		return nil, setupError("barrier.New", err)
	}
	s.addCloser(br.Close)

	start := clock.Now()
	ss.SetStartTime(start)
	minRuntime := start + cfg.MinDurationMS*1_000_000
	ss.SetMinRuntime(minRuntime)
	ss.SetDeadline(computeDeadline(cfg, start, minRuntime))

	var exitCode int
	if cfg.SingleProcess || cfg.Processes <= 1 {
		exitCode = s.runInProcess(ss, br, tsdSeg.Bytes, tsdSlotSize, 0)
	} else {
		exitCode, err = s.runMultiProcess(ss, tsdSeg, tsdSlotSize, overhead, resolution)
		if err != nil {
			s.closeAll()
			_ = ss.Close()
			return nil, err
		}
	}

	ss.SetEndTime(clock.Now())

	if err := s.Plugin.FiniRun(); err != nil && exitCode == 0 {
		exitCode = 1
	}

	s.closeAll()

	return &Result{ExitCode: exitCode, Shared: ss, Overhead: overhead, Resolution: resolution}, nil
}

// computeDeadline picks the run's hard stop time: an
// explicit -X wins; absent that, a run with no sample-count target (-C 0,
// duration only) uses minRuntime as the hard stop; otherwise there is no
// deadline at all and the sample-count and min-runtime conditions gate
// termination.
func computeDeadline(cfg config.Config, start, minRuntime int64) int64 {
	switch {
	case cfg.DeadlineMS > 0:
		return start + cfg.DeadlineMS*1_000_000
	case cfg.MinSamples <= 0:
		return minRuntime
	default:
		return 0
	}
}

// runInProcess fans the hwm participants of one process out across
// goroutines sharing ss/br/tsdSeg directly, with no exec involved. Thread 0
// is the "default thread" that owns the batch-size re-tune step.
func (s *Supervisor) runInProcess(ss *sharedstate.SharedState, br barrier.Barrier, tsdSeg []byte, tsdSlotSize, processIndex int) int {
	cfg := s.Config
	batchSize := cfg.InitialBatchSize()

	var wg sync.WaitGroup
	errs := make([]error, cfg.Threads)
	for t := 0; t < cfg.Threads; t++ {
		wg.Add(1)
		go func(t int) {
			defer wg.Done()
			slot := processIndex*cfg.Threads + t
			tsd := tsdSeg[slot*tsdSlotSize : (slot+1)*tsdSlotSize]
			loop := &measure.Loop{
				Plugin:    s.Plugin,
				Barrier:   br,
				Shared:    ss,
				TSD:       tsd,
				Align:     cfg.Align,
				Retune:    cfg.Retune(),
				BatchSize: &batchSize,
				IsDefault: t == 0,
			}
			errs[t] = loop.Run()
		}(t)
	}
	wg.Wait()

	code := 0
	for t, err := range errs {
		if err != nil {
			slog.Error("worker failed", "error", pluginError(err), "thread", t, "process", processIndex)
			code = 1
		}
	}
	return code
}

func calibrateOverhead() int64 {
	return overheadFn()
}

func calibrateResolution() int64 {
	return resolutionFn()
}
