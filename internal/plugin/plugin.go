package plugin

import "github.com/jpequegn/ubench/internal/sample"

// Benchmark is the capability set a benchmarked workload implements. Every
// method except Run is optional to override meaningfully; embed Base to get
// no-op defaults for all of them.
type Benchmark interface {
	// TSDSize returns the number of bytes of per-worker scratch memory
	// this plugin wants. The framework allocates one slot of this size
	// per (process, thread) pair, padded to a 128-byte boundary to avoid
	// false sharing between adjacent workers. Return 0 if unused.
	TSDSize() int

	// Init runs once, before any process is spawned.
	Init() error

	// InitRun runs once per invocation, after Init, before any worker
	// starts. A non-nil error here is fatal and aborts the run before
	// any measurement occurs.
	InitRun() error

	// InitWorker runs once per worker (process, thread) before its first
	// batch.
	InitWorker(tsd []byte) error

	// InitBatch runs at the start of every batch, outside the timed
	// region.
	InitBatch(tsd []byte) error

	// Run executes one batch of work and must be allocation/lock-free:
	// the measurement loop times exactly this call. batchSize is the
	// engine's current per-call iteration target (tuned by the dynamic
	// batch-size re-tune step so each batch takes roughly a millisecond);
	// a plugin is free to ignore it and report whatever count it actually
	// did. The plugin reports how many operations it performed and how
	// many errors occurred by writing into result.
	Run(tsd []byte, batchSize int64, result *sample.Result) error

	// FiniBatch runs at the end of every batch, outside the timed
	// region.
	FiniBatch(tsd []byte) error

	// FiniWorker runs once per worker after its final batch.
	FiniWorker(tsd []byte) error

	// FiniRun runs once per invocation, after every worker has finished.
	FiniRun() error

	// Fini runs once, after FiniRun, as the very last plugin hook.
	Fini() error

	// OptSwitch handles a plugin-private command-line flag not
	// recognized by the engine's own flag set.
	OptSwitch(opt, arg string) error

	// ResultString returns a short plugin-supplied string embedded as
	// the trailing "plugin_result" field of the output data line.
	ResultString() string
}

// Base implements Benchmark with no-op defaults. Plug-ins embed it and
// override only what they need — most plug-ins only override Run.
type Base struct{}

func (Base) TSDSize() int                             { return 0 }
func (Base) Init() error                               { return nil }
func (Base) InitRun() error                            { return nil }
func (Base) InitWorker(tsd []byte) error               { return nil }
func (Base) InitBatch(tsd []byte) error                { return nil }
func (Base) FiniBatch(tsd []byte) error                { return nil }
func (Base) FiniWorker(tsd []byte) error               { return nil }
func (Base) FiniRun() error                            { return nil }
func (Base) Fini() error                               { return nil }
func (Base) OptSwitch(opt, arg string) error           { return nil }
func (Base) ResultString() string                      { return "" }
