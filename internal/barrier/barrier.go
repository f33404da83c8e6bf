package barrier

import (
	"fmt"

	"github.com/jpequegn/ubench/internal/clock"
	"github.com/jpequegn/ubench/internal/sample"
	"github.com/jpequegn/ubench/internal/sharedstate"
)

// Kind selects the barrier realization.
type Kind int

const (
	// SysV is a three-semaphore SysV IPC realization. It is the default
	// realization (and so the zero value of Kind) on Linux.
	SysV Kind = iota
	// Spin is an atomic CAS spinlock plus a busy-poll on the shared phase
	// counter, living entirely inside the shared mapping.
	Spin
)

func (k Kind) String() string {
	switch k {
	case Spin:
		return "spin"
	case SysV:
		return "sysv"
	default:
		return "unknown"
	}
}

// ParseKind maps a CLI/config string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "spin":
		return Spin, nil
	case "sysv", "":
		return SysV, nil
	default:
		return 0, fmt.Errorf("barrier: unknown kind %q", s)
	}
}

// Config carries everything the barrier needs to decide termination and
// run the aggregation step. internal/supervisor builds it from the run's
// config.Config and the calibrated overhead/resolution; it is immutable
// for the lifetime of a run.
type Config struct {
	HWM         int64 // participant count, P*T
	MinSamples  int64 // C: minimum batches before min-runtime is honored
	Overhead    int64 // calibrated per-call overhead, ns
	Resolution  int64 // calibrated clock resolution, ns
}

// Barrier is an N-party process-shared rendezvous point with an
// aggregation callback. Enter blocks the calling goroutine/thread until
// every participant configured via Config.HWM has called Enter for the
// current phase.
//
// r may be nil: a nil Result means "rendezvous only, no aggregation" (the
// measurement loop's pre-timing sync point); a non-nil Result means
// "rendezvous, folding this Result into the shared sample ring inside the
// barrier's exclusive section; the last arriver then decides termination."
type Barrier interface {
	// Enter blocks until all participants arrive, running the aggregation
	// step for r (if non-nil) while the others wait. It returns true iff
	// the run has reached its terminal phase.
	Enter(r *sample.Result) (terminal bool, waitersAtEntry int64)
	// Close releases any OS resources (semaphore sets) owned by this
	// realization. The shared memory mapping itself is released by the
	// caller via sharedstate.SharedState.Close.
	Close() error
}

// New constructs a Barrier of the given kind over ss, configured by cfg.
// For SysV, the caller that first creates ss must call New once to create
// the semaphore set (recorded into ss.SemID for children to attach to);
// children that attach to an existing SemID should pass the same cfg and
// New will attach instead of creating.
func New(kind Kind, ss *sharedstate.SharedState, cfg Config) (Barrier, error) {
	switch kind {
	case Spin:
		return newSpinBarrier(ss, cfg), nil
	case SysV:
		return newSysVBarrier(ss, cfg)
	default:
		return nil, fmt.Errorf("barrier: unknown kind %d", kind)
	}
}

// updateStats folds one participant's Result into the aggregate; every
// participant that supplies a Result calls it for its own Result, one at a
// time: count/errors accumulate, total_time accumulates, a quantization hit is
// counted when the batch's elapsed time minus overhead undercuts 100
// resolution units, and the per-call ns estimate is appended to the
// sample ring. It must only be called while the caller holds exclusive
// access to ss's aggregate fields (the realization's critical section).
func updateStats(ss *sharedstate.SharedState, cfg Config, r *sample.Result) {
	ss.AddCount(r.Count)
	ss.AddErrors(r.Errors)

	elapsed := r.Elapsed()
	ss.AddTotalTime(elapsed)
	if elapsed-cfg.Overhead < 100*cfg.Resolution {
		ss.IncQuant()
	}

	if r.Count > 0 {
		nsPerCall := roundDiv(elapsed, r.Count)
		batches := ss.Batches()
		slot := batches % ss.DataSize()
		ss.SetSample(slot, nsPerCall)
	}
	ss.IncBatches()
}

// decideTerminate implements the run's termination policy (deadline,
// minimum duration, and minimum sample count), evaluated at the
// last-arriver step whenever a Result was supplied.
func decideTerminate(ss *sharedstate.SharedState, cfg Config) bool {
	now := clock.Now()

	deadline := ss.Deadline()
	if deadline > 0 && now > deadline {
		return true
	}

	minRuntime := ss.MinRuntime()
	if ss.Batches() >= cfg.MinSamples*ss.HWM() && minRuntime > 0 && now > minRuntime {
		return true
	}

	return false
}

func roundDiv(num, den int64) int64 {
	if den == 0 {
		return 0
	}
	if num < 0 {
		return (num - den/2) / den
	}
	return (num + den/2) / den
}
