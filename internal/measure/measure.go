package measure

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/jpequegn/ubench/internal/barrier"
	"github.com/jpequegn/ubench/internal/clock"
	"github.com/jpequegn/ubench/internal/plugin"
	"github.com/jpequegn/ubench/internal/sample"
	"github.com/jpequegn/ubench/internal/sharedstate"
)

const (
	alignInterval = 75 * time.Millisecond
	alignPoll     = 10 * time.Millisecond
)

// Loop drives one worker thread through the measurement protocol: init ->
// align -> barrier -> timed batch -> barrier -> finish, optionally
// followed by the dynamic batch-size re-tune rounds.
type Loop struct {
	Plugin  plugin.Benchmark
	Barrier barrier.Barrier
	Shared  *sharedstate.SharedState
	TSD     []byte

	// Align enables the clock-alignment sync point (flag -A).
	Align bool
	// Retune enables the dynamic batch-size re-tune rounds; false when
	// the user pins a fixed batch size or iteration count explicitly.
	Retune bool

	// BatchSize is the current per-call iteration target, shared by
	// every thread in this process. Only the thread with IsDefault set ever
	// writes it; every thread's Run reads it each batch.
	BatchSize *int64
	// IsDefault marks the one thread per process responsible for
	// recomputing BatchSize during a re-tune round.
	IsDefault bool
}

// Run executes the measurement loop until the barrier signals the run has
// reached its terminal phase, then calls the plugin's FiniWorker hook. A
// non-nil return means FiniWorker itself failed; batch-level plugin errors
// are folded into each batch's Result instead and never abort the loop.
func (l *Loop) Run() error {
	var pendingErrors int64
	if err := l.Plugin.InitWorker(l.TSD); err != nil {
		pendingErrors++
	}

	lastAlign := clock.Now()

	for {
		if err := l.Plugin.InitBatch(l.TSD); err != nil {
			pendingErrors++
		}

		if l.Align {
			if now := clock.Now(); now-lastAlign > int64(alignInterval) {
				time.Sleep(alignPoll)
				lastAlign = now
			}
		}

		l.Barrier.Enter(nil)

		r := &sample.Result{Errors: pendingErrors}
		pendingErrors = 0

		batchSize := atomic.LoadInt64(l.BatchSize)
		r.TBegin = clock.Now()
		if err := l.Plugin.Run(l.TSD, batchSize, r); err != nil {
			pendingErrors++
		}
		r.TEnd = clock.Now()

		terminal, _ := l.Barrier.Enter(r)

		if err := l.Plugin.FiniBatch(l.TSD); err != nil {
			pendingErrors++
		}

		if !terminal && l.Retune {
			l.Barrier.Enter(nil)
			if l.IsDefault {
				l.retune()
			}
			l.Barrier.Enter(nil)
		}

		if terminal {
			break
		}
	}

	return l.Plugin.FiniWorker(l.TSD)
}

// retune recomputes BatchSize from the mean of every sample in the shared
// ring (slots 0..min(batches, datasize)-1, so older samples keep counting
// until the ring wraps): below one millisecond, scale up to target roughly one
// millisecond per batch; at or above it, drop to a single iteration.
func (l *Loop) retune() {
	ss := l.Shared
	n := ss.Batches()
	if ds := ss.DataSize(); n > ds {
		n = ds
	}
	if n <= 0 {
		return
	}

	var sum int64
	for i := int64(0); i < n; i++ {
		sum += ss.Sample(i)
	}
	mean := int64(math.Round(float64(sum) / float64(n)))

	var next int64
	switch {
	case mean <= 0:
		next = 1_000_000
	case mean < 1_000_000:
		next = 1_000_000 / mean
	default:
		next = 1
	}
	atomic.StoreInt64(l.BatchSize, next)
}
