// Package spin implements the S2 scenario plugin: benchmark performs 1000
// iterations of a calibrated ~100ns busy-loop spin per batch call.
package spin

import (
	"github.com/jpequegn/ubench/internal/clock"
	"github.com/jpequegn/ubench/internal/plugin"
	"github.com/jpequegn/ubench/internal/sample"
)

// TargetNanos is the per-spin duration the S2 scenario expects.
const TargetNanos = 100

// Plugin spins a busy loop calibrated to approximately TargetNanos per
// iteration, Iterations times per batch call.
type Plugin struct {
	plugin.Base
	// Iterations pins the per-batch spin count regardless of the
	// engine's dynamic batch-size re-tune. Zero defers to the engine's
	// current batchSize (falling back to 1000), exercising the
	// convergence property: a constant ~TargetNanos per-op cost means
	// batchSize*TargetNanos settles near one millisecond.
	Iterations int64

	loopLen int
}

// New returns a spin plugin with the S2 scenario's default iteration
// count.
func New() *Plugin {
	return &Plugin{Iterations: 1000}
}

// InitRun calibrates the busy-loop length once, before any worker starts,
// so the timed region never pays calibration cost.
func (p *Plugin) InitRun() error {
	p.loopLen = calibrateSpin()
	return nil
}

func (p *Plugin) Run(tsd []byte, batchSize int64, result *sample.Result) error {
	n := p.Iterations
	if n <= 0 {
		n = batchSize
	}
	if n <= 0 {
		n = 1000
	}
	for i := int64(0); i < n; i++ {
		busyLoop(p.loopLen)
	}
	result.Count = n
	return nil
}

func calibrateSpin() int {
	n := 1
	for {
		start := clock.Now()
		busyLoop(n)
		elapsed := clock.Now() - start
		if elapsed >= TargetNanos {
			return n
		}
		n *= 2
	}
}

var sink int

func busyLoop(n int) {
	x := 0
	for i := n; i > 0; i-- {
		x++
	}
	sink = x
}
