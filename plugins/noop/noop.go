// Package noop implements the S1 scenario plugin: benchmark increments
// result.Count by 1000 in a tight integer loop, with no other work.
package noop

import (
	"github.com/jpequegn/ubench/internal/plugin"
	"github.com/jpequegn/ubench/internal/sample"
)

// Plugin is a no-op workload: Run increments Count by Iterations in a tight
// loop and reports zero errors. Used as the S1 baseline scenario.
type Plugin struct {
	plugin.Base
	// Iterations pins the per-batch increment count regardless of the
	// engine's dynamic batch-size re-tune. Zero defers to the engine's
	// current batchSize (falling back to 1000 if that is also zero),
	// which is the configuration used to exercise the re-tune property.
	Iterations int64
}

// New returns a noop plugin with the S1 scenario's default iteration
// count.
func New() *Plugin {
	return &Plugin{Iterations: 1000}
}

func (p *Plugin) Run(tsd []byte, batchSize int64, result *sample.Result) error {
	n := p.Iterations
	if n <= 0 {
		n = batchSize
	}
	if n <= 0 {
		n = 1000
	}
	var count int64
	for i := int64(0); i < n; i++ {
		count++
	}
	result.Count = count
	return nil
}
