// Package sleep implements the S4/S5 scenario plugin: benchmark sleeps a
// fixed duration per batch call, used to exercise deadline-cap and
// interrupt termination.
package sleep

import (
	"time"

	"github.com/jpequegn/ubench/internal/plugin"
	"github.com/jpequegn/ubench/internal/sample"
)

// Plugin sleeps Duration per batch call and reports Count=1.
type Plugin struct {
	plugin.Base
	Duration time.Duration
}

// New returns a sleep plugin with the given per-batch sleep duration.
func New(d time.Duration) *Plugin {
	return &Plugin{Duration: d}
}

func (p *Plugin) Run(tsd []byte, batchSize int64, result *sample.Result) error {
	time.Sleep(p.Duration)
	result.Count = 1
	return nil
}
