package cmd

import (
	"fmt"
	"time"

	"github.com/jpequegn/ubench/internal/plugin"
	"github.com/jpequegn/ubench/plugins/noop"
	"github.com/jpequegn/ubench/plugins/sleep"
	"github.com/jpequegn/ubench/plugins/spin"
)

// resolvePlugin maps a built-in plug-in name to a fresh instance. The
// original engine links one benchmark shared object per binary; this
// rewrite ships the tight-loop (noop), busy-spin (spin), and sleeping
// (sleep) workloads as selectable built-ins rather than requiring a
// separate compiled binary per workload.
func resolvePlugin(name string, sleepDuration time.Duration) (plugin.Benchmark, error) {
	switch name {
	case "", "noop":
		return noop.New(), nil
	case "spin":
		return spin.New(), nil
	case "sleep":
		return sleep.New(sleepDuration), nil
	default:
		return nil, fmt.Errorf("unknown plugin %q (want noop, spin, or sleep)", name)
	}
}
