//go:build !linux

package barrier

import (
	"errors"

	"github.com/jpequegn/ubench/internal/sample"
	"github.com/jpequegn/ubench/internal/sharedstate"
)

// sysvBarrier is unavailable outside Linux: SysV semaphore sets are a
// Linux/Unix IPC facility this build does not emulate elsewhere.
type sysvBarrier struct{}

func newSysVBarrier(ss *sharedstate.SharedState, cfg Config) (*sysvBarrier, error) {
	return nil, errors.New("barrier: sysv realization requires linux")
}

func (b *sysvBarrier) Enter(r *sample.Result) (terminal bool, waitersAtEntry int64) {
	return true, -1
}

func (b *sysvBarrier) Close() error { return nil }
