//go:build windows

package supervisor

import (
	"errors"

	"github.com/jpequegn/ubench/internal/sharedstate"
	"github.com/jpequegn/ubench/internal/shm"
)

// WorkerAttachment mirrors the Unix type for API parity; it is never
// populated on this platform.
type WorkerAttachment struct {
	ProcessIndex int
	SharedFd     int
	TSDFd        int
}

func DefaultWorkerAttachment(processIndex int) WorkerAttachment {
	return WorkerAttachment{ProcessIndex: processIndex}
}

// runMultiProcess is unavailable on Windows: re-exec'd children cannot
// inherit the memfd-backed shared mapping (internal/shm has no Windows
// shared-memory realization). Use single-process mode (-1) instead.
func (s *Supervisor) runMultiProcess(ss *sharedstate.SharedState, tsdSeg *shm.Segment, tsdSlotSize int, overhead, resolution int64) (int, error) {
	return 1, errors.New("supervisor: multi-process mode is not supported on windows; use single-process mode")
}

func (s *Supervisor) RunWorker(w WorkerAttachment) int {
	return 1
}
