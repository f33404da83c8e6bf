//go:build linux

package barrier

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/jpequegn/ubench/internal/sample"
	"github.com/jpequegn/ubench/internal/sharedstate"
)

// sysvBarrier realizes the barrier with a three-member SysV semaphore set:
//
//	sem0 — gate: seeded to hwm-1. Each arriver takes all hwm-1 units, so
//	       arrivals pass one at a time; the last arriver keeps them, and
//	       each released waiter hands one back on its way out.
//	sem1 — arrival counter: every arriver but the last adds one. A
//	       non-blocking decrement by hwm-1 succeeds only for the last
//	       arriver (the others get EAGAIN), which is how it is told apart.
//	sem2 — release: the last arriver posts it hwm-1 times to wake the
//	       others once the phase has advanced.
type sysvBarrier struct {
	ss    *sharedstate.SharedState
	cfg   Config
	semID int
	hwm   int16
	// owner is true only for the barrier that created the semaphore set
	// (the process that called New before any SemID existed). Attaching
	// children must never IPC_RMID a set siblings still depend on.
	owner bool
}

func newSysVBarrier(ss *sharedstate.SharedState, cfg Config) (*sysvBarrier, error) {
	hwm := int16(ss.HWM())

	if existing := ss.SemID(); existing >= 0 {
		return &sysvBarrier{ss: ss, cfg: cfg, semID: int(existing), hwm: hwm, owner: false}, nil
	}

	id, err := unix.Semget(unix.IPC_PRIVATE, 3, 0600)
	if err != nil {
		return nil, fmt.Errorf("barrier: semget: %w", err)
	}

	// Seed sem0 to hwm-1 the same way barrier_create does: an initial
	// semop incrementing it off its zero-valued creation state, rather
	// than an IPC_SET/SETVAL control call.
	seed := []unix.Sembuf{{SemNum: 0, SemOp: hwm - 1, SemFlg: 0}}
	if err := unix.Semop(id, seed); err != nil {
		_, _ = unix.Semctl(id, 0, unix.IPC_RMID)
		return nil, fmt.Errorf("barrier: semop(seed): %w", err)
	}

	ss.SetSemID(int64(id))
	return &sysvBarrier{ss: ss, cfg: cfg, semID: id, hwm: hwm, owner: true}, nil
}

func (b *sysvBarrier) Enter(r *sample.Result) (terminal bool, waitersAtEntry int64) {
	ss := b.ss
	waitersAtEntry = -1
	hwm := b.hwm

	if err := unix.Semop(b.semID, []unix.Sembuf{{SemNum: 0, SemOp: -(hwm - 1), SemFlg: 0}}); err != nil {
		return true, waitersAtEntry
	}

	err := unix.Semop(b.semID, []unix.Sembuf{{SemNum: 1, SemOp: -(hwm - 1), SemFlg: unix.IPC_NOWAIT}})
	if err == nil {
		return b.lastArriver(r, waitersAtEntry)
	}
	if err != unix.EAGAIN {
		return true, waitersAtEntry
	}

	if r != nil {
		if phase := ss.Phase(); phase >= 0 {
			waitersAtEntry = ss.Waiters()
			updateStats(ss, b.cfg, r)
		}
	}
	ss.AddWaiters(1)

	if err := unix.Semop(b.semID, []unix.Sembuf{
		{SemNum: 0, SemOp: hwm - 1, SemFlg: 0},
		{SemNum: 1, SemOp: 1, SemFlg: 0},
	}); err != nil {
		return true, waitersAtEntry
	}

	if err := unix.Semop(b.semID, []unix.Sembuf{
		{SemNum: 0, SemOp: 1, SemFlg: 0},
		{SemNum: 2, SemOp: -1, SemFlg: 0},
	}); err != nil {
		return true, waitersAtEntry
	}

	return ss.Phase() < 0, waitersAtEntry
}

func (b *sysvBarrier) lastArriver(r *sample.Result, waitersAtEntry int64) (bool, int64) {
	ss := b.ss
	if r != nil {
		if phase := ss.Phase(); phase >= 0 {
			waitersAtEntry = ss.Waiters()
			updateStats(ss, b.cfg, r)
		}
	}

	ss.SetWaiters(0)
	p := ss.Phase()
	if r != nil && decideTerminate(ss, b.cfg) {
		ss.SetPhase(-1)
	} else {
		ss.SetPhase(p + 1)
	}

	release := []unix.Sembuf{{SemNum: 2, SemOp: b.hwm - 1, SemFlg: 0}}
	if err := unix.Semop(b.semID, release); err != nil {
		return true, waitersAtEntry
	}
	return ss.Phase() < 0, waitersAtEntry
}

// Close removes the semaphore set, but only for the barrier that created
// it; an attaching child's Close is a no-op so siblings still mid-run are
// never left with a destroyed set.
func (b *sysvBarrier) Close() error {
	if !b.owner {
		return nil
	}
	_, err := unix.Semctl(b.semID, 0, unix.IPC_RMID)
	return err
}
