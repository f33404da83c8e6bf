package sharedstate

import (
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/jpequegn/ubench/internal/shm"
)

// field byte offsets within the shared header. Each is 8 bytes so plain
// sync/atomic Int64 operations stay naturally aligned.
const (
	offHWM          = 0
	offWaiters      = 8
	offPhase        = 16
	offCount        = 24
	offErrors       = 32
	offTotalTime    = 40
	offQuant        = 48
	offStartTime    = 56
	offEndTime      = 64
	offMinRuntime   = 72
	offDeadline     = 80
	offKilled       = 88
	offBatches      = 96
	offBatchesFinal = 104
	offOutliers     = 112
	offDataSize     = 120
	offSemID        = 128
	offLock         = 136

	// HeaderSize is the fixed-size control block; the sample ring
	// follows immediately after it.
	HeaderSize = 160
)

// SharedState is a view over a process-shared memory segment holding the
// run's aggregation record and sample ring.
type SharedState struct {
	seg *shm.Segment
}

// Size returns the total byte size required to hold a SharedState with the
// given ring capacity.
func Size(datasize int) int {
	return HeaderSize + datasize*8
}

// DataSizeFor computes the ring capacity for hwm participants: at least
// DefDataSize, and at least MinDataSizePerParticipant per participant.
func DataSizeFor(hwm int) int {
	d := DefDataSize
	if alt := MinDataSizePerParticipant * hwm; alt > d {
		d = alt
	}
	return d
}

// New creates a fresh shared-memory-backed SharedState sized for hwm
// participants and datasize ring slots, with all counters zeroed.
func New(hwm, datasize int) (*SharedState, error) {
	seg, err := shm.Create("ubench-sharedstate", Size(datasize))
	if err != nil {
		return nil, err
	}
	s := &SharedState{seg: seg}
	s.setInt64(offHWM, int64(hwm))
	s.setInt64(offDataSize, int64(datasize))
	s.setInt64(offSemID, -1)
	return s, nil
}

// Attach maps an existing SharedState's shared memory (inherited via its
// file descriptor, typically exec.Cmd.ExtraFiles) into the current
// process.
func Attach(fd, datasize int) (*SharedState, error) {
	seg, err := shm.Attach(fd, Size(datasize))
	if err != nil {
		return nil, err
	}
	return &SharedState{seg: seg}, nil
}

// Fd returns the shared memory file descriptor, for passing to children.
// -1 on platforms where shared memory cannot cross exec (see internal/shm).
func (s *SharedState) Fd() int {
	return s.seg.Fd
}

// Close unmaps the shared memory region.
func (s *SharedState) Close() error {
	return s.seg.Close()
}

func (s *SharedState) ptr(off int) *int64 {
	return (*int64)(unsafe.Pointer(&s.seg.Bytes[off]))
}

func (s *SharedState) loadInt64(off int) int64 {
	return atomic.LoadInt64(s.ptr(off))
}

func (s *SharedState) setInt64(off int, v int64) {
	atomic.StoreInt64(s.ptr(off), v)
}

func (s *SharedState) addInt64(off int, delta int64) int64 {
	return atomic.AddInt64(s.ptr(off), delta)
}

func (s *SharedState) casInt64(off int, old, new int64) bool {
	return atomic.CompareAndSwapInt64(s.ptr(off), old, new)
}

// HWM returns the configured participant count (P*T).
func (s *SharedState) HWM() int64 { return s.loadInt64(offHWM) }

// DataSize returns the ring capacity.
func (s *SharedState) DataSize() int64 { return s.loadInt64(offDataSize) }

// Waiters/SetWaiters/AddWaiters manage the barrier's arrival counter.
func (s *SharedState) Waiters() int64           { return s.loadInt64(offWaiters) }
func (s *SharedState) SetWaiters(v int64)        { s.setInt64(offWaiters, v) }
func (s *SharedState) AddWaiters(delta int64) int64 { return s.addInt64(offWaiters, delta) }

// Phase/SetPhase/CASPhase manage the barrier epoch. A transition to -1
// marks run termination.
func (s *SharedState) Phase() int64                       { return s.loadInt64(offPhase) }
func (s *SharedState) SetPhase(v int64)                    { s.setInt64(offPhase, v) }
func (s *SharedState) CASPhase(old, new int64) bool        { return s.casInt64(offPhase, old, new) }

// Count/AddCount track total operations executed across all batches.
func (s *SharedState) Count() int64            { return s.loadInt64(offCount) }
func (s *SharedState) AddCount(delta int64) int64 { return s.addInt64(offCount, delta) }

// Errors/AddErrors track total plugin-reported errors across all batches.
func (s *SharedState) Errors() int64             { return s.loadInt64(offErrors) }
func (s *SharedState) AddErrors(delta int64) int64 { return s.addInt64(offErrors, delta) }

// TotalTime/AddTotalTime track the sum of raw per-batch elapsed ns.
func (s *SharedState) TotalTime() int64               { return s.loadInt64(offTotalTime) }
func (s *SharedState) AddTotalTime(delta int64) int64 { return s.addInt64(offTotalTime, delta) }

// Quant/IncQuant count batches whose elapsed time looked quantized.
func (s *SharedState) Quant() int64     { return s.loadInt64(offQuant) }
func (s *SharedState) IncQuant() int64  { return s.addInt64(offQuant, 1) }

// StartTime/EndTime/MinRuntime/Deadline are nanosecond wall-markers set
// once by the supervisor before/after the run.
func (s *SharedState) StartTime() int64        { return s.loadInt64(offStartTime) }
func (s *SharedState) SetStartTime(v int64)    { s.setInt64(offStartTime, v) }
func (s *SharedState) EndTime() int64          { return s.loadInt64(offEndTime) }
func (s *SharedState) SetEndTime(v int64)      { s.setInt64(offEndTime, v) }
func (s *SharedState) MinRuntime() int64       { return s.loadInt64(offMinRuntime) }
func (s *SharedState) SetMinRuntime(v int64)   { s.setInt64(offMinRuntime, v) }
func (s *SharedState) Deadline() int64         { return s.loadInt64(offDeadline) }
func (s *SharedState) SetDeadline(v int64)     { s.setInt64(offDeadline, v) }

// Killed/SetKilled record the termination cause.
func (s *SharedState) Killed() int64       { return s.loadInt64(offKilled) }
func (s *SharedState) SetKilled(v int64)   { s.setInt64(offKilled, v) }

// Batches/IncBatches track the total number of batches ever recorded
// (may exceed DataSize; the ring wraps).
func (s *SharedState) Batches() int64    { return s.loadInt64(offBatches) }
func (s *SharedState) IncBatches() int64 { return s.addInt64(offBatches, 1) }

// BatchesFinal/Outliers are populated post-run by the stats pipeline.
func (s *SharedState) BatchesFinal() int64     { return s.loadInt64(offBatchesFinal) }
func (s *SharedState) SetBatchesFinal(v int64) { s.setInt64(offBatchesFinal, v) }
func (s *SharedState) Outliers() int64         { return s.loadInt64(offOutliers) }
func (s *SharedState) SetOutliers(v int64)     { s.setInt64(offOutliers, v) }

// SemID/SetSemID carry the SysV semaphore set id for the sysv barrier
// realization so children can attach after exec. -1 means unused.
func (s *SharedState) SemID() int64     { return s.loadInt64(offSemID) }
func (s *SharedState) SetSemID(v int64) { s.setInt64(offSemID, v) }

// Lock acquires the spinlock guarding the aggregation fields, used by the
// "spin" barrier realization as its process-shared mutex substitute (see
// DESIGN.md for why a real PTHREAD_PROCESS_SHARED mutex has no Go
// equivalent).
func (s *SharedState) Lock() {
	p := s.ptr(offLock)
	for !atomic.CompareAndSwapInt64(p, 0, 1) {
		runtime.Gosched()
	}
}

// Unlock releases the spinlock acquired by Lock.
func (s *SharedState) Unlock() {
	atomic.StoreInt64(s.ptr(offLock), 0)
}

// Sample reads ring slot i (already reduced mod DataSize by the caller).
func (s *SharedState) Sample(i int64) int64 {
	off := HeaderSize + int(i)*8
	return atomic.LoadInt64((*int64)(unsafe.Pointer(&s.seg.Bytes[off])))
}

// SetSample writes ring slot i (already reduced mod DataSize by the caller).
func (s *SharedState) SetSample(i int64, v int64) {
	off := HeaderSize + int(i)*8
	atomic.StoreInt64((*int64)(unsafe.Pointer(&s.seg.Bytes[off])), v)
}

// Snapshot copies up to n ring samples starting at slot 0 into a plain
// slice for offline statistics processing. Used by the reporter after the
// run has terminated and no worker is writing anymore.
func (s *SharedState) Snapshot(n int64) []int64 {
	out := make([]int64, n)
	for i := int64(0); i < n; i++ {
		out[i] = s.Sample(i)
	}
	return out
}
