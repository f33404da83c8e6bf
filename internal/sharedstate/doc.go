// Package sharedstate lays out the run-wide aggregation record inside a
// process-shared memory region (internal/shm), and
// provides atomic accessors for every field a worker may touch outside the
// barrier's exclusive section: hwm, the sample ring, and the running
// counters the barrier's aggregator updates.
//
// Every field is stored as an 8-byte-aligned int64 so that plain
// sync/atomic operations on a pointer into the shared mapping work
// correctly across process boundaries on Linux, without a real OS-level
// mutex guarding the whole struct — the barrier package is what actually
// serializes writes to the aggregate fields; this package only supplies
// the storage and the primitive read/write operations.
package sharedstate

// DefDataSize is the minimum ring capacity regardless of participant
// count.
const DefDataSize = 100_000

// MinDataSizePerParticipant is the minimum ring capacity contribution per
// participant.
const MinDataSizePerParticipant = 20_000

// Killed cause codes.
const (
	KilledNone = iota
	KilledLong
	KilledInterrupt
)
