// Package barrier implements the N-party process-shared phase barrier with
// an aggregation callback at the rendezvous point.
//
// Two realizations are provided, selected at construction time by Kind:
// Spin, an atomic CAS spinlock plus a busy-poll on the shared phase counter
// (sharedstate.SharedState.Lock/Unlock), and SysV, a three-member SysV
// semaphore set via golang.org/x/sys/unix. Both observe the same contract:
// all participants rendezvous, each participant that supplies a Result
// aggregates it while holding the barrier's exclusive section (so
// aggregation steps never overlap), and the last arriver of a phase alone
// decides when the run terminates.
package barrier
