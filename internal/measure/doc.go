// Package measure implements the per-worker measurement loop: the
// init/align/barrier/timed-batch/barrier/finish cycle every worker thread
// runs, plus the dynamic batch-size re-tune that keeps each timed batch in
// the neighborhood of one millisecond.
//
// The timed region (one clock.Now before, one after, one call into the
// plugin in between) is the only code in this package that executes inside
// the barrier's timing window; everything else — alignment sleeps, batch
// init/fini hooks, the re-tune computation — runs outside it.
package measure
