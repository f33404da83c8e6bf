// Package clock provides a high-resolution monotonic nanosecond clock.
//
// A backend is picked at compile time: the Linux backend reads
// CLOCK_MONOTONIC directly through golang.org/x/sys/unix; every other
// platform falls back to time.Now()'s built-in monotonic reading. A
// cycle-counter backend is available when LIBMICRO_HZ is set in the
// environment, dividing a monotonic-raw reading by the configured
// frequency to emulate a fixed-frequency cycle counter.
//
// The only contract callers may rely on: Now returns a value that never
// decreases within a single process, with resolution of at least one
// nanosecond. Nothing in this package allocates or takes a lock, so it is
// safe to call from the timed region of the measurement loop.
package clock
