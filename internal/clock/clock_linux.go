//go:build linux

package clock

import "golang.org/x/sys/unix"

func monotonicNanos() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return wallMicros() * 1000
	}
	return ts.Nano()
}

// cycles emulates a fixed-frequency cycle counter by reading the raw
// monotonic clock, which on Linux is not subject to NTP slewing.
func cycles() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC_RAW, &ts); err != nil {
		return wallMicros()
	}
	return ts.Nano()
}

func wallMicros() int64 {
	var tv unix.Timeval
	if err := unix.Gettimeofday(&tv); err != nil {
		return 0
	}
	return tv.Sec*1_000_000 + int64(tv.Usec)
}
