//go:build !linux

package clock

import "time"

var epoch = time.Now()

func monotonicNanos() int64 {
	return int64(time.Since(epoch))
}

func cycles() int64 {
	return monotonicNanos()
}
