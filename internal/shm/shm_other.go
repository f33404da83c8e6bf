//go:build !linux

package shm

import "errors"

// Segment is a degraded, heap-backed stand-in on non-Linux platforms: it
// supports single-process mode only, since there is no portable memfd/mmap
// primitive to share it across exec'd children.
type Segment struct {
	Fd    int
	Bytes []byte
}

// Create allocates a heap buffer. Fd is always -1: there is nothing to
// pass to a child process on this platform.
func Create(name string, size int) (*Segment, error) {
	return &Segment{Fd: -1, Bytes: make([]byte, size)}, nil
}

// Attach always fails on non-Linux platforms: multi-process fan-out is not
// supported outside Linux in this build.
func Attach(fd, size int) (*Segment, error) {
	return nil, errors.New("shm.Attach: process-shared memory is only supported on linux")
}

func (s *Segment) Close() error {
	s.Bytes = nil
	return nil
}
