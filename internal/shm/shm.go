//go:build linux

package shm

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Segment is a process-shared memory region: either created fresh (Create)
// or attached to an existing one by file descriptor (Attach).
type Segment struct {
	Fd    int
	Bytes []byte
}

// Create allocates a new anonymous, process-shareable memory region of the
// given size via memfd_create + mmap. The returned Segment's Fd should be
// passed to child processes (e.g. via exec.Cmd.ExtraFiles) that need to
// Attach to the same region.
func Create(name string, size int) (*Segment, error) {
	fd, err := unix.MemfdCreate(name, 0)
	if err != nil {
		return nil, fmt.Errorf("shm.Create: memfd_create: %w", err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("shm.Create: ftruncate: %w", err)
	}
	b, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("shm.Create: mmap: %w", err)
	}
	return &Segment{Fd: fd, Bytes: b}, nil
}

// Attach maps an existing shared-memory file descriptor (typically one
// inherited from the parent process via exec.Cmd.ExtraFiles) into this
// process's address space.
func Attach(fd, size int) (*Segment, error) {
	b, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("shm.Attach: mmap: %w", err)
	}
	return &Segment{Fd: fd, Bytes: b}, nil
}

// Close unmaps the region. The owning process should also close Fd once no
// child needs to Attach to it again; Close here only releases the mapping.
func (s *Segment) Close() error {
	if s == nil || s.Bytes == nil {
		return nil
	}
	err := unix.Munmap(s.Bytes)
	s.Bytes = nil
	return err
}
