// Package shm allocates process-shared memory regions.
//
// The original framework builds its shared mapping with a bare
// MAP_ANONYMOUS mmap before fork(), which every forked child inherits for
// free. This engine spawns worker processes with exec (see
// internal/supervisor and DESIGN.md for why), and an anonymous mapping does
// not survive exec — only file descriptors do. So the region here is
// backed by a memfd_create anonymous file: the owning process mmaps it
// once, and every other process attaches to the same fd (inherited via
// exec.Cmd.ExtraFiles) with its own mmap call over the same pages.
package shm
