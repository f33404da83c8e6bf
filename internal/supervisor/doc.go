// Package supervisor drives a complete run: one-time plugin setup,
// shared-memory and barrier construction, process/thread fan-out, signal
// handling, the deadline watchdog, and exit-code propagation.
//
// The original spawns P worker processes with fork(), each inheriting the
// parent's anonymous shared mapping for free. Go's runtime disallows a
// bare fork() without an immediate exec(), so multi-process mode here
// re-execs the current binary (os.Args[0]) with a hidden worker flag set
// and passes the shared-memory file descriptors through
// exec.Cmd.ExtraFiles; each child attaches to the same memfd-backed
// regions independently. Single-process mode (-1, or P==1) never execs:
// worker "threads" are goroutines sharing the parent's own mapping
// directly.
package supervisor
