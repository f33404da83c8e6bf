//go:build !windows

package supervisor

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jpequegn/ubench/internal/clock"
	"github.com/jpequegn/ubench/internal/sharedstate"
	"github.com/jpequegn/ubench/internal/shm"
)

// workerFlag and workerIndexFlag are the hidden flags internal/cmd
// registers so a re-exec'd child recognizes it is a worker, not a fresh
// top-level invocation, and which process slot it occupies.
const (
	workerFlag      = "--ubench-worker"
	workerIndexFlag = "--ubench-worker-index"
)

// sharedFD and tsdFD are the child's inherited file descriptor numbers:
// 0, 1, 2 are stdio, so the first two ExtraFiles entries land at 3 and 4.
const (
	sharedFD = 3
	tsdFD    = 4
)

type childExit struct {
	index int
	err   error
}

// workerArgs builds the argv for re-exec'ing a worker process: the
// parent's own arguments (so the child reparses the identical
// configuration) plus the worker sentinel, its process index, and the
// calibrated overhead/resolution so the child does not recalibrate
// independently and drift from the parent's values.
func workerArgs(processIndex int, overhead, resolution int64) []string {
	args := append([]string{}, os.Args[1:]...)
	args = append(args,
		workerFlag,
		workerIndexFlag, strconv.Itoa(processIndex),
		"--overhead", strconv.FormatInt(overhead, 10),
		"--resolution", strconv.FormatInt(resolution, 10),
	)
	return args
}

// runMultiProcess re-execs cfg.Processes children, each inheriting the
// shared-memory and TSD segment file descriptors, then waits for all of
// them while fanning SIGALRM/SIGCHLD/SIGINT/SIGHUP/SIGTERM/SIGQUIT and a
// synthetic deadline timer through one channel, each a variant of the
// same blocking-signal-wait loop.
func (s *Supervisor) runMultiProcess(ss *sharedstate.SharedState, tsdSeg *shm.Segment, tsdSlotSize int, overhead, resolution int64) (int, error) {
	cfg := s.Config

	sigCh := make(chan os.Signal, 8)
	signal.Notify(sigCh, syscall.SIGALRM, syscall.SIGCHLD, syscall.SIGINT, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(sigCh)

	cmds := make([]*exec.Cmd, cfg.Processes)
	chldDone := make(chan childExit, cfg.Processes)

	sharedFile := os.NewFile(uintptr(ss.Fd()), "ubench-sharedstate")
	tsdFile := os.NewFile(uintptr(tsdSeg.Fd), "ubench-tsd")

	for i := 0; i < cfg.Processes; i++ {
		cmd := exec.Command(os.Args[0], workerArgs(i, overhead, resolution)...)
		cmd.ExtraFiles = []*os.File{sharedFile, tsdFile}
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Start(); err != nil {
			killAll(cmds)
			return 1, childError(i, err)
		}
		cmds[i] = cmd
		go func(i int, cmd *exec.Cmd) {
			chldDone <- childExit{index: i, err: cmd.Wait()}
		}(i, cmd)
	}

	deadline := ss.Deadline()
	var timer *time.Timer
	if deadline > 0 {
		d := time.Duration(deadline-clock.Now()) + 60*time.Second
		if d < 0 {
			d = 0
		}
		timer = time.AfterFunc(d, func() {
			select {
			case sigCh <- syscall.SIGALRM:
			default:
			}
		})
		defer timer.Stop()
	}

	exitCode := 0
	killed := int64(sharedstate.KilledNone)
	remaining := cfg.Processes

	for remaining > 0 {
		select {
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGALRM:
				killed = sharedstate.KilledLong
				slog.Warn("deadline watchdog fired, terminating workers", "signal", sig.String())
				killAll(cmds)
			case syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT:
				killed = sharedstate.KilledInterrupt
				slog.Warn("run interrupted, terminating workers", "signal", sig.String())
				if exitCode == 0 {
					exitCode = 1
				}
				killAll(cmds)
			case syscall.SIGCHLD:
				// Diagnostic only: actual reaping is driven by the
				// cmd.Wait() goroutines above, not by counting these.
			}
		case res := <-chldDone:
			remaining--
			if code := exitStatus(res.err); code != 0 && exitCode == 0 {
				exitCode = code
				slog.Error("worker exited non-zero", "error", childError(res.index, fmt.Errorf("exit code %d", code)), "process", res.index)
			}
		}
	}

	ss.SetKilled(killed)
	return exitCode, nil
}

// exitStatus extracts a process exit code from exec.Cmd.Wait's error,
// treating a non-ExitError failure (spawn-time failure) as code 1.
func exitStatus(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return 1
}

func killAll(cmds []*exec.Cmd) {
	for _, cmd := range cmds {
		if cmd == nil || cmd.Process == nil {
			continue
		}
		_ = cmd.Process.Signal(syscall.SIGKILL)
	}
}

// WorkerAttachment describes how a re-exec'd child should attach to its
// parent's shared memory.
type WorkerAttachment struct {
	ProcessIndex int
	SharedFd     int
	TSDFd        int
}

// DefaultWorkerAttachment fills in the standard inherited descriptor
// numbers (3 and 4) for the given process index, as assigned by
// runMultiProcess's ExtraFiles ordering.
func DefaultWorkerAttachment(processIndex int) WorkerAttachment {
	return WorkerAttachment{ProcessIndex: processIndex, SharedFd: sharedFD, TSDFd: tsdFD}
}

// RunWorker is the re-exec'd child's entry point: it attaches to the
// inherited shared-memory and TSD
// segments, constructs its barrier view (attaching to the existing SysV
// semaphore set when applicable), and fans cfg.Threads goroutines out
// against its slice of the TSD segment, returning the process exit code.
func (s *Supervisor) RunWorker(w WorkerAttachment) int {
	cfg := s.Config
	hwm := int(cfg.HWM())
	datasize := sharedstate.DataSizeFor(hwm)

	ss, err := sharedstate.Attach(w.SharedFd, datasize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ubench: worker %d: attach sharedstate: %v\n", w.ProcessIndex, err)
		return 1
	}
	defer ss.Close()

	tsdSlotSize := roundUpTSD(s.Plugin.TSDSize())
	tsdSeg, err := shm.Attach(w.TSDFd, hwm*tsdSlotSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ubench: worker %d: attach tsd: %v\n", w.ProcessIndex, err)
		return 1
	}
	defer tsdSeg.Close()

	br, err := barrierFn(cfg, ss)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ubench: worker %d: barrier: %v\n", w.ProcessIndex, err)
		return 1
	}
	defer br.Close()

	// A re-exec'd child is a brand new process: unlike fork(), it does not
	// inherit the parent's already-initialized Benchmark state, so both
	// one-time hooks must run again here. Built-in plug-ins are stateless,
	// so re-running them per child is equivalent to a single parent-side
	// init (see DESIGN.md).
	if err := s.Plugin.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "ubench: worker %d: plugin Init: %v\n", w.ProcessIndex, err)
		return 1
	}
	if err := s.Plugin.InitRun(); err != nil {
		fmt.Fprintf(os.Stderr, "ubench: worker %d: plugin InitRun: %v\n", w.ProcessIndex, err)
		return 1
	}

	return s.runInProcess(ss, br, tsdSeg.Bytes, tsdSlotSize, w.ProcessIndex)
}
