package supervisor

import (
	"errors"
	"fmt"
)

// Sentinel error kinds a caller can distinguish with errors.Is: setup-time
// failures (shared memory, barrier, plugin lifecycle hooks) that abort the
// run before any measurement happens, a worker's own FiniWorker hook
// failing after the measurement loop otherwise completed normally, and a
// re-exec'd child process exiting non-zero or failing to start.
var (
	ErrSetup  = errors.New("setup failed")
	ErrPlugin = errors.New("plugin error")
	ErrChild  = errors.New("child process failure")
)

// setupError wraps a failure in one of Run's startup steps (plugin
// Init/InitRun, shared-state and TSD segment creation, barrier
// construction) so callers
// can match it with errors.Is(err, ErrSetup).
func setupError(step string, err error) error {
	return fmt.Errorf("supervisor: %s: %w: %w", step, ErrSetup, err)
}

// pluginError wraps a worker's FiniWorker failure, the only plugin error
// that still propagates out of the measurement loop (batch-level errors
// are counted in the shared aggregate instead, never abort the run).
func pluginError(err error) error {
	return fmt.Errorf("supervisor: plugin FiniWorker: %w: %w", ErrPlugin, err)
}

// childError wraps a re-exec'd worker failing to start or exiting
// non-zero.
func childError(index int, err error) error {
	return fmt.Errorf("supervisor: worker %d: %w: %w", index, ErrChild, err)
}
