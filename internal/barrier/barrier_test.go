package barrier

import (
	"sync"
	"testing"

	"github.com/jpequegn/ubench/internal/sample"
	"github.com/jpequegn/ubench/internal/sharedstate"
)

func newTestState(t *testing.T, hwm int) *sharedstate.SharedState {
	t.Helper()
	ss, err := sharedstate.New(hwm, sharedstate.DataSizeFor(hwm))
	if err != nil {
		t.Fatalf("sharedstate.New: %v", err)
	}
	t.Cleanup(func() { _ = ss.Close() })
	return ss
}

// TestSpinBarrierRendezvousAllArriveBeforeAnyDepart exercises Testable
// Property 6: across hwm concurrent participants, waitersAtEntry must equal
// hwm-1 exactly once per phase — the aggregation step for the last arriver.
func TestSpinBarrierRendezvousAllArriveBeforeAnyDepart(t *testing.T) {
	const hwm = 8
	ss := newTestState(t, hwm)
	cfg := Config{HWM: hwm, MinSamples: 1 << 30, Overhead: 0, Resolution: 1}
	b := newSpinBarrier(ss, cfg)

	var mu sync.Mutex
	var hwmMinusOneHits int
	var wg sync.WaitGroup
	wg.Add(hwm)
	for i := 0; i < hwm; i++ {
		go func(i int) {
			defer wg.Done()
			r := &sample.Result{Count: 1, TBegin: 0, TEnd: 10}
			_, waitersAtEntry := b.Enter(r)
			if waitersAtEntry == hwm-1 {
				mu.Lock()
				hwmMinusOneHits++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if hwmMinusOneHits != 1 {
		t.Fatalf("waitersAtEntry == hwm-1 observed %d times, want exactly 1", hwmMinusOneHits)
	}
	if ss.Phase() != 1 {
		t.Fatalf("phase = %d, want 1 after one completed round", ss.Phase())
	}
	if ss.Batches() != hwm {
		t.Fatalf("batches = %d, want %d (one per participant's Result)", ss.Batches(), hwm)
	}
	if ss.Count() != hwm {
		t.Fatalf("count = %d, want %d", ss.Count(), hwm)
	}
}

func TestSpinBarrierRendezvousOnly(t *testing.T) {
	const hwm = 4
	ss := newTestState(t, hwm)
	cfg := Config{HWM: hwm, MinSamples: 1 << 30}
	b := newSpinBarrier(ss, cfg)

	var wg sync.WaitGroup
	wg.Add(hwm)
	for i := 0; i < hwm; i++ {
		go func() {
			defer wg.Done()
			terminal, waitersAtEntry := b.Enter(nil)
			if terminal {
				t.Error("rendezvous-only Enter should never report terminal")
			}
			if waitersAtEntry != -1 {
				t.Errorf("rendezvous-only Enter should not record waitersAtEntry, got %d", waitersAtEntry)
			}
		}()
	}
	wg.Wait()

	if ss.Phase() != 1 {
		t.Fatalf("phase = %d, want 1", ss.Phase())
	}
	if ss.Batches() != 0 {
		t.Fatalf("batches = %d, want 0 for rendezvous-only rounds", ss.Batches())
	}
}

func TestSpinBarrierTerminatesPastDeadline(t *testing.T) {
	const hwm = 2
	ss := newTestState(t, hwm)
	ss.SetDeadline(1) // any now() > 1ns triggers termination
	cfg := Config{HWM: hwm, MinSamples: 1 << 30}
	b := newSpinBarrier(ss, cfg)

	var wg sync.WaitGroup
	results := make([]bool, hwm)
	wg.Add(hwm)
	for i := 0; i < hwm; i++ {
		go func(i int) {
			defer wg.Done()
			r := &sample.Result{Count: 1, TEnd: 5}
			terminal, _ := b.Enter(r)
			results[i] = terminal
		}(i)
	}
	wg.Wait()

	for i, terminal := range results {
		if !terminal {
			t.Errorf("participant %d: terminal = false, want true past deadline", i)
		}
	}
	if ss.Phase() >= 0 {
		t.Fatalf("phase = %d, want negative (terminal)", ss.Phase())
	}
}

func TestDecideTerminateRespectsMinSamplesGate(t *testing.T) {
	const hwm = 2
	ss := newTestState(t, hwm)
	ss.SetMinRuntime(1)
	cfg := Config{HWM: hwm, MinSamples: 10}

	// Below the minimum sample gate: must not terminate even though
	// min_runtime has clearly elapsed.
	if decideTerminate(ss, cfg) {
		t.Fatal("decideTerminate fired before MinSamples*HWM batches were recorded")
	}

	for i := int64(0); i < cfg.MinSamples*hwm; i++ {
		ss.IncBatches()
	}
	if !decideTerminate(ss, cfg) {
		t.Fatal("decideTerminate did not fire once MinSamples*HWM batches were recorded and min_runtime elapsed")
	}
}

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{"spin": Spin, "sysv": SysV, "": SysV}
	for s, want := range cases {
		got, err := ParseKind(s)
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", s, err)
		}
		if got != want {
			t.Fatalf("ParseKind(%q) = %v, want %v", s, got, want)
		}
	}
	if _, err := ParseKind("bogus"); err == nil {
		t.Fatal("ParseKind(\"bogus\") should error")
	}
}
