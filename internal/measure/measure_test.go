package measure

import (
	"testing"

	"github.com/jpequegn/ubench/internal/plugin"
	"github.com/jpequegn/ubench/internal/sample"
	"github.com/jpequegn/ubench/internal/sharedstate"
)

// fakeBarrier terminates after a fixed number of timed (non-nil Result)
// rounds, recording every round it saw so tests can assert on ordering and
// on the batchSize the loop observed.
type fakeBarrier struct {
	roundsUntilTerminal int
	timedRounds         int
	rendezvousRounds    int
}

func (b *fakeBarrier) Enter(r *sample.Result) (bool, int64) {
	if r == nil {
		b.rendezvousRounds++
		return false, -1
	}
	b.timedRounds++
	if b.timedRounds >= b.roundsUntilTerminal {
		return true, 0
	}
	return false, 0
}

func (b *fakeBarrier) Close() error { return nil }

// countingPlugin records every Run call's batchSize argument and reports a
// fixed Count.
type countingPlugin struct {
	plugin.Base
	seenBatchSizes []int64
	initWorkerErr  bool
	finiWorkerErr  bool
}

func (p *countingPlugin) InitWorker(tsd []byte) error {
	if p.initWorkerErr {
		return errPlugin
	}
	return nil
}

func (p *countingPlugin) FiniWorker(tsd []byte) error {
	if p.finiWorkerErr {
		return errPlugin
	}
	return nil
}

func (p *countingPlugin) Run(tsd []byte, batchSize int64, result *sample.Result) error {
	p.seenBatchSizes = append(p.seenBatchSizes, batchSize)
	result.Count = batchSize
	result.TEnd = result.TBegin + 1
	return nil
}

type pluginError string

func (e pluginError) Error() string { return string(e) }

const errPlugin = pluginError("plugin failure")

func TestLoopRunsUntilBarrierTerminal(t *testing.T) {
	b := &fakeBarrier{roundsUntilTerminal: 3}
	p := &countingPlugin{}
	bs := int64(10)

	l := &Loop{Plugin: p, Barrier: b, BatchSize: &bs}
	if err := l.Run(); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if b.timedRounds != 3 {
		t.Errorf("timedRounds = %d, want 3", b.timedRounds)
	}
	if b.rendezvousRounds != 3 {
		t.Errorf("rendezvousRounds = %d, want 3 (one pre-timing Enter(nil) per batch)", b.rendezvousRounds)
	}
	if len(p.seenBatchSizes) != 3 {
		t.Fatalf("Run called %d times, want 3", len(p.seenBatchSizes))
	}
	for i, v := range p.seenBatchSizes {
		if v != 10 {
			t.Errorf("seenBatchSizes[%d] = %d, want 10", i, v)
		}
	}
}

func TestLoopPropagatesFiniWorkerError(t *testing.T) {
	b := &fakeBarrier{roundsUntilTerminal: 1}
	p := &countingPlugin{finiWorkerErr: true}
	bs := int64(1)

	l := &Loop{Plugin: p, Barrier: b, BatchSize: &bs}
	if err := l.Run(); err == nil {
		t.Fatal("Run should propagate a FiniWorker error")
	}
}

func TestLoopRetuneAddsExtraBarrierRounds(t *testing.T) {
	b := &fakeBarrier{roundsUntilTerminal: 2}
	p := &countingPlugin{}
	bs := int64(5)
	ss, err := sharedstate.New(1, sharedstate.DataSizeFor(1))
	if err != nil {
		t.Fatalf("sharedstate.New: %v", err)
	}
	defer ss.Close()
	ss.IncBatches()
	ss.SetSample(0, 500_000)

	l := &Loop{Plugin: p, Barrier: b, Shared: ss, BatchSize: &bs, Retune: true, IsDefault: true}
	if err := l.Run(); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	// One retune round happens after the first (non-terminal) timed
	// round only: 2 extra Enter(nil) calls beyond the 2 per-batch
	// pre-timing syncs.
	if b.rendezvousRounds != 4 {
		t.Errorf("rendezvousRounds = %d, want 4 (2 pre-timing + 2 retune)", b.rendezvousRounds)
	}
}

func TestRetuneScalesUpSubMillisecondMean(t *testing.T) {
	ss, err := sharedstate.New(1, sharedstate.DataSizeFor(1))
	if err != nil {
		t.Fatalf("sharedstate.New: %v", err)
	}
	defer ss.Close()
	ss.IncBatches()
	ss.SetSample(0, 200_000) // 200us mean

	bs := int64(1)
	l := &Loop{Shared: ss, BatchSize: &bs}
	l.retune()

	want := int64(1_000_000 / 200_000)
	if bs != want {
		t.Errorf("BatchSize = %d, want %d", bs, want)
	}
}

func TestRetuneDropsToOneAboveMillisecondMean(t *testing.T) {
	ss, err := sharedstate.New(1, sharedstate.DataSizeFor(1))
	if err != nil {
		t.Fatalf("sharedstate.New: %v", err)
	}
	defer ss.Close()
	ss.IncBatches()
	ss.SetSample(0, 2_000_000)

	bs := int64(50)
	l := &Loop{Shared: ss, BatchSize: &bs}
	l.retune()

	if bs != 1 {
		t.Errorf("BatchSize = %d, want 1", bs)
	}
}
