package config

import (
	"fmt"

	"github.com/jpequegn/ubench/internal/barrier"
)

// Config is the immutable record produced once, after flag parsing and
// validation, that every downstream component reads from. Field names
// spell out what each single-letter flag means; see
// internal/cmd for the flag-to-field mapping.
type Config struct {
	Name string // -N

	SingleProcess bool // -1
	Processes     int  // -P, default 1
	Threads       int  // -T, default 1

	Align bool // -A

	// BatchSize pins a fixed per-call iteration count (-B); NominalNsOp
	// pins the initial batch size indirectly via an expected per-op
	// cost in nanoseconds (-I). Either one disables the dynamic
	// batch-size re-tune. Zero means "unset".
	BatchSize   int64
	NominalNsOp int64

	MinSamples    int64 // -C, default 100
	MinDurationMS int64 // -D, default 10000
	DeadlineMS    int64 // -X, 0 = unset

	OverheadOverride   int64 // -O, 0 = calibrate
	ResolutionOverride int64 // -R, 0 = calibrate

	NoHeader         bool // -H
	ReportMean       bool // -M
	DetailedStats    bool // -S
	Warnings         bool // -W, implies DetailedStats
	EchoName         bool // -E
	PrintInvocation  bool // -L
	Debug            int  // -G, 0-9

	Barrier barrier.Kind
}

// Retune reports whether the dynamic batch-size re-tune loop is active:
// it is the default, disabled only when the user pinned a
// fixed batch size or a nominal per-op cost.
func (c Config) Retune() bool {
	return c.BatchSize <= 0 && c.NominalNsOp <= 0
}

// InitialBatchSize returns the batch size workers start with before any
// re-tune round has run.
func (c Config) InitialBatchSize() int64 {
	if c.BatchSize > 0 {
		return c.BatchSize
	}
	if c.NominalNsOp > 0 {
		if c.NominalNsOp >= 1_000_000 {
			return 1
		}
		return 1_000_000 / c.NominalNsOp
	}
	return 1
}

// HWM returns the total participant count, P*T.
func (c Config) HWM() int64 {
	return int64(c.Processes) * int64(c.Threads)
}

// Validate enforces the run's argument validation rules:
// (C>0 ∧ D≥0) ∨ (C≥0 ∧ D>0), and X==0 ∨ X>D.
func (c Config) Validate() error {
	if c.Processes <= 0 {
		return fmt.Errorf("config: Processes must be positive, got %d", c.Processes)
	}
	if c.Threads <= 0 {
		return fmt.Errorf("config: Threads must be positive, got %d", c.Threads)
	}

	sampleRule := c.MinSamples > 0 && c.MinDurationMS >= 0
	durationRule := c.MinSamples >= 0 && c.MinDurationMS > 0
	if !sampleRule && !durationRule {
		return fmt.Errorf("config: need (MinSamples>0 and MinDurationMS>=0) or (MinSamples>=0 and MinDurationMS>0), got MinSamples=%d MinDurationMS=%d", c.MinSamples, c.MinDurationMS)
	}

	if c.DeadlineMS != 0 && c.DeadlineMS <= c.MinDurationMS {
		return fmt.Errorf("config: DeadlineMS (%d) must exceed MinDurationMS (%d) when set", c.DeadlineMS, c.MinDurationMS)
	}

	return nil
}
