package cmd

import (
	"testing"
	"time"
)

// resetRunFlags restores runFlags to the values cobra's flag registration
// would leave them at, since the tests below mutate the package-level
// struct directly instead of going through cobra's flag parser.
func resetRunFlags() {
	runFlags.singleProcess = false
	runFlags.align = false
	runFlags.batchSize = ""
	runFlags.minSamples = 100
	runFlags.minDuration = "10000"
	runFlags.echoName = false
	runFlags.debug = 0
	runFlags.noHeader = false
	runFlags.nominalNs = ""
	runFlags.printInvocation = false
	runFlags.reportMean = false
	runFlags.name = ""
	runFlags.overhead = ""
	runFlags.processes = 1
	runFlags.resolution = ""
	runFlags.detailedStats = false
	runFlags.threads = 1
	runFlags.printVersion = false
	runFlags.warnings = false
	runFlags.deadline = "0"
	runFlags.usage = false
	runFlags.barrierKind = "sysv"

	runFlags.pluginName = "noop"
	runFlags.sleepDuration = 10 * time.Millisecond
	runFlags.history = ""

	runFlags.worker = false
	runFlags.workerIndex = 0
}

func TestBuildConfigDefaults(t *testing.T) {
	resetRunFlags()
	runFlags.name = "noop"

	cfg, err := buildConfig()
	if err != nil {
		t.Fatalf("buildConfig: %v", err)
	}
	if cfg.Processes != 1 || cfg.Threads != 1 {
		t.Errorf("unexpected default fan-out: P=%d T=%d", cfg.Processes, cfg.Threads)
	}
	if cfg.MinSamples != 100 || cfg.MinDurationMS != 10000 {
		t.Errorf("unexpected defaults: MinSamples=%d MinDurationMS=%d", cfg.MinSamples, cfg.MinDurationMS)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}

func TestBuildConfigUnitSuffixes(t *testing.T) {
	resetRunFlags()
	runFlags.name = "noop"
	runFlags.batchSize = "2k"
	runFlags.overhead = "1m"
	runFlags.resolution = "500"

	cfg, err := buildConfig()
	if err != nil {
		t.Fatalf("buildConfig: %v", err)
	}
	if cfg.BatchSize != 2*1024 {
		t.Errorf("BatchSize = %d, want %d", cfg.BatchSize, 2*1024)
	}
	if cfg.OverheadOverride != 1024*1024 {
		t.Errorf("OverheadOverride = %d, want %d", cfg.OverheadOverride, 1024*1024)
	}
	if cfg.ResolutionOverride != 500 {
		t.Errorf("ResolutionOverride = %d, want 500", cfg.ResolutionOverride)
	}
}

func TestBuildConfigInvalidUnitSuffix(t *testing.T) {
	resetRunFlags()
	runFlags.batchSize = "not-a-number"

	if _, err := buildConfig(); err == nil {
		t.Error("expected an error for an unparseable -B value")
	}
}

func TestBuildConfigSingleProcessForcesProcesses(t *testing.T) {
	resetRunFlags()
	runFlags.singleProcess = true
	runFlags.processes = 8

	cfg, err := buildConfig()
	if err != nil {
		t.Fatalf("buildConfig: %v", err)
	}
	if cfg.Processes != 1 {
		t.Errorf("Processes = %d, want 1 when -1 is set", cfg.Processes)
	}
}

func TestBuildConfigUnknownBarrierKind(t *testing.T) {
	resetRunFlags()
	runFlags.barrierKind = "not-a-kind"

	if _, err := buildConfig(); err == nil {
		t.Error("expected an error for an unrecognized --barrier value")
	}
}

func TestBuildConfigWarningsImpliesDetailedStats(t *testing.T) {
	resetRunFlags()
	runFlags.warnings = true

	cfg, err := buildConfig()
	if err != nil {
		t.Fatalf("buildConfig: %v", err)
	}
	if !cfg.DetailedStats {
		t.Error("Warnings should imply DetailedStats")
	}
}

func TestParseOptionalUnitEmptyIsZero(t *testing.T) {
	v, err := parseOptionalUnit("")
	if err != nil || v != 0 {
		t.Errorf("parseOptionalUnit(\"\") = (%d, %v), want (0, nil)", v, err)
	}
}

func TestParseOptionalUnitParsesSuffix(t *testing.T) {
	v, err := parseOptionalUnit("4k")
	if err != nil {
		t.Fatalf("parseOptionalUnit: %v", err)
	}
	if v != 4*1024 {
		t.Errorf("parseOptionalUnit(4k) = %d, want %d", v, 4*1024)
	}
}
