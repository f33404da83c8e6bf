package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/jpequegn/ubench/internal/sharedstate"
)

func newTestShared(t *testing.T, samples []int64) *sharedstate.SharedState {
	t.Helper()
	hwm := len(samples)
	if hwm == 0 {
		hwm = 1
	}
	ds := sharedstate.DataSizeFor(hwm)
	ss, err := sharedstate.New(hwm, int(ds))
	if err != nil {
		t.Fatalf("sharedstate.New: %v", err)
	}
	t.Cleanup(func() { _ = ss.Close() })

	for i, v := range samples {
		ss.SetSample(int64(i), v)
		ss.IncBatches()
	}
	ss.AddCount(int64(len(samples)))
	return ss
}

func TestRenderBasicLine(t *testing.T) {
	ss := newTestShared(t, []int64{100, 105, 98, 102, 99})

	r := &Reporter{
		Config:       Config{Name: "noop", Processes: 1, Threads: 1},
		Shared:       ss,
		PluginResult: "ok",
	}

	var buf bytes.Buffer
	rec, err := r.Render(&buf)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "noop") {
		t.Errorf("expected output to contain benchmark name, got: %q", out)
	}
	if !strings.Contains(out, "name") {
		t.Errorf("expected header line with column headers, got: %q", out)
	}
	if rec.Name != "noop" || rec.Samples != 5 {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestRenderNoHeader(t *testing.T) {
	ss := newTestShared(t, []int64{100, 100, 100})

	r := &Reporter{
		Config: Config{Name: "spin", NoHeader: true},
		Shared: ss,
	}

	var buf bytes.Buffer
	if _, err := r.Render(&buf); err != nil {
		t.Fatalf("Render: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 1 {
		t.Errorf("expected exactly one output line with NoHeader, got %d: %q", len(lines), buf.String())
	}
}

func TestRenderReportMeanVsMedian(t *testing.T) {
	ss := newTestShared(t, []int64{100, 200, 300})

	meanR := &Reporter{Config: Config{Name: "x", ReportMean: true, NoHeader: true}, Shared: ss}
	var meanBuf bytes.Buffer
	meanRec, err := meanR.Render(&meanBuf)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	medianR := &Reporter{Config: Config{Name: "x", NoHeader: true}, Shared: ss}
	var medianBuf bytes.Buffer
	medianRec, err := medianR.Render(&medianBuf)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if meanRec.NsPerCall == medianRec.NsPerCall {
		t.Skip("mean and median coincide for this symmetric sample set")
	}
}

func TestRenderDetailedStatsBlock(t *testing.T) {
	ss := newTestShared(t, []int64{100, 105, 98, 102, 99, 101, 103, 97})

	r := &Reporter{
		Config: Config{Name: "x", DetailedStats: true},
		Shared: ss,
	}

	var buf bytes.Buffer
	if _, err := r.Render(&buf); err != nil {
		t.Fatalf("Render: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"# ", "stat", "raw", "corrected", "histogram"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got: %q", want, out)
		}
	}
}

func TestRenderHistogramNoValidSamples(t *testing.T) {
	var buf bytes.Buffer
	if err := renderHistogram(&buf, []int64{0, 0, 0}); err != nil {
		t.Fatalf("renderHistogram: %v", err)
	}
	if !strings.Contains(buf.String(), "no valid data") {
		t.Errorf("expected no-valid-data message, got: %q", buf.String())
	}
}

func TestKilledString(t *testing.T) {
	cases := map[int64]string{
		sharedstate.KilledLong:      "long",
		sharedstate.KilledInterrupt: "interrupt",
		0:                           "none",
	}
	for v, want := range cases {
		if got := killedString(v); got != want {
			t.Errorf("killedString(%d) = %q, want %q", v, got, want)
		}
	}
}

func TestRenderWarningsFewSamples(t *testing.T) {
	ss := newTestShared(t, []int64{100, 101, 102})

	r := &Reporter{
		Config: Config{Name: "x", Warnings: true},
		Shared: ss,
	}

	var buf bytes.Buffer
	if _, err := r.Render(&buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(buf.String(), "fewer than 100 samples") {
		t.Errorf("expected few-samples warning, got: %q", buf.String())
	}
}

func TestRenderWarningsKilled(t *testing.T) {
	ss := newTestShared(t, []int64{100, 101, 102})
	ss.SetKilled(sharedstate.KilledLong)

	r := &Reporter{
		Config: Config{Name: "x", Warnings: true},
		Shared: ss,
	}

	var buf bytes.Buffer
	if _, err := r.Render(&buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(buf.String(), "deadline watchdog") {
		t.Errorf("expected deadline-watchdog warning, got: %q", buf.String())
	}
}

func TestRenderWarningsErrors(t *testing.T) {
	ss := newTestShared(t, []int64{100, 101, 102})
	ss.AddErrors(2)

	r := &Reporter{
		Config: Config{Name: "x", Warnings: true},
		Shared: ss,
	}

	var buf bytes.Buffer
	if _, err := r.Render(&buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(buf.String(), "2 plugin errors") {
		t.Errorf("expected plugin-errors warning, got: %q", buf.String())
	}
}

func TestRenderRecordStartedAt(t *testing.T) {
	ss := newTestShared(t, []int64{100, 101, 102})
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	r := &Reporter{
		Config: Config{Name: "x", StartedAt: started},
		Shared: ss,
	}

	var buf bytes.Buffer
	rec, err := r.Render(&buf)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !rec.StartedAt.Equal(started) {
		t.Errorf("expected StartedAt %v, got %v", started, rec.StartedAt)
	}
}
