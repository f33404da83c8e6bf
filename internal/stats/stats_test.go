package stats

import (
	"math"
	"testing"
)

func TestComputeBasic(t *testing.T) {
	data := []int64{10, 20, 30, 40, 50}
	s := Compute(data)

	if s.Mean != 30 {
		t.Errorf("mean = %v, want 30", s.Mean)
	}
	if s.Median != 30 {
		t.Errorf("median = %v, want 30", s.Median)
	}
	if s.Min != 10 || s.Max != 50 {
		t.Errorf("min/max = %v/%v, want 10/50", s.Min, s.Max)
	}
}

func TestCI99MatchesStdErr(t *testing.T) {
	data := []int64{10, 12, 11, 13, 9, 14, 15, 10, 11, 12}
	s := Compute(data)

	want := s.StdErr * 2.576
	if math.Abs(s.CI99-want) > 1e-9 {
		t.Errorf("ci99 = %v, want %v", s.CI99, want)
	}
}

func TestFitLineRecoversExactLine(t *testing.T) {
	const a, b = 5.0, 3.0
	y := make([]int64, 20)
	for i := range y {
		y[i] = int64(a + b*float64(i))
	}

	gotA, gotB := FitLine(nil, y)
	if math.Abs(gotA-a) > 1e-6 {
		t.Errorf("a = %v, want %v", gotA, a)
	}
	if math.Abs(gotB-b) > 1e-6 {
		t.Errorf("b = %v, want %v", gotB, b)
	}
}

func TestFitLineDegenerate(t *testing.T) {
	a, b := FitLine(nil, []int64{42})
	if !math.IsNaN(a) || !math.IsNaN(b) {
		t.Errorf("expected NaN, NaN for a single point, got %v, %v", a, b)
	}
}

func TestIterateOutliersIsFixedPoint(t *testing.T) {
	data := make([]int64, 0, 100)
	for i := 0; i < 95; i++ {
		data = append(data, 100)
	}
	// A handful of extreme outliers.
	data = append(data, 100000, 100000, -50000, 200000, 300000)

	_, corrected := IterateOutliers(append([]int64(nil), data...))

	// Re-running outlier removal on the surviving (already stable) set
	// must remove nothing more.
	survivors := make([]int64, corrected.BatchesFinal)
	for i := range survivors {
		survivors[i] = 100
	}
	removed := RemoveOutliers(survivors, corrected)
	if removed != 0 {
		t.Errorf("expected fixed point, but removed %d more", removed)
	}
}

func TestIterateOutliersBypassedForTinyPopulation(t *testing.T) {
	data := []int64{1, 2, 3, 1000000}
	_, corrected := IterateOutliers(data)
	if corrected.BatchesFinal != 4 {
		t.Errorf("expected outlier removal bypassed at n<=40, got batches_final=%d", corrected.BatchesFinal)
	}
	if corrected.Outliers != 0 {
		t.Errorf("expected 0 outliers removed for tiny population, got %d", corrected.Outliers)
	}
}

func TestPercentileSkipsNonPositive(t *testing.T) {
	sorted := []int64{-5, 0, 0, 10, 20, 30, 40, 50, 60, 70}
	idx, ok := Percentile(sorted, 0.95)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if sorted[idx] <= 0 {
		t.Errorf("percentile landed on non-positive entry: %d", sorted[idx])
	}
}

func TestPercentileNoValidData(t *testing.T) {
	sorted := []int64{-5, -4, -3, 0, 0}
	_, ok := Percentile(sorted, 0.95)
	if ok {
		t.Error("expected ok=false for all-non-positive data")
	}
}
