package analyzer

import (
	"math"
	"testing"
	"time"

	"github.com/jpequegn/ubench/internal/storage"
)

func rec(name string, nsPerCall int64, at time.Time) *storage.RunRecord {
	return &storage.RunRecord{Name: name, NsPerCall: nsPerCall, StartedAt: at}
}

func TestCalculateTrendImproving(t *testing.T) {
	a := NewBasicTrendAnalyzer()

	now := time.Now()
	history := []*storage.RunRecord{
		rec("sort", 1000, now),
		rec("sort", 950, now.Add(24*time.Hour)),
		rec("sort", 900, now.Add(48*time.Hour)),
		rec("sort", 850, now.Add(72*time.Hour)),
	}

	trend, err := a.CalculateTrend(history, 2)
	if err != nil {
		t.Fatalf("CalculateTrend failed: %v", err)
	}

	if trend.Direction != "improving" {
		t.Errorf("expected direction 'improving', got %q", trend.Direction)
	}
	if trend.Slope >= 0 {
		t.Errorf("expected negative slope for improving trend, got %.2f", trend.Slope)
	}
	if trend.ChangePercent >= 0 {
		t.Errorf("expected negative change for improving trend, got %.2f%%", trend.ChangePercent)
	}
	if trend.DataPoints != 4 {
		t.Errorf("expected 4 data points, got %d", trend.DataPoints)
	}
}

func TestCalculateTrendDegrading(t *testing.T) {
	a := NewBasicTrendAnalyzer()

	now := time.Now()
	history := []*storage.RunRecord{
		rec("sort", 1000, now),
		rec("sort", 1050, now.Add(24*time.Hour)),
		rec("sort", 1100, now.Add(48*time.Hour)),
		rec("sort", 1150, now.Add(72*time.Hour)),
	}

	trend, err := a.CalculateTrend(history, 2)
	if err != nil {
		t.Fatalf("CalculateTrend failed: %v", err)
	}

	if trend.Direction != "degrading" {
		t.Errorf("expected direction 'degrading', got %q", trend.Direction)
	}
	if trend.Slope <= 0 {
		t.Errorf("expected positive slope for degrading trend, got %.2f", trend.Slope)
	}
	if trend.ChangePercent <= 0 {
		t.Errorf("expected positive change for degrading trend, got %.2f%%", trend.ChangePercent)
	}
}

func TestCalculateTrendStable(t *testing.T) {
	a := NewBasicTrendAnalyzer()

	now := time.Now()
	history := []*storage.RunRecord{
		rec("sort", 1000, now),
		rec("sort", 1001, now.Add(24*time.Hour)),
		rec("sort", 1000, now.Add(48*time.Hour)),
		rec("sort", 999, now.Add(72*time.Hour)),
	}

	trend, err := a.CalculateTrend(history, 2)
	if err != nil {
		t.Fatalf("CalculateTrend failed: %v", err)
	}

	if trend.Direction != "stable" {
		t.Errorf("expected direction 'stable', got %q", trend.Direction)
	}
	if math.Abs(trend.Slope) > 1.0 {
		t.Errorf("expected slope close to 0, got %.2f", trend.Slope)
	}
}

func TestCalculateTrendInsufficientData(t *testing.T) {
	a := NewBasicTrendAnalyzer()

	history := []*storage.RunRecord{rec("sort", 1000, time.Now())}

	if _, err := a.CalculateTrend(history, 2); err == nil {
		t.Fatal("expected error for insufficient data")
	}
}

func TestCalculateTrendNoData(t *testing.T) {
	a := NewBasicTrendAnalyzer()
	if _, err := a.CalculateTrend(nil, 2); err == nil {
		t.Fatal("expected error for no data")
	}
}

func TestDetectAnomaliesSimpleAnomaly(t *testing.T) {
	a := NewBasicTrendAnalyzer()

	now := time.Now()
	history := []*storage.RunRecord{
		rec("sort", 1000, now),
		rec("sort", 1010, now.Add(1*time.Hour)),
		rec("sort", 1005, now.Add(2*time.Hour)),
		rec("sort", 5000, now.Add(3*time.Hour)), // anomaly
		rec("sort", 1008, now.Add(4*time.Hour)),
	}

	anomalies := a.DetectAnomalies(history, 1.5)
	if len(anomalies) == 0 {
		t.Fatal("expected anomaly detection")
	}

	found := false
	for _, an := range anomalies {
		if math.Abs(an.Value-5000) < 0.1 {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("expected the 5000ns run to be flagged, got %d anomalies", len(anomalies))
	}
}

func TestDetectAnomaliesNoAnomalies(t *testing.T) {
	a := NewBasicTrendAnalyzer()

	now := time.Now()
	history := []*storage.RunRecord{
		rec("sort", 1000, now),
		rec("sort", 1001, now.Add(1*time.Hour)),
		rec("sort", 1002, now.Add(2*time.Hour)),
		rec("sort", 1001, now.Add(3*time.Hour)),
	}

	anomalies := a.DetectAnomalies(history, 2.0)
	if len(anomalies) > 0 {
		t.Errorf("expected no anomalies, got %d", len(anomalies))
	}
}

func TestDetectAnomaliesInsufficientData(t *testing.T) {
	a := NewBasicTrendAnalyzer()
	history := []*storage.RunRecord{rec("sort", 1000, time.Now())}
	if anomalies := a.DetectAnomalies(history, 2.0); anomalies != nil {
		t.Errorf("expected nil anomalies for single data point, got %v", anomalies)
	}
}

func TestForecastPerformanceLinearTrend(t *testing.T) {
	a := NewBasicTrendAnalyzer()

	now := time.Now()
	history := []*storage.RunRecord{
		rec("sort", 1000, now),
		rec("sort", 1100, now.Add(1*time.Hour)),
		rec("sort", 1200, now.Add(2*time.Hour)),
		rec("sort", 1300, now.Add(3*time.Hour)),
	}

	forecasts := a.ForecastPerformance(history, 2)
	if len(forecasts) == 0 {
		t.Fatal("expected forecasts")
	}

	if forecasts[0].PredictedTime <= float64(history[len(history)-1].NsPerCall) {
		t.Errorf("expected forecast to predict degradation")
	}

	for _, f := range forecasts {
		if f.LowerBound >= f.UpperBound {
			t.Errorf("expected lower bound < upper bound, got %f >= %f", f.LowerBound, f.UpperBound)
		}
		if f.LowerBound < 0 {
			t.Errorf("expected non-negative lower bound, got %f", f.LowerBound)
		}
	}
}

func TestForecastPerformanceInsufficientData(t *testing.T) {
	a := NewBasicTrendAnalyzer()
	history := []*storage.RunRecord{rec("sort", 1000, time.Now())}

	if forecasts := a.ForecastPerformance(history, 2); len(forecasts) > 0 {
		t.Errorf("expected no forecasts for insufficient data, got %d", len(forecasts))
	}
}

func TestTrendResultCalculations(t *testing.T) {
	a := NewBasicTrendAnalyzer()

	now := time.Now()
	history := []*storage.RunRecord{
		rec("sort", 1000, now),
		rec("sort", 1100, now.Add(1*time.Hour)),
		rec("sort", 1200, now.Add(2*time.Hour)),
	}

	trend, err := a.CalculateTrend(history, 2)
	if err != nil {
		t.Fatalf("CalculateTrend failed: %v", err)
	}

	if trend.StartValue != 1000 {
		t.Errorf("expected StartValue 1000, got %f", trend.StartValue)
	}
	if trend.EndValue != 1200 {
		t.Errorf("expected EndValue 1200, got %f", trend.EndValue)
	}

	expectedChange := ((1200.0 - 1000.0) / 1000.0) * 100
	if math.Abs(trend.ChangePercent-expectedChange) > 0.1 {
		t.Errorf("expected ChangePercent ~%.2f, got %.2f", expectedChange, trend.ChangePercent)
	}
	if trend.RSquared < 0 || trend.RSquared > 1 {
		t.Errorf("expected RSquared in [0, 1], got %f", trend.RSquared)
	}
}
