package analyzer

import (
	"time"

	"github.com/jpequegn/ubench/internal/storage"
)

// TrendResult summarizes the direction and confidence of a run's
// ns/call measurement over time.
type TrendResult struct {
	Name          string
	Direction     string    // "improving", "degrading", "stable"
	Slope         float64   // ns/call change per day
	RSquared      float64   // fit confidence (0-1)
	ChangePercent float64   // % change over period
	PeriodDays    int       // days covered
	DataPoints    int       // number of runs
	StartTime     time.Time // first run
	EndTime       time.Time // last run
	StartValue    float64   // first run's ns/call
	EndValue      float64   // last run's ns/call
}

// Anomaly is a single run whose ns/call deviates unusually from the
// history's mean.
type Anomaly struct {
	Name      string
	Timestamp time.Time
	Value     float64 // ns/call
	ZScore    float64
	Severity  string // "critical", "high", "medium", "low"
	Message   string
}

// Forecast is a projected future ns/call value with a confidence band.
type Forecast struct {
	Name          string
	Period        int     // days ahead
	PredictedTime float64 // ns/call
	LowerBound    float64
	UpperBound    float64
	Confidence    float64
}

// TrendAnalyzer computes trend/anomaly/forecast summaries over a run's
// persisted history.
type TrendAnalyzer interface {
	CalculateTrend(history []*storage.RunRecord, minDataPoints int) (*TrendResult, error)
	DetectAnomalies(history []*storage.RunRecord, zScoreThreshold float64) []*Anomaly
	ForecastPerformance(history []*storage.RunRecord, periods int) []*Forecast
}

// BasicTrendAnalyzer implements TrendAnalyzer with linear regression and
// z-score anomaly detection.
type BasicTrendAnalyzer struct {
	MinDataPoints   int     // minimum data points for a trend (default: 3)
	ZScoreThreshold float64 // z-score threshold for anomalies (default: 2.0)
	ConfidenceLevel float64 // forecast confidence (default: 0.95)
}

// NewBasicTrendAnalyzer creates a trend analyzer with sensible defaults:
// a 3-point minimum before trend detection, a 2.0 z-score anomaly
// threshold, and 95% forecast confidence.
func NewBasicTrendAnalyzer() *BasicTrendAnalyzer {
	return &BasicTrendAnalyzer{
		MinDataPoints:   3,
		ZScoreThreshold: 2.0,
		ConfidenceLevel: 0.95,
	}
}
