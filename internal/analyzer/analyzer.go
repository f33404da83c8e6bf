package analyzer

import (
	"fmt"
	"math"
	"sort"

	"github.com/jpequegn/ubench/internal/stats"
	"github.com/jpequegn/ubench/internal/storage"
)

// CalculateTrend fits a line through ns/call vs. seconds-since-first-run
// (reporting the slope per day) using
// internal/stats.FitLine, the same least-squares routine used for
// calibration and per-sample time-correlation — one fit implementation
// used everywhere rather than a private copy.
func (bta *BasicTrendAnalyzer) CalculateTrend(history []*storage.RunRecord, minDataPoints int) (*TrendResult, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("no historical data")
	}
	if len(history) < minDataPoints {
		return nil, fmt.Errorf("insufficient data points: %d < %d", len(history), minDataPoints)
	}

	sorted := make([]*storage.RunRecord, len(history))
	copy(sorted, history)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartedAt.Before(sorted[j].StartedAt)
	})

	startTime := sorted[0].StartedAt
	xs := make([]int64, len(sorted))
	ys := make([]int64, len(sorted))
	for i, rec := range sorted {
		xs[i] = int64(rec.StartedAt.Sub(startTime).Seconds())
		ys[i] = rec.NsPerCall
	}

	intercept, slopePerSec := stats.FitLine(xs, ys)
	if math.IsNaN(slopePerSec) {
		return nil, fmt.Errorf("cannot calculate trend: no variance in x")
	}
	slope := slopePerSec * 86400

	meanY := 0.0
	for _, y := range ys {
		meanY += float64(y)
	}
	meanY /= float64(len(ys))

	ssRes, ssTot := 0.0, 0.0
	for i, y := range ys {
		predicted := intercept + slopePerSec*float64(xs[i])
		actual := float64(y)
		ssRes += (actual - predicted) * (actual - predicted)
		ssTot += (actual - meanY) * (actual - meanY)
	}

	rSquared := 1.0
	if ssTot > 0 {
		rSquared = 1.0 - (ssRes / ssTot)
	}
	if rSquared < 0 {
		rSquared = 0
	}
	if rSquared > 1 {
		rSquared = 1
	}

	direction := "stable"
	if math.Abs(slope) > 1.0 { // > 1 ns/call/day change
		if slope > 0 {
			direction = "degrading"
		} else {
			direction = "improving"
		}
	}

	endTime := sorted[len(sorted)-1].StartedAt
	periodDays := int(endTime.Sub(startTime).Hours() / 24)
	if periodDays == 0 {
		periodDays = 1
	}

	startValue := float64(sorted[0].NsPerCall)
	endValue := float64(sorted[len(sorted)-1].NsPerCall)
	changePercent := 0.0
	if startValue > 0 {
		changePercent = ((endValue - startValue) / startValue) * 100
	}

	return &TrendResult{
		Name:          sorted[0].Name,
		Direction:     direction,
		Slope:         slope,
		RSquared:      rSquared,
		ChangePercent: changePercent,
		PeriodDays:    periodDays,
		DataPoints:    len(sorted),
		StartTime:     startTime,
		EndTime:       endTime,
		StartValue:    startValue,
		EndValue:      endValue,
	}, nil
}

// DetectAnomalies flags runs whose ns/call deviates by more than
// zScoreThreshold standard deviations from the history's mean.
func (bta *BasicTrendAnalyzer) DetectAnomalies(history []*storage.RunRecord, zScoreThreshold float64) []*Anomaly {
	if len(history) < 2 {
		return nil
	}

	sorted := make([]*storage.RunRecord, len(history))
	copy(sorted, history)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartedAt.Before(sorted[j].StartedAt)
	})

	values := make([]float64, len(sorted))
	for i, rec := range sorted {
		values[i] = float64(rec.NsPerCall)
	}

	mean := calculateMean(values)
	stdDev := calculateStdDev(values, mean)
	if stdDev == 0 {
		return nil
	}

	var anomalies []*Anomaly
	for _, rec := range sorted {
		value := float64(rec.NsPerCall)
		zScore := (value - mean) / stdDev
		if math.Abs(zScore) <= zScoreThreshold {
			continue
		}

		severity := "low"
		switch {
		case math.Abs(zScore) > 3.0:
			severity = "critical"
		case math.Abs(zScore) > 2.5:
			severity = "high"
		case math.Abs(zScore) > 1.5:
			severity = "medium"
		}

		anomalies = append(anomalies, &Anomaly{
			Name:      rec.Name,
			Timestamp: rec.StartedAt,
			Value:     value,
			ZScore:    zScore,
			Severity:  severity,
			Message:   fmt.Sprintf("%.2f standard deviations from the mean", math.Abs(zScore)),
		})
	}

	return anomalies
}

// ForecastPerformance extrapolates periods days ahead along the
// calculated trend line.
func (bta *BasicTrendAnalyzer) ForecastPerformance(history []*storage.RunRecord, periods int) []*Forecast {
	if len(history) < 2 || periods <= 0 {
		return nil
	}

	trend, err := bta.CalculateTrend(history, 2)
	if err != nil {
		return nil
	}

	stdErr := calculateForecastStdErr(history)

	var forecasts []*Forecast
	for p := 1; p <= periods; p++ {
		predictedTime := trend.EndValue + trend.Slope*float64(p)
		marginOfError := 1.96 * stdErr * math.Sqrt(1+1/float64(len(history)))

		f := &Forecast{
			Name:          trend.Name,
			Period:        p,
			PredictedTime: predictedTime,
			LowerBound:    predictedTime - marginOfError,
			UpperBound:    predictedTime + marginOfError,
			Confidence:    bta.ConfidenceLevel,
		}
		if f.LowerBound < 0 {
			f.LowerBound = 0
		}
		forecasts = append(forecasts, f)
	}

	return forecasts
}

func calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func calculateStdDev(values []float64, mean float64) float64 {
	if len(values) <= 1 {
		return 0
	}
	varianceSum := 0.0
	for _, v := range values {
		diff := v - mean
		varianceSum += diff * diff
	}
	return math.Sqrt(varianceSum / float64(len(values)-1))
}

func calculateForecastStdErr(history []*storage.RunRecord) float64 {
	if len(history) < 2 {
		return 0
	}
	values := make([]float64, len(history))
	for i, rec := range history {
		values[i] = float64(rec.NsPerCall)
	}
	mean := calculateMean(values)
	ssRes := 0.0
	for _, v := range values {
		diff := v - mean
		ssRes += diff * diff
	}
	mse := ssRes / float64(len(values)-1)
	return math.Sqrt(mse)
}
