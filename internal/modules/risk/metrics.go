// Package risk derives volatility, drawdown and a coarse risk bucket from
// NAV series.
package risk

import (
	"github.com/rs/zerolog"

	"github.com/kanungos/fundgrid/internal/domain"
	"github.com/kanungos/fundgrid/internal/modules/returns"
	"github.com/kanungos/fundgrid/pkg/formulas"
)

// Bucket is the coarse risk classification of an instrument.
type Bucket string

const (
	BucketLow    Bucket = "Low"
	BucketMedium Bucket = "Medium"
	BucketHigh   Bucket = "High"
)

// Fixed classifier thresholds. Volatility is the standard deviation of
// day-over-day fractional changes; drawdown is a fraction <= 0.
const (
	lowVolatility    = 0.01
	mediumVolatility = 0.03
	lowDrawdownFloor = -0.10
	medDrawdownFloor = -0.20
	metricPrecision  = 4
)

// Metrics computes risk measures against a NAV series store.
type Metrics struct {
	store returns.SeriesReader
	log   zerolog.Logger
}

// NewMetrics creates a risk metrics calculator backed by the given store.
func NewMetrics(store returns.SeriesReader, log zerolog.Logger) *Metrics {
	return &Metrics{
		store: store,
		log:   log.With().Str("component", "risk").Logger(),
	}
}

// Volatility is the standard deviation of day-over-day fractional changes
// of the series restricted to the trailing window. Nil when fewer than 2
// changes are available.
func (m *Metrics) Volatility(instrumentID string, windowDays int) *float64 {
	latest, ok := m.store.Latest(instrumentID)
	if !ok {
		return nil
	}

	cutoff := latest.Date.AddDate(0, 0, -windowDays)
	values := make([]float64, 0, windowDays)
	for _, p := range m.store.Series(instrumentID) {
		if !p.Date.Before(cutoff) {
			values = append(values, p.Value)
		}
	}

	changes := formulas.DailyChanges(values)
	if len(changes) < 2 {
		return nil
	}

	return domain.Float64Ptr(formulas.Round(formulas.StdDev(changes), metricPrecision))
}

// MaxDrawdown is the worst peak-to-trough decline over the full series as a
// fraction of the running maximum. Result <= 0; 0 means no drawdown
// observed. Nil when the series is empty.
func (m *Metrics) MaxDrawdown(instrumentID string) *float64 {
	series := m.store.Series(instrumentID)
	if len(series) == 0 {
		return nil
	}

	values := make([]float64, len(series))
	for i, p := range series {
		values[i] = p.Value
	}

	return domain.Float64Ptr(formulas.Round(formulas.MaxDrawdown(values), metricPrecision))
}

// RiskBucket classifies an instrument from its volatility and drawdown.
// Medium is the explicit default when volatility is unavailable.
func RiskBucket(volatility, maxDrawdown *float64) Bucket {
	if volatility == nil {
		return BucketMedium
	}

	dd := 0.0
	if maxDrawdown != nil {
		dd = *maxDrawdown
	}

	switch {
	case *volatility < lowVolatility && dd > lowDrawdownFloor:
		return BucketLow
	case *volatility < mediumVolatility && dd > medDrawdownFloor:
		return BucketMedium
	default:
		return BucketHigh
	}
}
