// Package returns computes trailing and rolling window returns over NAV
// series. Missing operands and zero denominators resolve to nil, never to
// zero and never to an error; nil propagates visibly to dependent
// computations.
package returns

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/kanungos/fundgrid/internal/domain"
	"github.com/kanungos/fundgrid/pkg/formulas"
)

// ratePrecision is the rounding applied to rate-like figures that feed
// further computation. Display rounding happens at the output edge.
const ratePrecision = 4

// SeriesReader is the slice of the NAV store the calculator needs.
type SeriesReader interface {
	Latest(instrumentID string) (domain.NavPoint, bool)
	AsOf(instrumentID string, date time.Time) (domain.NavPoint, bool)
	Series(instrumentID string) []domain.NavPoint
}

// Calculator computes window returns against a NAV series store.
type Calculator struct {
	store SeriesReader
	log   zerolog.Logger
}

// NewCalculator creates a return calculator backed by the given store.
func NewCalculator(store SeriesReader, log zerolog.Logger) *Calculator {
	return &Calculator{
		store: store,
		log:   log.With().Str("component", "returns").Logger(),
	}
}

// TrailingReturn computes the percent change between the latest known value
// and the value as-of windowDays before it. Nil when either lookup has no
// data or the past value is zero.
func (c *Calculator) TrailingReturn(instrumentID string, windowDays int) *float64 {
	latest, ok := c.store.Latest(instrumentID)
	if !ok {
		return nil
	}
	return c.TrailingReturnAt(instrumentID, windowDays, latest.Date)
}

// TrailingReturnAt computes the trailing return anchored at an arbitrary
// as-of date instead of the latest point.
func (c *Calculator) TrailingReturnAt(instrumentID string, windowDays int, asOf time.Time) *float64 {
	latest, ok := c.store.AsOf(instrumentID, asOf)
	if !ok {
		return nil
	}

	past, ok := c.store.AsOf(instrumentID, asOf.AddDate(0, 0, -windowDays))
	if !ok || past.Value == 0 {
		return nil
	}

	pct := (latest.Value - past.Value) / past.Value * 100
	return domain.Float64Ptr(formulas.Round(pct, ratePrecision))
}

// RollingReturnAverage computes the trailing return at every point of the
// series and averages the non-nil samples. This is a smoothed consistency
// indicator, distinct from the single-point trailing return. Nil when fewer
// than 2 valid samples exist.
func (c *Calculator) RollingReturnAverage(instrumentID string, windowDays int) *float64 {
	series := c.store.Series(instrumentID)

	samples := make([]float64, 0, len(series))
	for _, p := range series {
		if r := c.TrailingReturnAt(instrumentID, windowDays, p.Date); r != nil {
			samples = append(samples, *r)
		}
	}

	if len(samples) < 2 {
		return nil
	}

	return domain.Float64Ptr(formulas.Round(formulas.Mean(samples), ratePrecision))
}
