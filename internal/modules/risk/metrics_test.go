package risk

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanungos/fundgrid/internal/domain"
	"github.com/kanungos/fundgrid/internal/modules/navstore"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func setup(points ...domain.NavPoint) *Metrics {
	store := navstore.New(zerolog.Nop())
	store.Ingest("X", points)
	return NewMetrics(store, zerolog.Nop())
}

func TestVolatility(t *testing.T) {
	// Changes: +10%, -10%, +10%
	m := setup(
		domain.NavPoint{Date: date("2024-01-01"), Value: 100},
		domain.NavPoint{Date: date("2024-01-02"), Value: 110},
		domain.NavPoint{Date: date("2024-01-03"), Value: 99},
		domain.NavPoint{Date: date("2024-01-04"), Value: 108.9},
	)

	vol := m.Volatility("X", 365)
	require.NotNil(t, vol)
	assert.Greater(t, *vol, 0.0)
}

func TestVolatility_WindowRestriction(t *testing.T) {
	// Wild swing outside the window must not affect the result.
	m := setup(
		domain.NavPoint{Date: date("2020-01-01"), Value: 10},
		domain.NavPoint{Date: date("2020-01-02"), Value: 100},
		domain.NavPoint{Date: date("2024-01-01"), Value: 100},
		domain.NavPoint{Date: date("2024-01-02"), Value: 100},
		domain.NavPoint{Date: date("2024-01-03"), Value: 100},
	)

	vol := m.Volatility("X", 30)
	require.NotNil(t, vol)
	assert.Equal(t, 0.0, *vol)
}

func TestVolatility_TooFewChanges(t *testing.T) {
	m := setup(
		domain.NavPoint{Date: date("2024-01-01"), Value: 100},
		domain.NavPoint{Date: date("2024-01-02"), Value: 101},
	)

	assert.Nil(t, m.Volatility("X", 365))
	assert.Nil(t, m.Volatility("missing", 365))
}

func TestMaxDrawdown(t *testing.T) {
	m := setup(
		domain.NavPoint{Date: date("2024-01-01"), Value: 100},
		domain.NavPoint{Date: date("2024-01-02"), Value: 120},
		domain.NavPoint{Date: date("2024-01-03"), Value: 90},
		domain.NavPoint{Date: date("2024-01-04"), Value: 110},
	)

	dd := m.MaxDrawdown("X")
	require.NotNil(t, dd)
	assert.InDelta(t, -0.25, *dd, 1e-9)
}

func TestMaxDrawdown_NoDecline(t *testing.T) {
	m := setup(
		domain.NavPoint{Date: date("2024-01-01"), Value: 100},
		domain.NavPoint{Date: date("2024-01-02"), Value: 105},
	)

	dd := m.MaxDrawdown("X")
	require.NotNil(t, dd)
	assert.Equal(t, 0.0, *dd)
}

func TestMaxDrawdown_EmptySeries(t *testing.T) {
	m := setup()
	assert.Nil(t, m.MaxDrawdown("X"))
}

func TestRiskBucket(t *testing.T) {
	tests := []struct {
		name string
		vol  *float64
		dd   *float64
		want Bucket
	}{
		{"nil volatility defaults to medium", nil, domain.Float64Ptr(-0.5), BucketMedium},
		{"low", domain.Float64Ptr(0.005), domain.Float64Ptr(-0.05), BucketLow},
		{"medium", domain.Float64Ptr(0.02), domain.Float64Ptr(-0.15), BucketMedium},
		{"high volatility", domain.Float64Ptr(0.05), domain.Float64Ptr(-0.05), BucketHigh},
		{"deep drawdown", domain.Float64Ptr(0.005), domain.Float64Ptr(-0.30), BucketHigh},
		{"low vol but moderate drawdown", domain.Float64Ptr(0.005), domain.Float64Ptr(-0.15), BucketMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RiskBucket(tt.vol, tt.dd))
		})
	}
}
