package grid

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanungos/fundgrid/internal/config"
	"github.com/kanungos/fundgrid/internal/domain"
	"github.com/kanungos/fundgrid/internal/modules/navstore"
	"github.com/kanungos/fundgrid/internal/modules/peers"
	"github.com/kanungos/fundgrid/internal/modules/returns"
	"github.com/kanungos/fundgrid/internal/modules/risk"
	"github.com/kanungos/fundgrid/internal/modules/scoring"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func analyticsConfig() config.AnalyticsConfig {
	return config.AnalyticsConfig{
		Windows:           config.DefaultWindows(),
		ScoreWeights:      map[string]float64{"1M": 25, "3M": 25, "1Y": 20, "3Y": 20},
		RollingWindows:    []string{"1Y", "3Y"},
		VolatilityWindow:  365,
		VolatilityPenalty: 80,
		TopQuartileBonus:  5,
		ConsistencyScale:  10,
		RankWindow:        "1Y",
	}
}

func newBuilder(store *navstore.Store) *Builder {
	log := zerolog.Nop()
	cfg := analyticsConfig()
	calc := returns.NewCalculator(store, log)
	return NewBuilder(store, calc, risk.NewMetrics(store, log), peers.NewEngine(log), scoring.NewEngine(cfg, log), cfg, log)
}

// seed ingests a year of weekly points ending 2024-06-27, scaled so the
// 1Y trailing return differs per instrument.
func seed(store *navstore.Store, id string, growth float64) {
	points := make([]domain.NavPoint, 0, 60)
	day := date("2023-06-01")
	value := 100.0
	for day.Before(date("2024-07-02")) {
		points = append(points, domain.NavPoint{Date: day, Value: value})
		day = day.AddDate(0, 0, 7)
		value += growth
	}
	store.Ingest(id, points)
}

func TestBuild(t *testing.T) {
	store := navstore.New(zerolog.Nop())
	seed(store, "A", 2.0)
	seed(store, "B", 1.0)
	seed(store, "C", 0.5)

	instruments := []domain.Instrument{
		{ID: "A", Name: "Alpha", Category: "Large Cap", SectorTheme: "Diversified"},
		{ID: "B", Name: "Beta", Category: "Large Cap", SectorTheme: "Diversified"},
		{ID: "C", Name: "Gamma", Category: "Liquid Fund", SectorTheme: "Diversified"},
		{ID: "D", Name: "Delta", Category: "Mid Cap", SectorTheme: "Diversified"},
	}

	b := newBuilder(store)
	rows := b.Build(instruments)

	// D has no NAV data and is skipped, not errored
	require.Len(t, rows, 3)

	// Category order: Large Cap rows first, then Liquid Fund; names break ties
	assert.Equal(t, "A", rows[0].InstrumentID)
	assert.Equal(t, "B", rows[1].InstrumentID)
	assert.Equal(t, "C", rows[2].InstrumentID)

	a := rows[0]
	assert.Equal(t, "2024-06-27", a.NavDate)
	require.Contains(t, a.Returns, "1Y")
	require.NotNil(t, a.Returns["1Y"])
	assert.Greater(t, *a.Returns["1Y"], 0.0)
	assert.NotNil(t, a.Volatility)
	assert.NotNil(t, a.MaxDrawdown)
	assert.NotEmpty(t, a.RiskBucket)

	// A outgrew B inside the same category group
	require.NotNil(t, a.CategoryRanking.Rank)
	assert.Equal(t, 1, *a.CategoryRanking.Rank)
	assert.Equal(t, 2, a.CategoryRanking.GroupSize)
	require.NotNil(t, rows[1].CategoryRanking.Rank)
	assert.Equal(t, 2, *rows[1].CategoryRanking.Rank)

	// All three share the sector group
	assert.Equal(t, 3, a.SectorRanking.GroupSize)

	assert.Greater(t, a.Score, rows[1].Score)

	require.NoError(t, b.Validate(rows))
}

func TestBuild_ReturnsRoundedForDisplay(t *testing.T) {
	store := navstore.New(zerolog.Nop())
	store.Ingest("A", []domain.NavPoint{
		{Date: date("2024-05-28"), Value: 90},
		{Date: date("2024-06-27"), Value: 93.3333},
	})

	b := newBuilder(store)
	rows := b.Build([]domain.Instrument{{ID: "A", Name: "Alpha", Category: "Large Cap"}})
	require.Len(t, rows, 1)

	// Raw 1M return is 3.7037; the grid shows 3.70
	ret := rows[0].Returns["1M"]
	require.NotNil(t, ret)
	assert.Equal(t, 3.7, *ret)
}

func TestBuild_EmptyStore(t *testing.T) {
	store := navstore.New(zerolog.Nop())
	b := newBuilder(store)

	rows := b.Build([]domain.Instrument{{ID: "A", Name: "Alpha", Category: "Large Cap"}})
	assert.Empty(t, rows)
	assert.Error(t, b.Validate(rows))
}

func TestValidate_MissingReturnColumn(t *testing.T) {
	store := navstore.New(zerolog.Nop())
	b := newBuilder(store)

	rows := []Row{{InstrumentID: "A", Returns: map[string]*float64{"1Y": nil}}}
	err := b.Validate(rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing return column")
}
