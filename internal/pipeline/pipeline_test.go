package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/kanungos/fundgrid/internal/config"
	"github.com/kanungos/fundgrid/internal/domain"
	"github.com/kanungos/fundgrid/internal/modules/exitload"
	"github.com/kanungos/fundgrid/internal/modules/grid"
	"github.com/kanungos/fundgrid/internal/modules/navstore"
	"github.com/kanungos/fundgrid/internal/modules/peers"
	"github.com/kanungos/fundgrid/internal/modules/portfolio"
	"github.com/kanungos/fundgrid/internal/modules/returns"
	"github.com/kanungos/fundgrid/internal/modules/risk"
	"github.com/kanungos/fundgrid/internal/modules/scoring"
	"github.com/kanungos/fundgrid/internal/modules/universe"
)

// stubSource serves a deterministic rising series per instrument, failing
// the ids listed in fail.
type stubSource struct {
	fail map[string]bool
}

func (s *stubSource) FetchSeries(_ context.Context, id string) ([]domain.NavPoint, error) {
	if s.fail[id] {
		return nil, fmt.Errorf("upstream unavailable for %s", id)
	}
	points := make([]domain.NavPoint, 0, 60)
	day := time.Now().UTC().AddDate(0, 0, -420)
	value := 100.0
	for i := 0; i < 60; i++ {
		points = append(points, domain.NavPoint{Date: domain.DateOnly(day), Value: value})
		day = day.AddDate(0, 0, 7)
		value += 1
	}
	return points, nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func testPipeline(t *testing.T, cfg *config.Config, source NavSource, history *navstore.Repository) (*Pipeline, *navstore.Store) {
	t.Helper()
	log := zerolog.Nop()
	store := navstore.New(log)
	calc := returns.NewCalculator(store, log)
	builder := grid.NewBuilder(store, calc, risk.NewMetrics(store, log), peers.NewEngine(log), scoring.NewEngine(cfg.Analytics, log), cfg.Analytics, log)
	valuator := portfolio.NewValuator(store, calc, exitload.NewEngine(log), cfg.Analytics, log)
	p := New(cfg, source, store, history, universe.NewLoader(log), portfolio.NewLoader(log), builder, valuator, log)
	return p, store
}

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		DataDir:        dir,
		MasterListPath: filepath.Join(dir, "master_list.csv"),
		HoldingsPath:   filepath.Join(dir, "holdings.csv"),
		FetchWorkers:   4,
		LookbackDays:   1460,
		Analytics: config.AnalyticsConfig{
			Windows:           config.DefaultWindows(),
			ScoreWeights:      map[string]float64{"1M": 25, "3M": 25, "1Y": 20, "3Y": 20},
			RollingWindows:    []string{"1Y", "3Y"},
			VolatilityWindow:  365,
			VolatilityPenalty: 80,
			TopQuartileBonus:  5,
			ConsistencyScale:  10,
			DropAlertPercent:  -5,
			MomentumWindows:   []string{"1M", "3M", "6M"},
			RankWindow:        "1Y",
		},
	}
}

const masterCSV = `scheme_code,scheme_name,scheme_category,scheme_status
A,Alpha Fund,Large Cap,Active
B,Beta Fund,Large Cap,Active
C,Gone Fund,Mid Cap,Discontinued
`

func TestRun(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, cfg.MasterListPath, masterCSV)
	writeFile(t, cfg.HoldingsPath,
		"instrument_id,units,purchase_price,purchase_date\nA,100,50,2024-01-15\n")

	p, store := testPipeline(t, cfg, &stubSource{}, nil)

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	// Discontinued C is not fetched
	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 0, result.Failed)
	assert.Len(t, result.Rows, 2)
	assert.Equal(t, 2, len(store.Instruments()))

	require.NotNil(t, result.Snapshot)
	require.Len(t, result.Snapshot.Holdings, 1)
	assert.Equal(t, "Alpha Fund", result.Snapshot.Holdings[0].Name)
	assert.Greater(t, result.Snapshot.TotalCurrentValue, 0.0)
}

func TestRun_FetchFailureDegrades(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, cfg.MasterListPath, masterCSV)

	p, _ := testPipeline(t, cfg, &stubSource{fail: map[string]bool{"B": true}}, nil)

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Fetched)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []string{"B"}, result.FailedIDs)
	// B has no data and is dropped from the grid, not errored
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "A", result.Rows[0].InstrumentID)
}

func TestRun_MissingMasterListAborts(t *testing.T) {
	cfg := testConfig(t)

	p, _ := testPipeline(t, cfg, &stubSource{}, nil)
	_, err := p.Run(context.Background())
	assert.Error(t, err)
}

func TestRun_BadHoldingsHeaderAborts(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, cfg.MasterListPath, masterCSV)
	writeFile(t, cfg.HoldingsPath, "instrument_id,units\nA,100\n")

	p, _ := testPipeline(t, cfg, &stubSource{}, nil)
	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsConfigurationError(err))
}

func TestRun_NoHoldingsFileSkipsPortfolio(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, cfg.MasterListPath, masterCSV)

	p, _ := testPipeline(t, cfg, &stubSource{}, nil)
	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Nil(t, result.Snapshot)
}

func TestRunAndRestore_PersistedHistory(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, cfg.MasterListPath, masterCSV)

	db, err := sql.Open("sqlite", filepath.Join(cfg.DataDir, "history.db"))
	require.NoError(t, err)
	defer db.Close()
	history, err := navstore.NewRepository(db, zerolog.Nop())
	require.NoError(t, err)

	p, _ := testPipeline(t, cfg, &stubSource{}, history)
	_, err = p.Run(context.Background())
	require.NoError(t, err)

	// A fresh pipeline over the same database restores the series without
	// touching the network.
	p2, store2 := testPipeline(t, cfg, &stubSource{fail: map[string]bool{"A": true, "B": true}}, history)
	require.NoError(t, p2.Restore())
	assert.Equal(t, []string{"A", "B"}, store2.Instruments())
	assert.Equal(t, 60, store2.Len("A"))
}
