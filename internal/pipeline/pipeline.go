// Package pipeline drives one refresh cycle: fetch NAV series for the
// active universe, rebuild the series store, assemble the instrument grid
// and value the portfolio. A cycle is fork-join: fetches run on a bounded
// worker pool, everything downstream is sequential over the joined results.
package pipeline

import (
	"context"
	"errors"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kanungos/fundgrid/internal/config"
	"github.com/kanungos/fundgrid/internal/domain"
	"github.com/kanungos/fundgrid/internal/modules/grid"
	"github.com/kanungos/fundgrid/internal/modules/navstore"
	"github.com/kanungos/fundgrid/internal/modules/portfolio"
	"github.com/kanungos/fundgrid/internal/modules/universe"
)

// NavSource is the acquisition dependency. The pipeline is agnostic to
// whether series come from the network, a cache or a file.
type NavSource interface {
	FetchSeries(ctx context.Context, instrumentID string) ([]domain.NavPoint, error)
}

// RunResult summarizes one refresh cycle.
type RunResult struct {
	RunID     string                   `json:"run_id"`
	StartedAt time.Time                `json:"started_at"`
	Duration  time.Duration            `json:"duration"`
	Fetched   int                      `json:"fetched"`
	Failed    int                      `json:"failed"`
	FailedIDs []string                 `json:"failed_ids,omitempty"`
	Rows      []grid.Row               `json:"rows"`
	Snapshot  *portfolio.Snapshot      `json:"snapshot,omitempty"`
	Alerts    []portfolio.AlertPayload `json:"alerts,omitempty"`
}

// Pipeline wires the acquisition, storage and analytics stages.
type Pipeline struct {
	cfg      *config.Config
	source   NavSource
	store    *navstore.Store
	history  *navstore.Repository
	universe *universe.Loader
	holdings *portfolio.Loader
	builder  *grid.Builder
	valuator *portfolio.Valuator
	log      zerolog.Logger
}

// New creates a pipeline. history may be nil to disable persistence.
func New(cfg *config.Config, source NavSource, store *navstore.Store, history *navstore.Repository, universeLoader *universe.Loader, holdingsLoader *portfolio.Loader, builder *grid.Builder, valuator *portfolio.Valuator, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		source:   source,
		store:    store,
		history:  history,
		universe: universeLoader,
		holdings: holdingsLoader,
		builder:  builder,
		valuator: valuator,
		log:      log.With().Str("component", "pipeline").Logger(),
	}
}

// fetchResult joins one worker's output back to its instrument.
type fetchResult struct {
	instrumentID string
	points       []domain.NavPoint
	err          error
}

// Run executes one refresh cycle. Per-instrument fetch failures degrade the
// grid, they do not abort the run; only configuration errors do.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	started := time.Now()
	result := &RunResult{
		RunID:     uuid.New().String(),
		StartedAt: started,
	}
	log := p.log.With().Str("run_id", result.RunID).Logger()

	instruments, err := p.universe.LoadFile(p.cfg.MasterListPath)
	if err != nil {
		return nil, err
	}
	active := universe.ActiveOnly(instruments)
	log.Info().Int("active", len(active)).Int("total", len(instruments)).Msg("Starting refresh cycle")

	for _, fr := range p.fetchAll(ctx, active) {
		if fr.err != nil {
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, fr.instrumentID)
			log.Warn().Err(fr.err).Str("instrument", fr.instrumentID).Msg("Fetch failed, instrument degraded")
			continue
		}
		result.Fetched++
		p.store.Ingest(fr.instrumentID, fr.points)
		if p.history != nil {
			if err := p.history.SaveSeries(fr.instrumentID, fr.points); err != nil {
				log.Warn().Err(err).Str("instrument", fr.instrumentID).Msg("Failed to persist series snapshot")
			}
		}
	}
	sort.Strings(result.FailedIDs)

	if p.history != nil {
		cutoff := time.Now().AddDate(0, 0, -p.cfg.LookbackDays)
		if _, err := p.history.DeleteOlderThan(cutoff); err != nil {
			log.Warn().Err(err).Msg("Failed to trim persisted history")
		}
	}

	result.Rows = p.builder.Build(active)
	if err := p.builder.Validate(result.Rows); err != nil {
		log.Warn().Err(err).Msg("Grid validation failed")
	}

	if err := p.valuatePortfolio(result, log); err != nil {
		return nil, err
	}

	result.Duration = time.Since(started)
	log.Info().
		Int("fetched", result.Fetched).
		Int("failed", result.Failed).
		Int("rows", len(result.Rows)).
		Dur("duration", result.Duration).
		Msg("Refresh cycle complete")
	return result, nil
}

// Restore refills the in-memory store from persisted history. Used at
// startup so the API can serve stale-but-present data before the first
// refresh completes.
func (p *Pipeline) Restore() error {
	if p.history == nil {
		return nil
	}

	series, err := p.history.LoadAll()
	if err != nil {
		return err
	}
	for id, points := range series {
		p.store.Ingest(id, points)
	}
	p.log.Info().Int("instruments", len(series)).Msg("Restored NAV series from snapshot")
	return nil
}

// fetchAll fans instrument fetches out over a bounded worker pool and joins
// the results in input order.
func (p *Pipeline) fetchAll(ctx context.Context, instruments []domain.Instrument) []fetchResult {
	results := make([]fetchResult, len(instruments))
	jobs := make(chan int)

	workers := p.cfg.FetchWorkers
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				points, err := p.source.FetchSeries(ctx, instruments[i].ID)
				results[i] = fetchResult{instrumentID: instruments[i].ID, points: points, err: err}
			}
		}()
	}

	for i := range instruments {
		select {
		case <-ctx.Done():
			for j := i; j < len(instruments); j++ {
				results[j] = fetchResult{instrumentID: instruments[j].ID, err: ctx.Err()}
			}
			close(jobs)
			wg.Wait()
			return results
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

// valuatePortfolio loads and values holdings. A missing holdings file means
// the deployment tracks no portfolio; a malformed file degrades; a missing
// required column is a configuration error and aborts the run.
func (p *Pipeline) valuatePortfolio(result *RunResult, log zerolog.Logger) error {
	lots, err := p.holdings.LoadFile(p.cfg.HoldingsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Info().Str("path", p.cfg.HoldingsPath).Msg("No holdings file, skipping portfolio valuation")
			return nil
		}
		if domain.IsConfigurationError(err) {
			return err
		}
		log.Warn().Err(err).Msg("Failed to load holdings, skipping portfolio valuation")
		return nil
	}
	if len(lots) == 0 {
		return nil
	}

	byID := make(map[string]domain.Instrument)
	for _, row := range result.Rows {
		byID[row.InstrumentID] = domain.Instrument{
			ID:          row.InstrumentID,
			Name:        row.Name,
			Category:    row.Category,
			SectorTheme: row.SectorTheme,
		}
	}

	snapshot, alerts := p.valuator.Valuate(portfolio.Aggregate(lots), byID, time.Now())
	result.Snapshot = &snapshot
	result.Alerts = alerts
	return nil
}
