// fundgrid server: daily NAV refresh pipeline plus the HTTP API over its
// latest results.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/kanungos/fundgrid/internal/clientcache"
	"github.com/kanungos/fundgrid/internal/clients/mfapi"
	"github.com/kanungos/fundgrid/internal/config"
	"github.com/kanungos/fundgrid/internal/database"
	"github.com/kanungos/fundgrid/internal/modules/exitload"
	"github.com/kanungos/fundgrid/internal/modules/grid"
	"github.com/kanungos/fundgrid/internal/modules/navstore"
	"github.com/kanungos/fundgrid/internal/modules/peers"
	"github.com/kanungos/fundgrid/internal/modules/portfolio"
	"github.com/kanungos/fundgrid/internal/modules/returns"
	"github.com/kanungos/fundgrid/internal/modules/risk"
	"github.com/kanungos/fundgrid/internal/modules/scoring"
	"github.com/kanungos/fundgrid/internal/modules/universe"
	"github.com/kanungos/fundgrid/internal/pipeline"
	"github.com/kanungos/fundgrid/internal/scheduler"
	"github.com/kanungos/fundgrid/internal/server"
	"github.com/kanungos/fundgrid/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting fundgrid")

	// Persistent NAV history: flat snapshots so a restart serves data
	// before the first refresh completes.
	historyDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "nav_history.db"),
		Profile: database.ProfileStandard,
		Name:    "history",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer historyDB.Close()

	// Fetch cache: same-day re-fetch avoidance, safe to delete anytime.
	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "fetch_cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	history, err := navstore.NewRepository(historyDB.Conn(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize history repository")
	}
	cacheRepo, err := clientcache.NewRepository(cacheDB.Conn())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize fetch cache repository")
	}

	apiClient := mfapi.NewClient(cfg.NavAPIBaseURL, cfg.BulkNavURL, cfg.FetchTimeout, cfg.FetchRetries, cfg.FetchBackoff, log)
	source := clientcache.NewCachingFetcher(apiClient, cacheRepo, clientcache.TTLNavSeries, log)

	store := navstore.New(log)
	calc := returns.NewCalculator(store, log)
	riskMetrics := risk.NewMetrics(store, log)
	peerEngine := peers.NewEngine(log)
	scorer := scoring.NewEngine(cfg.Analytics, log)
	builder := grid.NewBuilder(store, calc, riskMetrics, peerEngine, scorer, cfg.Analytics, log)
	valuator := portfolio.NewValuator(store, calc, exitload.NewEngine(log), cfg.Analytics, log)

	pipe := pipeline.New(cfg, source, store, history, universe.NewLoader(log), portfolio.NewLoader(log), builder, valuator, log)

	if err := pipe.Restore(); err != nil {
		log.Warn().Err(err).Msg("Failed to restore persisted NAV history")
	}

	state := server.NewState()
	refreshJob := scheduler.NewRefreshJob(pipe, state, 30*time.Minute, log)

	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.RefreshSchedule, refreshJob); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.RefreshSchedule).Msg("Failed to register refresh job")
	}
	sched.Start()
	defer sched.Stop()

	// Initial refresh in the background so the API comes up immediately.
	go func() {
		if err := sched.RunNow(refreshJob); err != nil {
			log.Error().Err(err).Msg("Initial refresh failed")
		}
		if purged, err := cacheRepo.PurgeExpired(); err == nil && purged > 0 {
			log.Info().Int64("purged", purged).Msg("Purged expired fetch cache entries")
		}
		// A full refresh rewrites most of the history; truncate the WAL
		// so it does not grow across daily cycles.
		if err := historyDB.WALCheckpoint(""); err != nil {
			log.Warn().Err(err).Msg("WAL checkpoint failed")
		}
	}()

	srv := server.New(cfg, state, log, historyDB, cacheDB)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server stopped")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
