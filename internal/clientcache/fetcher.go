package clientcache

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/kanungos/fundgrid/internal/domain"
)

// SeriesFetcher is the upstream the cache wraps.
type SeriesFetcher interface {
	FetchSeries(ctx context.Context, instrumentID string) ([]domain.NavPoint, error)
}

// CachingFetcher serves series from the cache when fresh and falls through
// to the upstream otherwise. A cache read or write failure is logged and
// degrades to a plain fetch, it never fails the run.
type CachingFetcher struct {
	upstream SeriesFetcher
	repo     *Repository
	ttl      time.Duration
	log      zerolog.Logger
}

// NewCachingFetcher wraps an upstream fetcher with the cache repository.
func NewCachingFetcher(upstream SeriesFetcher, repo *Repository, ttl time.Duration, log zerolog.Logger) *CachingFetcher {
	return &CachingFetcher{
		upstream: upstream,
		repo:     repo,
		ttl:      ttl,
		log:      log.With().Str("component", "clientcache").Logger(),
	}
}

// FetchSeries implements SeriesFetcher.
func (f *CachingFetcher) FetchSeries(ctx context.Context, instrumentID string) ([]domain.NavPoint, error) {
	cached, err := f.repo.GetIfFresh(instrumentID)
	if err != nil {
		f.log.Warn().Err(err).Str("instrument", instrumentID).Msg("Cache read failed, fetching upstream")
	} else if cached != nil {
		f.log.Debug().Str("instrument", instrumentID).Int("points", len(cached)).Msg("Cache hit")
		return cached, nil
	}

	points, err := f.upstream.FetchSeries(ctx, instrumentID)
	if err != nil {
		return nil, err
	}

	if err := f.repo.StoreSeries(instrumentID, points, f.ttl); err != nil {
		f.log.Warn().Err(err).Str("instrument", instrumentID).Msg("Failed to cache fetched series")
	}
	return points, nil
}
