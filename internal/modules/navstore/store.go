// Package navstore holds per-instrument NAV series and answers date-indexed
// "as-of" lookups over them. Series are sparse calendar series: weekends and
// holidays leave gaps, and the last known value carries forward. Absence of
// data is a first-class result, never an error.
package navstore

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kanungos/fundgrid/internal/domain"
)

// Store is the in-memory NAV series store. Series are rebuilt on ingestion
// and handed out as copies, so readers never observe in-place mutation.
type Store struct {
	mu     sync.RWMutex
	series map[string][]domain.NavPoint
	log    zerolog.Logger
}

// New creates an empty store.
func New(log zerolog.Logger) *Store {
	return &Store{
		series: make(map[string][]domain.NavPoint),
		log:    log.With().Str("component", "navstore").Logger(),
	}
}

// Ingest merges points into the stored series for an instrument,
// de-duplicating by date (last write wins) and keeping the series sorted
// ascending. Non-positive values are rejected and counted, not stored.
// Returns the number of points accepted.
func (s *Store) Ingest(instrumentID string, points []domain.NavPoint) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	byDate := make(map[time.Time]float64, len(s.series[instrumentID])+len(points))
	for _, p := range s.series[instrumentID] {
		byDate[p.Date] = p.Value
	}

	accepted := 0
	rejected := 0
	for _, p := range points {
		if p.Value <= 0 {
			rejected++
			continue
		}
		byDate[domain.DateOnly(p.Date)] = p.Value
		accepted++
	}

	merged := make([]domain.NavPoint, 0, len(byDate))
	for d, v := range byDate {
		merged = append(merged, domain.NavPoint{Date: d, Value: v})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date.Before(merged[j].Date) })
	s.series[instrumentID] = merged

	if rejected > 0 {
		s.log.Debug().
			Str("instrument", instrumentID).
			Int("rejected", rejected).
			Msg("Rejected non-positive NAV values at ingestion")
	}

	return accepted
}

// Latest returns the most recent NavPoint for an instrument.
// The boolean is false when the series is empty.
func (s *Store) Latest(instrumentID string) (domain.NavPoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series := s.series[instrumentID]
	if len(series) == 0 {
		return domain.NavPoint{}, false
	}
	return series[len(series)-1], true
}

// AsOf returns the NavPoint with the greatest date <= the requested date.
// This is the calendar-gap-tolerant lookup: the last known value carries
// forward, with no interpolation. The boolean is false when no point exists
// at or before the date.
func (s *Store) AsOf(instrumentID string, date time.Time) (domain.NavPoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series := s.series[instrumentID]
	if len(series) == 0 {
		return domain.NavPoint{}, false
	}

	day := domain.DateOnly(date)
	// First index whose date is strictly after the requested day.
	idx := sort.Search(len(series), func(i int) bool {
		return series[i].Date.After(day)
	})
	if idx == 0 {
		return domain.NavPoint{}, false
	}
	return series[idx-1], true
}

// Series returns a copy of the stored series for an instrument, ascending by date.
func (s *Store) Series(instrumentID string) []domain.NavPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series := s.series[instrumentID]
	out := make([]domain.NavPoint, len(series))
	copy(out, series)
	return out
}

// Len returns the number of stored points for an instrument.
func (s *Store) Len(instrumentID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.series[instrumentID])
}

// Instruments returns the ids of all instruments with at least one point.
func (s *Store) Instruments() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.series))
	for id, points := range s.series {
		if len(points) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Clear drops all stored series. Used when a processing cycle rebuilds the
// store from scratch.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series = make(map[string][]domain.NavPoint)
}
