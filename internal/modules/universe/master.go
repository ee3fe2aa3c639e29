// Package universe loads the instrument master list and derives the
// classification fields the analytics modules group on: sector theme and
// canonical category order.
package universe

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kanungos/fundgrid/internal/domain"
)

var requiredColumns = []string{"scheme_code", "scheme_name", "scheme_category", "scheme_status"}

// Loader reads the instrument master list.
type Loader struct {
	log zerolog.Logger
}

// NewLoader creates a master-list loader.
func NewLoader(log zerolog.Logger) *Loader {
	return &Loader{log: log.With().Str("component", "universe").Logger()}
}

// LoadFile reads the master list from a CSV file on disk.
func (l *Loader) LoadFile(path string) ([]domain.Instrument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open master list %s: %w", path, err)
	}
	defer f.Close()
	return l.Load(f, path)
}

// Load parses master-list CSV records. A missing required column is a
// ConfigurationError; malformed data rows are skipped and counted. Sector
// themes are derived from the scheme name, they are not an input column.
func (l *Loader) Load(r io.Reader, source string) ([]domain.Instrument, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read master list header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range requiredColumns {
		if _, ok := col[required]; !ok {
			return nil, &domain.ConfigurationError{Source: source, Field: required}
		}
	}

	var instruments []domain.Instrument
	skipped := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		id := strings.TrimSpace(record[col["scheme_code"]])
		name := strings.TrimSpace(record[col["scheme_name"]])
		if id == "" || name == "" {
			skipped++
			continue
		}

		instruments = append(instruments, domain.Instrument{
			ID:          id,
			Name:        name,
			Category:    strings.TrimSpace(record[col["scheme_category"]]),
			SectorTheme: DetectSectorTheme(name),
			Status:      parseStatus(record[col["scheme_status"]]),
		})
	}

	if skipped > 0 {
		l.log.Warn().Int("skipped", skipped).Str("source", source).Msg("Skipped malformed master list rows")
	}
	l.log.Info().Int("instruments", len(instruments)).Str("source", source).Msg("Loaded master list")
	return instruments, nil
}

// ActiveOnly filters the master list down to instruments still tracked
// upstream.
func ActiveOnly(instruments []domain.Instrument) []domain.Instrument {
	active := make([]domain.Instrument, 0, len(instruments))
	for _, in := range instruments {
		if in.Status == domain.StatusActive {
			active = append(active, in)
		}
	}
	return active
}

func parseStatus(raw string) domain.InstrumentStatus {
	if strings.EqualFold(strings.TrimSpace(raw), string(domain.StatusActive)) {
		return domain.StatusActive
	}
	return domain.StatusDiscontinued
}
