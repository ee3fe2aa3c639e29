// Package portfolio loads holding lots, aggregates them per instrument and
// values the aggregate against the NAV store, emitting deviation, exit-load
// figures and alert flags.
package portfolio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kanungos/fundgrid/internal/domain"
)

var requiredColumns = []string{"instrument_id", "units", "purchase_price", "purchase_date"}

// optional column carrying per-lot slab overrides, "cutoff:percent" pairs
// separated by semicolons, e.g. "90:0.25;365:1".
const slabColumn = "exit_load_slabs"

const purchaseDateLayout = "2006-01-02"

// Loader reads holding lots from CSV.
type Loader struct {
	log zerolog.Logger
}

// NewLoader creates a holdings loader.
func NewLoader(log zerolog.Logger) *Loader {
	return &Loader{log: log.With().Str("component", "portfolio").Logger()}
}

// LoadFile reads holdings from a CSV file on disk.
func (l *Loader) LoadFile(path string) ([]domain.HoldingLot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open holdings %s: %w", path, err)
	}
	defer f.Close()
	return l.Load(f, path)
}

// Load parses holding lot records. A missing required column is a
// ConfigurationError; malformed data rows are skipped and counted.
func (l *Loader) Load(r io.Reader, source string) ([]domain.HoldingLot, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read holdings header: %w", err)
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
	slabIdx, hasSlabs := col[slabColumn]

	var lots []domain.HoldingLot
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

		lot, err := parseLot(record, col)
		if err != nil {
			skipped++
			continue
		}
		if hasSlabs {
			lot.Slabs = parseSlabs(record[slabIdx])
		}
		lots = append(lots, lot)
	}

	if skipped > 0 {
		l.log.Warn().Int("skipped", skipped).Str("source", source).Msg("Skipped malformed holding rows")
	}
	l.log.Info().Int("lots", len(lots)).Str("source", source).Msg("Loaded holdings")
	return lots, nil
}

func parseLot(record []string, col map[string]int) (domain.HoldingLot, error) {
	id := strings.TrimSpace(record[col["instrument_id"]])
	if id == "" {
		return domain.HoldingLot{}, fmt.Errorf("empty instrument id")
	}

	units, err := strconv.ParseFloat(strings.TrimSpace(record[col["units"]]), 64)
	if err != nil || units <= 0 {
		return domain.HoldingLot{}, fmt.Errorf("invalid units %q", record[col["units"]])
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(record[col["purchase_price"]]), 64)
	if err != nil || price <= 0 {
		return domain.HoldingLot{}, fmt.Errorf("invalid purchase price %q", record[col["purchase_price"]])
	}

	purchased, err := time.Parse(purchaseDateLayout, strings.TrimSpace(record[col["purchase_date"]]))
	if err != nil {
		return domain.HoldingLot{}, fmt.Errorf("invalid purchase date %q: %w", record[col["purchase_date"]], err)
	}

	return domain.HoldingLot{
		InstrumentID:  id,
		Units:         units,
		PurchasePrice: price,
		PurchaseDate:  purchased,
	}, nil
}

// parseSlabs decodes "cutoff:percent;cutoff:percent" overrides. Malformed
// pairs are dropped; an empty or fully malformed cell means no override.
// Slabs come back sorted ascending by cutoff regardless of input order,
// which slab evaluation depends on.
func parseSlabs(raw string) []domain.Slab {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var slabs []domain.Slab
	for _, pair := range strings.Split(raw, ";") {
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			continue
		}
		cutoff, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil || cutoff <= 0 {
			continue
		}
		pct, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil || pct < 0 {
			continue
		}
		slabs = append(slabs, domain.Slab{DayCutoff: cutoff, Percent: pct})
	}
	sort.Slice(slabs, func(i, j int) bool { return slabs[i].DayCutoff < slabs[j].DayCutoff })
	return slabs
}
