// Package grid assembles the per-instrument output rows: identity, latest
// NAV, window returns, risk measures, peer standing and composite score.
package grid

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/kanungos/fundgrid/internal/config"
	"github.com/kanungos/fundgrid/internal/domain"
	"github.com/kanungos/fundgrid/internal/modules/peers"
	"github.com/kanungos/fundgrid/internal/modules/returns"
	"github.com/kanungos/fundgrid/internal/modules/risk"
	"github.com/kanungos/fundgrid/internal/modules/scoring"
	"github.com/kanungos/fundgrid/internal/modules/universe"
	"github.com/kanungos/fundgrid/pkg/formulas"
)

// Row is one instrument's line in the output grid.
type Row struct {
	InstrumentID string `json:"instrument_id"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	SectorTheme  string `json:"sector_theme"`

	LatestNav float64 `json:"latest_nav"`
	NavDate   string  `json:"nav_date"`

	Returns         map[string]*float64 `json:"returns"`
	RollingAverages map[string]*float64 `json:"rolling_averages"`

	Volatility  *float64    `json:"volatility"`
	MaxDrawdown *float64    `json:"max_drawdown"`
	RiskBucket  risk.Bucket `json:"risk_bucket"`

	CategoryRanking peers.Ranking `json:"category_ranking"`
	SectorRanking   peers.Ranking `json:"sector_ranking"`

	Score float64 `json:"score"`
}

// Builder assembles grid rows from the analytics modules.
type Builder struct {
	store     returns.SeriesReader
	calc      *returns.Calculator
	risk      *risk.Metrics
	peers     *peers.Engine
	scorer    *scoring.Engine
	analytics config.AnalyticsConfig
	log       zerolog.Logger
}

// NewBuilder creates a grid builder.
func NewBuilder(store returns.SeriesReader, calc *returns.Calculator, riskMetrics *risk.Metrics, peerEngine *peers.Engine, scorer *scoring.Engine, analytics config.AnalyticsConfig, log zerolog.Logger) *Builder {
	return &Builder{
		store:     store,
		calc:      calc,
		risk:      riskMetrics,
		peers:     peerEngine,
		scorer:    scorer,
		analytics: analytics,
		log:       log.With().Str("component", "grid").Logger(),
	}
}

// Build produces one row per instrument with NAV data. Instruments with an
// empty series are skipped and logged, not errored. Rows come back sorted
// by canonical category order, then name.
func (b *Builder) Build(instruments []domain.Instrument) []Row {
	rows := make([]Row, 0, len(instruments))

	for _, in := range instruments {
		latest, ok := b.store.Latest(in.ID)
		if !ok {
			b.log.Debug().Str("instrument", in.ID).Msg("Skipping instrument with no NAV data")
			continue
		}

		row := Row{
			InstrumentID:    in.ID,
			Name:            in.Name,
			Category:        in.Category,
			SectorTheme:     in.SectorTheme,
			LatestNav:       latest.Value,
			NavDate:         latest.Date.Format("2006-01-02"),
			Returns:         make(map[string]*float64, len(b.analytics.Windows)),
			RollingAverages: make(map[string]*float64, len(b.analytics.RollingWindows)),
		}

		for _, w := range b.analytics.Windows {
			row.Returns[w.Label] = b.calc.TrailingReturn(in.ID, w.Days)
		}
		for _, label := range b.analytics.RollingWindows {
			if days, ok := b.analytics.WindowDays(label); ok {
				row.RollingAverages[label] = b.calc.RollingReturnAverage(in.ID, days)
			}
		}

		row.Volatility = b.risk.Volatility(in.ID, b.analytics.VolatilityWindow)
		row.MaxDrawdown = b.risk.MaxDrawdown(in.ID)
		row.RiskBucket = risk.RiskBucket(row.Volatility, row.MaxDrawdown)

		rows = append(rows, row)
	}

	b.rankPeers(rows)

	for i := range rows {
		rows[i].Score = b.scorer.Composite(scoring.Inputs{
			Returns:          rows[i].Returns,
			Volatility:       rows[i].Volatility,
			CategoryQuartile: rows[i].CategoryRanking.Quartile,
			RollingAverages:  rows[i].RollingAverages,
		})
	}

	// Ranking and scoring ran on the 4-decimal figures; what leaves the
	// grid is display precision.
	for i := range rows {
		roundForDisplay(rows[i].Returns)
		roundForDisplay(rows[i].RollingAverages)
	}

	sort.Slice(rows, func(i, j int) bool {
		ri, rj := universe.CategoryRank(rows[i].Category), universe.CategoryRank(rows[j].Category)
		if ri != rj {
			return ri < rj
		}
		return rows[i].Name < rows[j].Name
	})

	b.log.Info().Int("rows", len(rows)).Int("instruments", len(instruments)).Msg("Built instrument grid")
	return rows
}

// roundForDisplay rounds percent figures to the 2-decimal display
// precision. Nil cells stay nil.
func roundForDisplay(m map[string]*float64) {
	for label, v := range m {
		if v != nil {
			m[label] = domain.Float64Ptr(formulas.Round(*v, 2))
		}
	}
}

// rankPeers groups rows by category and by sector theme on the rank-window
// return and writes the peer fields back onto each row.
func (b *Builder) rankPeers(rows []Row) {
	byCategory := make(map[string][]peers.Member)
	bySector := make(map[string][]peers.Member)
	for _, row := range rows {
		metric := row.Returns[b.analytics.RankWindow]
		byCategory[row.Category] = append(byCategory[row.Category], peers.Member{ID: row.InstrumentID, Metric: metric})
		bySector[row.SectorTheme] = append(bySector[row.SectorTheme], peers.Member{ID: row.InstrumentID, Metric: metric})
	}

	categoryRankings := make(map[string]peers.Ranking)
	for _, members := range byCategory {
		for id, r := range b.peers.RankGroup(members, peers.CategoryTags()) {
			categoryRankings[id] = r
		}
	}
	sectorRankings := make(map[string]peers.Ranking)
	for _, members := range bySector {
		for id, r := range b.peers.RankGroup(members, peers.SectorTags()) {
			sectorRankings[id] = r
		}
	}

	for i := range rows {
		rows[i].CategoryRanking = categoryRankings[rows[i].InstrumentID]
		rows[i].SectorRanking = sectorRankings[rows[i].InstrumentID]
	}
}

// Validate checks the assembled grid before it is handed to consumers: the
// grid must be non-empty and every row must carry a cell for every
// configured return window.
func (b *Builder) Validate(rows []Row) error {
	if len(rows) == 0 {
		return fmt.Errorf("grid is empty, no instruments had NAV data")
	}
	for _, row := range rows {
		for _, w := range b.analytics.Windows {
			if _, ok := row.Returns[w.Label]; !ok {
				return fmt.Errorf("row %s is missing return column %s", row.InstrumentID, w.Label)
			}
		}
	}
	return nil
}
