// Package scoring blends window returns, volatility, peer standing and
// return consistency into a single composite momentum score per instrument.
//
// Unlike the return calculator, the score is a ranking heuristic rather
// than an exact financial figure, so missing inputs are skipped (they
// contribute zero) instead of nulling the whole score.
package scoring

import (
	"github.com/rs/zerolog"

	"github.com/kanungos/fundgrid/internal/config"
	"github.com/kanungos/fundgrid/internal/modules/peers"
	"github.com/kanungos/fundgrid/pkg/formulas"
)

// Inputs carries everything the composite score consumes for one instrument.
type Inputs struct {
	Returns          map[string]*float64 // window label -> trailing return percent
	Volatility       *float64            // day-over-day stddev, nil when unavailable
	CategoryQuartile string              // quartile label from category peer ranking
	RollingAverages  map[string]*float64 // window label -> rolling return average
}

// Engine computes composite momentum scores.
type Engine struct {
	cfg config.AnalyticsConfig
	log zerolog.Logger
}

// NewEngine creates a score engine with the given analytics configuration.
func NewEngine(cfg config.AnalyticsConfig, log zerolog.Logger) *Engine {
	return &Engine{
		cfg: cfg,
		log: log.With().Str("component", "scoring").Logger(),
	}
}

// Composite computes the weighted momentum score, rounded to 2 decimals.
func (e *Engine) Composite(in Inputs) float64 {
	score := 0.0

	// Weighted window blend. A nil return contributes zero; it does not
	// null the whole score.
	for label, weight := range e.cfg.ScoreWeights {
		if r := in.Returns[label]; r != nil {
			score += *r * weight / 100
		}
	}

	// Volatility penalty only when volatility is available.
	if in.Volatility != nil {
		score -= *in.Volatility * e.cfg.VolatilityPenalty
	}

	// Peer standing bonus.
	if in.CategoryQuartile == peers.TopQuartile {
		score += e.cfg.TopQuartileBonus
	}

	// Consistency term: mean of the available rolling averages, zero when
	// all are nil.
	available := make([]float64, 0, len(e.cfg.RollingWindows))
	for _, label := range e.cfg.RollingWindows {
		if avg := in.RollingAverages[label]; avg != nil {
			available = append(available, *avg)
		}
	}
	if len(available) > 0 {
		score += formulas.Mean(available) * e.cfg.ConsistencyScale
	}

	return formulas.Round(score, 2)
}
