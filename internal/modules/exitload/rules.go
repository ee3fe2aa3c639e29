// Package exitload maps instrument categories to redemption fee rules and
// evaluates slab tables against a holding period.
package exitload

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/kanungos/fundgrid/internal/domain"
	"github.com/kanungos/fundgrid/pkg/formulas"
)

// Rule is the fee policy for a category of instruments. A rule with no
// slabs charges nothing regardless of holding period.
type Rule struct {
	Description string        `json:"description"`
	Slabs       []domain.Slab `json:"slabs,omitempty"`
}

// ruleEntry ties a set of category keywords to a rule. Entries are matched
// in order; the first keyword hit wins, so more specific categories (ELSS,
// liquid) must come before the broad equity bucket.
type ruleEntry struct {
	keywords []string
	rule     Rule
}

var ruleTable = []ruleEntry{
	{
		keywords: []string{"elss", "tax", "retirement", "children"},
		rule:     Rule{Description: "Locked in, no exit load on eligible redemption"},
	},
	{
		keywords: []string{"liquid", "overnight", "money market"},
		rule: Rule{
			Description: "Graded load within first week",
			Slabs: []domain.Slab{
				{DayCutoff: 1, Percent: 0.0070},
				{DayCutoff: 2, Percent: 0.0065},
				{DayCutoff: 3, Percent: 0.0060},
				{DayCutoff: 4, Percent: 0.0055},
				{DayCutoff: 5, Percent: 0.0050},
				{DayCutoff: 6, Percent: 0.0045},
			},
		},
	},
	{
		keywords: []string{"debt", "bond", "gilt", "duration"},
		rule:     Rule{Description: "No exit load"},
	},
	{
		keywords: []string{"hybrid", "balanced", "advantage", "arbitrage"},
		rule: Rule{
			Description: "1% within 90 days, 0.25% within a year",
			Slabs: []domain.Slab{
				{DayCutoff: 90, Percent: 1.0},
				{DayCutoff: 365, Percent: 0.25},
			},
		},
	},
	{
		keywords: []string{"equity", "cap", "flexi", "focused", "value", "contra", "dividend", "sectoral", "thematic", "index", "etf"},
		rule: Rule{
			Description: "1% within a year",
			Slabs: []domain.Slab{
				{DayCutoff: 365, Percent: 1.0},
			},
		},
	},
}

var defaultRule = Rule{Description: "No exit load"}

// Engine resolves category fee rules and evaluates slab tables.
type Engine struct {
	log zerolog.Logger
}

// NewEngine creates an exit-load engine.
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{log: log.With().Str("component", "exitload").Logger()}
}

// LookupRule keyword-matches the category against the ordered rule table.
// Unrecognized categories fall back to a no-load rule.
func (e *Engine) LookupRule(category string) Rule {
	c := strings.ToLower(category)
	for _, entry := range ruleTable {
		for _, kw := range entry.keywords {
			if strings.Contains(c, kw) {
				return entry.rule
			}
		}
	}
	return defaultRule
}

// Evaluate returns the load percent for a holding period. Slabs are walked
// in ascending cutoff order; the first slab whose cutoff is >= holdingDays
// applies, boundary inclusive. No matching slab means no load.
func (e *Engine) Evaluate(holdingDays int, slabs []domain.Slab) float64 {
	for _, s := range slabs {
		if s.DayCutoff >= holdingDays {
			return s.Percent
		}
	}
	return 0
}

// Amount converts a load percent into the fee charged on a redemption of
// currentValue, rounded to 2 decimals.
func (e *Engine) Amount(currentValue, percent float64) float64 {
	return formulas.Round(currentValue*percent/100, 2)
}
