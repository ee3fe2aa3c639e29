package portfolio

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/kanungos/fundgrid/internal/config"
	"github.com/kanungos/fundgrid/internal/domain"
	"github.com/kanungos/fundgrid/internal/modules/exitload"
	"github.com/kanungos/fundgrid/internal/modules/returns"
	"github.com/kanungos/fundgrid/pkg/formulas"
)

// AggregatedHolding is the valuation unit: all lots of one instrument
// collapsed into a single position. Purchase fields are fixed at
// aggregation; only market-driven fields change between runs.
type AggregatedHolding struct {
	InstrumentID       string        `json:"instrument_id"`
	Units              float64       `json:"units"`
	AvgPurchasePrice   float64       `json:"avg_purchase_price"`
	TotalPurchaseValue float64       `json:"total_purchase_value"`
	LatestPurchaseDate time.Time     `json:"latest_purchase_date"`
	Slabs              []domain.Slab `json:"slabs,omitempty"`
}

// Valuation is one aggregated holding with its market-driven output fields.
type Valuation struct {
	AggregatedHolding
	Name             string   `json:"name"`
	Category         string   `json:"category"`
	CurrentNav       *float64 `json:"current_nav"`
	NavDate          string   `json:"nav_date,omitempty"`
	CurrentValue     *float64 `json:"current_value"`
	DeviationPercent *float64 `json:"deviation_percent"`
	ExitLoadPercent  float64  `json:"exit_load_percent"`
	ExitLoadAmount   *float64 `json:"exit_load_amount"`
	DropAlert        bool     `json:"drop_alert"`
	MomentumAlert    bool     `json:"momentum_alert"`
}

// Snapshot is the portfolio-level view for one run. Totals only include
// holdings whose current value could be computed.
type Snapshot struct {
	AsOfDate          string      `json:"as_of_date"`
	Holdings          []Valuation `json:"holdings"`
	TotalInvested     float64     `json:"total_invested"`
	TotalCurrentValue float64     `json:"total_current_value"`
	NetGainLoss       float64     `json:"net_gain_loss"`
}

// AlertPayload is emitted per holding with an active drop alert, consumed
// by a notification collaborator.
type AlertPayload struct {
	InstrumentID     string  `json:"instrument_id"`
	Name             string  `json:"name"`
	DeviationPercent float64 `json:"deviation_percent"`
	CurrentNav       float64 `json:"current_nav"`
	AsOfDate         string  `json:"as_of_date"`
}

// Valuator values aggregated holdings against the NAV store.
type Valuator struct {
	store     returns.SeriesReader
	calc      *returns.Calculator
	exit      *exitload.Engine
	analytics config.AnalyticsConfig
	log       zerolog.Logger
}

// NewValuator creates a portfolio valuator.
func NewValuator(store returns.SeriesReader, calc *returns.Calculator, exit *exitload.Engine, analytics config.AnalyticsConfig, log zerolog.Logger) *Valuator {
	return &Valuator{
		store:     store,
		calc:      calc,
		exit:      exit,
		analytics: analytics,
		log:       log.With().Str("component", "portfolio").Logger(),
	}
}

// Aggregate collapses raw lots per instrument: units summed, purchase price
// units-weighted, purchase value recomputed from the aggregate. The latest
// lot date is kept as the purchase date so the exit-load holding period is
// never overstated. The first lot with slab overrides supplies the slabs.
func Aggregate(lots []domain.HoldingLot) []AggregatedHolding {
	byID := make(map[string]*AggregatedHolding)
	order := make([]string, 0)

	for _, lot := range lots {
		agg, ok := byID[lot.InstrumentID]
		if !ok {
			agg = &AggregatedHolding{InstrumentID: lot.InstrumentID}
			byID[lot.InstrumentID] = agg
			order = append(order, lot.InstrumentID)
		}

		agg.AvgPurchasePrice = (agg.AvgPurchasePrice*agg.Units + lot.PurchasePrice*lot.Units) / (agg.Units + lot.Units)
		agg.Units += lot.Units
		if lot.PurchaseDate.After(agg.LatestPurchaseDate) {
			agg.LatestPurchaseDate = lot.PurchaseDate
		}
		if agg.Slabs == nil && len(lot.Slabs) > 0 {
			agg.Slabs = lot.Slabs
		}
	}

	sort.Strings(order)
	out := make([]AggregatedHolding, 0, len(order))
	for _, id := range order {
		agg := byID[id]
		agg.TotalPurchaseValue = round2(agg.Units * agg.AvgPurchasePrice)
		out = append(out, *agg)
	}
	return out
}

// Valuate values each aggregated holding as of the given date and rolls up
// portfolio totals. Instruments supply display name and the category used
// for exit-load rule fallback; holdings for unknown instruments are still
// valued, with rule lookup on an empty category.
func (v *Valuator) Valuate(holdings []AggregatedHolding, instruments map[string]domain.Instrument, today time.Time) (Snapshot, []AlertPayload) {
	snap := Snapshot{
		AsOfDate: domain.DateOnly(today).Format("2006-01-02"),
		Holdings: make([]Valuation, 0, len(holdings)),
	}
	var alerts []AlertPayload

	for _, h := range holdings {
		val := Valuation{AggregatedHolding: h}
		if in, ok := instruments[h.InstrumentID]; ok {
			val.Name = in.Name
			val.Category = in.Category
		}

		point, ok := v.store.AsOf(h.InstrumentID, today)
		if !ok {
			v.log.Warn().Str("instrument", h.InstrumentID).Msg("No NAV available for holding")
			snap.TotalInvested += h.TotalPurchaseValue
			snap.Holdings = append(snap.Holdings, val)
			continue
		}

		val.CurrentNav = domain.Float64Ptr(point.Value)
		val.NavDate = point.Date.Format("2006-01-02")
		current := round2(h.Units * point.Value)
		val.CurrentValue = domain.Float64Ptr(current)
		if h.TotalPurchaseValue != 0 {
			dev := round2((current - h.TotalPurchaseValue) / h.TotalPurchaseValue * 100)
			val.DeviationPercent = domain.Float64Ptr(dev)
		}

		slabs := h.Slabs
		if slabs == nil {
			slabs = v.exit.LookupRule(val.Category).Slabs
		}
		holdingDays := int(domain.DateOnly(today).Sub(domain.DateOnly(h.LatestPurchaseDate)).Hours() / 24)
		val.ExitLoadPercent = v.exit.Evaluate(holdingDays, slabs)
		val.ExitLoadAmount = domain.Float64Ptr(v.exit.Amount(current, val.ExitLoadPercent))

		val.DropAlert = val.DeviationPercent != nil && *val.DeviationPercent <= v.analytics.DropAlertPercent
		val.MomentumAlert = v.momentumPositive(h.InstrumentID)

		if val.DropAlert {
			alerts = append(alerts, AlertPayload{
				InstrumentID:     h.InstrumentID,
				Name:             val.Name,
				DeviationPercent: *val.DeviationPercent,
				CurrentNav:       point.Value,
				AsOfDate:         val.NavDate,
			})
		}

		snap.TotalInvested += h.TotalPurchaseValue
		snap.TotalCurrentValue += current
		snap.Holdings = append(snap.Holdings, val)
	}

	snap.TotalInvested = round2(snap.TotalInvested)
	snap.TotalCurrentValue = round2(snap.TotalCurrentValue)
	snap.NetGainLoss = round2(snap.TotalCurrentValue - snap.TotalInvested)
	return snap, alerts
}

func round2(v float64) float64 {
	return formulas.Round(v, 2)
}

// momentumPositive reports whether every momentum window return is known
// and strictly positive.
func (v *Valuator) momentumPositive(instrumentID string) bool {
	for _, label := range v.analytics.MomentumWindows {
		days, ok := v.analytics.WindowDays(label)
		if !ok {
			return false
		}
		r := v.calc.TrailingReturn(instrumentID, days)
		if r == nil || *r <= 0 {
			return false
		}
	}
	return len(v.analytics.MomentumWindows) > 0
}
