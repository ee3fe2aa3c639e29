// Package domain contains the core data types shared across modules.
// It has no infrastructure dependencies.
package domain

import "time"

// InstrumentStatus indicates whether an instrument is still tracked upstream.
type InstrumentStatus string

const (
	StatusActive       InstrumentStatus = "Active"
	StatusDiscontinued InstrumentStatus = "Discontinued"
)

// Instrument is a master-list record. It is produced by the external
// master-list reconciliation and read-only inside the engine.
type Instrument struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Category    string           `json:"category"`
	SectorTheme string           `json:"sector_theme"`
	Status      InstrumentStatus `json:"status"`
}

// NavPoint is a single dated net asset value observation.
// Value is always > 0; non-positive values are rejected at ingestion.
type NavPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// ReturnWindow is a named lookback in calendar days.
type ReturnWindow struct {
	Label string `json:"label"`
	Days  int    `json:"days"`
}

// Slab is one exit-load fee step: the percent applies when the holding
// period in days is <= DayCutoff.
type Slab struct {
	DayCutoff int     `json:"day_cutoff"`
	Percent   float64 `json:"percent"`
}

// HoldingLot is a single purchase of an instrument. Multiple lots of the
// same instrument may coexist in input; they are aggregated before valuation.
type HoldingLot struct {
	InstrumentID  string
	Units         float64
	PurchasePrice float64
	PurchaseDate  time.Time
	Slabs         []Slab
}

// DateOnly truncates a timestamp to its UTC calendar date.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Float64Ptr returns a pointer to v. Nullable metrics are represented as
// *float64 throughout the engine; nil means "no data", never zero.
func Float64Ptr(v float64) *float64 {
	return &v
}
