// Package peers ranks instruments against their category or sector peer
// group: dense rank, quantile-threshold quartiles, and deviation from the
// group mean.
package peers

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/kanungos/fundgrid/internal/domain"
	"github.com/kanungos/fundgrid/pkg/formulas"
)

// Quartile labels.
const (
	TopQuartile    = "Top Quartile"
	SecondQuartile = "Second Quartile"
	ThirdQuartile  = "Third Quartile"
	BottomQuartile = "Bottom Quartile"
)

// TagSet maps quartile labels to presentational performance tags.
type TagSet map[string]string

// CategoryTags are the performance tags for category peer groups.
func CategoryTags() TagSet {
	return TagSet{
		TopQuartile:    "Outperformer",
		SecondQuartile: "Above Average",
		ThirdQuartile:  "Below Average",
		BottomQuartile: "Underperformer",
	}
}

// SectorTags are the performance tags for sector peer groups.
func SectorTags() TagSet {
	return TagSet{
		TopQuartile:    "Sector Leader",
		SecondQuartile: "Above Sector Avg",
		ThirdQuartile:  "Below Sector Avg",
		BottomQuartile: "Sector Laggard",
	}
}

// Member is one instrument inside a peer group. A nil metric keeps the
// member in the group (it counts toward group size) but excludes it from
// ranking, quartiles and deviation.
type Member struct {
	ID     string
	Metric *float64
}

// Ranking holds the peer-relative fields for one member. Members with a nil
// metric retain nil/empty ranking fields; that is not an error condition.
type Ranking struct {
	Rank      *int     `json:"rank,omitempty"`
	GroupSize int      `json:"group_size"`
	Quartile  string   `json:"quartile,omitempty"`
	Tag       string   `json:"tag,omitempty"`
	GroupAvg  *float64 `json:"group_avg,omitempty"`
	Deviation *float64 `json:"deviation,omitempty"`
}

// Engine computes peer rankings.
type Engine struct {
	log zerolog.Logger
}

// NewEngine creates a peer ranking engine.
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{log: log.With().Str("component", "peers").Logger()}
}

// RankGroup ranks one peer group and returns per-member results keyed by
// member id. Groups with zero non-nil metrics are skipped entirely and an
// empty map is returned.
func (e *Engine) RankGroup(members []Member, tags TagSet) map[string]Ranking {
	values := make([]float64, 0, len(members))
	for _, m := range members {
		if m.Metric != nil {
			values = append(values, *m.Metric)
		}
	}

	out := make(map[string]Ranking, len(members))
	if len(values) == 0 {
		return out
	}

	// Dense rank: equal values share a rank, the next distinct value is
	// exactly one rank lower — no gaps from ties.
	distinct := distinctDescending(values)
	rankOf := make(map[float64]int, len(distinct))
	for i, v := range distinct {
		rankOf[v] = i + 1
	}

	q1 := formulas.Quantile(0.25, values)
	q2 := formulas.Quantile(0.50, values)
	q3 := formulas.Quantile(0.75, values)
	mean := formulas.Mean(values)

	for _, m := range members {
		r := Ranking{
			GroupSize: len(members),
			GroupAvg:  domain.Float64Ptr(mean),
		}

		if m.Metric != nil {
			rank := rankOf[*m.Metric]
			r.Rank = &rank
			r.Quartile = classifyQuartile(*m.Metric, q1, q2, q3)
			r.Tag = tags[r.Quartile]
			r.Deviation = domain.Float64Ptr(*m.Metric - mean)
		}

		out[m.ID] = r
	}

	return out
}

// classifyQuartile is threshold-based on the value distribution, not a
// fixed count-based cut: when every member shares one value all thresholds
// coincide and everyone lands in the top quartile.
func classifyQuartile(v, q1, q2, q3 float64) string {
	switch {
	case v >= q3:
		return TopQuartile
	case v >= q2:
		return SecondQuartile
	case v >= q1:
		return ThirdQuartile
	default:
		return BottomQuartile
	}
}

func distinctDescending(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	distinct := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != distinct[len(distinct)-1] {
			distinct = append(distinct, v)
		}
	}
	return distinct
}
