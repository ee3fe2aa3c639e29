package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Quantile returns the p-quantile (0 <= p <= 1) of the data, linearly
// interpolated between order statistics at position (n-1)*p.
// The input slice is not modified; a sorted copy is used internally.
func Quantile(p float64, data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	pos := p * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	if lower >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lower)
	return sorted[lower] + frac*(sorted[lower+1]-sorted[lower])
}

// DailyChanges converts a value series into fractional period-over-period changes.
// Changes[i] = (Value[i+1] - Value[i]) / Value[i]. Zero-valued predecessors are skipped.
func DailyChanges(values []float64) []float64 {
	if len(values) < 2 {
		return []float64{}
	}

	changes := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] != 0 {
			changes = append(changes, (values[i]-values[i-1])/values[i-1])
		}
	}

	return changes
}

// MaxDrawdown computes the worst peak-to-trough decline of a value series
// as a fraction of the running maximum. The result is <= 0, with 0 meaning
// the series never declined below a prior peak.
func MaxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	runningMax := values[0]
	worst := 0.0
	for _, v := range values {
		if v > runningMax {
			runningMax = v
		}
		if runningMax > 0 {
			dd := (v - runningMax) / runningMax
			if dd < worst {
				worst = dd
			}
		}
	}

	return worst
}

// Round rounds a value to the given number of decimal places.
func Round(value float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(value*factor) / factor
}
