package universe

// categoryOrder is the canonical display order for scheme categories:
// equity first, then hybrid, debt, solution oriented, and other schemes.
var categoryOrder = []string{
	"Large Cap",
	"Large & Mid Cap",
	"Mid Cap",
	"Small Cap",
	"Multi Cap",
	"Flexi Cap",
	"Focused Fund",
	"Value Fund",
	"Contra Fund",
	"Dividend Yield",
	"ELSS",
	"Sectoral/Thematic",
	"Other Equity",

	"Aggressive Hybrid",
	"Conservative Hybrid",
	"Balanced Advantage",
	"Dynamic Asset Allocation",
	"Multi Asset Allocation",
	"Equity Savings",
	"Arbitrage Fund",

	"Overnight Fund",
	"Liquid Fund",
	"Ultra Short Duration Fund",
	"Low Duration Fund",
	"Money Market Fund",
	"Short Duration Fund",
	"Medium Duration Fund",
	"Medium to Long Duration Fund",
	"Long Duration Fund",
	"Corporate Bond Fund",
	"Credit Risk Fund",
	"Floater Fund",
	"Banking & PSU Fund",
	"Gilt Fund",
	"Gilt Fund with 10 year Constant Duration",
	"Dynamic Bond Fund",
	"Other Debt",

	"Retirement Fund",
	"Children's Fund",

	"FoF Domestic",
	"FoF International",
	"Commodities",
	"Index Fund",
}

var categoryRank = func() map[string]int {
	m := make(map[string]int, len(categoryOrder))
	for i, c := range categoryOrder {
		m[c] = i
	}
	return m
}()

// CategoryRank returns the category's position in the canonical order.
// Unrecognized categories sink to the bottom.
func CategoryRank(category string) int {
	if rank, ok := categoryRank[category]; ok {
		return rank
	}
	return len(categoryOrder) + 1
}
