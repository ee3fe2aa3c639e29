package universe

import "strings"

// DefaultSector is the fallback theme for schemes whose name matches no
// sector keyword.
const DefaultSector = "Diversified"

// sectorEntry ties a theme to its name keywords. Entries are matched in
// order. Short keywords ("it", "us", "psu") match whole words only so that
// "equity" does not read as IT and "focused" does not read as US.
type sectorEntry struct {
	theme    string
	keywords []string
}

var sectorTable = []sectorEntry{
	{"Banking", []string{"bank", "banking", "financial services", "financial"}},
	{"Pharma", []string{"pharma", "pharmaceutical", "healthcare", "health care", "life sciences"}},
	{"IT", []string{"it", "technology", "tech", "information technology", "digital"}},
	{"Infrastructure", []string{"infra", "infrastructure", "construction", "capex"}},
	{"PSU", []string{"psu", "public sector", "govt", "government"}},
	{"Consumption", []string{"consumption", "consumer", "fmcg", "discretionary"}},
	{"Energy", []string{"energy", "power", "oil", "gas", "petro", "renewable"}},
	{"International", []string{"global", "international", "us", "china", "japan", "europe", "world", "overseas"}},
	{"ESG", []string{"esg", "sustainable", "responsible", "green"}},
}

// DetectSectorTheme derives a sector theme from a scheme name.
func DetectSectorTheme(name string) string {
	lower := strings.ToLower(name)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	wordSet := make(map[string]bool, len(words))
	for _, w := range words {
		wordSet[w] = true
	}

	for _, entry := range sectorTable {
		for _, kw := range entry.keywords {
			if len(kw) <= 4 && !strings.Contains(kw, " ") {
				if wordSet[kw] {
					return entry.theme
				}
				continue
			}
			if strings.Contains(lower, kw) {
				return entry.theme
			}
		}
	}
	return DefaultSector
}
