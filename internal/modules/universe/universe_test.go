package universe

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanungos/fundgrid/internal/domain"
)

const masterCSV = `scheme_code,scheme_name,scheme_category,scheme_status
120503,Axis Bluechip Fund Direct Growth,Large Cap,Active
118989,HDFC Banking & Financial Services Fund,Sectoral/Thematic,Active
100123,Old Closed Scheme,Liquid Fund,Discontinued
,Missing Code Fund,Mid Cap,Active
`

func TestLoad(t *testing.T) {
	l := NewLoader(zerolog.Nop())

	instruments, err := l.Load(strings.NewReader(masterCSV), "master_list.csv")
	require.NoError(t, err)
	require.Len(t, instruments, 3)

	assert.Equal(t, "120503", instruments[0].ID)
	assert.Equal(t, "Large Cap", instruments[0].Category)
	assert.Equal(t, domain.StatusActive, instruments[0].Status)
	assert.Equal(t, "Diversified", instruments[0].SectorTheme)

	assert.Equal(t, "Banking", instruments[1].SectorTheme)
	assert.Equal(t, domain.StatusDiscontinued, instruments[2].Status)
}

func TestLoad_MissingColumnIsConfigurationError(t *testing.T) {
	l := NewLoader(zerolog.Nop())

	_, err := l.Load(strings.NewReader("scheme_code,scheme_name\n1,X\n"), "master_list.csv")
	require.Error(t, err)
	assert.True(t, domain.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "scheme_category")
}

func TestActiveOnly(t *testing.T) {
	all := []domain.Instrument{
		{ID: "1", Status: domain.StatusActive},
		{ID: "2", Status: domain.StatusDiscontinued},
		{ID: "3", Status: domain.StatusActive},
	}

	active := ActiveOnly(all)
	require.Len(t, active, 2)
	assert.Equal(t, "1", active[0].ID)
	assert.Equal(t, "3", active[1].ID)
}

func TestDetectSectorTheme(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"ICICI Prudential Banking & Financial Services", "Banking"},
		{"Nippon India Pharma Fund", "Pharma"},
		{"Tata Digital India Fund", "IT"},
		{"Franklin India Technology Fund", "IT"},
		{"L&T Infrastructure Fund", "Infrastructure"},
		{"SBI PSU Fund", "PSU"},
		{"Mirae Asset Great Consumer Fund", "Consumption"},
		{"Tata Power & Energy Fund", "Energy"},
		{"Motilal Oswal S&P 500 Index Fund US", "International"},
		{"Quantum ESG Equity Fund", "ESG"},
		{"Parag Parikh Flexi Cap Fund", "Diversified"},
		// "equity" must not match the IT keyword, "focused" must not match US
		{"Axis Focused Equity Fund", "Diversified"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectSectorTheme(tt.name))
		})
	}
}

func TestCategoryRank(t *testing.T) {
	assert.Equal(t, 0, CategoryRank("Large Cap"))
	assert.Less(t, CategoryRank("Mid Cap"), CategoryRank("Liquid Fund"))
	assert.Less(t, CategoryRank("ELSS"), CategoryRank("Aggressive Hybrid"))

	// Unknown categories sink below every known one
	unknown := CategoryRank("Mystery Category")
	for _, c := range categoryOrder {
		assert.Less(t, CategoryRank(c), unknown)
	}
}
