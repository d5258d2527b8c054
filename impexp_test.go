package lirashield

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yaman-yucel/lirashield/date"
)

// TestImportExportCPI checks that exporting imported prints gives back the canonical input.
func TestImportExportCPI(t *testing.T) {
	sample := `
year_month,yoy_pct,mom_pct
2024-01,64.86,6.7
2024-02,67.07,4.53
2024-03,68.5,
`
	sample = strings.Trim(sample, "\n\t")

	entries, err := ParseCPI(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, date.MustParseYearMonth("2024-02"), entries[1].Month)
	assert.Equal(t, Percent(67.07), entries[1].YoY)
	require.NotNil(t, entries[1].MoM)
	assert.Equal(t, Percent(4.53), *entries[1].MoM)
	assert.Nil(t, entries[2].MoM)

	var sb strings.Builder
	require.NoError(t, WriteCPI(&sb, entries))
	assert.Equal(t, sample, strings.Trim(sb.String(), "\n\t"))
}

func TestParseCPI(t *testing.T) {
	t.Run("month first and comments", func(t *testing.T) {
		entries, err := ParseCPI(strings.NewReader("# official prints\n01-2024, 64.86, 6.7\n\n2024-2,67.07,4.53\n"))
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "2024-01", entries[0].Month.String())
		assert.Equal(t, "2024-02", entries[1].Month.String())
	})

	invalid := map[string]string{
		"duplicate month": "2024-01,64.86,6.7\n2024-01,64.9,6.8\n",
		"bad month":       "2024-01,64.86,6.7\n2024-13,1,1\n",
		"bad first month": "2024-13,64,3\n2024-01,64.86,6.7\n",
		"bad yoy":         "2024-01,abc,6.7\n",
		"bad mom":         "2024-01,64.86,x\n",
		"too few fields":  "2024-01\n",
		"yoy too low":     "2024-01,-100,1\n",
	}
	for name, in := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCPI(strings.NewReader(in))
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	_, err := ParseCPI(strings.NewReader("2024-01,64.86,6.7\n2024-01,64.9,6.8\n"))
	assert.ErrorContains(t, err, "line 2")
}

func TestParseRates(t *testing.T) {
	entries, err := ParseRates(strings.NewReader("date,rate\n2024-01-02,29.9\n2024-1-3 , 30.01\n"), "csv")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, d("2024-01-03"), entries[1].Date)
	assert.Equal(t, 30.01, entries[1].Rate)
	assert.Equal(t, "csv", entries[1].Source)

	for name, in := range map[string]string{
		"duplicate date": "2024-01-02,29.9\n2024-01-02,30\n",
		"zero rate":      "2024-01-02,0\n",
		"bad date":       "2024-01-02,29.9\n02/01/2024,29.9\n",
		"bad first date": "2024-02-30,30\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRates(strings.NewReader(in), "csv")
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	h := new(date.History[float64])
	for _, e := range entries {
		h.Append(e.Date, e.Rate)
	}
	var sb strings.Builder
	require.NoError(t, WriteRates(&sb, h))
	assert.Equal(t, "date,value\n2024-01-02,29.9\n2024-01-03,30.01\n", sb.String())
}
