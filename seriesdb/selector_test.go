package seriesdb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iss4e/toolchain/seriesdb"
)

func TestTagSelector(t *testing.T) {
	assert.Equal(t, `"bike" = 'car1'`, seriesdb.TagSelector("bike", "car1"))
}

func TestTagSelectorQuotesValues(t *testing.T) {
	// Tag values come from the database, but they still must not be able
	// to break out of the literal.
	got := seriesdb.TagSelector("bike", "o'brien")
	assert.Equal(t, `"bike" = 'o''brien'`, got)
}

func TestJoinSelectors(t *testing.T) {
	tests := []struct {
		name      string
		selectors []string
		want      string
	}{
		{
			name:      "single",
			selectors: []string{`"bike" = 'car1'`},
			want:      `("bike" = 'car1')`,
		},
		{
			name:      "multiple",
			selectors: []string{`"bike" = 'car1'`, "time > now() - interval '1 day'"},
			want:      `("bike" = 'car1') AND (time > now() - interval '1 day')`,
		},
		{
			name:      "skips empty",
			selectors: []string{"", `"bike" = 'car1'`, ""},
			want:      `("bike" = 'car1')`,
		},
		{
			name:      "all empty",
			selectors: []string{"", ""},
			want:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, seriesdb.JoinSelectors(tt.selectors...))
		})
	}
}

func TestSeriesID(t *testing.T) {
	s := seriesdb.Series{Tags: map[string]string{"field": "soc", "bike": "car1"}}
	assert.Equal(t, "bike=car1,field=soc", s.ID())
}

func TestSeriesIDEmpty(t *testing.T) {
	assert.Equal(t, "", seriesdb.Series{}.ID())
}
