package quantity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScaleString(t *testing.T) {
	tests := []struct {
		in   string
		mult float64
		want string
	}{
		{"1 bowl (200g)", 0.8, "1 bowl (160g)"},
		{"2 pieces (100g)", 0.8, "2 pieces (80g)"},
		{"1 cup (150ml)", 1.2, "1 cup (180ml)"},
		{"1 serving", 0.8, "1 serving"},
		{"3 rotis (90g)", 1.3, "3 rotis (117g)"},
		{"1 plate (250g) + 2 tbsp (30g)", 0.9, "1 plate (225g) + 2 tbsp (27g)"},
		{"1 bowl (150.5g)", 0.8, "1 bowl (120.4g)"},
		{"150g", 0.5, "75g"},
		{"1 bowl (2 pieces)", 2, "1 bowl (2 pieces)"},
		{"", 2, ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ScaleString(tt.in, tt.mult))
		})
	}
}

func TestParseRoundTripsWithoutScaling(t *testing.T) {
	for _, s := range []string{
		"1 medium bowl dal (150g) + 1 cup rice (150g) + 1 small bowl sabzi (100g)",
		"1/2 cup (100ml)",
		"2 idlis",
		"a handful",
	} {
		assert.Equal(t, s, Parse(s).String())
	}
}

func TestGramsAndMinimum(t *testing.T) {
	q := Parse("1 plate (250g) + 1 glass (0.2l)")
	assert.InDelta(t, 450, q.Grams(), 0.001)
	assert.False(t, q.BelowMinimum(25))

	assert.True(t, Parse("1 tsp (5g)").BelowMinimum(25))
	assert.True(t, Parse("1/4 roti").BelowMinimum(25))
	assert.False(t, Parse("1 serving").BelowMinimum(25))
}

func TestParseUnitsAreNormalized(t *testing.T) {
	p := Parse("2 rotis (60 gms)").Parts[0]
	assert.Equal(t, UnitGram, p.Unit)
	assert.Equal(t, 60.0, p.Amount)
	assert.Equal(t, 2.0, p.Count)
	assert.Equal(t, "rotis", p.Label)
}
