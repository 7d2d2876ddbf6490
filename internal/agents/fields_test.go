package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringsField(t *testing.T) {
	m := map[string]any{
		"list":    []any{"a", " b ", "", 7},
		"typed":   []string{"x", " ", "y"},
		"scalar":  "only one",
		"blank":   "   ",
		"numeric": 3.5,
	}

	assert.Equal(t, []string{"a", "b"}, stringsField(m, "list"))
	assert.Equal(t, []string{"x", "y"}, stringsField(m, "typed"))
	assert.Equal(t, []string{"only one"}, stringsField(m, "scalar"))
	assert.Nil(t, stringsField(m, "blank"))
	assert.Nil(t, stringsField(m, "numeric"))
	assert.Nil(t, stringsField(m, "absent"))
}

func TestFloatField(t *testing.T) {
	m := map[string]any{
		"float":  7.5,
		"int":    4,
		"quoted": " 6.25 ",
		"words":  "very risky",
		"list":   []any{1.0},
	}

	v, ok := floatField(m, "float")
	assert.True(t, ok)
	assert.Equal(t, 7.5, v)

	v, ok = floatField(m, "int")
	assert.True(t, ok)
	assert.Equal(t, 4.0, v)

	v, ok = floatField(m, "quoted")
	assert.True(t, ok)
	assert.Equal(t, 6.25, v)

	_, ok = floatField(m, "words")
	assert.False(t, ok)
	_, ok = floatField(m, "list")
	assert.False(t, ok)
	_, ok = floatField(m, "absent")
	assert.False(t, ok)
}

func TestNormalizeRisk(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{0.42, 4.2},
		{1, 10}, // fractions of 10 rescale
		{4.567, 4.57},
		{7, 7},
		{15, 10}, // clamped
		{-3, 0},  // clamped
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeRisk(tt.in), "normalizeRisk(%v)", tt.in)
	}
}

func TestNormalizeImpact(t *testing.T) {
	for in, want := range map[string]string{
		"low":      ImpactLow,
		"Low":      ImpactLow,
		"MEDIUM":   ImpactMedium,
		"moderate": ImpactMedium,
		" high ":   ImpactHigh,
		"critical": ImpactHigh,
	} {
		got, ok := normalizeImpact(in)
		assert.True(t, ok, "normalizeImpact(%q)", in)
		assert.Equal(t, want, got)
	}

	for _, in := range []string{"", "unknown", "10", "medium-ish"} {
		_, ok := normalizeImpact(in)
		assert.False(t, ok, "normalizeImpact(%q)", in)
	}
}
