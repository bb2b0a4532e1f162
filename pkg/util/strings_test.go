package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1,234.5", 1234.5, true},
		{" 4.2% ", 4.2, true},
		{"-0.35", -0.35, true},
		{".", 0, false},
		{"", 0, false},
		{"n/a", 0, false},
		{"NaN", 0, false},
		{"+Inf", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseNumber(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.InDelta(t, tc.want, got, 1e-9, tc.in)
	}
}

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 7, ParseIntDefault("", 7))
	assert.Equal(t, 7, ParseIntDefault("x", 7))
	assert.Equal(t, 3, ParseIntDefault("3", 7))
}
