package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnits(t *testing.T) {
	cases := []struct {
		in       string
		decimals uint8
		want     string
	}{
		{"1", 18, "1000000000000000000"},
		{"12.5", 18, "12500000000000000000"},
		{".5", 2, "50"},
		{"1000000", 0, "1000000"},
		{" 3.25 ", 4, "32500"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseUnits(tc.in, tc.decimals)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.String())
		})
	}
}

func TestParseUnitsRejects(t *testing.T) {
	for _, in := range []string{"", "-1", "abc", "1.2.3", "0", "0.000", "1.123"} {
		t.Run(in, func(t *testing.T) {
			_, err := parseUnits(in, 2)
			assert.Error(t, err)
		})
	}
}

func TestTrimUnits(t *testing.T) {
	assert.Equal(t, "12.5", trimUnits("12.500000000000000000"))
	assert.Equal(t, "1", trimUnits("1.000000000000000000"))
	assert.Equal(t, "42", trimUnits("42"))
}
