package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedemptionCode(t *testing.T) {
	code, err := NewRedemptionCode()
	require.NoError(t, err)

	assert.Len(t, code, 8)
	assert.Equal(t, strings.ToUpper(code), code)
	for _, c := range code {
		assert.Contains(t, "0123456789ABCDEF", string(c))
	}
}

func TestNewRedemptionCodeIsRandom(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := NewRedemptionCode()
		require.NoError(t, err)
		assert.False(t, seen[code], "generated a repeated code")
		seen[code] = true
	}
}

func TestNewSpecialRewardCode(t *testing.T) {
	code, err := NewSpecialRewardCode()
	require.NoError(t, err)

	assert.Len(t, code, 10)
	assert.True(t, strings.HasPrefix(code, SpecialRewardCodePrefix))
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "lowercase input", input: "a1b2c3d4", expected: "A1B2C3D4"},
		{name: "already canonical", input: "A1B2C3D4", expected: "A1B2C3D4"},
		{name: "surrounding whitespace", input: "  a1b2c3d4  ", expected: "A1B2C3D4"},
		{name: "special reward code", input: "sra1b2c3d4", expected: "SRA1B2C3D4"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeCode(tt.input))
		})
	}
}
