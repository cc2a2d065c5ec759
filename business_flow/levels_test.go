package businessflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelForXP(t *testing.T) {
	tests := []struct {
		name     string
		xp       int
		expected int
	}{
		{name: "negative experience clamps to level 1", xp: -50, expected: 1},
		{name: "zero experience", xp: 0, expected: 1},
		{name: "just below level 2", xp: 99, expected: 1},
		{name: "exactly level 2", xp: 100, expected: 2},
		{name: "mid table", xp: 450, expected: 4},
		{name: "just below level 5", xp: 699, expected: 4},
		{name: "exactly level 10", xp: 2700, expected: 10},
		{name: "just past the table", xp: 2799, expected: 10},
		{name: "one flat level past the table", xp: 2800, expected: 11},
		{name: "deep past the table", xp: 3250, expected: 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, LevelForXP(tt.xp))
		})
	}
}

func TestNextLevelThreshold(t *testing.T) {
	assert.Equal(t, 100, NextLevelThreshold(1))
	assert.Equal(t, 700, NextLevelThreshold(4))
	assert.Equal(t, 2700, NextLevelThreshold(9))
	// Past the table each level costs a flat 100
	assert.Equal(t, 2800, NextLevelThreshold(10))
	assert.Equal(t, 2900, NextLevelThreshold(11))
}

func TestTicketXP(t *testing.T) {
	tests := []struct {
		name     string
		isValid  bool
		total    float64
		expected int
	}{
		{name: "invalid ticket grants nothing", isValid: false, total: 120, expected: 0},
		{name: "valid ticket base", isValid: true, total: 10, expected: 50},
		{name: "at the bonus cutoff", isValid: true, total: 50, expected: 50},
		{name: "just over the cutoff", isValid: true, total: 50.01, expected: 55},
		{name: "large purchase", isValid: true, total: 123.45, expected: 62},
		{name: "zero total", isValid: true, total: 0, expected: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TicketXP(tt.isValid, tt.total))
		})
	}
}

func TestProgressPercentage(t *testing.T) {
	assert.InDelta(t, 0, ProgressPercentage(0), 0.001)
	assert.InDelta(t, 50, ProgressPercentage(50), 0.001)
	// 150 XP at level 2, next threshold 250
	assert.InDelta(t, 60, ProgressPercentage(150), 0.001)
	assert.LessOrEqual(t, ProgressPercentage(99999), 100.0)
}
