package businessflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesStoreName(t *testing.T) {
	roster := []string{"Carnisseria Pep", "Peixateria Mar", "Fruites Roca"}

	tests := []struct {
		name      string
		candidate string
		expected  bool
	}{
		{name: "exact match", candidate: "Carnisseria Pep", expected: true},
		{name: "case insensitive", candidate: "CARNISSERIA PEP", expected: true},
		{name: "roster name embedded in printed header", candidate: "TIQUET - Peixateria Mar S.L.", expected: true},
		{name: "partial roster name is not enough", candidate: "Peixateria", expected: false},
		{name: "unknown store", candidate: "Supermercat Central", expected: false},
		{name: "empty candidate", candidate: "", expected: false},
		{name: "whitespace candidate", candidate: "   ", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MatchesStoreName(tt.candidate, roster))
		})
	}

	t.Run("empty roster", func(t *testing.T) {
		assert.False(t, MatchesStoreName("Carnisseria Pep", nil))
	})
}
