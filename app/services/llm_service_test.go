package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "no fences",
			input:    `{"diet": "vegetarian"}`,
			expected: `{"diet": "vegetarian"}`,
		},
		{
			name:     "json fence",
			input:    "```json\n{\"diet\": \"vegetarian\"}\n```",
			expected: `{"diet": "vegetarian"}`,
		},
		{
			name:     "bare fence",
			input:    "```\n{\"diet\": \"vegetarian\"}\n```",
			expected: `{"diet": "vegetarian"}`,
		},
		{
			name:     "fence with surrounding whitespace",
			input:    "  ```json\n{\"a\": 1}\n```  ",
			expected: `{"a": 1}`,
		},
		{
			name:     "content on the fence line",
			input:    "```{\"a\": 1}```",
			expected: `{"a": 1}`,
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripCodeFences(tt.input))
		})
	}
}
