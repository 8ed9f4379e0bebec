package replkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain statement untouched",
			input:    "x = 5",
			expected: "x = 5",
		},
		{
			name:     "surrounding whitespace trimmed",
			input:    "  x = 5 \n",
			expected: "x = 5",
		},
		{
			name:     "expression shortcut wrapped",
			input:    "=2*21",
			expected: "(2*21)\n",
		},
		{
			name:     "expression shortcut with trailing terminator",
			input:    "=2*21;",
			expected: "(2*21)\n",
		},
		{
			name:     "expression shortcut with inner whitespace",
			input:    "=  1 + 1  ",
			expected: "(1 + 1)\n",
		},
		{
			name:     "empty input",
			input:    "   ",
			expected: "",
		},
		{
			name:     "bare sentinel",
			input:    "=",
			expected: "()\n",
		},
		{
			name:     "equality comparison not rewritten",
			input:    "x == 5",
			expected: "x == 5",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}
