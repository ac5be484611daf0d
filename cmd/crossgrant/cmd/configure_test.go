package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBoolAnswer(t *testing.T) {
	tests := []struct {
		name     string
		answer   string
		existing bool
		expected bool
	}{
		{name: "empty keeps existing true", answer: "", existing: true, expected: true},
		{name: "empty keeps existing false", answer: "", existing: false, expected: false},
		{name: "whitespace keeps existing", answer: "  ", existing: true, expected: true},
		{name: "yes overrides false", answer: "yes", existing: false, expected: true},
		{name: "y overrides false", answer: "y", existing: false, expected: true},
		{name: "uppercase Y", answer: "Y", existing: false, expected: true},
		{name: "no overrides true", answer: "no", existing: true, expected: false},
		{name: "n overrides true", answer: "n", existing: true, expected: false},
		{name: "garbage is no", answer: "maybe", existing: true, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseBoolAnswer(tt.answer, tt.existing))
		})
	}
}
