package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAreaName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Exact alias match",
			input:    "siasconset",
			expected: "Sconset",
		},
		{
			name:     "Alias match is case insensitive",
			input:    "SIASCONSET",
			expected: "Sconset",
		},
		{
			name:     "Apostrophe variant",
			input:    "'Sconset",
			expected: "Sconset",
		},
		{
			name:     "Substring alias match",
			input:    "Nantucket Town Historic District",
			expected: "Town",
		},
		{
			name:     "First declared alias wins on substring ties",
			input:    "downtown center",
			expected: "Town",
		},
		{
			name:     "Whitespace trimmed before matching",
			input:    "  tom nevers  ",
			expected: "Tom Nevers",
		},
		{
			name:     "Unknown name is title-cased",
			input:    "polpis road area",
			expected: "Polpis Road Area",
		},
		{
			name:     "Already canonical passes through",
			input:    "Madaket",
			expected: "Madaket",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeAreaName(tt.input))
		})
	}
}

func TestNormalizeAreaName_Idempotent(t *testing.T) {
	inputs := []string{"siasconset", "Brant Point", "polpis road area", "Surfside"}
	for _, in := range inputs {
		once := NormalizeAreaName(in)
		assert.Equal(t, once, NormalizeAreaName(once), "normalizing %q twice changed the result", in)
	}
}
