package market

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMedian(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{
			name:     "Odd length picks middle",
			values:   []float64{5, 1, 3},
			expected: 3,
		},
		{
			name:     "Even length averages the two middles",
			values:   []float64{1, 2, 3, 4},
			expected: 2.5,
		},
		{
			name:     "Zeros and negatives excluded",
			values:   []float64{0, -5, 10, 20},
			expected: 15,
		},
		{
			name:     "NaN and Inf excluded",
			values:   []float64{math.NaN(), math.Inf(1), 7},
			expected: 7,
		},
		{
			name:     "Empty input",
			values:   nil,
			expected: 0,
		},
		{
			name:     "All filtered out",
			values:   []float64{0, -1},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, median(tt.values))
		})
	}
}

func TestMiddleOfSorted(t *testing.T) {
	// Even length takes the upper-middle element, no averaging.
	assert.Equal(t, 3.0, middleOfSorted([]float64{4, 1, 3, 2}))
	assert.Equal(t, 3.0, middleOfSorted([]float64{5, 1, 3}))
	assert.Equal(t, 0.0, middleOfSorted(nil))
}

func TestMiddleOfSorted_DoesNotMutateInput(t *testing.T) {
	values := []float64{4, 1, 3, 2}
	middleOfSorted(values)
	assert.Equal(t, []float64{4, 1, 3, 2}, values)
}

func TestSampleStdDev(t *testing.T) {
	// Bessel-corrected: variance of {2,4,4,4,5,5,7,9} with N-1 is 32/7.
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, math.Sqrt(32.0/7.0), sampleStdDev(values), 1e-9)

	assert.Equal(t, 0.0, sampleStdDev([]float64{42}))
	assert.Equal(t, 0.0, sampleStdDev(nil))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, -50.0, clamp(-120, -50, 50))
	assert.Equal(t, 50.0, clamp(80, -50, 50))
	assert.Equal(t, 12.5, clamp(12.5, -50, 50))
}
