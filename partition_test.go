package eagglo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePartition_Default(t *testing.T) {
	starts, sizes, err := normalizePartition(nil, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, starts)
	assert.Equal(t, []int{1, 1, 1}, sizes)
}

func TestNormalizePartition_Runs(t *testing.T) {
	starts, sizes, err := normalizePartition([]int{0, 0, 1, 2}, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 3}, starts)
	assert.Equal(t, []int{2, 1, 1}, sizes)
}

func TestNormalizePartition_RelabelsByFirstAppearance(t *testing.T) {
	// Arbitrary, unsorted ids only need to be contiguous runs.
	starts, sizes, err := normalizePartition([]int{7, 7, 3, 3, 3, 10}, 6)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 5}, starts)
	assert.Equal(t, []int{2, 3, 1}, sizes)
}

func TestNormalizePartition_Errors(t *testing.T) {
	tests := []struct {
		name      string
		partition []int
		n         int
		contains  string
	}{
		{"length mismatch", []int{0, 0, 1}, 4, "length 3"},
		{"negative id", []int{0, -1, 1}, 3, "negative"},
		{"non-contiguous id", []int{0, 1, 0}, 3, "not contiguous"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := normalizePartition(tt.partition, tt.n)
			require.ErrorIs(t, err, ErrConfiguration)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}
