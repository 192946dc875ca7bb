package eagglo

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomFlat(n, dims int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	data := make([]float64, n*dims)
	for i := range data {
		data[i] = rng.Float64() * 100
	}
	return data
}

func TestComputeDistanceMatrixParallel_BitwiseIdentical(t *testing.T) {
	n, dims := 37, 3
	data := randomFlat(n, dims, 42)
	starts, sizes := singletons(n)

	sequential, err := ComputeDistanceMatrix(data, dims, starts, sizes, 1.5)
	require.NoError(t, err)

	for _, workers := range []int{1, 2, 4, 8} {
		parallel, err := ComputeDistanceMatrixParallel(context.Background(), data, dims, starts, sizes, 1.5, workers)
		require.NoError(t, err)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if parallel.At(i, j) != sequential.At(i, j) {
					t.Fatalf("workers=%d: D[%d][%d] = %v, expected %v (bitwise)",
						workers, i, j, parallel.At(i, j), sequential.At(i, j))
				}
			}
		}
	}
}

func TestComputeDistanceMatrixParallel_GroupedClusters(t *testing.T) {
	data := randomFlat(12, 2, 7)
	starts := []int{0, 3, 4, 9}
	sizes := []int{3, 1, 5, 3}

	sequential, err := ComputeDistanceMatrix(data, 2, starts, sizes, 1)
	require.NoError(t, err)
	parallel, err := ComputeDistanceMatrixParallel(context.Background(), data, 2, starts, sizes, 1, 3)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			assert.Equal(t, sequential.At(i, j), parallel.At(i, j))
		}
	}
}

func TestComputeDistanceMatrixParallel_Cancelled(t *testing.T) {
	data := randomFlat(50, 2, 1)
	starts, sizes := singletons(50)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ComputeDistanceMatrixParallel(ctx, data, 2, starts, sizes, 1, 4)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanParallel_MatchesSequential(t *testing.T) {
	n := 64
	data := randomFlat(n, 2, 3)
	starts, sizes := singletons(n)
	dm, err := ComputeDistanceMatrix(data, 2, starts, sizes, 1)
	require.NoError(t, err)
	topo := NewTopology(sizes)

	var fit float64
	for i := 0; i < n; i++ {
		fit += dm.At(i, topo.Left(i)) + dm.At(i, topo.Right(i))
	}

	// Walk a few merges so composite slots take part in the scan.
	for step := 0; step < 10; step++ {
		want, err := scanSlots(fit, dm, topo, topo.OpenSlots())
		require.NoError(t, err)
		for _, workers := range []int{2, 3, 7} {
			got, err := scanParallel(context.Background(), fit, dm, topo, workers)
			require.NoError(t, err)
			require.Equal(t, want, got, "step %d workers %d", step, workers)
		}

		m, err := topo.Splice(want.left, want.right)
		require.NoError(t, err)
		require.NoError(t, dm.Merge(topo, want.left, want.right, m))
		fit = want.fit
	}
}

func TestScanParallel_TieKeepsLowestSlot(t *testing.T) {
	// Evenly spaced points give bitwise equal candidates for the interior
	// slots, so the winner is decided by the tie rule.
	data := []float64{0, 1, 2, 3, 4, 5, 6, 7}
	starts, sizes := singletons(8)
	dm, err := ComputeDistanceMatrix(data, 1, starts, sizes, 1)
	require.NoError(t, err)
	topo := NewTopology(sizes)

	want, err := scanSlots(0, dm, topo, topo.OpenSlots())
	require.NoError(t, err)
	got, err := scanParallel(context.Background(), 0, dm, topo, 4)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
