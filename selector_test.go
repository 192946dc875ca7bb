package eagglo

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func univariateState(t *testing.T) (*DistanceMatrix, *Topology, float64) {
	t.Helper()
	starts, sizes := singletons(4)
	dm, err := ComputeDistanceMatrix(univariate, 1, starts, sizes, 1)
	require.NoError(t, err)
	topo := NewTopology(sizes)
	var fit float64
	for i := 0; i < 4; i++ {
		fit += dm.At(i, topo.Left(i)) + dm.At(i, topo.Right(i))
	}
	return dm, topo, fit
}

func TestCandidateFit_Univariate(t *testing.T) {
	dm, topo, fit := univariateState(t)
	assert.InDelta(t, 104.77424, fit, 1e-4)

	// Merging slots 2 and 3 gives the second value of the known trajectory.
	assert.InDelta(t, 134.51387, candidateFit(fit, dm, topo, 2), 1e-4)
}

func TestSelectMerge_PicksBestAdjacentPair(t *testing.T) {
	dm, topo, fit := univariateState(t)

	c, err := selectMerge(context.Background(), fit, dm, topo, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, c.left)
	assert.Equal(t, 3, c.right)
	assert.Equal(t, topo.Right(c.left), c.right)

	// No other candidate beats the winner.
	for _, i := range topo.OpenSlots() {
		assert.LessOrEqual(t, candidateFit(fit, dm, topo, i), c.fit)
	}
}

func TestSelectMerge_TiesGoToLowestSlot(t *testing.T) {
	// Two identical blocks: merges inside either block score the same.
	data := []float64{0, 0.1, 10, 10.1, 0, 0.1, 10, 10.1}
	starts, sizes := singletons(8)
	dm, err := ComputeDistanceMatrix(data, 1, starts, sizes, 1)
	require.NoError(t, err)
	topo := NewTopology(sizes)

	c, err := scanSlots(0, dm, topo, topo.OpenSlots())
	require.NoError(t, err)
	for _, i := range topo.OpenSlots() {
		if i < c.left {
			assert.Less(t, candidateFit(0, dm, topo, i), c.fit, "slot %d ties with winner %d but is lower", i, c.left)
		}
	}
}

func TestSelectMerge_NonFiniteCandidate(t *testing.T) {
	dm, topo, fit := univariateState(t)
	dm.set(1, 2, math.NaN())

	_, err := selectMerge(context.Background(), fit, dm, topo, 1)
	var ne *NumericalError
	require.ErrorAs(t, err, &ne)
	// Slot 0's candidate only touches D[0][1], D[0][3], D[1][2]: the first
	// scanned slot already sees the NaN.
	assert.Equal(t, [2]int{0, 1}, ne.Slots)
}
