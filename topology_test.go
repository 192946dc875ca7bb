package eagglo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertRing checks that the open slots form one circular doubly linked list
// and that their sizes sum to total.
func assertRing(t *testing.T, topo *Topology, total int) {
	t.Helper()
	open := topo.OpenSlots()
	require.NotEmpty(t, open)

	sum := 0
	for _, s := range open {
		sum += topo.Size(s)
	}
	assert.Equal(t, total, sum, "sizes of open slots")

	seen := make(map[int]bool)
	cur := open[0]
	for range open {
		assert.True(t, topo.Open(cur), "slot %d on the ring is closed", cur)
		assert.False(t, seen[cur], "slot %d visited twice", cur)
		seen[cur] = true
		assert.Equal(t, cur, topo.Left(topo.Right(cur)), "left(right(%d))", cur)
		cur = topo.Right(cur)
	}
	assert.Equal(t, open[0], cur, "ring does not close")
	assert.Len(t, seen, len(open))
}

func TestNewTopology(t *testing.T) {
	topo := NewTopology([]int{1, 2, 3, 4})

	assert.Equal(t, 7, topo.Capacity())
	assert.Equal(t, 4, topo.OpenCount())
	assert.Equal(t, 4, topo.Next())
	assert.Equal(t, []int{0, 1, 2, 3}, topo.OpenSlots())

	// Slot 0 and slot 3 wrap around to each other.
	assert.Equal(t, 3, topo.Left(0))
	assert.Equal(t, 0, topo.Right(3))
	for i := 0; i < 4; i++ {
		assert.Equal(t, i, topo.Leftmost(i))
		assert.Equal(t, i+1, topo.Size(i))
	}
	for i := 4; i < 7; i++ {
		assert.False(t, topo.Open(i))
	}
	assertRing(t, topo, 10)
}

func TestNewTopology_SingleCluster(t *testing.T) {
	topo := NewTopology([]int{5})
	assert.Equal(t, 1, topo.Capacity())
	assert.Equal(t, 0, topo.Left(0))
	assert.Equal(t, 0, topo.Right(0))
	assertRing(t, topo, 5)
}

func TestTopology_Splice(t *testing.T) {
	topo := NewTopology([]int{1, 1, 1, 1})

	m, err := topo.Splice(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, m)
	assert.Equal(t, 2, topo.Size(m))
	assert.Equal(t, 1, topo.Leftmost(m))
	assert.Equal(t, 0, topo.Left(m))
	assert.Equal(t, 3, topo.Right(m))
	assert.Equal(t, m, topo.Right(0))
	assert.Equal(t, m, topo.Left(3))
	assert.Equal(t, []int{0, 3, 4}, topo.OpenSlots())
	assertRing(t, topo, 4)

	// Wrap-around merge of the last slot with the first.
	m2, err := topo.Splice(3, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, m2)
	assert.Equal(t, 3, topo.Leftmost(m2))
	assertRing(t, topo, 4)

	// Final merge leaves one slot that is its own neighbour.
	m3, err := topo.Splice(m, m2)
	require.NoError(t, err)
	assert.Equal(t, 6, m3)
	assert.Equal(t, 1, topo.OpenCount())
	assert.Equal(t, m3, topo.Left(m3))
	assert.Equal(t, m3, topo.Right(m3))
	assertRing(t, topo, 4)
}

func TestTopology_SpliceRejectsNonNeighbours(t *testing.T) {
	topo := NewTopology([]int{1, 1, 1, 1})

	_, err := topo.Splice(0, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrState))

	// Neighbours in the wrong orientation.
	_, err = topo.Splice(1, 0)
	assert.ErrorIs(t, err, ErrState)

	_, err = topo.Splice(2, 2)
	assert.ErrorIs(t, err, ErrState)

	// Nothing changed.
	assert.Equal(t, 4, topo.OpenCount())
	assert.Equal(t, 4, topo.Next())
}

func TestTopology_SpliceRejectsClosedSlots(t *testing.T) {
	topo := NewTopology([]int{1, 1, 1})
	_, err := topo.Splice(0, 1)
	require.NoError(t, err)

	_, err = topo.Splice(0, 1)
	var se *StateError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "splice", se.Op)
	assert.Contains(t, err.Error(), "slots 0 and 1")
}

func TestTopology_EachOpenStops(t *testing.T) {
	topo := NewTopology([]int{1, 1, 1, 1, 1})
	var visited []int
	topo.EachOpen(func(slot int) bool {
		visited = append(visited, slot)
		return slot < 2
	})
	assert.Equal(t, []int{0, 1, 2}, visited)
}
