package eagglo

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// Topology is a fixed-capacity arena of 2N−1 cluster slots. Slots 0..N−1
// are the initial clusters and N..2N−2 are merge products in creation order.
// The open slots form a circular doubly linked list in sequence order.
// Closed slots keep their size and pointers for later lookups.
type Topology struct {
	left     []int
	right    []int
	size     []int
	leftmost []int
	open     *bitset.BitSet
	// next is the slot id handed out by the next Splice, starting at N.
	next int
}

// NewTopology creates the arena for clusters of the given sizes. Slot 0 and
// slot N−1 are linked to each other, closing the list into a ring.
func NewTopology(sizes []int) *Topology {
	n := len(sizes)
	total := 2*n - 1
	if total < 1 {
		total = 1
	}
	t := &Topology{
		left:     make([]int, total),
		right:    make([]int, total),
		size:     make([]int, total),
		leftmost: make([]int, total),
		open:     bitset.New(uint(total)),
		next:     n,
	}
	for i := 0; i < n; i++ {
		t.left[i] = (i - 1 + n) % n
		t.right[i] = (i + 1) % n
		t.size[i] = sizes[i]
		t.leftmost[i] = i
		t.open.Set(uint(i))
	}
	return t
}

func (t *Topology) Left(i int) int     { return t.left[i] }
func (t *Topology) Right(i int) int    { return t.right[i] }
func (t *Topology) Size(i int) int     { return t.size[i] }
func (t *Topology) Leftmost(i int) int { return t.leftmost[i] }
func (t *Topology) Open(i int) bool    { return t.open.Test(uint(i)) }

// OpenCount returns the number of open slots.
func (t *Topology) OpenCount() int { return int(t.open.Count()) }

// Next returns the id the next Splice will allocate.
func (t *Topology) Next() int { return t.next }

// Capacity returns the number of slots in the arena.
func (t *Topology) Capacity() int { return len(t.size) }

// EachOpen calls fn for every open slot in ascending id order until fn
// returns false.
func (t *Topology) EachOpen(fn func(slot int) bool) {
	for i, ok := t.open.NextSet(0); ok; i, ok = t.open.NextSet(i + 1) {
		if !fn(int(i)) {
			return
		}
	}
}

// OpenSlots returns the open slot ids in ascending order.
func (t *Topology) OpenSlots() []int {
	slots := make([]int, 0, t.OpenCount())
	t.EachOpen(func(slot int) bool {
		slots = append(slots, slot)
		return true
	})
	return slots
}

// Splice closes i and its right neighbour j and opens a new slot holding
// their union in their place on the ring. It returns the new slot id.
func (t *Topology) Splice(i, j int) (int, error) {
	if i == j || !t.Open(i) || !t.Open(j) {
		return -1, &StateError{Op: "splice", State: StateMerging,
			Detail: fmt.Sprintf("slots %d and %d are not two open slots", i, j)}
	}
	if t.right[i] != j || t.left[j] != i {
		return -1, &StateError{Op: "splice", State: StateMerging,
			Detail: fmt.Sprintf("slot %d is not the right neighbour of slot %d", j, i)}
	}
	if t.next >= len(t.size) {
		return -1, &StateError{Op: "splice", State: StateMerging, Detail: "slot arena exhausted"}
	}

	m := t.next
	t.next++

	ll, rr := t.left[i], t.right[j]
	if ll == j {
		// i and j were the last two open slots.
		t.left[m], t.right[m] = m, m
	} else {
		t.left[m], t.right[m] = ll, rr
		t.right[ll] = m
		t.left[rr] = m
	}

	t.open.Clear(uint(i))
	t.open.Clear(uint(j))
	t.open.Set(uint(m))
	t.size[m] = t.size[i] + t.size[j]
	t.leftmost[m] = t.leftmost[i]
	return m, nil
}
