package eagglo

import (
	"context"
	"math"
)

// candidate is a proposed merge of slot left with its right neighbour.
type candidate struct {
	left, right int
	fit         float64
}

// candidateFit returns the global fit after merging open slot i with its
// right neighbour j. The edges (i,j), (i,left(i)) and (j,right(j)) leave the
// ring and the merged cluster gains edges to left(i) and right(j), each
// recombined with the same recurrence DistanceMatrix.Merge uses. Every edge
// counts twice because the fit sums over both neighbours of each slot.
func candidateFit(fit float64, dm *DistanceMatrix, t *Topology, i int) float64 {
	j := t.Right(i)
	ll := t.Left(i)
	rr := t.Right(j)

	dij := dm.At(i, j)
	fit -= 2 * (dij + dm.At(i, ll) + dm.At(j, rr))

	n1, n2 := float64(t.Size(i)), float64(t.Size(j))

	n3 := float64(t.Size(ll))
	fit += 2 * lanceWilliams(dm.At(i, ll), dm.At(j, ll), dij, n1, n2, n3)

	n3 = float64(t.Size(rr))
	fit += 2 * lanceWilliams(dm.At(i, rr), dm.At(j, rr), dij, n1, n2, n3)

	return fit
}

// scanSlots evaluates the merge of every slot in slots with its right
// neighbour and returns the first maximum.
func scanSlots(fit float64, dm *DistanceMatrix, t *Topology, slots []int) (candidate, error) {
	best := candidate{left: -1, right: -1, fit: math.Inf(-1)}
	for _, i := range slots {
		x := candidateFit(fit, dm, t, i)
		if !isFinite(x) {
			return candidate{}, &NumericalError{Op: "candidate fit", Slots: [2]int{i, t.Right(i)}, Value: x}
		}
		if x > best.fit {
			best = candidate{left: i, right: t.Right(i), fit: x}
		}
	}
	return best, nil
}

// selectMerge picks the adjacent pair whose merge maximises the fit.
// Open slots are scanned in ascending id order and the lowest id wins ties.
func selectMerge(ctx context.Context, fit float64, dm *DistanceMatrix, t *Topology, numWorkers int) (candidate, error) {
	if numWorkers > 1 && t.OpenCount() >= parallelScanThreshold {
		return scanParallel(ctx, fit, dm, t, numWorkers)
	}
	return scanSlots(fit, dm, t, t.OpenSlots())
}
