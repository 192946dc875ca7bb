package eagglo

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// powDistance returns the Euclidean distance between a and b raised to alpha.
func powDistance(a, b []float64, alpha float64) float64 {
	d := floats.Distance(a, b, 2)
	if alpha == 1 {
		return d
	}
	return math.Pow(d, alpha)
}

// within returns the mean alpha-power distance over all size² ordered pairs
// of the rows [start, start+size) of data, self pairs included.
func within(data []float64, dims, start, size int, alpha float64) float64 {
	var sum float64
	for a := start; a < start+size; a++ {
		for b := a + 1; b < start+size; b++ {
			sum += powDistance(data[a*dims:(a+1)*dims], data[b*dims:(b+1)*dims], alpha)
		}
	}
	return 2 * sum / float64(size*size)
}

// between returns the mean alpha-power distance across the cross pairs of
// two row ranges of data.
func between(data []float64, dims, start1, size1, start2, size2 int, alpha float64) float64 {
	var sum float64
	for a := start1; a < start1+size1; a++ {
		for b := start2; b < start2+size2; b++ {
			sum += powDistance(data[a*dims:(a+1)*dims], data[b*dims:(b+1)*dims], alpha)
		}
	}
	return sum / float64(size1*size2)
}

// lanceWilliams combines the scores of clusters i and j (sizes n1, n2)
// against a third cluster k (size n3) into the score of their union against k.
func lanceWilliams(dik, djk, dij, n1, n2, n3 float64) float64 {
	return ((n1+n3)*dik + (n2+n3)*djk - n3*dij) / (n1 + n2 + n3)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// DistanceMatrix holds the energy score D[i][j] = 2·between(i,j) − within(i)
// − within(j) for every pair of slots in the arena. Storage is a symmetric
// gonum matrix of order 2N−1, so D[i][j] and D[j][i] are the same cell. The
// diagonal is zero. Entries of closed slots are kept and stay readable.
type DistanceMatrix struct {
	d *mat.SymDense
}

func newDistanceMatrix(clusters int) *DistanceMatrix {
	return &DistanceMatrix{d: mat.NewSymDense(2*clusters-1, nil)}
}

// At returns D[i][j].
func (dm *DistanceMatrix) At(i, j int) float64 { return dm.d.At(i, j) }

// Order returns the slot capacity of the matrix.
func (dm *DistanceMatrix) Order() int { return dm.d.SymmetricDim() }

func (dm *DistanceMatrix) set(i, j int, v float64) { dm.d.SetSym(i, j, v) }

// ComputeDistanceMatrix builds D for the initial clusters. data is flat
// row-major with dims columns; cluster c owns rows [starts[c], starts[c]+sizes[c]).
func ComputeDistanceMatrix(data []float64, dims int, starts, sizes []int, alpha float64) (*DistanceMatrix, error) {
	n := len(sizes)
	dm := newDistanceMatrix(n)

	w := make([]float64, n)
	for c := 0; c < n; c++ {
		w[c] = within(data, dims, starts[c], sizes[c], alpha)
		if !isFinite(w[c]) {
			return nil, &NumericalError{Op: "within dispersion", Slots: [2]int{c, c}, Value: w[c]}
		}
	}

	for i := 0; i < n; i++ {
		if err := dm.fillRow(data, dims, starts, sizes, w, alpha, i); err != nil {
			return nil, err
		}
	}
	return dm, nil
}

// fillRow computes D[i][j] for every j > i.
func (dm *DistanceMatrix) fillRow(data []float64, dims int, starts, sizes []int, w []float64, alpha float64, i int) error {
	for j := i + 1; j < len(sizes); j++ {
		b := between(data, dims, starts[i], sizes[i], starts[j], sizes[j], alpha)
		v := 2*b - w[i] - w[j]
		if !isFinite(v) {
			return &NumericalError{Op: "initial distance", Slots: [2]int{i, j}, Value: v}
		}
		dm.set(i, j, v)
	}
	return nil
}

// Merge writes the row of composite slot m, formed from slots i and j, using
// the recurrence
//
//	D[m][k] = ((n1+n3)·D[i][k] + (n2+n3)·D[j][k] − n3·D[i][j]) / (n1+n2+n3)
//
// for every other open slot k. The topology must already reflect the splice.
func (dm *DistanceMatrix) Merge(t *Topology, i, j, m int) error {
	n1, n2 := float64(t.Size(i)), float64(t.Size(j))
	if n1 == 0 || n2 == 0 {
		return &NumericalError{Op: "merge: empty cluster", Slots: [2]int{i, j}, Value: math.NaN()}
	}
	dij := dm.At(i, j)

	var err error
	t.EachOpen(func(k int) bool {
		if k == m {
			return true
		}
		n3 := float64(t.Size(k))
		if n3 == 0 {
			err = &NumericalError{Op: "merge: empty cluster", Slots: [2]int{m, k}, Parents: []int{i, j}, Value: math.NaN()}
			return false
		}
		v := lanceWilliams(dm.At(i, k), dm.At(j, k), dij, n1, n2, n3)
		if !isFinite(v) {
			err = &NumericalError{Op: "merge distance", Slots: [2]int{m, k}, Parents: []int{i, j}, Value: v}
			return false
		}
		dm.set(m, k, v)
		return true
	})
	return err
}
