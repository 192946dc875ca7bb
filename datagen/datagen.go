// Package datagen generates piecewise Gaussian sequences with known change
// points, for testing segmentation algorithms.
//
// Every generator takes a seed; the same arguments and seed always yield
// the same sequence. Segments are drawn in order from one shared source.
package datagen

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrShape is returned when the per-segment arguments disagree in length or
// dimension.
var ErrShape = errors.New("datagen: inconsistent segment parameters")

func newSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed)
}

// broadcast expands stdDevs to one value per segment: nil means 1.0 for every
// segment and a single value applies to all of them.
func broadcast(stdDevs []float64, segments int) ([]float64, error) {
	switch len(stdDevs) {
	case 0:
		stdDevs = []float64{1}
		fallthrough
	case 1:
		out := make([]float64, segments)
		for i := range out {
			out[i] = stdDevs[0]
		}
		return out, nil
	case segments:
		return stdDevs, nil
	default:
		return nil, fmt.Errorf("%w: %d standard deviations for %d segments", ErrShape, len(stdDevs), segments)
	}
}

// PiecewiseNormal returns a univariate sequence made of len(means) segments.
// Segment k has lengths[k] values drawn from N(means[k], stdDevs[k]²).
func PiecewiseNormal(means []float64, lengths []int, stdDevs []float64, seed uint64) ([]float64, error) {
	if len(means) != len(lengths) {
		return nil, fmt.Errorf("%w: %d means for %d lengths", ErrShape, len(means), len(lengths))
	}
	sd, err := broadcast(stdDevs, len(means))
	if err != nil {
		return nil, err
	}

	src := newSource(seed)
	var out []float64
	for k, mean := range means {
		if lengths[k] < 0 || sd[k] < 0 {
			return nil, fmt.Errorf("%w: segment %d has length %d and standard deviation %v", ErrShape, k, lengths[k], sd[k])
		}
		dist := distuv.Normal{Mu: mean, Sigma: sd[k], Src: src}
		for i := 0; i < lengths[k]; i++ {
			out = append(out, dist.Rand())
		}
	}
	return out, nil
}

// PiecewiseNormalMultivariate returns a sequence of len(means) segments
// where segment k has lengths[k] observations drawn from a multivariate
// normal with mean means[k] and covariance covariances[k]. Covariances must
// be positive definite; use DiagonalCovariances for independent components.
func PiecewiseNormalMultivariate(means [][]float64, lengths []int, covariances []mat.Symmetric, seed uint64) ([][]float64, error) {
	if len(means) != len(lengths) || len(means) != len(covariances) {
		return nil, fmt.Errorf("%w: %d means, %d lengths, %d covariances",
			ErrShape, len(means), len(lengths), len(covariances))
	}
	if len(means) == 0 {
		return nil, nil
	}

	dims := len(means[0])
	src := newSource(seed)
	var out [][]float64
	for k, mean := range means {
		if len(mean) != dims || covariances[k].SymmetricDim() != dims {
			return nil, fmt.Errorf("%w: segment %d does not have dimension %d", ErrShape, k, dims)
		}
		dist, ok := distmv.NewNormal(mean, covariances[k], src)
		if !ok {
			return nil, fmt.Errorf("%w: covariance of segment %d is not positive definite", ErrShape, k)
		}
		for i := 0; i < lengths[k]; i++ {
			out = append(out, dist.Rand(nil))
		}
	}
	return out, nil
}

// DiagonalCovariances builds one diagonal covariance matrix per row of
// variances.
func DiagonalCovariances(variances [][]float64) []mat.Symmetric {
	out := make([]mat.Symmetric, len(variances))
	for k, v := range variances {
		cov := mat.NewSymDense(len(v), nil)
		for d, x := range v {
			cov.SetSym(d, d, x)
		}
		out[k] = cov
	}
	return out
}

// LabelPiecewiseNormal returns the ground truth labels of a PiecewiseNormal
// sequence. With repeated set, segments sharing both mean and standard
// deviation share a label, numbered by ascending (mean, standard deviation);
// otherwise segment k is labelled k.
func LabelPiecewiseNormal(means []float64, lengths []int, stdDevs []float64, repeated bool) ([]int, error) {
	if len(means) != len(lengths) {
		return nil, fmt.Errorf("%w: %d means for %d lengths", ErrShape, len(means), len(lengths))
	}
	sd, err := broadcast(stdDevs, len(means))
	if err != nil {
		return nil, err
	}

	segLabel := make([]int, len(means))
	if repeated {
		type key struct{ mean, sd float64 }
		var keys []key
		seen := make(map[key]bool)
		for k := range means {
			kk := key{means[k], sd[k]}
			if !seen[kk] {
				seen[kk] = true
				keys = append(keys, kk)
			}
		}
		sort.Slice(keys, func(a, b int) bool {
			if keys[a].mean != keys[b].mean {
				return keys[a].mean < keys[b].mean
			}
			return keys[a].sd < keys[b].sd
		})
		index := make(map[key]int, len(keys))
		for i, kk := range keys {
			index[kk] = i
		}
		for k := range means {
			segLabel[k] = index[key{means[k], sd[k]}]
		}
	} else {
		for k := range segLabel {
			segLabel[k] = k
		}
	}

	var out []int
	for k, n := range lengths {
		for i := 0; i < n; i++ {
			out = append(out, segLabel[k])
		}
	}
	return out, nil
}
