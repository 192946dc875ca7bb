package eagglo

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// parallelScanThreshold is the open-slot count from which a merge step
// evaluates its candidates on several goroutines.
const parallelScanThreshold = 2048

// ComputeDistanceMatrixParallel builds the same matrix as
// ComputeDistanceMatrix using numWorkers goroutines. If numWorkers <= 1 it
// falls back to the sequential version. Every entry is computed exactly as
// in the sequential path, so the two results are bitwise identical.
//
// The first error by row order is returned; ctx cancellation stops the
// remaining rows.
func ComputeDistanceMatrixParallel(ctx context.Context, data []float64, dims int, starts, sizes []int, alpha float64, numWorkers int) (*DistanceMatrix, error) {
	n := len(sizes)
	if numWorkers <= 1 || n <= 1 {
		return ComputeDistanceMatrix(data, dims, starts, sizes, alpha)
	}

	dm := newDistanceMatrix(n)
	w := make([]float64, n)
	rowErrs := make([]error, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)

	// Within dispersions first: every row of D reads all of them.
	for c := 0; c < n; c++ {
		g.Go(func() error {
			w[c] = within(data, dims, starts[c], sizes[c], alpha)
			if !isFinite(w[c]) {
				rowErrs[c] = &NumericalError{Op: "within dispersion", Slots: [2]int{c, c}, Value: w[c]}
			}
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := firstError(rowErrs); err != nil {
		return nil, err
	}

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)

	// Rows write disjoint cells of the upper triangle, so no locking.
	rowsPerWorker := (n + numWorkers - 1) / numWorkers
	for start := 0; start < n; start += rowsPerWorker {
		end := min(start+rowsPerWorker, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := dm.fillRow(data, dims, starts, sizes, w, alpha, i); err != nil {
					rowErrs[i] = err
					return nil
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := firstError(rowErrs); err != nil {
		return nil, err
	}
	return dm, nil
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// scanParallel evaluates the candidate merges of the open slots in ordered
// chunks on numWorkers goroutines and reduces the chunk winners in slot
// order. The result matches the sequential scan, ties included.
func scanParallel(ctx context.Context, fit float64, dm *DistanceMatrix, t *Topology, numWorkers int) (candidate, error) {
	slots := t.OpenSlots()
	chunk := (len(slots) + numWorkers - 1) / numWorkers
	nChunks := (len(slots) + chunk - 1) / chunk
	best := make([]candidate, nChunks)
	errs := make([]error, nChunks)

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)
	for c := 0; c < nChunks; c++ {
		lo := c * chunk
		hi := min(lo+chunk, len(slots))
		g.Go(func() error {
			best[c], errs[c] = scanSlots(fit, dm, t, slots[lo:hi])
			return nil
		})
	}
	_ = g.Wait()
	if err := firstError(errs); err != nil {
		return candidate{}, err
	}

	winner := best[0]
	for _, c := range best[1:] {
		if c.fit > winner.fit {
			winner = c
		}
	}
	return winner, nil
}
