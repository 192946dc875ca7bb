package eagglo

import "fmt"

// Merge records one accepted merge.
type Merge struct {
	// Left and Right are the merged slots; Right was Left's right neighbour.
	Left, Right int
	// Slot is the composite slot created by the merge.
	Slot int
	// Fit is the global goodness-of-fit after the merge.
	Fit float64
}

// History is the replayable record of a run: the merges in order, the
// goodness-of-fit trajectory and the change point progression.
//
// Step s denotes the state after s merges, so step 0 is the initial
// partition and step N−1 the single remaining cluster. The boundary row of
// step 0 holds the first observation index of each initial cluster followed
// by the sequence length; each merge removes the boundary owned by the
// absorbed cluster's leftmost initial cluster.
type History struct {
	observations int
	clusters     int
	initial      []int
	removed      []int
	merges       []Merge
	fit          []float64
}

func newHistory(starts []int, observations int, fit0 float64) *History {
	initial := make([]int, len(starts)+1)
	copy(initial, starts)
	initial[len(starts)] = observations
	return &History{
		observations: observations,
		clusters:     len(starts),
		initial:      initial,
		removed:      make([]int, 0, len(starts)),
		merges:       make([]Merge, 0, len(starts)),
		fit:          append(make([]float64, 0, len(starts)), fit0),
	}
}

// record appends a merge together with the index of the boundary it removes.
func (h *History) record(m Merge, boundary int) {
	h.merges = append(h.merges, m)
	h.removed = append(h.removed, boundary)
	h.fit = append(h.fit, m.Fit)
}

// Steps returns the number of recorded states, merges plus one.
func (h *History) Steps() int { return len(h.fit) }

// Fit returns the goodness-of-fit trajectory, one value per step.
func (h *History) Fit() []float64 { return append([]float64(nil), h.fit...) }

// Merges returns the merges in the order they were accepted.
func (h *History) Merges() []Merge { return append([]Merge(nil), h.merges...) }

// Linkage returns each merge as a pair of signed ids: an initial cluster
// slot s is reported as −(s+1) and a composite slot as the 1-based number of
// the merge that created it.
func (h *History) Linkage() [][2]int {
	out := make([][2]int, len(h.merges))
	for k, m := range h.merges {
		out[k] = [2]int{h.provenance(m.Left), h.provenance(m.Right)}
	}
	return out
}

func (h *History) provenance(slot int) int {
	if slot < h.clusters {
		return -(slot + 1)
	}
	return slot - h.clusters + 1
}

// BoundariesAt returns the ascending boundary row of the given step.
func (h *History) BoundariesAt(step int) ([]int, error) {
	if err := h.checkStep("boundaries", step); err != nil {
		return nil, err
	}
	return h.boundaries(step), nil
}

func (h *History) checkStep(op string, step int) error {
	if step < 0 || step >= len(h.fit) {
		return &StateError{Op: op, State: StateConverged,
			Detail: fmt.Sprintf("step %d outside recorded steps 0..%d", step, len(h.fit)-1)}
	}
	return nil
}

func (h *History) boundaries(step int) []int {
	alive := h.replay(step)
	out := make([]int, 0, len(h.initial)-step)
	for k, b := range h.initial {
		if alive[k] {
			out = append(out, b)
		}
	}
	return out
}

func (h *History) replay(step int) []bool {
	alive := make([]bool, len(h.initial))
	for k := range alive {
		alive[k] = true
	}
	for _, k := range h.removed[:step] {
		alive[k] = false
	}
	return alive
}

// Penalized returns fit[s] − p.Evaluate(BoundariesAt(s)) for every step.
// A nil penalty returns the plain trajectory.
func (h *History) Penalized(p Penalty) []float64 {
	out := h.Fit()
	if p == nil {
		return out
	}
	alive := h.replay(0)
	row := make([]int, 0, len(h.initial))
	for s := range out {
		if s > 0 {
			alive[h.removed[s-1]] = false
		}
		row = row[:0]
		for k, b := range h.initial {
			if alive[k] {
				row = append(row, b)
			}
		}
		out[s] -= p.Evaluate(append([]int(nil), row...))
	}
	return out
}

// Select returns the step whose boundary row is the final segmentation.
//
// With segments > 0 the earliest step whose labels have exactly that many
// segments is chosen. A merge across the sequence ends can skip a count, in
// which case a ConfigError is returned. Otherwise, without a penalty, the
// step right before the final collapse is chosen; with a penalty, the step
// maximising the penalised fit, the final single cluster state excluded and
// the earliest step winning ties.
func (h *History) Select(p Penalty, segments int) (int, error) {
	last := len(h.fit) - 1
	if segments > 0 {
		if segments > h.clusters {
			return 0, configErrorf("Segments", "%d segments requested but only %d initial clusters", segments, h.clusters)
		}
		for s := 0; s <= last; s++ {
			if h.segments(s) == segments {
				return s, nil
			}
		}
		return 0, configErrorf("Segments", "no step has exactly %d segments after merges across the sequence ends", segments)
	}
	if last == 0 {
		return 0, nil
	}
	if p == nil {
		return last - 1, nil
	}

	pf := h.Penalized(p)
	best := 0
	for s := 0; s < last; s++ {
		if !isFinite(pf[s]) {
			slots := [2]int{-1, -1}
			if s > 0 {
				slots = [2]int{h.merges[s-1].Left, h.merges[s-1].Right}
			}
			return 0, &NumericalError{Op: fmt.Sprintf("penalized fit at step %d", s), Slots: slots, Value: pf[s]}
		}
		if pf[s] > pf[best] {
			best = s
		}
	}
	return best, nil
}

// Labels expands the boundary row of step into one segment id per
// observation. Ids start at 0 and increase by one at every boundary. Once
// every initial cluster has been merged all observations share id 0.
func (h *History) Labels(step int) ([]int, error) {
	if err := h.checkStep("labels", step); err != nil {
		return nil, err
	}
	return h.labels(step), nil
}

func (h *History) labels(step int) []int {
	labels := make([]int, h.observations)
	if step == h.clusters-1 {
		return labels
	}
	bounds := h.boundaries(step)
	seg, k := 0, 0
	for x := range labels {
		for k < len(bounds) && bounds[k] <= x {
			if bounds[k] > 0 && bounds[k] == x {
				seg++
			}
			k++
		}
		labels[x] = seg
	}
	return labels
}

// ChangePoints returns the interior boundaries of step: the observation
// indices at which a new segment starts, excluding 0 and the sequence
// length. It agrees with Labels.
func (h *History) ChangePoints(step int) ([]int, error) {
	if err := h.checkStep("change points", step); err != nil {
		return nil, err
	}
	return h.changePoints(step), nil
}

func (h *History) changePoints(step int) []int {
	if step == h.clusters-1 {
		return nil
	}
	var out []int
	for _, b := range h.boundaries(step) {
		if b > 0 && b < h.observations {
			out = append(out, b)
		}
	}
	return out
}

// segments returns the number of distinct labels at step.
func (h *History) segments(step int) int {
	return len(h.changePoints(step)) + 1
}
