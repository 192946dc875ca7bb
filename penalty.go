package eagglo

import (
	"sort"
	"strings"
)

// Penalty scores a candidate segmentation. Evaluate receives the ascending
// boundary row of a step (segment start indices followed by the sequence
// length) and returns the amount subtracted from that step's fit.
type Penalty interface {
	Evaluate(boundaries []int) float64
}

// PenaltyFunc adapts a plain function into a Penalty.
type PenaltyFunc func(boundaries []int) float64

func (f PenaltyFunc) Evaluate(boundaries []int) float64 { return f(boundaries) }

// BoundaryCount charges one unit per boundary, favouring fewer segments.
// Registered as "penalty1".
type BoundaryCount struct{}

func (BoundaryCount) Evaluate(boundaries []int) float64 { return float64(len(boundaries)) }

// MeanSpacing credits the mean gap between consecutive boundaries, i.e. the
// average segment length: Evaluate returns its negation, so the penalized
// fit grows with longer segments. Registered as "penalty2".
type MeanSpacing struct{}

func (MeanSpacing) Evaluate(boundaries []int) float64 {
	if len(boundaries) < 2 {
		return 0
	}
	sorted := append([]int(nil), boundaries...)
	sort.Ints(sorted)
	return -float64(sorted[len(sorted)-1]-sorted[0]) / float64(len(sorted)-1)
}

// ZeroPenalty charges nothing, so selection takes the plain maximum of the
// fit trajectory.
type ZeroPenalty struct{}

func (ZeroPenalty) Evaluate([]int) float64 { return 0 }

var namedPenalties = map[string]Penalty{
	"penalty1": BoundaryCount{},
	"penalty2": MeanSpacing{},
	"zero":     ZeroPenalty{},
}

// PenaltyByName returns a built-in penalty: "penalty1" (BoundaryCount),
// "penalty2" (MeanSpacing) or "zero" (ZeroPenalty). Names are case-insensitive.
func PenaltyByName(name string) (Penalty, error) {
	p, ok := namedPenalties[strings.ToLower(name)]
	if !ok {
		return nil, configErrorf("Penalty", "unknown penalty %q", name)
	}
	return p, nil
}
