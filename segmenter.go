package eagglo

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/TrevorS/eagglo"

// State is the lifecycle stage of a Segmenter.
type State int

const (
	// StateInitialized: distances and topology are built, no merge has run.
	StateInitialized State = iota
	// StateMerging: the merge loop is running, or stopped on an error.
	StateMerging
	// StateConverged: one cluster is left and results can be queried.
	StateConverged
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateMerging:
		return "merging"
	case StateConverged:
		return "converged"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Segmenter owns the mutable state of one run. Create it with NewSegmenter,
// drive it once with Run, then query the results. A Segmenter is not safe
// for concurrent use.
type Segmenter struct {
	cfg          Config
	observations int
	clusters     int

	dm   *DistanceMatrix
	topo *Topology
	hist *History

	fit    float64
	state  State
	chosen int
	err    error
}

// NewSegmenter validates cfg and data, then builds the initial distance
// matrix and topology. data must hold at least one observation and every
// row must have the same, non-zero dimension.
func NewSegmenter(ctx context.Context, data [][]float64, cfg Config) (*Segmenter, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	n := len(data)
	if n == 0 {
		return nil, configErrorf("data", "empty sequence")
	}
	dims := len(data[0])
	if dims == 0 {
		return nil, configErrorf("data", "observations have zero dimensions")
	}
	flatData := make([]float64, n*dims)
	for i, row := range data {
		if len(row) != dims {
			return nil, configErrorf("data", "observation %d has %d dimensions, want %d", i, len(row), dims)
		}
		copy(flatData[i*dims:], row)
	}

	starts, sizes, err := normalizePartition(cfg.Partition, n)
	if err != nil {
		return nil, err
	}
	if cfg.Segments > len(sizes) {
		return nil, configErrorf("Segments", "%d segments requested but only %d initial clusters", cfg.Segments, len(sizes))
	}

	dm, err := ComputeDistanceMatrixParallel(ctx, flatData, dims, starts, sizes, cfg.Alpha, cfg.Workers)
	if err != nil {
		return nil, err
	}
	topo := NewTopology(sizes)

	var fit0 float64
	for i := range sizes {
		fit0 += dm.At(i, topo.Left(i)) + dm.At(i, topo.Right(i))
	}
	if !isFinite(fit0) {
		return nil, &NumericalError{Op: "initial fit", Slots: [2]int{0, len(sizes) - 1}, Value: fit0}
	}

	return &Segmenter{
		cfg:          cfg,
		observations: n,
		clusters:     len(sizes),
		dm:           dm,
		topo:         topo,
		hist:         newHistory(starts, n, fit0),
		fit:          fit0,
		state:        StateInitialized,
	}, nil
}

// State returns the current lifecycle stage.
func (s *Segmenter) State() State { return s.state }

// Run performs the N−1 merges and selects the final segmentation. It can be
// called once. ctx is checked before every merge; on cancellation or any
// numerical failure the run stops for good and no result is available.
func (s *Segmenter) Run(ctx context.Context) error {
	if s.state != StateInitialized {
		return &StateError{Op: "run", State: s.state}
	}
	s.state = StateMerging

	ctx, span := s.cfg.TracerProvider.Tracer(tracerName).Start(ctx, "eagglo.Segmenter.Run", trace.WithAttributes(
		attribute.Int("eagglo.observations", s.observations),
		attribute.Int("eagglo.clusters", s.clusters),
		attribute.Float64("eagglo.alpha", s.cfg.Alpha),
	))
	defer span.End()

	if err := s.run(ctx); err != nil {
		s.err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.cfg.Logger.ErrorContext(ctx, "segmentation failed",
			"merges", len(s.hist.merges),
			"error", err,
		)
		return err
	}

	span.SetAttributes(
		attribute.Int("eagglo.step", s.chosen),
		attribute.Int("eagglo.segments", s.hist.segments(s.chosen)),
	)
	s.cfg.Logger.InfoContext(ctx, "segmentation converged",
		"observations", s.observations,
		"clusters", s.clusters,
		"step", s.chosen,
		"change_points", len(s.hist.changePoints(s.chosen)),
	)
	return nil
}

func (s *Segmenter) run(ctx context.Context) error {
	for s.topo.OpenCount() > 1 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("eagglo: cancelled before merge %d: %w", len(s.hist.merges)+1, err)
		}
		if err := s.step(ctx); err != nil {
			return err
		}
	}

	chosen, err := s.hist.Select(s.cfg.Penalty, s.cfg.Segments)
	if err != nil {
		return err
	}
	s.chosen = chosen
	s.state = StateConverged
	return nil
}

// step selects, splices and records one merge.
func (s *Segmenter) step(ctx context.Context) error {
	c, err := selectMerge(ctx, s.fit, s.dm, s.topo, s.cfg.Workers)
	if err != nil {
		return err
	}
	if c.left < 0 {
		return &StateError{Op: "select", State: s.state, Detail: "no merge candidate among open slots"}
	}

	absorbed := s.topo.Leftmost(c.right)
	m, err := s.topo.Splice(c.left, c.right)
	if err != nil {
		return err
	}
	if err := s.dm.Merge(s.topo, c.left, c.right, m); err != nil {
		return err
	}

	s.fit = c.fit
	s.hist.record(Merge{Left: c.left, Right: c.right, Slot: m, Fit: c.fit}, absorbed)

	s.cfg.Logger.DebugContext(ctx, "merged clusters",
		"step", len(s.hist.merges),
		"left", c.left,
		"right", c.right,
		"slot", m,
		"fit", c.fit,
	)
	return nil
}

func (s *Segmenter) checkConverged(op string) error {
	if s.state != StateConverged {
		return &StateError{Op: op, State: s.state}
	}
	return nil
}

// Labels returns the per-observation segment ids of the selected step.
func (s *Segmenter) Labels() ([]int, error) {
	if err := s.checkConverged("labels"); err != nil {
		return nil, err
	}
	return s.hist.labels(s.chosen), nil
}

// Step returns the selected step, i.e. the number of merges applied to the
// initial partition to obtain the final segmentation.
func (s *Segmenter) Step() (int, error) {
	if err := s.checkConverged("step"); err != nil {
		return 0, err
	}
	return s.chosen, nil
}

// History returns the full merge history.
func (s *Segmenter) History() (*History, error) {
	if err := s.checkConverged("history"); err != nil {
		return nil, err
	}
	return s.hist, nil
}

// Result assembles the outputs of a converged run.
func (s *Segmenter) Result() (*Result, error) {
	if err := s.checkConverged("result"); err != nil {
		return nil, err
	}
	return &Result{
		Labels:       s.hist.labels(s.chosen),
		ChangePoints: s.hist.changePoints(s.chosen),
		Step:         s.chosen,
		Fit:          s.hist.Fit(),
		PenalizedFit: s.hist.Penalized(s.cfg.Penalty),
		Merges:       s.hist.Merges(),
		Linkage:      s.hist.Linkage(),
	}, nil
}
