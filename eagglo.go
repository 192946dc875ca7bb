package eagglo

import (
	"context"
	"log/slog"
	"runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Config controls a segmentation run.
// Start with [DefaultConfig] and override the fields you need.
type Config struct {
	// Alpha is the exponent applied to Euclidean distances in the energy
	// statistic. Must satisfy 0 < Alpha <= 2. Default: 1.0.
	Alpha float64

	// Partition optionally assigns each observation an initial cluster id.
	// Ids are relabelled in order of first appearance; each id's observations
	// must be contiguous. nil starts from one cluster per observation.
	Partition []int

	// Penalty scores candidate segmentations during final selection. The
	// selected step maximises fit minus penalty. nil selects the step right
	// before the final collapse. See [PenaltyByName] for the built-ins.
	Penalty Penalty

	// Segments, if > 0, selects the earliest step whose labels have exactly
	// this many segments and overrides Penalty. Must not exceed the number of
	// initial clusters. A merge across the sequence ends can make a count
	// unreachable; Run then fails with a ConfigError. Default: 0.
	Segments int

	// Workers controls the number of goroutines used to build the initial
	// distance matrix and to scan merge candidates on large inputs.
	// 0 means runtime.NumCPU(). Default: 0 (auto).
	Workers int

	// Logger receives a debug record per merge and a summary per run.
	// nil discards all output.
	Logger *slog.Logger

	// TracerProvider supplies the tracer for the span around each run.
	// nil uses the global provider from otel.GetTracerProvider.
	TracerProvider trace.TracerProvider
}

// Result contains the output of a segmentation run.
type Result struct {
	// Labels assigns each observation its segment id. Ids are 0-based and
	// non-decreasing over the input order.
	Labels []int

	// ChangePoints lists the observation indices at which a new segment
	// starts, excluding 0.
	ChangePoints []int

	// Step is the number of merges applied to the initial partition to reach
	// the selected segmentation.
	Step int

	// Fit is the goodness-of-fit trajectory: the initial value followed by one
	// value per merge.
	Fit []float64

	// PenalizedFit is Fit minus the configured penalty of each step's
	// boundaries. Equal to Fit when no penalty is configured.
	PenalizedFit []float64

	// Merges lists the merged slot pairs in order.
	Merges []Merge

	// Linkage is Merges in signed form: −(s+1) for initial cluster s, k for
	// the cluster created by the k-th merge.
	Linkage [][2]int
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Alpha: 1.0,
	}
}

// validateConfig checks that cfg fields are valid and returns a descriptive error if not.
func validateConfig(cfg *Config) error {
	if !(cfg.Alpha > 0 && cfg.Alpha <= 2) {
		return configErrorf("Alpha", "must be in (0, 2], got %v", cfg.Alpha)
	}
	if cfg.Segments < 0 {
		return configErrorf("Segments", "must be >= 0, got %d", cfg.Segments)
	}
	if cfg.Workers < 0 {
		return configErrorf("Workers", "must be >= 0, got %d", cfg.Workers)
	}
	return nil
}

// applyDefaults fills in zero-valued config fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
}

// emptyResult returns a Result for an empty sequence.
func emptyResult() *Result {
	return &Result{
		Labels:       []int{},
		ChangePoints: []int{},
		Fit:          []float64{},
		PenalizedFit: []float64{},
		Merges:       []Merge{},
		Linkage:      [][2]int{},
	}
}

// Segment partitions data into contiguous segments.
// Each element is an observation (float64 slice); all observations must have
// the same dimensionality and their order defines adjacency.
func Segment(data [][]float64, cfg Config) (*Result, error) {
	return SegmentContext(context.Background(), data, cfg)
}

// SegmentContext is Segment with cancellation. ctx is checked while the
// distance matrix is built and once per merge.
func SegmentContext(ctx context.Context, data [][]float64, cfg Config) (*Result, error) {
	if len(data) == 0 {
		applyDefaults(&cfg)
		if err := validateConfig(&cfg); err != nil {
			return nil, err
		}
		if len(cfg.Partition) != 0 {
			return nil, configErrorf("Partition", "length %d does not match 0 observations", len(cfg.Partition))
		}
		return emptyResult(), nil
	}

	s, err := NewSegmenter(ctx, data, cfg)
	if err != nil {
		return nil, err
	}
	if err := s.Run(ctx); err != nil {
		return nil, err
	}
	return s.Result()
}
