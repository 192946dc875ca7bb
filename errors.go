package eagglo

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned for invalid parameters or inputs: alpha out
	// of range, mismatched partition length, non-contiguous partition ids.
	ErrConfiguration = errors.New("eagglo: invalid configuration")

	// ErrNumerical is returned when a distance or fit value becomes NaN or
	// ±Inf, or a cluster of size zero is encountered. The run is aborted.
	ErrNumerical = errors.New("eagglo: numerical failure")

	// ErrState is returned when a Segmenter is queried or driven out of order,
	// or when the neighbour topology is found inconsistent.
	ErrState = errors.New("eagglo: invalid state")
)

// ConfigError describes a rejected configuration field or input.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("eagglo: invalid %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

func configErrorf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NumericalError identifies the pair of slots whose score became NaN or
// ±Inf. Parents lists the two slots that were combined to produce it, if
// the value came from a merge.
type NumericalError struct {
	Op      string
	Slots   [2]int
	Parents []int
	Value   float64
}

func (e *NumericalError) Error() string {
	if len(e.Parents) == 2 {
		return fmt.Sprintf("eagglo: %s: value %v for slots %d and %d (merging slots %d and %d)",
			e.Op, e.Value, e.Slots[0], e.Slots[1], e.Parents[0], e.Parents[1])
	}
	return fmt.Sprintf("eagglo: %s: value %v for slots %d and %d",
		e.Op, e.Value, e.Slots[0], e.Slots[1])
}

func (e *NumericalError) Unwrap() error { return ErrNumerical }

// StateError reports an operation attempted in the wrong run state or an
// adjacency violation inside the topology.
type StateError struct {
	Op     string
	State  State
	Detail string
}

func (e *StateError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("eagglo: %s: %s (state %s)", e.Op, e.Detail, e.State)
	}
	return fmt.Sprintf("eagglo: %s not allowed in state %s", e.Op, e.State)
}

func (e *StateError) Unwrap() error { return ErrState }
