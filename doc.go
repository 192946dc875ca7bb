// Package eagglo implements agglomerative change-point detection with
// energy statistics (E-Agglo).
//
// An ordered sequence of observations is split into contiguous segments by
// repeatedly merging the pair of neighbouring clusters whose union gives the
// largest goodness-of-fit. The fit sums an energy distance,
// 2·E|X−Y|^α − E|X−X'|^α − E|Y−Y'|^α, over every pair of neighbouring
// clusters. After all merges the history is searched for the best
// segmentation, optionally trading fit for fewer change points through a
// penalty.
//
// Basic usage:
//
//	cfg := eagglo.DefaultConfig()
//	cfg.Penalty, _ = eagglo.PenaltyByName("penalty1")
//	result, err := eagglo.Segment(data, cfg)
//	// result.Labels[i] is the segment of observation i (0, 0, ..., 1, 1, ...)
//	// result.ChangePoints are the indices where segments start
//	// result.Fit is the goodness-of-fit after each merge
//
// Starting from coarser clusters:
//
//	cfg.Partition = []int{0, 0, 0, 1, 1, 2, 2, 2}
//
// # Neighbours
//
// Clusters are kept on a ring: the first and last cluster of the sequence
// are neighbours of each other, so a merge may join the two ends. Every
// other merge joins clusters that are adjacent in sequence order.
//
// # Lower-level access
//
// [NewSegmenter] exposes the run as a state machine (initialized, merging,
// converged) with access to the full [History]: merge order, fit trajectory
// and the boundary set after every merge.
package eagglo
