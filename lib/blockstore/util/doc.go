// Package util provides statistics helpers for blockfile implementations.
//
// The package contains:
//   - Stats / DistributionStats: summary statistics over a set of samples and a
//     quality score for how evenly entries are spread (e.g. across prefixes)
//   - SizeHistogram: an exponentially bucketed histogram of value sizes with
//     cheap median and percentile estimates
//
// These are used to report on the content of a committed blockfile without
// keeping per-entry samples around.
package util
