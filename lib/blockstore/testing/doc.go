// Package testing provides standardised tests and benchmarks for blockfile
// implementations built on a memory.StorageManager.
//
// The package contains:
//   - testing: A conformance suite covering the builder -> commit -> reader
//     lifecycle, every key type, every value type, the four range queries
//     (none, all and some entries returned), prefix scans, NotFound
//     semantics, writer misuse and concurrent use
//   - benchmark: Performance tests for writes, commits and reads
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func() *memory.StorageManager {
//		return memory.NewStorageManager()
//	}
//
//	// Running the standard test suite
//	testing.RunBlockfileTests(t, "Memory", factory)
//
//	// Running performance benchmarks
//	testing.RunBlockfileBenchmarks(b, "Memory", factory)
package testing
