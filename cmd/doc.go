// Package cmd implements the command-line interface for the blockfile module.
//
// The package is organized into several subpackages:
//
//   - perf: An in-process performance tool that builds, commits and queries
//     blockfiles with a configurable workload
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// All flags can also be set as environment variables in the form
// BLOCKFILE_<FLAG> (e.g. BLOCKFILE_KEYS_PER_PREFIX=1000), .env and .env.local
// files are loaded on startup.
//
// See blockfile -help for a list of all commands.
package cmd
