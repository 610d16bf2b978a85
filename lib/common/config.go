package common

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Key and value types the perf tool can exercise
var (
	PerfKeyTypes   = []string{"string", "uint32", "float32"}
	PerfValueTypes = []string{"string", "uint32", "vector", "bitmap", "record"}
)

// --------------------------------------------------------------------------
// Perf tool configuration struct
// --------------------------------------------------------------------------

// PerfConfig holds all parameters of a perf run
type PerfConfig struct {
	// workload shape
	Instances     int
	Prefixes      int
	KeysPerPrefix int
	KeyType       string
	ValueType     string
	VectorDim     int

	// execution
	Threads int
	Skip    []string

	// output
	CSVPath     string
	MetricsPath string

	// Logging configuration
	LogLevel string
}

// Validate checks the configuration for values the perf tool cannot run with
func (c *PerfConfig) Validate() error {
	if c.Instances < 1 || c.Prefixes < 1 || c.KeysPerPrefix < 1 {
		return fmt.Errorf("instances, prefixes and keys must be positive (got %d, %d, %d)", c.Instances, c.Prefixes, c.KeysPerPrefix)
	}
	if c.Threads < 1 {
		return fmt.Errorf("threads must be positive (got %d)", c.Threads)
	}
	if !slices.Contains(PerfKeyTypes, c.KeyType) {
		return fmt.Errorf("invalid key type %s. must be one of %s", c.KeyType, strings.Join(PerfKeyTypes, ", "))
	}
	if !slices.Contains(PerfValueTypes, c.ValueType) {
		return fmt.Errorf("invalid value type %s. must be one of %s", c.ValueType, strings.Join(PerfValueTypes, ", "))
	}
	if c.ValueType == "vector" && c.VectorDim < 1 {
		return fmt.Errorf("vector dimension must be positive (got %d)", c.VectorDim)
	}
	return nil
}

// ShouldSkip reports whether the named benchmark was excluded
func (c *PerfConfig) ShouldSkip(test string) bool {
	return slices.Contains(c.Skip, test)
}

// String returns a formatted string representation of the configuration
func (c *PerfConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Workload")
	addField("Instances", strconv.Itoa(c.Instances))
	addField("Prefixes", strconv.Itoa(c.Prefixes))
	addField("Keys Per Prefix", strconv.Itoa(c.KeysPerPrefix))
	addField("Entries Per Instance", strconv.Itoa(c.Prefixes*c.KeysPerPrefix))
	addField("Key Type", c.KeyType)
	addField("Value Type", c.ValueType)
	if c.ValueType == "vector" {
		addField("Vector Dimension", strconv.Itoa(c.VectorDim))
	}

	addSection("Execution")
	addField("Threads", strconv.Itoa(c.Threads))
	if len(c.Skip) > 0 {
		addField("Skipped", strings.Join(c.Skip, ", "))
	}

	addSection("Output")
	addField("CSV", orNone(c.CSVPath))
	addField("Metrics", orNone(c.MetricsPath))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
