package perf

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/ValentinKolb/blockfile/lib/blockstore/memory"
	"github.com/ValentinKolb/blockfile/lib/common"
	gometrics "github.com/rcrowley/go-metrics"
)

// percentiles reported for every timer
var percentiles = []float64{0.5, 0.99}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult, timer gometrics.Timer) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-10sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	fmt.Printf("%-10s%.0fns/op (%s/op)\t%.0f ops/sec%s\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec, latencies(timer))
}

// printTimer prints a phase that was measured with a timer only
func printTimer(test string, timer gometrics.Timer) {
	if timer.Count() == 0 {
		fmt.Printf("%-10sno samples\n", test)
		return
	}
	fmt.Printf("%-10s%d runs, mean %s%s\n", test, timer.Count(), time.Duration(timer.Mean()), latencies(timer))
}

func latencies(timer gometrics.Timer) string {
	if timer == nil || timer.Count() == 0 {
		return ""
	}
	ps := timer.Percentiles(percentiles)
	return fmt.Sprintf("\tp50 %s\tp99 %s", time.Duration(ps[0]), time.Duration(ps[1]))
}

// printStorageInfo prints the statistics of one committed instance
func printStorageInfo(info memory.StorageInfo) {
	fmt.Printf("\nInstance %s:\n", info.ID)
	fmt.Printf("  %-22s: %d\n", "Prefixes", info.Prefixes)
	for kind, n := range info.Entries {
		fmt.Printf("  %-22s: %d\n", "Entries ("+kind+")", n)
	}
	fmt.Printf("  %-22s: %d in %d values\n", "Value Bytes", info.ValueBytes, info.Values)
	fmt.Printf("  %-22s: %d / ~%d / ~%d\n", "Value Size mean/p50/p99", info.MeanBytes, info.MedianBytes, info.P99Bytes)
	fmt.Printf("  %-22s: %.2f\n", "Prefix Distribution", info.PrefixDist.Quality)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, report *perfReport, config *common.PerfConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "P50Ns", "P99Ns", "Samples", "Skipped",
		"Instances", "Prefixes", "KeysPerPrefix", "KeyType", "ValueType", "Threads",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for _, test := range report.order {
		var (
			nsPerOp, opsPerSec, p50, p99 float64
			samples                      int64
			skipped                      = "false"
		)

		result, isBenchmark := report.results[test]
		timer := gometrics.GetOrRegisterTimer(test, report.timers)
		switch {
		case isBenchmark && result.NsPerOp() == 0:
			skipped = "true"
		case isBenchmark:
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
		default:
			nsPerOp = math.Max(timer.Mean(), 1)
		}
		if nsPerOp > 0 {
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}
		if samples = timer.Count(); samples > 0 {
			ps := timer.Percentiles(percentiles)
			p50, p99 = ps[0], ps[1]
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			fmt.Sprintf("%.0f", p50),
			fmt.Sprintf("%.0f", p99),
			strconv.FormatInt(samples, 10),
			skipped,
			strconv.Itoa(config.Instances),
			strconv.Itoa(config.Prefixes),
			strconv.Itoa(config.KeysPerPrefix),
			config.KeyType,
			config.ValueType,
			strconv.Itoa(config.Threads),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %v", err)
		}
	}

	return nil
}
