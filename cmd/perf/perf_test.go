package perf

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/blockfile/lib/blockstore/memory"
	"github.com/ValentinKolb/blockfile/lib/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(keyType, valueType string) *common.PerfConfig {
	return &common.PerfConfig{
		Instances:     3,
		Prefixes:      2,
		KeysPerPrefix: 20,
		KeyType:       keyType,
		ValueType:     valueType,
		VectorDim:     4,
		Threads:       2,
		Skip:          benchmarkNames, // only the build phase
		LogLevel:      "info",
	}
}

func TestRunWorkloadAllTypes(t *testing.T) {
	for _, keyType := range common.PerfKeyTypes {
		for _, valueType := range common.PerfValueTypes {
			t.Run(keyType+"/"+valueType, func(t *testing.T) {
				cfg := testConfig(keyType, valueType)
				require.NoError(t, cfg.Validate())

				manager := memory.NewStorageManager()
				report, err := runWorkload(context.Background(), cfg, manager)
				require.NoError(t, err)

				assert.Len(t, report.ids, 3)
				assert.Equal(t, 3, manager.Info().Committed)
				assert.Equal(t, 3*2*20, manager.Info().StoredEntries)
				assert.Equal(t, 2, report.storage.Prefixes)
				assert.InDelta(t, 1.0, report.storage.PrefixDist.Quality, 1e-9)

				for _, name := range benchmarkNames {
					assert.Zero(t, report.results[name].N, name)
				}
			})
		}
	}
}

func TestRunWorkloadCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runWorkload(ctx, testConfig("uint32", "string"), memory.NewStorageManager())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunWorkloadBenchmark(t *testing.T) {
	if testing.Short() {
		t.Skip("runs a real benchmark")
	}

	cfg := testConfig("string", "bitmap")
	cfg.Skip = []string{"prefix", "range", "open"}

	report, err := runWorkload(context.Background(), cfg, memory.NewStorageManager())
	require.NoError(t, err)
	assert.Positive(t, report.results["get"].N)
	assert.NotNil(t, report.timers.Get("get"))
}

func TestWriteResultsToCSV(t *testing.T) {
	cfg := testConfig("float32", "record")
	manager := memory.NewStorageManager()
	report, err := runWorkload(context.Background(), cfg, manager)
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "results.csv")
	require.NoError(t, writeResultsToCSV(path, report, cfg))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1+len(report.order))

	assert.Equal(t, "Test", rows[0][0])
	assert.Equal(t, "build", rows[1][0])
	assert.Equal(t, "3", rows[1][6]) // one build sample per instance
	assert.Equal(t, "false", rows[1][7])
	assert.Equal(t, "get", rows[3][0])
	assert.Equal(t, "true", rows[3][7])

	metricsPath := filepath.Join(dir, "metrics.txt")
	require.NoError(t, writeMetrics(metricsPath, manager))
	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "blockfile_instances_committed_total 3")
}
