package perf

import (
	"fmt"
	"os"

	cmdUtil "github.com/ValentinKolb/blockfile/cmd/util"
	"github.com/ValentinKolb/blockfile/lib/blockstore/memory"
	"github.com/ValentinKolb/blockfile/lib/common"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	log = logger.GetLogger(common.LoggerPerf)

	perfConfig = &common.PerfConfig{}

	// PerfCmd runs an in-process performance test of the memory blockfile
	PerfCmd = &cobra.Command{
		Use:   "perf",
		Short: "Performance testing tool for the in-memory blockfile",
		Long: `Builds and commits a number of blockfile instances concurrently and then
benchmarks point lookups, prefix scans, range queries and reader opens on them.
Every flag can also be set via environment variables in the format
BLOCKFILE_<flag> (e.g. BLOCKFILE_VALUE_TYPE=bitmap).`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// add flags
	key := "instances"
	PerfCmd.Flags().Int(key, 4, cmdUtil.WrapString("How many blockfile instances to build and query"))
	key = "prefixes"
	PerfCmd.Flags().Int(key, 16, cmdUtil.WrapString("Number of prefixes per instance"))
	key = "keys-per-prefix"
	PerfCmd.Flags().Int(key, 1000, cmdUtil.WrapString("Number of keys written under every prefix"))
	key = "key-type"
	PerfCmd.Flags().String(key, "uint32", cmdUtil.WrapString("Key type to use (string, uint32, float32)"))
	key = "value-type"
	PerfCmd.Flags().String(key, "string", cmdUtil.WrapString("Value type to use (string, uint32, vector, bitmap, record)"))
	key = "vector-dim"
	PerfCmd.Flags().Int(key, 128, cmdUtil.WrapString("Dimension of vectors and record embeddings"))
	key = "threads"
	PerfCmd.Flags().Int(key, 4, cmdUtil.WrapString("Number of concurrent builders, and the parallelism of the read benchmarks"))
	key = "skip"
	PerfCmd.Flags().String(key, "", cmdUtil.WrapString("Benchmarks to skip (comma separated - e.g. prefix,range)"))
	key = "csv"
	PerfCmd.Flags().String(key, "", cmdUtil.WrapString("Optional path to save benchmark results as CSV"))
	key = "metrics"
	PerfCmd.Flags().String(key, "", cmdUtil.WrapString("Optional path to save the blockfile metrics in Prometheus text format"))
}

// processConfig reads the configuration from the command line flags and environment variables
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}

	*perfConfig = common.PerfConfig{
		Instances:     viper.GetInt("instances"),
		Prefixes:      viper.GetInt("prefixes"),
		KeysPerPrefix: viper.GetInt("keys-per-prefix"),
		KeyType:       viper.GetString("key-type"),
		ValueType:     viper.GetString("value-type"),
		VectorDim:     viper.GetInt("vector-dim"),
		Threads:       viper.GetInt("threads"),
		Skip:          cmdUtil.SplitList(viper.GetString("skip")),
		CSVPath:       viper.GetString("csv"),
		MetricsPath:   viper.GetString("metrics"),
		LogLevel:      viper.GetString("log-level"),
	}
	if err := perfConfig.Validate(); err != nil {
		return err
	}

	return common.InitLoggers(perfConfig.LogLevel)
}

func run(cmd *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for the in-memory blockfile")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(perfConfig.String())

	manager := memory.NewStorageManager()

	report, err := runWorkload(cmd.Context(), perfConfig, manager)
	if err != nil {
		return err
	}

	info := manager.Info()
	fmt.Printf("\nManager: %d committed instances, %d entries\n", info.Committed, info.StoredEntries)
	printStorageInfo(report.storage)

	if perfConfig.CSVPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", perfConfig.CSVPath)
		if err := writeResultsToCSV(perfConfig.CSVPath, report, perfConfig); err != nil {
			return err
		}
	}

	if perfConfig.MetricsPath != "" {
		if err := writeMetrics(perfConfig.MetricsPath, manager); err != nil {
			return err
		}
	}

	for _, id := range report.ids {
		manager.Drop(id)
	}
	return nil
}

// writeMetrics dumps the manager's metrics to path
func writeMetrics(path string, manager *memory.StorageManager) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create metrics file: %v", err)
	}
	defer file.Close()

	manager.WritePrometheus(file)
	log.Infof("wrote metrics to %s", path)
	return nil
}
