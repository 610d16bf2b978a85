package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/blockfile/cmd/perf"
	"github.com/ValentinKolb/blockfile/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "blockfile",
		Short: "in-memory blockfile tooling",
		Long: fmt.Sprintf(`blockfile (v%s)

Tooling for the in-memory blockfile: a prefix-scoped, sorted key-value
container with typed keys and values, built once and read concurrently.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of blockfile",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("blockfile v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(perf.PerfCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "log-level"
	RootCmd.PersistentFlags().String(key, "info", util.WrapString("The level at which logs will be output (debug, info, warn, error)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
