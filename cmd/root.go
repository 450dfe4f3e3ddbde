package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/fabric-testbed/slicer/internal/app"
)

var rootCmd = &cobra.Command{
	Use:   "slicer",
	Short: "slicer caches testbed inventory and compiles declarative slice topologies",
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

var (
	cfgFile string
	debug   bool
	trace   bool
)

// Execute runs the root command.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}

func logLevel() int {
	switch {
	case trace:
		return app.LogLevelTrace
	case debug:
		return app.LogLevelDebug
	default:
		return app.LogLevelInfo
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "set logging to debug level")
	rootCmd.PersistentFlags().BoolVarP(&trace, "trace", "t", false, "set logging to trace level")
}
