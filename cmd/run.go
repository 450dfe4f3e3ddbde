package cmd

import (
	"context"
	"log"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fabric-testbed/slicer/internal/app"
	"github.com/fabric-testbed/slicer/internal/cache"
	"github.com/fabric-testbed/slicer/internal/metrics"
	"github.com/fabric-testbed/slicer/internal/store"
	"github.com/fabric-testbed/slicer/internal/version"

	// nolint:gosec // profiling endpoint listens on localhost.
	_ "net/http/pprof"
)

var cmdRun = &cobra.Command{
	Use:   "run",
	Short: "Run slicer service to cache testbed inventory",
	Run: func(cmd *cobra.Command, _ []string) {
		runService(cmd.Context())
	},
}

var (
	inventoryFile string
)

var ErrInventorySource = errors.New("inventory source error")

func runService(ctx context.Context) {
	slicer, err := app.New(cfgFile, logLevel())
	if err != nil {
		log.Fatal(err)
	}

	// serve metrics endpoint
	metrics.ListenAndServe()
	version.ExportBuildInfoMetric()

	v := version.Current()
	slicer.Logger.WithFields(logrus.Fields{
		"version": v.AppVersion,
		"commit":  v.GitCommit,
		"branch":  v.GitBranch,
	}).Info("slicer service running")

	// Setup cancel context with cancel func.
	ctx, cancelFunc := context.WithCancel(ctx)

	// routine listens for termination signal and cancels the context
	go func() {
		<-slicer.TermCh
		slicer.Logger.Info("got TERM signal, exiting...")
		cancelFunc()
	}()

	source, err := initSource(slicer.Config, slicer.Logger)
	if err != nil {
		slicer.Logger.Fatal(err)
	}

	stores := store.NewStores()

	refresher := cache.New(
		source,
		stores,
		slicer.Config.RefreshInterval(),
		slicer.Config.FetchTimeout(),
		slicer.Config.CacheMaxFetch,
		slicer.Logger,
	)

	refresher.Run(ctx)
	refresher.Wait()
}

// initSource selects the inventory source - a YAML file when the
// --inventory flag names one, the inventory API otherwise.
func initSource(config *app.Configuration, logger *logrus.Logger) (store.Source, error) {
	if inventoryFile != "" {
		return store.NewYamlSource(inventoryFile)
	}

	if config.InventoryEndpoint != "" {
		return store.NewInventoryAPI(config.InventoryEndpoint, logger)
	}

	return nil, errors.Wrap(ErrInventorySource, "set inventory_endpoint or pass --inventory")
}

func init() {
	cmdRun.PersistentFlags().StringVar(&inventoryFile, "inventory", "", "Inventory YAML file to serve in place of the inventory API")

	rootCmd.AddCommand(cmdRun)
}
