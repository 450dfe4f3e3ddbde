package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fabric-testbed/slicer/internal/app"
	"github.com/fabric-testbed/slicer/internal/model"
	"github.com/fabric-testbed/slicer/internal/orchestrator"
	"github.com/fabric-testbed/slicer/internal/service"
	"github.com/fabric-testbed/slicer/internal/store"
)

var cmdBuild = &cobra.Command{
	Use:   "build",
	Short: "Compile a declarative slice spec into a provisioning request",
	Run: func(cmd *cobra.Command, _ []string) {
		runBuild(cmd.Context())
	},
}

type buildFlags struct {
	specFile string
	submit   bool
}

var buildFlagSet = &buildFlags{}

func runBuild(ctx context.Context) {
	slicer, err := app.New(cfgFile, logLevel())
	if err != nil {
		log.Fatal(err)
	}

	spec, err := readBuildSpec(buildFlagSet.specFile)
	if err != nil {
		slicer.Logger.Fatal(err)
	}

	source, err := initSource(slicer.Config, slicer.Logger)
	if err != nil {
		slicer.Logger.Fatal(err)
	}

	stores := store.NewStores()

	sites, err := source.Fetch(ctx, model.KindSites)
	if err != nil {
		slicer.Logger.Fatal(err)
	}

	stores[model.KindSites].Publish(&model.Snapshot{Kind: model.KindSites, Records: sites})

	var client orchestrator.Client
	if buildFlagSet.submit {
		client, err = orchestrator.NewHTTPClient(slicer.Config.OrchestratorEndpoint, slicer.Logger)
		if err != nil {
			slicer.Logger.Fatal(err)
		}
	}

	svc := service.New(stores, nil, client, slicer.Config, slicer.Logger)

	topo, err := svc.Build(ctx, spec)
	if err != nil {
		slicer.Logger.Fatal(err)
	}

	out, err := json.MarshalIndent(topo, "", "  ")
	if err != nil {
		slicer.Logger.Fatal(err)
	}

	fmt.Println(string(out))

	if buildFlagSet.submit {
		sliceID, err := svc.Submit(ctx, topo)
		if err != nil {
			slicer.Logger.Fatal(err)
		}

		fmt.Println("submitted slice:", sliceID)
	}
}

func readBuildSpec(path string) (*model.BuildSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	spec := &model.BuildSpec{}
	if err := yaml.Unmarshal(data, spec); err != nil {
		return nil, err
	}

	return spec, nil
}

func init() {
	cmdBuild.PersistentFlags().StringVar(&buildFlagSet.specFile, "spec", "", "slice build spec YAML file")
	cmdBuild.PersistentFlags().BoolVar(&buildFlagSet.submit, "submit", false, "submit the resolved topology to the orchestrator")

	if err := cmdBuild.MarkPersistentFlagRequired("spec"); err != nil {
		log.Fatal(err)
	}

	rootCmd.AddCommand(cmdBuild)
}
