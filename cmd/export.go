package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/emicklei/dot"
	"github.com/spf13/cobra"

	"github.com/fabric-testbed/slicer/internal/app"
	"github.com/fabric-testbed/slicer/internal/model"
	"github.com/fabric-testbed/slicer/internal/service"
	"github.com/fabric-testbed/slicer/internal/store"
	"github.com/fabric-testbed/slicer/internal/topology"
)

var cmdExportTopology = &cobra.Command{
	Use:   "export-topology --spec <file> [--mermaid]",
	Short: "Export the resolved topology of a slice spec as a Graphviz graph",
	Run: func(cmd *cobra.Command, _ []string) {
		exportTopology(cmd.Context())
	},
}

type exportFlags struct {
	specFile string
	mermaid  bool
}

var exportFlagSet = &exportFlags{}

func exportTopology(ctx context.Context) {
	slicer, err := app.New(cfgFile, logLevel())
	if err != nil {
		log.Fatal(err)
	}

	spec, err := readBuildSpec(exportFlagSet.specFile)
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

	svc := service.New(stores, nil, nil, slicer.Config, slicer.Logger)

	topo, err := svc.Build(ctx, spec)
	if err != nil {
		slicer.Logger.Fatal(err)
	}

	g := topology.Graph(topo)

	if exportFlagSet.mermaid {
		fmt.Println(dot.MermaidGraph(g, dot.MermaidTopDown))

		return
	}

	fmt.Println(g.String())
}

func init() {
	cmdExportTopology.PersistentFlags().StringVar(&exportFlagSet.specFile, "spec", "", "slice build spec YAML file")
	cmdExportTopology.PersistentFlags().BoolVarP(&exportFlagSet.mermaid, "mermaid", "", false, "export topology in mermaid format")

	if err := cmdExportTopology.MarkPersistentFlagRequired("spec"); err != nil {
		log.Fatal(err)
	}

	rootCmd.AddCommand(cmdExportTopology)
}
