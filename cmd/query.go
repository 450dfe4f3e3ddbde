package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/fabric-testbed/slicer/internal/app"
	"github.com/fabric-testbed/slicer/internal/model"
	"github.com/fabric-testbed/slicer/internal/query"
	"github.com/fabric-testbed/slicer/internal/service"
	"github.com/fabric-testbed/slicer/internal/store"
)

var cmdQuery = &cobra.Command{
	Use:   "query [sites|hosts|facilityports|links]",
	Short: "Query inventory records with declarative filters, sorting and pagination",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runQuery(cmd.Context(), model.Kind(args[0]))
	},
}

type queryFlags struct {
	filter        string
	sortField     string
	sortDirection string
	limit         int
	offset        int
}

var queryFlagSet = &queryFlags{}

func runQuery(ctx context.Context, kind model.Kind) {
	slicer, err := app.New(cfgFile, logLevel())
	if err != nil {
		log.Fatal(err)
	}

	source, err := initSource(slicer.Config, slicer.Logger)
	if err != nil {
		slicer.Logger.Fatal(err)
	}

	stores := store.NewStores()

	// one-shot fetch in place of the background refresher
	records, err := source.Fetch(ctx, kind)
	if err != nil {
		slicer.Logger.Fatal(err)
	}

	stores[kind].Publish(&model.Snapshot{Kind: kind, Records: records})

	var filter query.Filter
	if queryFlagSet.filter != "" {
		if err := json.Unmarshal([]byte(queryFlagSet.filter), &filter); err != nil {
			slicer.Logger.Fatal("malformed --filter JSON: " + err.Error())
		}
	}

	var sortSpec *query.Sort
	if queryFlagSet.sortField != "" {
		sortSpec = &query.Sort{Field: queryFlagSet.sortField, Direction: queryFlagSet.sortDirection}
	}

	svc := service.New(stores, nil, nil, slicer.Config, slicer.Logger)

	page, err := svc.Query(ctx, kind, filter, sortSpec, queryFlagSet.limit, queryFlagSet.offset)
	if err != nil {
		slicer.Logger.Fatal(err)
	}

	out, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		slicer.Logger.Fatal(err)
	}

	fmt.Println(string(out))
}

func init() {
	cmdQuery.PersistentFlags().StringVar(&queryFlagSet.filter, "filter", "", `filter expression as JSON, e.g. '{"cores_available":{"gte":64}}'`)
	cmdQuery.PersistentFlags().StringVar(&queryFlagSet.sortField, "sort-field", "", "field to sort by")
	cmdQuery.PersistentFlags().StringVar(&queryFlagSet.sortDirection, "sort-direction", "asc", "sort direction - asc or desc")
	cmdQuery.PersistentFlags().IntVar(&queryFlagSet.limit, "limit", 0, "maximum records to return, 0 means the configured default")
	cmdQuery.PersistentFlags().IntVar(&queryFlagSet.offset, "offset", 0, "records to skip from the start")

	rootCmd.AddCommand(cmdQuery)
}
