package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wpbrowse/wp-listing-client/pkg/pagination"
)

// export: fetch every page of the query and write the result as JSON.
func exportCmd() *cobra.Command {
	var (
		search      string
		order       string
		orderBy     string
		perPage     int
		concurrency int
		output      string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Fetch every page of the listing and write it as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := baseCfg
			cfg.InitialSearch = search
			cfg.InitialOrder = order
			cfg.InitialOrderBy = orderBy
			cfg.PerPage = perPage

			ctrl, err := newController(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			fetcher := pagination.NewBatchFetcher(ctrl, pagination.Config{
				MaxConcurrency: concurrency,
			})
			items, err := fetcher.FetchAll(cmd.Context())
			if err != nil {
				return err
			}

			out := os.Stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(items); err != nil {
				return fmt.Errorf("encode items: %w", err)
			}

			fmt.Fprintf(os.Stderr, "exported %d items\n", len(items))
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "search term")
	cmd.Flags().StringVar(&order, "order", "desc", "sort direction (asc, desc)")
	cmd.Flags().StringVar(&orderBy, "orderby", "date", "sort field")
	cmd.Flags().IntVar(&perPage, "per-page", 100, "items per page request")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 4, "parallel page requests")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
