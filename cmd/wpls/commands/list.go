package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wpbrowse/wp-listing-client/pkg/history"
	"github.com/wpbrowse/wp-listing-client/pkg/listing"
	"github.com/wpbrowse/wp-listing-client/pkg/pagination"
	"github.com/wpbrowse/wp-listing-client/pkg/resource"
)

// list: fetch one page of the listing and print it.
func listCmd() *cobra.Command {
	var (
		search  string
		order   string
		orderBy string
		page    int
		perPage int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Fetch and print one page of the listing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := baseCfg
			cfg.InitialSearch = search
			cfg.InitialOrder = order
			cfg.InitialOrderBy = orderBy
			cfg.InitialPage = page
			cfg.PerPage = perPage

			ctrl, err := newController(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if err := ctrl.Err(); err != nil {
				return err
			}

			printListing(ctrl.Items(), ctrl.Pagination(), ctrl.Window())
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "search term")
	cmd.Flags().StringVar(&order, "order", "desc", "sort direction (asc, desc)")
	cmd.Flags().StringVar(&orderBy, "orderby", "date", "sort field")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page to fetch")
	cmd.Flags().IntVar(&perPage, "per-page", 10, "items per page")
	return cmd
}

// newController mounts a listing on an in-process navigator. CLI runs have
// no address bar; the memory navigator stands in for it.
func newController(ctx context.Context, cfg listing.Config) (*listing.Controller, error) {
	nav := history.NewMemoryNavigator(history.Entry{Path: "/" + cfg.ResourceType})
	return listing.New(ctx, cfg, nav, listing.Hooks{}, nil)
}

func printListing(items []resource.Resource, paging pagination.Data, tokens []pagination.Token) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTITLE")
	for _, item := range items {
		fmt.Fprintf(w, "%d\t%s\t%s\n", item.ID, item.Date, item.Title)
	}
	w.Flush()

	fmt.Printf("\n%d items, %d pages\n", paging.Total, paging.TotalPages)
	if len(tokens) > 0 {
		fmt.Println(renderWindow(tokens))
	}
}

func renderWindow(tokens []pagination.Token) string {
	parts := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if token.Ellipsis {
			parts = append(parts, "...")
		} else {
			parts = append(parts, fmt.Sprintf("%d", token.Page))
		}
	}
	return strings.Join(parts, " ")
}
