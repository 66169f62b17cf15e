package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxquote/internal/catalog"
	"github.com/teemow/inboxquote/internal/resources"
)

func newCatalogCmd() *cobra.Command {
	var (
		catalogFile string
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the products in the catalog",
		Long: `Load the product catalog and list every product with its unit price and
minimum order quantity. Useful to validate a catalog file before serving it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			envString(cmd, "catalog", "QUOTE_CATALOG_FILE", &catalogFile)

			cat := catalog.Default()
			if catalogFile != "" {
				var err error
				if cat, err = catalog.Load(catalogFile); err != nil {
					return fmt.Errorf("failed to load catalog: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resources.NewListing(cat))
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tUNIT PRICE\tMIN ORDER QTY\tCURRENCY")
			for _, e := range cat.Entries() {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", e.Code, e.UnitPrice.String(), e.MinOrderQty, e.Currency)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&catalogFile, "catalog", "", "Path to a TOML product catalog. Uses the built-in demo catalog when empty. Can also use QUOTE_CATALOG_FILE env var.")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the catalog as JSON")

	return cmd
}
