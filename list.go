package main

import (
	"pesterer/pkg/models"
	"pesterer/pkg/report"

	"github.com/spf13/cobra"
)

var listFavorites bool

func init() {
	listCmd.Flags().BoolVar(&listFavorites, "favorites", false, "only list favorite products and stores")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:       "list [products|stores|availability]",
	Short:     "Prints the tracked products, stores or the last known availability.",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"products", "stores", "availability"},
	RunE: func(cmd *cobra.Command, args []string) error {
		what := "availability"
		if len(args) > 0 {
			what = args[0]
		}
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		products, err := st.Products(ctx, listFavorites)
		if err != nil {
			return err
		}
		stores, err := st.Stores(ctx, listFavorites)
		if err != nil {
			return err
		}

		switch what {
		case "products":
			report.Products(out, products)
		case "stores":
			report.Stores(out, stores)
		default:
			rows, err := st.ListAvailability(ctx, "", "")
			if err != nil {
				return err
			}
			catalog := models.NewCatalog(products, stores)
			if listFavorites {
				filtered := rows[:0]
				for _, r := range rows {
					_, p := catalog.Products[r.ProductID]
					_, s := catalog.Stores[r.StoreID]
					if p && s {
						filtered = append(filtered, r)
					}
				}
				rows = filtered
			}
			report.Availability(out, catalog, rows)
		}
		return nil
	},
}
