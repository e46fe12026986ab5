package main

import (
	"fmt"
	"log/slog"
	"pesterer/pkg/csvload"

	"github.com/spf13/cobra"
)

var (
	importProducts string
	importStores   string
)

func init() {
	importCmd.Flags().StringVar(&importProducts, "products", "", "semicolon-delimited products file (id;name;color;size;favorite)")
	importCmd.Flags().StringVar(&importStores, "stores", "", "semicolon-delimited stores file (id;full_id;description;favorite)")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import [--products <products.csv>] [--stores <stores.csv>]",
	Short: "Loads the tracked products and stores from flat files into the database.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if importProducts == "" && importStores == "" {
			return fmt.Errorf("nothing to import, pass --products and/or --stores")
		}
		ctx := cmd.Context()

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if importProducts != "" {
			products, err := csvload.ProductsFile(importProducts)
			if err != nil {
				return fmt.Errorf("read %s: %w", importProducts, err)
			}
			if err := st.UpsertProducts(ctx, products); err != nil {
				return err
			}
			slog.Info("imported products", "file", importProducts, "count", len(products))
		}

		if importStores != "" {
			stores, err := csvload.StoresFile(importStores)
			if err != nil {
				return fmt.Errorf("read %s: %w", importStores, err)
			}
			if err := st.UpsertStores(ctx, stores); err != nil {
				return err
			}
			slog.Info("imported stores", "file", importStores, "count", len(stores))
		}
		return nil
	},
}
