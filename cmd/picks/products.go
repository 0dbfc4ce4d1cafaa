package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/storefront-picks/internal/cli"
)

func productsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List the catalog",
		Args:  cobra.NoArgs,
		RunE:  runProducts,
	}

	cmd.Flags().Bool("available", false, "Only list products that can be recommended")
	cmd.Flags().StringP("output", "o", cli.OutputTable, "Output format (table, json)")

	return cmd
}

func runProducts(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	availableOnly, _ := cmd.Flags().GetBool("available")
	output, _ := cmd.Flags().GetString("output")

	if err := cli.ValidateOutput(output); err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStore(store)

	products, err := store.ListProducts(ctx, availableOnly)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if output == cli.OutputJSON {
		return cli.WriteJSON(out, products)
	}

	if len(products) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("The catalog is empty; run `picks import` first"))
		return nil
	}
	return cli.RenderProducts(out, products)
}
