package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/storefront-picks/internal/cache"
	"github.com/Veraticus/storefront-picks/internal/cli"
	"github.com/Veraticus/storefront-picks/internal/seed"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <catalog.yaml>",
		Short: "Seed the catalog from a YAML file",
		Long: `Import categories, products, accounts and purchases from a YAML catalog.

Records are written in dependency order. Import stops at the first record
that cannot be stored; everything written before it is kept.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().Bool("no-progress", false, "Do not show a progress bar")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	catalog, err := seed.LoadFile(args[0])
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStore(store)

	var progress seed.ProgressFunc
	if !noProgress {
		bar := cli.NewProgressBar(cmd.ErrOrStderr(), catalog.Count(), "Importing catalog")
		progress = cli.ProgressCallback(bar)
	}

	summary, err := seed.Import(ctx, store, catalog, progress)
	if err != nil {
		return fmt.Errorf("import failed after %d records: %w", summary.Total(), err)
	}

	supplierCache, err := openCache(ctx)
	if err != nil {
		slog.Warn("Could not open supplier cache for invalidation", "error", err)
	} else if supplierCache != nil {
		if err := cache.Invalidate(ctx, supplierCache); err != nil {
			slog.Warn("Failed to invalidate supplier cache", "error", err)
		}
		_ = supplierCache.Close()
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
		"Imported %d categories, %d products, %d accounts and %d purchases",
		summary.Categories, summary.Products, summary.Accounts, summary.Purchases)))
	return nil
}
