package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/storefront-picks/internal/cli"
	"github.com/Veraticus/storefront-picks/internal/common"
	"github.com/Veraticus/storefront-picks/internal/config"
	"github.com/Veraticus/storefront-picks/internal/engine"
	"github.com/Veraticus/storefront-picks/internal/model"
)

func recommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend <login>",
		Short: "Recommend products for a customer",
		Long: `Recommend products for the customer with the given login.

Candidates come from the customer's most frequent purchase, the optional
preference file, the categories it scores and finally the catalog-wide
suppliers (best rated, newest, cheapest, running out, available).`,
		Args: cobra.ExactArgs(1),
		RunE: runRecommend,
	}

	cmd.Flags().IntP("count", "n", 10, "Maximum number of products to recommend")
	cmd.Flags().StringP("preferences", "p", "", "YAML or JSON file with product and category scores")
	cmd.Flags().Bool("explain", false, "Show the tier and score behind each product")
	cmd.Flags().StringP("output", "o", cli.OutputTable, "Output format (table, json)")

	_ = viper.BindPFlag("recommend.count", cmd.Flags().Lookup("count"))

	return cmd
}

func runRecommend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	login := args[0]
	count := viper.GetInt("recommend.count")
	prefsPath, _ := cmd.Flags().GetString("preferences")
	explain, _ := cmd.Flags().GetBool("explain")
	output, _ := cmd.Flags().GetString("output")

	if err := cli.ValidateOutput(output); err != nil {
		return err
	}

	var prefs *model.PreferenceBundle
	if prefsPath != "" {
		loaded, err := config.LoadPreferences(prefsPath)
		if err != nil {
			return common.NewUserError("could not read preferences", err)
		}
		prefs = loaded
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStore(store)

	supplierCache, err := openCache(ctx)
	if err != nil {
		// Recommendations still work without the cache.
		slog.Warn("Supplier cache unavailable", "backend", viper.GetString("cache.backend"), "error", err)
		supplierCache = nil
	}
	if supplierCache != nil {
		defer func() { _ = supplierCache.Close() }()
	}

	recommender, err := engine.NewWithConfig(store, engineConfig(supplierCache))
	if err != nil {
		return err
	}

	candidates, err := recommender.RecommendDetailed(ctx, login, prefs, count)
	if errors.Is(err, common.ErrAccountNotFound) {
		return common.NewUserError(fmt.Sprintf("no account with login %q", login), err)
	}
	if err != nil {
		return fmt.Errorf("failed to recommend products: %w", err)
	}

	out := cmd.OutOrStdout()
	if output == cli.OutputJSON {
		if explain {
			return cli.WriteJSON(out, candidates)
		}
		products := make([]model.Product, len(candidates))
		for i := range candidates {
			products[i] = candidates[i].Product
		}
		return cli.WriteJSON(out, products)
	}

	if len(candidates) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("No products to recommend"))
		return nil
	}
	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Picks for %s", login)))
	return cli.RenderCandidates(out, candidates, explain)
}
