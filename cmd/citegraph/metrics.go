// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citegraph/internal/altmetric"
	"github.com/pdiddy/citegraph/internal/project"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics <project>",
	Short: "Enrich stored articles with Altmetric attention data",
	Long: `Metrics looks up Altmetric attention data for every stored article that
does not have it yet. Articles already enriched are skipped unless --refresh
is given. Articles Altmetric does not track are left untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: runMetrics,
}

func init() {
	metricsCmd.Flags().Bool("refresh", false, "re-fetch metrics for articles that already have them")

	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, args []string) error {
	cfg := appConfig()
	store, err := project.Open(cfg.Project.Dir, args[0])
	if err != nil {
		return err
	}
	defer store.Close()

	refresh, _ := cmd.Flags().GetBool("refresh")
	client := altmetric.New(cfg.Altmetric)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	articles, err := store.All()
	if err != nil {
		return err
	}

	var enriched, untracked, skipped int
	for _, rec := range articles {
		if rec.Metrics != nil && !refresh {
			skipped++
			continue
		}

		metrics, tracked, err := client.Metrics(ctx, rec.Identity, rec.DOI)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %s: %v\n", rec.Identity.Key(), err)
			continue
		}
		if !tracked {
			untracked++
			continue
		}

		rec.Metrics = &metrics
		if err := store.Put(rec); err != nil {
			return err
		}
		enriched++
	}

	if err := store.Save(); err != nil {
		return err
	}
	fmt.Printf("Enriched %d articles (%d untracked, %d already had metrics)\n", enriched, untracked, skipped)
	return nil
}
