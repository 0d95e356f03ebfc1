// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citegraph/internal/openalex"
	"github.com/pdiddy/citegraph/internal/project"
)

var citationsCmd = &cobra.Command{
	Use:   "citations <project>",
	Short: "Backfill inbound citation counts from OpenAlex",
	Long: `Citations fetches the inbound citation count for every stored article
that does not have one yet. Articles that already carry a count are skipped
unless --refresh is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runCitations,
}

func init() {
	citationsCmd.Flags().Bool("refresh", false, "re-fetch counts for articles that already have one")

	rootCmd.AddCommand(citationsCmd)
}

func runCitations(cmd *cobra.Command, args []string) error {
	cfg := appConfig()
	store, err := project.Open(cfg.Project.Dir, args[0])
	if err != nil {
		return err
	}
	defer store.Close()

	refresh, _ := cmd.Flags().GetBool("refresh")
	client := openalex.New(cfg.OpenAlex)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	articles, err := store.All()
	if err != nil {
		return err
	}

	var updated, missing, skipped int
	for _, rec := range articles {
		if rec.CitationCount != nil && !refresh {
			skipped++
			continue
		}

		count, found, err := client.CitedByCount(ctx, rec.Identity)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %s: %v\n", rec.Identity.Key(), err)
			continue
		}
		if !found {
			missing++
			continue
		}

		rec.CitationCount = &count
		if err := store.Put(rec); err != nil {
			return err
		}
		updated++
	}

	if err := store.Save(); err != nil {
		return err
	}
	fmt.Printf("Updated %d articles (%d not in OpenAlex, %d already had counts)\n", updated, missing, skipped)
	return nil
}
