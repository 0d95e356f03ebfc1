// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citegraph/internal/explore"
	"github.com/pdiddy/citegraph/internal/identity"
	"github.com/pdiddy/citegraph/internal/openalex"
	"github.com/pdiddy/citegraph/internal/project"
	"github.com/pdiddy/citegraph/internal/pubmed"
	"github.com/pdiddy/citegraph/internal/relation"
	"github.com/pdiddy/citegraph/internal/score"
	"github.com/pdiddy/citegraph/pkg/types"
)

var findCmd = &cobra.Command{
	Use:   "find <seed-identifier>",
	Short: "Explore the citation graph around a seed article",
	Long: `Find resolves the seed identifier (PubMed ID, DOI, or URL), scores it
against the research theme, and expands outward through the enabled citation
relations up to the configured depth. Articles scoring at or above the
relevance threshold propagate to the next layer; the rest stay in the result
set but are not expanded.

Interrupting a run with Ctrl-C saves a checkpoint. A later run against the
same project resumes implicitly: every article already scored is reused from
the cache without a new scoring call.`,
	Args: cobra.ExactArgs(1),
	RunE: runFind,
}

func init() {
	findCmd.Flags().String("project", "", "project name (required)")
	findCmd.Flags().String("theme", "", "research theme to score against (default: project's stored theme)")
	findCmd.Flags().Int("max-depth", 2, "maximum expansion depth from the seed")
	findCmd.Flags().Int("max-articles", 500, "maximum total collected articles")
	findCmd.Flags().Int("threshold", 60, "relevance score cutoff for expansion (0-100)")
	findCmd.Flags().Int("year-from", 0, "skip articles published before this year")
	findCmd.Flags().Bool("pubmed-only", false, "exclude articles that have no PubMed ID")
	findCmd.Flags().Bool("similar", true, "follow similar-article relations")
	findCmd.Flags().Bool("cited-by", true, "follow cited-by relations")
	findCmd.Flags().Bool("references", false, "follow reference relations")
	findCmd.Flags().Int("similar-limit", 20, "maximum similar articles per article")
	findCmd.Flags().Int("cited-by-limit", 20, "maximum cited-by articles per article")
	findCmd.Flags().Int("references-limit", 20, "maximum references per article")
	findCmd.Flags().Bool("json", false, "output the full result payload as JSON")
	_ = findCmd.MarkFlagRequired("project")

	rootCmd.AddCommand(findCmd)
}

func runConfigFromFlags(cmd *cobra.Command) types.RunConfig {
	cfg := types.DefaultRunConfig()
	cfg.MaxDepth, _ = cmd.Flags().GetInt("max-depth")
	cfg.MaxArticles, _ = cmd.Flags().GetInt("max-articles")
	cfg.RelevanceThreshold, _ = cmd.Flags().GetInt("threshold")
	cfg.YearFrom, _ = cmd.Flags().GetInt("year-from")
	cfg.PubMedOnly, _ = cmd.Flags().GetBool("pubmed-only")
	cfg.Similar.Enabled, _ = cmd.Flags().GetBool("similar")
	cfg.CitedBy.Enabled, _ = cmd.Flags().GetBool("cited-by")
	cfg.References.Enabled, _ = cmd.Flags().GetBool("references")
	cfg.Similar.MaxPerArticle, _ = cmd.Flags().GetInt("similar-limit")
	cfg.CitedBy.MaxPerArticle, _ = cmd.Flags().GetInt("cited-by-limit")
	cfg.References.MaxPerArticle, _ = cmd.Flags().GetInt("references-limit")
	return cfg
}

func runFind(cmd *cobra.Command, args []string) error {
	seed, err := identity.Resolve(args[0])
	if err != nil {
		return err
	}

	projectName, _ := cmd.Flags().GetString("project")
	cfg := appConfig()
	store, err := project.Open(cfg.Project.Dir, projectName)
	if err != nil {
		return err
	}
	defer store.Close()

	theme, _ := cmd.Flags().GetString("theme")
	if theme == "" {
		theme = store.Theme()
	}
	if theme == "" {
		return fmt.Errorf("no research theme: pass --theme or set one on the project")
	}
	if err := store.SetTheme(theme); err != nil {
		return err
	}

	if cp, err := store.LoadCheckpoint(); err != nil {
		return err
	} else if cp != nil {
		fmt.Fprintf(os.Stderr, "Note: previous run was interrupted at depth %d (%s); cached evaluations will be reused\n",
			cp.CurrentDepth, cp.SavedAt.Format("2006-01-02 15:04"))
	}

	if cfg.Scoring.APIKey == "" {
		return fmt.Errorf("no scoring API key: put it in .secrets/gemini-api-key or set scoring.api_key")
	}

	pubmedClient := pubmed.New(cfg.PubMed)
	openalexClient := openalex.New(cfg.OpenAlex)

	var cancelled atomic.Bool
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "Interrupt received, finishing current article...")
		cancelled.Store(true)
	}()

	finder := &explore.Finder{
		Catalog: pubmedClient,
		DOI:     openalexClient,
		Relations: &relation.Aggregator{
			Oracles: []relation.Oracle{pubmedClient, openalexClient},
		},
		Scorer:    score.NewGeminiBackend(cfg.Scoring),
		Store:     store,
		Cancelled: cancelled.Load,
		Progress: func(msg string) {
			fmt.Fprintln(os.Stderr, msg)
		},
	}

	result, err := finder.Run(context.Background(), seed, theme, runConfigFromFlags(cmd))
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printResult(os.Stdout, result)
	return nil
}

func printResult(w *os.File, result *types.RunResult) {
	fmt.Fprintf(w, "%-22s %5s  %-6s %s\n", "IDENTITY", "SCORE", "DEPTH", "TITLE")
	for _, rec := range result.Articles {
		title := rec.Title
		if len(title) > 70 {
			title = title[:67] + "..."
		}
		fmt.Fprintf(w, "%-22s %5d  %-6d %s\n", rec.Identity.Key(), rec.RelevanceScore, rec.Depth, title)
	}

	s := result.Stats
	fmt.Fprintf(w, "\nFound %d, evaluated %d, from cache %d, relevant %d, depth reached %d\n",
		s.TotalFound, s.TotalEvaluated, s.TotalSkipped, s.TotalRelevant, s.DepthReached)
	if result.Interrupted {
		fmt.Fprintln(w, "Run interrupted; checkpoint saved. Re-run to continue.")
	}
}
