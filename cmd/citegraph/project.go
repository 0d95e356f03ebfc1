// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citegraph/internal/project"
	"github.com/pdiddy/citegraph/pkg/types"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Inspect and manage project databases",
	Long: `Project operates on stored search results: listing projects, showing a
project's articles and sessions, deleting single articles, and exporting a
whole project as JSON or YAML.`,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := project.List(appConfig().Project.Dir)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show <project>",
	Short: "Show a project's articles and statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := project.Open(appConfig().Project.Dir, args[0])
		if err != nil {
			return err
		}
		defer store.Close()

		threshold, _ := cmd.Flags().GetInt("threshold")
		relevantOnly, _ := cmd.Flags().GetBool("relevant")

		var articles []*types.ArticleRecord
		if relevantOnly {
			articles, err = store.Relevant(threshold)
		} else {
			articles, err = store.All()
		}
		if err != nil {
			return err
		}

		if theme := store.Theme(); theme != "" {
			fmt.Printf("Theme: %s\n\n", theme)
		}
		fmt.Printf("%-22s %5s  %-6s %s\n", "IDENTITY", "SCORE", "DEPTH", "TITLE")
		for _, rec := range articles {
			fmt.Printf("%-22s %5d  %-6d %s\n", rec.Identity.Key(), rec.RelevanceScore, rec.Depth, rec.Title)
		}

		stats, err := store.Stats(threshold)
		if err != nil {
			return err
		}
		fmt.Printf("\n%d articles, %d relevant at threshold %d\n", stats.TotalArticles, stats.TotalRelevant, threshold)
		return nil
	},
}

var projectSessionsCmd = &cobra.Command{
	Use:   "sessions <project>",
	Short: "List a project's search sessions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := project.Open(appConfig().Project.Dir, args[0])
		if err != nil {
			return err
		}
		defer store.Close()

		sessions, err := store.Sessions()
		if err != nil {
			return err
		}
		for _, sess := range sessions {
			fmt.Printf("%s  %s  %d articles\n", sess.ID, sess.CreatedAt.Format("2006-01-02 15:04"), sess.ArticleCount)
		}
		return nil
	},
}

var projectDeleteArticleCmd = &cobra.Command{
	Use:   "delete-article <project> <key>",
	Short: "Delete one article record by canonical key",
	Long: `Delete-article removes a single record, e.g. "catalog:31243158" or
"doi:10.1000/xyz". The traversal itself never deletes records; this is the
only way one leaves a project.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := project.Open(appConfig().Project.Dir, args[0])
		if err != nil {
			return err
		}
		defer store.Close()

		existed, err := store.Delete(args[1])
		if err != nil {
			return err
		}
		if !existed {
			return fmt.Errorf("no article with key %s", args[1])
		}
		fmt.Printf("Deleted %s\n", args[1])
		return nil
	},
}

var projectExportCmd = &cobra.Command{
	Use:   "export <project>",
	Short: "Export a project as JSON or YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := project.Open(appConfig().Project.Dir, args[0])
		if err != nil {
			return err
		}
		defer store.Close()

		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "json":
			return store.ExportJSON(os.Stdout)
		case "yaml":
			return store.ExportYAML(os.Stdout)
		default:
			return fmt.Errorf("unknown format %q (want json or yaml)", format)
		}
	},
}

func init() {
	projectShowCmd.Flags().Int("threshold", 60, "relevance threshold for the statistics line")
	projectShowCmd.Flags().Bool("relevant", false, "show only articles at or above the threshold")
	projectExportCmd.Flags().String("format", "json", "export format: json or yaml")

	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectSessionsCmd)
	projectCmd.AddCommand(projectDeleteArticleCmd)
	projectCmd.AddCommand(projectExportCmd)
	rootCmd.AddCommand(projectCmd)
}
