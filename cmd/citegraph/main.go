// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the citegraph CLI.
// Implements: prd004-traversal, prd005-persistence, prd006-metrics
//
//	(CLI surface).
//
// See docs/ARCHITECTURE.md § Command Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/citegraph/internal/secrets"
	"github.com/pdiddy/citegraph/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "citegraph/0.1"
)

// secretDefault returns fallback when set, the loaded secret otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the citegraph CLI.
var rootCmd = &cobra.Command{
	Use:   "citegraph",
	Short: "Citation-graph exploration for literature research",
	Long: `citegraph explores the citation graph around a seed publication. Starting
from one article (PubMed ID, DOI, or URL), it walks similar, cited-by, and
reference relations layer by layer, scores each discovered article against a
research theme, and follows only the relevant ones. Evaluations are cached
per article in a project database, so repeated searches cost nothing for
articles already scored.

Each operation is a subcommand: find runs a search, project inspects and
exports stored results, metrics and citations enrich stored articles with
attention and citation-count data.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./citegraph.yaml or ~/.config/citegraph/config.yaml)")
	rootCmd.PersistentFlags().String("projects-dir", "", "directory holding project databases (default: ./projects)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("citegraph")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "citegraph"))
		}
	}

	viper.SetEnvPrefix("CITEGRAPH")
	viper.AutomaticEnv()

	viper.SetDefault("project.dir", "projects")
	viper.SetDefault("scoring.model", "gemini-2.0-flash")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// appConfig assembles the collaborator configuration from config file,
// environment, and loaded secrets.
func appConfig() types.AppConfig {
	cfg := types.AppConfig{
		PubMed: types.PubMedConfig{
			HTTPConfig: types.HTTPConfig{Timeout: defaultTimeout, UserAgent: defaultUserAgent},
			APIKey:     secretDefault("ncbi-api-key", viper.GetString("pubmed.api_key")),
		},
		OpenAlex: types.OpenAlexConfig{
			HTTPConfig: types.HTTPConfig{Timeout: defaultTimeout, UserAgent: defaultUserAgent},
			Email:      secretDefault("openalex-email", viper.GetString("openalex.email")),
		},
		Scoring: types.ScoringConfig{
			Model:  viper.GetString("scoring.model"),
			APIKey: secretDefault("gemini-api-key", viper.GetString("scoring.api_key")),
		},
		Altmetric: types.AltmetricConfig{
			HTTPConfig: types.HTTPConfig{Timeout: defaultTimeout, UserAgent: defaultUserAgent},
		},
		Project: types.ProjectConfig{Dir: projectsDir()},
	}
	return cfg
}

func projectsDir() string {
	if dir, _ := rootCmd.PersistentFlags().GetString("projects-dir"); dir != "" {
		return dir
	}
	return viper.GetString("project.dir")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
