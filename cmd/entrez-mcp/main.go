// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the entrez-mcp CLI.
// See docs/ARCHITECTURE § Tool Surface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/entrez-mcp/internal/secrets"
	"github.com/pdiddy/entrez-mcp/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback if set, else the secret value for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the entrez-mcp CLI.
var rootCmd = &cobra.Command{
	Use:   "entrez-mcp",
	Short: "PubMed research tools over the Model Context Protocol",
	Long: `entrez-mcp exposes the NCBI E-utilities as research tools: article search,
summaries, abstracts, related-article discovery, publication trends, and
literature-review planning.

Run "entrez-mcp serve" to offer the tools to an MCP client over stdio.
Every tool is also a plain subcommand (search, related, abstract, trend,
plan) for direct use, and "history" inspects the invocation log.`,
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

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./entrez-mcp.yaml or ~/.config/entrez-mcp/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("entrez-mcp")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "entrez-mcp"))
		}
	}

	viper.SetEnvPrefix("ENTREZ_MCP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// The only config default that cannot ride the zero-value convention:
	// history is on unless switched off.
	viper.SetDefault("history.enabled", true)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig materializes the full configuration: config file and
// environment via viper, then credentials from .secrets/ for anything
// the file left blank. Zero values are filled in by the component
// constructors.
func loadConfig() types.Config {
	cfg := types.Config{
		Eutils: types.EutilsConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("eutils.timeout"),
				UserAgent: viper.GetString("eutils.user_agent"),
			},
			APIKey:      viper.GetString("eutils.api_key"),
			Email:       viper.GetString("eutils.email"),
			Tool:        viper.GetString("eutils.tool"),
			MinInterval: viper.GetDuration("eutils.min_interval"),
			MaxRetries:  viper.GetInt("eutils.max_retries"),
		},
		Search: types.SearchConfig{
			MaxResults: viper.GetInt("search.max_results"),
		},
		Related: types.RelatedConfig{
			MaxResults: viper.GetInt("related.max_results"),
		},
		History: types.HistoryConfig{
			Enabled:    viper.GetBool("history.enabled"),
			HistoryDir: viper.GetString("history.history_dir"),
			MaxResults: viper.GetInt("history.max_results"),
		},
		Trend: types.TrendConfig{
			ChartDir: viper.GetString("trend.chart_dir"),
			Width:    viper.GetInt("trend.width"),
			Height:   viper.GetInt("trend.height"),
		},
	}
	cfg.Eutils.APIKey = secretDefault(secrets.KeyAPIKey, cfg.Eutils.APIKey)
	cfg.Eutils.Email = secretDefault(secrets.KeyEmail, cfg.Eutils.Email)
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
