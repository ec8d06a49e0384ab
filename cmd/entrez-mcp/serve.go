// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/entrez-mcp/internal/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the PubMed tools over MCP stdio",
	Long: `Serve speaks the Model Context Protocol on stdin/stdout and offers the
tools search_articles, get_article_summaries, get_abstract,
find_related_articles, publication_trend, and research_plan.

Tool invocations are recorded in a local SQLite history unless
--history=false. Diagnostics go to stderr; stdout belongs to the
protocol.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Bool("history", true, "record tool invocations in the local history database")
	serveCmd.Flags().String("history-dir", "", "directory for the invocation history (default \"history\")")
	serveCmd.Flags().String("chart-dir", "", "directory for rendered trend charts (default \"charts\")")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	if cmd.Flags().Changed("history") {
		cfg.History.Enabled, _ = cmd.Flags().GetBool("history")
	}
	if dir, _ := cmd.Flags().GetString("history-dir"); dir != "" {
		cfg.History.HistoryDir = dir
	}
	if dir, _ := cmd.Flags().GetString("chart-dir"); dir != "" {
		cfg.Trend.ChartDir = dir
	}

	srv := mcpserver.New(cfg, version, os.Stderr)
	defer srv.Close()

	fmt.Fprintf(os.Stderr, "entrez-mcp %s serving on stdio\n", version)
	return srv.Run()
}
