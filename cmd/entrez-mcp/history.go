// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/entrez-mcp/internal/history"
	"github.com/pdiddy/entrez-mcp/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the tool invocation log (list, search, export)",
	Long: `History manages the local SQLite log of tool invocations recorded by
"entrez-mcp serve". Use subcommands to list recent invocations, search
them, or export the log.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent tool invocations",
	Long: `List shows recent invocations, most recent first. Filter by tool name
or by status (ok, degraded, error).`,
	RunE: runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := historyStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	invs, err := store.Retrieve(context.Background(), historyOptsFromFlags(cmd, nil))
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatHistoryOutput(invs, jsonOutput)
}

// --- search subcommand ---

var historySearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Full-text search over invocation arguments and details",
	Long: `Search runs an FTS5 full-text query over the arguments and failure
details of recorded invocations, combined with the same filters as list.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runHistorySearch,
}

func runHistorySearch(cmd *cobra.Command, args []string) error {
	store, err := historyStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	invs, err := store.Retrieve(context.Background(), historyOptsFromFlags(cmd, args))
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatHistoryOutput(invs, jsonOutput)
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the invocation log to YAML or JSON",
	Long: `Export writes the invocation log (or a filtered subset) to export.yaml
or export.json in the history directory.`,
	RunE: runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := historyStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	dir := historyDir(cmd)
	opts := historyOptsFromFlags(cmd, nil)

	switch format {
	case "yaml", "":
		if err := store.ExportYAML(context.Background(), opts); err != nil {
			return err
		}
		fmt.Printf("Exported to %s/export.yaml\n", dir)
	case "json":
		if err := store.ExportJSON(context.Background(), opts); err != nil {
			return err
		}
		fmt.Printf("Exported to %s/export.json\n", dir)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- shared helpers ---

func historyDir(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString("history-dir")
	if dir == "" {
		dir = loadConfig().History.HistoryDir
	}
	if dir == "" {
		dir = "history"
	}
	return dir
}

func historyStore(cmd *cobra.Command) (*history.Store, error) {
	cfg := loadConfig().History
	cfg.HistoryDir = historyDir(cmd)
	if maxResults, _ := cmd.Flags().GetInt("max-results"); maxResults > 0 {
		cfg.MaxResults = maxResults
	}
	return history.NewStore(cfg)
}

func historyOptsFromFlags(cmd *cobra.Command, args []string) history.QueryOptions {
	tool, _ := cmd.Flags().GetString("tool")
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")

	opts := history.QueryOptions{
		Tool:       tool,
		Status:     types.InvocationStatus(status),
		MaxResults: limit,
	}
	if len(args) > 0 {
		opts.Query = strings.Join(args, " ")
	}
	return opts
}

func formatHistoryOutput(invs []types.Invocation, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(invs)
	}

	if len(invs) == 0 {
		fmt.Println("No invocations recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-20s  %-22s  %-8s  %8s  %s\n",
		"Started", "Tool", "Status", "Duration", "Argument")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for _, inv := range invs {
		argument := inv.Argument
		if len(argument) > 40 {
			argument = argument[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-20s  %-22s  %-8s  %6dms  %s\n",
			inv.StartedAt.Format("2006-01-02 15:04:05"), inv.Tool, inv.Status,
			inv.DurationMS, argument)
	}

	fmt.Fprintf(os.Stdout, "\n%d invocations\n", len(invs))
	return nil
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	historyCmd.PersistentFlags().String("history-dir", "", "directory holding history.db (default \"history\")")
	historyCmd.PersistentFlags().Int("max-results", 0, "maximum number of invocations to return (0 = use default)")

	// List flags.
	historyListCmd.Flags().String("tool", "", "filter by tool name, e.g. search_articles")
	historyListCmd.Flags().String("status", "", "filter by status: ok, degraded, or error")
	historyListCmd.Flags().Int("limit", 0, "maximum invocations to list (0 = use default)")
	historyListCmd.Flags().Bool("json", false, "output invocations as JSON")

	// Search flags.
	historySearchCmd.Flags().String("tool", "", "filter by tool name")
	historySearchCmd.Flags().String("status", "", "filter by status: ok, degraded, or error")
	historySearchCmd.Flags().Int("limit", 0, "maximum invocations to list (0 = use default)")
	historySearchCmd.Flags().Bool("json", false, "output invocations as JSON")

	// Export flags.
	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	historyExportCmd.Flags().String("tool", "", "filter by tool name for partial export")
	historyExportCmd.Flags().String("status", "", "filter by status for partial export")
	historyExportCmd.Flags().Int("limit", 0, "maximum invocations to export (0 = all)")

	// Wire subcommands.
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historySearchCmd)
	historyCmd.AddCommand(historyExportCmd)

	rootCmd.AddCommand(historyCmd)
}
