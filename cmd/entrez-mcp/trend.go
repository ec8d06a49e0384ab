// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/entrez-mcp/internal/eutils"
	"github.com/pdiddy/entrez-mcp/internal/trend"
)

var trendCmd = &cobra.Command{
	Use:   "trend [query]",
	Short: "Chart how many PubMed articles match a query per year",
	Long: `Trend counts publications matching a query for each year in a range and
renders the series as a PNG bar chart. One count query is issued per year,
so wide ranges take proportionally longer under the E-utilities rate limit.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTrend,
}

func init() {
	trendCmd.Flags().Int("from", 0, "first year of the range (default: nine years before --to)")
	trendCmd.Flags().Int("to", 0, "last year of the range (default: current year)")
	trendCmd.Flags().Bool("chart", true, "render a PNG bar chart of the series")
	trendCmd.Flags().Bool("json", false, "output the series as JSON")

	rootCmd.AddCommand(trendCmd)
}

func runTrend(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	toYear, _ := cmd.Flags().GetInt("to")
	if toYear == 0 {
		toYear = time.Now().Year()
	}
	fromYear, _ := cmd.Flags().GetInt("from")
	if fromYear == 0 {
		fromYear = toYear - 9
	}

	cfg := loadConfig()
	client := eutils.NewClient(cfg.Eutils)

	out, err := trend.Compute(context.Background(), client, query, fromYear, toYear)
	if err != nil {
		return err
	}

	if renderChart, _ := cmd.Flags().GetBool("chart"); renderChart {
		path, err := trend.RenderChart(out, cfg.Trend)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: chart not rendered: %v\n", err)
		} else {
			out.ChartPath = path
		}
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("%-6s  %s\n", "Year", "Publications")
	for _, p := range out.Points {
		fmt.Printf("%-6d  %d\n", p.Year, p.Count)
	}
	fmt.Printf("\n%d publications total\n", out.Total)
	if out.ChartPath != "" {
		fmt.Printf("Chart written to %s\n", out.ChartPath)
	}
	return nil
}
