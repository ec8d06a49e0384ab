// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/entrez-mcp/internal/plan"
)

var planCmd = &cobra.Command{
	Use:   "plan [topic]",
	Short: "Draft a literature-review plan for a research topic",
	Long: `Plan drafts a literature-review plan: guiding questions, suggested PubMed
queries, and an ordered sequence of steps that an MCP client (or a person)
can carry out with the other tools.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().String("focus", "", "comma-separated subtopics to investigate individually")
	planCmd.Flags().Int("trend-years", 0, "width of the publication-trend window in years (default 10)")
	planCmd.Flags().String("format", "markdown", "output format: markdown or yaml")
	planCmd.Flags().String("output", "", "write the plan to a file instead of stdout")

	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")

	opts := plan.Options{}
	opts.TrendYears, _ = cmd.Flags().GetInt("trend-years")
	if focus, _ := cmd.Flags().GetString("focus"); focus != "" {
		for _, f := range strings.Split(focus, ",") {
			if f = strings.TrimSpace(f); f != "" {
				opts.FocusAreas = append(opts.FocusAreas, f)
			}
		}
	}

	p, err := plan.Build(topic, opts)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating plan file: %w", err)
		}
		defer f.Close()
		w = f
		fmt.Fprintf(os.Stderr, "Plan written to %s\n", path)
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "markdown", "":
		return p.Markdown(w)
	case "yaml":
		return p.EncodeYAML(w)
	default:
		return fmt.Errorf("unsupported format %q: use markdown or yaml", format)
	}
}
