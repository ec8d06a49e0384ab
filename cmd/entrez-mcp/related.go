// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/entrez-mcp/internal/eutils"
	"github.com/pdiddy/entrez-mcp/internal/relate"
)

var relatedCmd = &cobra.Command{
	Use:   "related [pmid]",
	Short: "Find articles related to a PubMed article",
	Long: `Related discovers articles connected to a source article.
--relationship=similar lists articles PubMed considers similar in content;
--relationship=cited_by lists articles that cite the source. Results carry
relevance scores when PubMed provides them and are ranked best first.

When article metadata cannot be fetched, the listing degrades to PMIDs,
scores, and links rather than failing.`,
	Args: cobra.ExactArgs(1),
	RunE: runRelated,
}

func init() {
	relatedCmd.Flags().String("relationship", relate.KindSimilar, "relationship kind: similar or cited_by")
	relatedCmd.Flags().Int("max-results", 0, "maximum number of related articles (0 = use default)")
	relatedCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(relatedCmd)
}

func runRelated(cmd *cobra.Command, args []string) error {
	kind, _ := cmd.Flags().GetString("relationship")
	if kind != relate.KindSimilar && kind != relate.KindCitedBy {
		return fmt.Errorf("unsupported relationship %q: use %s or %s", kind, relate.KindSimilar, relate.KindCitedBy)
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")

	cfg := loadConfig()
	client := eutils.NewClient(cfg.Eutils)
	resolver := relate.NewResolver(client, cfg.Related, os.Stderr)

	out, err := resolver.Resolve(context.Background(), args[0], kind, maxResults)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return relate.FormatJSON(out, os.Stdout)
	}
	relate.FormatTable(out, os.Stdout)
	return nil
}
