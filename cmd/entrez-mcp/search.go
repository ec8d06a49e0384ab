// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/entrez-mcp/internal/eutils"
	"github.com/pdiddy/entrez-mcp/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search PubMed for articles",
	Long: `Search queries PubMed for articles matching a free-text query, an author,
keywords, or a publication date range. Results include PMID, title, authors,
journal, publication date, and DOI.

A query can be saved with --save and replayed later with --load; the saved
file also records the results and the query as PubMed interpreted it.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("query", "", "free-text query (alternative to positional arguments)")
	searchCmd.Flags().String("author", "", "filter by author name, PubMed format: \"Smith JA\"")
	searchCmd.Flags().String("keywords", "", "comma-separated keywords required in title or abstract")
	searchCmd.Flags().String("from", "", "publication date range start (YYYY-MM-DD)")
	searchCmd.Flags().String("to", "", "publication date range end (YYYY-MM-DD)")
	searchCmd.Flags().String("sort", "", "result order: relevance or pub_date")
	searchCmd.Flags().Int("max-results", 0, "maximum number of results (0 = use default)")
	searchCmd.Flags().String("format", "table", "output format: table, json, or csl")
	searchCmd.Flags().String("save", "", "write the query and its results to a YAML file")
	searchCmd.Flags().String("load", "", "replay a query from a saved YAML file")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	q, err := queryFromFlags(cmd, args)
	if err != nil {
		return err
	}

	cfg := loadConfig()
	client := eutils.NewClient(cfg.Eutils)

	out, err := search.Search(context.Background(), client, q, cfg.Search, os.Stderr)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("save"); path != "" {
		if err := search.WriteQueryFile(path, q, out); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved query to %s\n", path)
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "table", "":
		search.FormatTable(out, os.Stdout)
		return nil
	case "json":
		return search.FormatJSON(out, os.Stdout)
	case "csl":
		return search.FormatCSL(out, os.Stdout)
	default:
		return fmt.Errorf("unsupported format %q: use table, json, or csl", format)
	}
}

func queryFromFlags(cmd *cobra.Command, args []string) (search.Query, error) {
	if path, _ := cmd.Flags().GetString("load"); path != "" {
		qf, err := search.ReadQueryFile(path)
		if err != nil {
			return search.Query{}, err
		}
		return qf.Query.ToQuery()
	}

	freeText, _ := cmd.Flags().GetString("query")
	if freeText == "" && len(args) > 0 {
		freeText = strings.Join(args, " ")
	}

	q := search.Query{FreeText: freeText}
	q.Author, _ = cmd.Flags().GetString("author")
	q.Sort, _ = cmd.Flags().GetString("sort")
	q.MaxResults, _ = cmd.Flags().GetInt("max-results")

	if kw, _ := cmd.Flags().GetString("keywords"); kw != "" {
		for _, k := range strings.Split(kw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				q.Keywords = append(q.Keywords, k)
			}
		}
	}

	var err error
	if from, _ := cmd.Flags().GetString("from"); from != "" {
		if q.DateFrom, err = time.Parse("2006-01-02", from); err != nil {
			return search.Query{}, fmt.Errorf("invalid --from date %q: want YYYY-MM-DD", from)
		}
	}
	if to, _ := cmd.Flags().GetString("to"); to != "" {
		if q.DateTo, err = time.Parse("2006-01-02", to); err != nil {
			return search.Query{}, fmt.Errorf("invalid --to date %q: want YYYY-MM-DD", to)
		}
	}
	return q, nil
}
