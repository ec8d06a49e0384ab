// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries PubMed through the E-utilities client and
// returns brief article records ready for display or tool output.
// See docs/ARCHITECTURE § Search.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/entrez-mcp/internal/eutils"
	"github.com/pdiddy/entrez-mcp/internal/relate"
	"github.com/pdiddy/entrez-mcp/pkg/types"
)

const defaultMaxResults = 20

// Client is the slice of the E-utilities client this package uses.
// Implemented by eutils.Client; tests supply a mock.
type Client interface {
	Search(ctx context.Context, p eutils.SearchParams) (*eutils.SearchResult, string, error)
	Summary(ctx context.Context, p relate.SummaryParams) (json.RawMessage, string, error)
}

// Query holds the search parameters. FreeText is passed to the remote
// as-is, so fielded PubMed syntax ("smith[Author]") keeps working;
// Author and Keywords add fielded clauses for callers that want
// structure without knowing the syntax.
type Query struct {
	FreeText   string
	Author     string
	Keywords   []string
	DateFrom   time.Time
	DateTo     time.Time
	Sort       string // "", "relevance", "pub_date"
	MaxResults int
}

// IsEmpty reports whether the query contains no searchable terms.
func (q Query) IsEmpty() bool {
	return strings.TrimSpace(q.FreeText) == "" && strings.TrimSpace(q.Author) == "" && len(q.Keywords) == 0
}

// Term renders the query in PubMed term syntax, AND-joining the
// structured clauses.
func (q Query) Term() string {
	var clauses []string
	if t := strings.TrimSpace(q.FreeText); t != "" {
		clauses = append(clauses, t)
	}
	if a := strings.TrimSpace(q.Author); a != "" {
		clauses = append(clauses, fmt.Sprintf("%s[Author]", a))
	}
	for _, kw := range q.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			clauses = append(clauses, fmt.Sprintf("%s[Title/Abstract]", kw))
		}
	}
	return strings.Join(clauses, " AND ")
}

const dateParamFmt = "2006/01/02"

// Search runs the query against PubMed: one ESearch for ids, then one
// batch ESummary to fill in the article records. A failed or unusable
// summary response degrades the listing to bare ids with a note on w;
// only the id search itself can fail the call.
func Search(ctx context.Context, c Client, q Query, cfg types.SearchConfig, w io.Writer) (*types.SearchOutput, error) {
	if q.IsEmpty() {
		return nil, fmt.Errorf("query is empty: provide search terms or an author")
	}
	if w == nil {
		w = io.Discard
	}
	max := q.MaxResults
	if max <= 0 {
		max = cfg.MaxResults
	}
	if max <= 0 {
		max = defaultMaxResults
	}

	params := eutils.SearchParams{
		Term:       q.Term(),
		MaxResults: max,
		Sort:       q.Sort,
	}
	if !q.DateFrom.IsZero() {
		params.FromDate = q.DateFrom.Format(dateParamFmt)
	}
	if !q.DateTo.IsZero() {
		params.ToDate = q.DateTo.Format(dateParamFmt)
	}

	result, _, err := c.Search(ctx, params)
	if err != nil {
		return nil, err
	}

	out := &types.SearchOutput{
		Query:            params.Term,
		Count:            result.Count,
		QueryTranslation: result.QueryTranslation,
		Articles:         make([]types.BriefSummary, 0, len(result.IDs)),
	}
	if len(result.IDs) == 0 {
		return out, nil
	}

	out.Articles = summarize(ctx, c, result.IDs, w)
	return out, nil
}

// summarize fetches brief records for ids in one batch, keeping the id
// order of the search result. Ids the summary response does not cover,
// or a summary failure, leave bare-id records in place.
func summarize(ctx context.Context, c Client, ids []string, w io.Writer) []types.BriefSummary {
	byID := make(map[string]types.BriefSummary)

	raw, summaryURL, err := c.Summary(ctx, relate.SummaryParams{DB: "pubmed", IDs: ids})
	if err != nil {
		fmt.Fprintf(w, "warning: summary query %s failed, listing ids only: %v\n", summaryURL, err)
	} else if summaries, err := relate.ExtractSummaries(raw); err != nil {
		fmt.Fprintf(w, "warning: summary response %s unusable, listing ids only: %v\n", summaryURL, err)
	} else {
		for _, s := range summaries {
			byID[s.ID] = s
		}
	}

	articles := make([]types.BriefSummary, 0, len(ids))
	for _, id := range ids {
		if s, ok := byID[id]; ok {
			articles = append(articles, s)
			continue
		}
		articles = append(articles, types.BriefSummary{ID: id})
	}
	return articles
}

// FormatTable writes search results as a human-readable table to w.
func FormatTable(out *types.SearchOutput, w io.Writer) {
	if len(out.Articles) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-10s  %-60s  %-20s  %s\n",
		"Rank", "PMID", "Title", "Authors", "Published")
	fmt.Fprintln(w, strings.Repeat("-", 108))

	for i, a := range out.Articles {
		fmt.Fprintf(w, "%-4d  %-10s  %-60s  %-20s  %s\n",
			i+1, a.ID, truncate(a.Title, 60), formatAuthors(a.Authors), a.PubDate)
	}

	fmt.Fprintf(w, "\n%d shown of %d total matches\n", len(out.Articles), out.Count)
}

// FormatJSON writes the full search output as indented JSON to w.
func FormatJSON(out *types.SearchOutput, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
