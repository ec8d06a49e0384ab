// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relate

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/entrez-mcp/pkg/types"
)

// FormatTable writes a related-article listing as a human-readable table
// to w.
func FormatTable(out *types.RelatedOutput, w io.Writer) {
	if len(out.RelatedArticles) == 0 {
		msg := out.Message
		if msg == "" {
			msg = noLinksMessage
		}
		fmt.Fprintln(w, msg)
		return
	}

	fmt.Fprintf(w, "%-4s  %-10s  %-60s  %-20s  %s\n",
		"Rank", "PMID", "Title", "Authors", "Score")
	fmt.Fprintln(w, strings.Repeat("-", 104))

	for i, a := range out.RelatedArticles {
		score := ""
		if a.Score != nil {
			score = fmt.Sprintf("%.0f", *a.Score)
		}
		fmt.Fprintf(w, "%-4d  %-10s  %-60s  %-20s  %s\n",
			i+1, a.ID, truncate(a.Title, 60), formatAuthors(a.Authors), score)
	}

	fmt.Fprintf(w, "\n%d related articles\n", out.RetrievedCount)
}

// FormatJSON writes the full outcome as indented JSON to w.
func FormatJSON(out *types.RelatedOutput, w io.Writer) error {
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
