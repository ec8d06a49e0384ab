// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for entrez-mcp: the
// config surface and the tool-facing result types.
// See docs/ARCHITECTURE § Data Structures, § Tool Surface.
package types

// SearchOutput is the result of a PubMed search: the total hit count
// reported by ESearch plus brief summaries for the returned page of ids.
// Count may exceed len(Articles) when the query matches more records than
// the requested page width.
type SearchOutput struct {
	// Query is the term as submitted.
	Query string `json:"query"`

	// Count is the total number of matching records reported by the remote.
	Count int `json:"count"`

	// QueryTranslation is the remote's expansion of the query (MeSH terms,
	// field mappings), useful for refining searches.
	QueryTranslation string `json:"queryTranslation,omitempty"`

	// Articles holds one brief summary per returned id, in remote order.
	Articles []BriefSummary `json:"articles"`
}
