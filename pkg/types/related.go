// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// BriefSummary is the compact bibliographic record extracted from one
// ESummary document. Every field except ID is optional: the remote service
// omits fields freely, and absence is never an error.
type BriefSummary struct {
	// ID is the PubMed identifier, an opaque numeric string compared
	// only by exact string match.
	ID string `json:"id"`

	// Title is the article title, when the remote provided one.
	Title string `json:"title,omitempty"`

	// Authors lists author display names in source order.
	Authors []string `json:"authors,omitempty"`

	// Source is the journal or book abbreviation.
	Source string `json:"source,omitempty"`

	// PubDate is the publication date string as reported (e.g. "2024 Mar 7").
	PubDate string `json:"pubDate,omitempty"`

	// DOI is the digital object identifier, when present.
	DOI string `json:"doi,omitempty"`
}

// RelatedArticle is one entry in a related-articles result. Title and
// Authors are filled from summary enrichment when available; Score comes
// from the link discovery step and is present only when the remote scored
// the whole candidate set; LinkURL is always derived from ID.
type RelatedArticle struct {
	ID      string   `json:"id"`
	Title   string   `json:"title,omitempty"`
	Authors []string `json:"authors,omitempty"`
	Score   *float64 `json:"score,omitempty"`
	LinkURL string   `json:"linkUrl"`
}

// RelatedOutput is the related-articles pipeline result. RetrievedCount
// always equals len(RelatedArticles). Message is populated only on the
// no-links terminal path, in which case RelatedArticles is empty.
// RequestURL is the fully-qualified link-discovery URL, carried for
// diagnostics on every outcome.
type RelatedOutput struct {
	RelatedArticles []RelatedArticle `json:"relatedArticles"`
	RetrievedCount  int              `json:"retrievedCount"`
	Message         string           `json:"message,omitempty"`
	RequestURL      string           `json:"requestUrl"`
}
