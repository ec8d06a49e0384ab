// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pdiddy/entrez-mcp/pkg/types"
)

// Relationship kinds accepted by Resolve.
const (
	KindSimilar = "similar"
	KindCitedBy = "cited_by"
)

// linkNames maps a relationship kind to the ELink link name that serves
// it. An unrecognized kind maps to "", which omits the linkname selector
// and lets the remote default apply.
var linkNames = map[string]string{
	KindSimilar: "pubmed_pubmed",
	KindCitedBy: "pubmed_pubmed_citedin",
}

// articleLinkBase is the canonical article page URL stem; every returned
// article carries articleLinkBase + id + "/".
const articleLinkBase = "https://pubmed.ncbi.nlm.nih.gov/"

// noLinksMessage is returned when discovery finishes without candidates
// and the remote offered no error text of its own.
const noLinksMessage = "No related articles found."

const defaultMaxResults = 10

// LinkParams describes one ELink request.
type LinkParams struct {
	FromDB   string
	ToDB     string
	Cmd      string
	LinkName string // empty omits the selector
	ID       string
	Mode     string // response mode, empty means the client default
}

// SummaryParams describes one batch ESummary request.
type SummaryParams struct {
	DB      string
	IDs     []string
	Version string // empty means the client default
	Mode    string
}

// Querier is the remote query service the pipeline runs against. Both
// calls return the raw response body together with the request URL used,
// so outcomes can carry the URL as a diagnostic even when the body is
// useless. Implemented by eutils.Client.
type Querier interface {
	Link(ctx context.Context, p LinkParams) (json.RawMessage, string, error)
	Summary(ctx context.Context, p SummaryParams) (json.RawMessage, string, error)
}

// LinkCandidate is one discovered neighbor: the related article id plus
// the relevance score when the remote scored the whole set.
type LinkCandidate struct {
	ID    string
	Score *float64
}

// Resolver turns a source article id into an enriched related-article
// listing. Stateless apart from its collaborators; safe for concurrent
// use when the Querier is.
type Resolver struct {
	q    Querier
	cfg  types.RelatedConfig
	warn io.Writer
}

// NewResolver builds a Resolver that reports degradation warnings to
// warn (io.Discard when nil).
func NewResolver(q Querier, cfg types.RelatedConfig, warn io.Writer) *Resolver {
	if warn == nil {
		warn = io.Discard
	}
	return &Resolver{q: q, cfg: cfg, warn: warn}
}

// Resolve runs the full pipeline for one source article: discover
// neighbors via ELink, rank them, truncate to maxResults, then enrich
// the survivors with one batch ESummary call.
//
// Discovery failure is fatal; without links there is nothing to return.
// Enrichment failure is not: the listing degrades to id, score, and link
// URL, and the cause goes to the warning writer. A response that signals
// a remote error or carries no links yields a zero-article outcome whose
// Message explains why; that is a result, not an error.
func (r *Resolver) Resolve(ctx context.Context, sourceID, kind string, maxResults int) (*types.RelatedOutput, error) {
	sourceID = strings.TrimSpace(sourceID)
	if sourceID == "" {
		return nil, fmt.Errorf("source article id is required")
	}
	if maxResults <= 0 {
		maxResults = r.cfg.MaxResults
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	raw, requestURL, err := r.q.Link(ctx, LinkParams{
		FromDB:   "pubmed",
		ToDB:     "pubmed",
		Cmd:      "neighbor_score",
		LinkName: linkNames[kind],
		ID:       sourceID,
	})
	if err != nil {
		return nil, fmt.Errorf("link query: %w", err)
	}

	links, remoteErr := parseLinkResponse(raw, linkNames[kind])
	if remoteErr != "" {
		return terminalOutcome(requestURL, remoteErr), nil
	}

	candidates := collectCandidates(links, sourceID)
	if len(candidates) == 0 {
		return terminalOutcome(requestURL, noLinksMessage), nil
	}

	rankCandidates(candidates)
	if len(candidates) > maxResults {
		candidates = candidates[:maxResults]
	}

	return &types.RelatedOutput{
		RelatedArticles: r.enrich(ctx, candidates),
		RetrievedCount:  len(candidates),
		RequestURL:      requestURL,
	}, nil
}

// terminalOutcome is the zero-article outcome for responses that ended
// discovery: an explicit remote error or an empty link set.
func terminalOutcome(requestURL, message string) *types.RelatedOutput {
	return &types.RelatedOutput{
		RelatedArticles: []types.RelatedArticle{},
		RetrievedCount:  0,
		Message:         message,
		RequestURL:      requestURL,
	}
}

// parseLinkResponse digs the link entry list out of an ELink response.
// remoteErr carries the remote's own error text when the response
// signals one; an unreadable or linkless response returns nil links and
// no error text, which callers treat as "nothing found".
//
// Only the first link set is consulted: the pipeline always links from a
// single source id, so additional sets have nothing to add. Within it,
// the entry group matching wantLinkName wins; with no selector the first
// group wins.
func parseLinkResponse(raw json.RawMessage, wantLinkName string) (links json.RawMessage, remoteErr string) {
	var envelope linkEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, ""
	}
	if msg := firstText(envelope.Error); msg != "" {
		return nil, msg
	}

	sets := AsList(envelope.LinkSets)
	if len(sets) == 0 {
		return nil, ""
	}
	var set linkSet
	if err := json.Unmarshal(sets[0], &set); err != nil {
		return nil, ""
	}
	if msg := firstText(set.Error); msg != "" {
		return nil, msg
	}

	for _, rawGroup := range AsList(set.LinkSetDBs) {
		var group linkSetDB
		if err := json.Unmarshal(rawGroup, &group); err != nil {
			continue
		}
		if wantLinkName != "" && firstText(group.LinkName) != wantLinkName {
			continue
		}
		return group.Links, ""
	}
	return nil, ""
}

// collectCandidates normalizes the raw link entries into candidates,
// dropping entries without an id and the source article itself. Entries
// may be bare ids, wrapped ids, or id/score objects.
func collectCandidates(links json.RawMessage, sourceID string) []LinkCandidate {
	var candidates []LinkCandidate
	for _, entry := range AsList(links) {
		c, ok := readLinkEntry(entry)
		if !ok || c.ID == "" || c.ID == sourceID {
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates
}

// readLinkEntry resolves one link entry. An object with an "id" member
// is the scored form; everything else resolves as a plain id through the
// shape normalizer.
func readLinkEntry(entry json.RawMessage) (LinkCandidate, bool) {
	trimmed := bytes.TrimSpace(entry)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return LinkCandidate{}, false
		}
		if idRaw, ok := obj["id"]; ok {
			c := LinkCandidate{ID: firstText(idRaw)}
			if scoreRaw, ok := obj["score"]; ok {
				c.Score = firstNum(scoreRaw)
			}
			return c, true
		}
	}
	return LinkCandidate{ID: firstText(entry)}, true
}

// rankCandidates orders candidates by score, best first. Ranking is
// all-or-nothing: a set with any unscored member has no defined total
// order, so the remote's order stands. The sort is stable, which is what
// keeps equal scores in remote order.
func rankCandidates(candidates []LinkCandidate) {
	for _, c := range candidates {
		if c.Score == nil {
			return
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return *candidates[i].Score > *candidates[j].Score
	})
}

// enrich attaches title and author metadata to the truncated candidate
// list with a single batch summary call. Any failure along the way is
// reported to the warning writer and the listing keeps its id, score,
// and link URL fields; enrichment never changes membership or order.
func (r *Resolver) enrich(ctx context.Context, candidates []LinkCandidate) []types.RelatedArticle {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}

	byID := make(map[string]types.BriefSummary)
	raw, summaryURL, err := r.q.Summary(ctx, SummaryParams{DB: "pubmed", IDs: ids})
	if err != nil {
		fmt.Fprintf(r.warn, "warning: summary query %s failed, returning links without metadata: %v\n", summaryURL, err)
	} else if summaries, err := ExtractSummaries(raw); err != nil {
		fmt.Fprintf(r.warn, "warning: summary response %s unusable, returning links without metadata: %v\n", summaryURL, err)
	} else {
		for _, s := range summaries {
			byID[s.ID] = s
		}
	}

	articles := make([]types.RelatedArticle, 0, len(candidates))
	for _, c := range candidates {
		a := types.RelatedArticle{
			ID:      c.ID,
			Score:   c.Score,
			LinkURL: articleLinkBase + c.ID + "/",
		}
		if s, ok := byID[c.ID]; ok {
			a.Title = s.Title
			a.Authors = s.Authors
		}
		articles = append(articles, a)
	}
	return articles
}

// ELink response shapes. Raw fields resolve through the shape normalizer.

type linkEnvelope struct {
	LinkSets json.RawMessage `json:"linksets"`
	Error    json.RawMessage `json:"ERROR"`
}

type linkSet struct {
	LinkSetDBs json.RawMessage `json:"linksetdbs"`
	Error      json.RawMessage `json:"ERROR"`
}

type linkSetDB struct {
	LinkName json.RawMessage `json:"linkname"`
	Links    json.RawMessage `json:"links"`
}
