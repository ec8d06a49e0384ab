// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relate

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pdiddy/entrez-mcp/pkg/types"
)

// ParseError reports an ESummary response body whose top-level shape is
// not recognizable as a summary result. Field-level oddities inside a
// recognizable response never produce one; those degrade to partially
// filled records instead.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "unrecognizable summary response: " + e.Reason
}

// ExtractSummaries converts a batch ESummary response body into one
// BriefSummary per document the response actually contains, in the
// response's own uids order. Requested ids the remote dropped are simply
// absent from the result. Every document field is optional and resolves
// through the shape normalizer; a degenerate response repeating an id
// keeps only the last occurrence.
//
// The error is a *ParseError when the top-level shape is unrecognizable,
// or a plain error when the remote returned an explicit error body.
func ExtractSummaries(raw json.RawMessage) ([]types.BriefSummary, error) {
	var envelope summaryEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &ParseError{Reason: "body is not a JSON object"}
	}
	if len(envelope.Result) == 0 {
		if msg := firstText(envelope.Error); msg != "" {
			return nil, fmt.Errorf("summary query failed: %s", msg)
		}
		return nil, &ParseError{Reason: "no result container"}
	}

	var result map[string]json.RawMessage
	if err := json.Unmarshal(envelope.Result, &result); err != nil {
		return nil, &ParseError{Reason: "result container is not an object"}
	}

	summaries := make([]types.BriefSummary, 0, len(result))
	index := make(map[string]int, len(result))
	for _, uid := range documentOrder(result) {
		doc, ok := result[uid]
		if !ok {
			continue
		}
		s, ok := extractDocument(uid, doc)
		if !ok {
			continue
		}
		if i, seen := index[uid]; seen {
			summaries[i] = s
			continue
		}
		index[uid] = len(summaries)
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// documentOrder returns the document keys of a result container in the
// order the uids field declares. When the uids field is missing the keys
// are sorted for a deterministic result.
func documentOrder(result map[string]json.RawMessage) []string {
	nodes := Normalize(result["uids"])
	if len(nodes) > 0 {
		uids := make([]string, 0, len(nodes))
		for _, n := range nodes {
			if n.Text != "" {
				uids = append(uids, n.Text)
			}
		}
		return uids
	}

	uids := make([]string, 0, len(result))
	for k := range result {
		if k == "uids" {
			continue
		}
		uids = append(uids, k)
	}
	sort.Strings(uids)
	return uids
}

// extractDocument reads one summary document. A document that is not a
// JSON object is skipped rather than failing the batch.
func extractDocument(uid string, raw json.RawMessage) (types.BriefSummary, bool) {
	var doc summaryDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return types.BriefSummary{}, false
	}

	s := types.BriefSummary{
		ID:      uid,
		Title:   firstText(doc.Title),
		Source:  firstText(doc.Source),
		PubDate: firstText(doc.PubDate),
	}
	for _, a := range AsList(doc.Authors) {
		var author summaryAuthor
		if err := json.Unmarshal(a, &author); err != nil {
			continue
		}
		if name := firstText(author.Name); name != "" {
			s.Authors = append(s.Authors, name)
		}
	}
	for _, a := range AsList(doc.ArticleIDs) {
		var aid summaryArticleID
		if err := json.Unmarshal(a, &aid); err != nil {
			continue
		}
		if firstText(aid.IDType) == "doi" {
			s.DOI = firstText(aid.Value)
		}
	}
	return s, true
}

// ESummary version 2.0 response shapes. Every document field stays raw
// and goes through the shape normalizer.

type summaryEnvelope struct {
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
}

type summaryDocument struct {
	Title      json.RawMessage `json:"title"`
	Authors    json.RawMessage `json:"authors"`
	Source     json.RawMessage `json:"source"`
	PubDate    json.RawMessage `json:"pubdate"`
	ArticleIDs json.RawMessage `json:"articleids"`
}

type summaryAuthor struct {
	Name json.RawMessage `json:"name"`
}

type summaryArticleID struct {
	IDType json.RawMessage `json:"idtype"`
	Value  json.RawMessage `json:"value"`
}
