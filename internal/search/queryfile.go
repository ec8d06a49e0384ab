// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/entrez-mcp/pkg/types"
)

// QueryFile is the on-disk representation of a search and its results.
// A search can be saved to a file and reloaded later without re-querying
// the remote.
type QueryFile struct {
	Query   QueryParams          `yaml:"query"`
	Results []types.BriefSummary `yaml:"results"`
	Summary QuerySummary         `yaml:"summary"`
}

// QueryParams stores the query parameters in a serializable form.
type QueryParams struct {
	FreeText   string   `yaml:"free_text,omitempty"`
	Author     string   `yaml:"author,omitempty"`
	Keywords   []string `yaml:"keywords,omitempty"`
	DateFrom   string   `yaml:"date_from,omitempty"`
	DateTo     string   `yaml:"date_to,omitempty"`
	Sort       string   `yaml:"sort,omitempty"`
	MaxResults int      `yaml:"max_results,omitempty"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Shown            int       `yaml:"shown"`
	TotalMatches     int       `yaml:"total_matches"`
	QueryTranslation string    `yaml:"query_translation,omitempty"`
	Timestamp        time.Time `yaml:"timestamp"`
}

const dateFmt = "2006-01-02"

// WriteQueryFile saves query parameters and results to a YAML file.
func WriteQueryFile(path string, query Query, out *types.SearchOutput) error {
	qf := QueryFile{
		Query: QueryParams{
			FreeText:   query.FreeText,
			Author:     query.Author,
			Keywords:   query.Keywords,
			Sort:       query.Sort,
			MaxResults: query.MaxResults,
		},
		Results: out.Articles,
		Summary: QuerySummary{
			Shown:            len(out.Articles),
			TotalMatches:     out.Count,
			QueryTranslation: out.QueryTranslation,
			Timestamp:        time.Now(),
		},
	}

	if !query.DateFrom.IsZero() {
		qf.Query.DateFrom = query.DateFrom.Format(dateFmt)
	}
	if !query.DateTo.IsZero() {
		qf.Query.DateTo = query.DateTo.Format(dateFmt)
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}

// ToQuery converts stored QueryParams back into a Query struct.
func (p QueryParams) ToQuery() (Query, error) {
	q := Query{
		FreeText:   p.FreeText,
		Author:     p.Author,
		Keywords:   p.Keywords,
		Sort:       p.Sort,
		MaxResults: p.MaxResults,
	}
	if p.DateFrom != "" {
		t, err := time.Parse(dateFmt, p.DateFrom)
		if err != nil {
			return q, fmt.Errorf("invalid date_from %q: %w", p.DateFrom, err)
		}
		q.DateFrom = t
	}
	if p.DateTo != "" {
		t, err := time.Parse(dateFmt, p.DateTo)
		if err != nil {
			return q, fmt.Errorf("invalid date_to %q: %w", p.DateTo, err)
		}
		q.DateTo = t
	}
	return q, nil
}
