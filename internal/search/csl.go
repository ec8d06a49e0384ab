package search

import (
	"io"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/entrez-mcp/pkg/types"
)

// CSLItem represents a bibliographic entry in CSL (Citation Style Language)
// format. The field names and structure follow the CSL-JSON/CSL-YAML schema
// so that output is consumable by Pandoc and reference managers.
type CSLItem struct {
	ID             string    `yaml:"id"`
	Type           string    `yaml:"type"`
	Title          string    `yaml:"title"`
	Author         []CSLName `yaml:"author,omitempty"`
	ContainerTitle string    `yaml:"container-title,omitempty"`
	Issued         *CSLDate  `yaml:"issued,omitempty"`
	DOI            string    `yaml:"DOI,omitempty"`
	PMID           string    `yaml:"PMID,omitempty"`
}

// CSLName represents a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate represents a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// FormatCSL writes search results as a CSL-YAML list to w.
func FormatCSL(out *types.SearchOutput, w io.Writer) error {
	items := make([]CSLItem, len(out.Articles))
	for i, a := range out.Articles {
		items[i] = toCSLItem(a)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

// toCSLItem converts a BriefSummary to a CSLItem.
func toCSLItem(a types.BriefSummary) CSLItem {
	item := CSLItem{
		ID:             "pmid" + a.ID,
		Type:           "article-journal",
		Title:          a.Title,
		ContainerTitle: a.Source,
		DOI:            a.DOI,
		PMID:           a.ID,
	}

	for _, name := range a.Authors {
		item.Author = append(item.Author, parseAuthorName(name))
	}

	if year := pubYear(a.PubDate); year > 0 {
		item.Issued = &CSLDate{DateParts: [][]int{{year}}}
	}

	return item
}

// parseAuthorName splits a PubMed-style name into CSL family/given parts.
// PubMed renders names family-first with trailing initials ("Smith JA"),
// so everything before the last space is family and the last token is the
// initials. Single-token names use the literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Family: name[:idx],
		Given:  name[idx+1:],
	}
}

// pubYear extracts the leading year from a PubMed pubdate ("2024 Mar 15",
// "2024 Jan-Feb", or bare "2024"). Returns 0 when there is none.
func pubYear(pubdate string) int {
	fields := strings.Fields(pubdate)
	if len(fields) == 0 {
		return 0
	}
	year, err := strconv.Atoi(fields[0])
	if err != nil || year < 1000 {
		return 0
	}
	return year
}
