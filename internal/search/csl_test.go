// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"strings"
	"testing"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/entrez-mcp/pkg/types"
)

func TestToCSLItem(t *testing.T) {
	a := types.BriefSummary{
		ID:      "38519861",
		Title:   "Amyloid clearance in early disease",
		Authors: []string{"Smith JA", "Jones R"},
		Source:  "Nat Med",
		PubDate: "2024 Mar 15",
		DOI:     "10.1000/xyz100",
	}

	item := toCSLItem(a)

	if item.Type != "article-journal" {
		t.Errorf("Type = %q, want %q", item.Type, "article-journal")
	}
	if item.ID != "pmid38519861" || item.PMID != "38519861" {
		t.Errorf("ID/PMID = %q/%q", item.ID, item.PMID)
	}
	if item.ContainerTitle != "Nat Med" {
		t.Errorf("ContainerTitle = %q", item.ContainerTitle)
	}
	if item.DOI != "10.1000/xyz100" {
		t.Errorf("DOI = %q", item.DOI)
	}
	if item.Issued == nil || item.Issued.DateParts[0][0] != 2024 {
		t.Errorf("Issued = %+v, want year 2024", item.Issued)
	}
	if len(item.Author) != 2 {
		t.Fatalf("len(Author) = %d, want 2", len(item.Author))
	}
	if item.Author[0].Family != "Smith" || item.Author[0].Given != "JA" {
		t.Errorf("Author[0] = %+v, want family Smith given JA", item.Author[0])
	}
}

func TestParseAuthorName(t *testing.T) {
	tests := []struct {
		name string
		want CSLName
	}{
		{"Smith JA", CSLName{Family: "Smith", Given: "JA"}},
		{"van der Berg M", CSLName{Family: "van der Berg", Given: "M"}},
		{"Consortium", CSLName{Literal: "Consortium"}},
		{"", CSLName{}},
	}
	for _, tt := range tests {
		if got := parseAuthorName(tt.name); got != tt.want {
			t.Errorf("parseAuthorName(%q) = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestPubYear(t *testing.T) {
	tests := []struct {
		pubdate string
		want    int
	}{
		{"2024 Mar 15", 2024},
		{"2024 Jan-Feb", 2024},
		{"2024", 2024},
		{"", 0},
		{"Winter 2024", 0},
		{"99", 0},
	}
	for _, tt := range tests {
		if got := pubYear(tt.pubdate); got != tt.want {
			t.Errorf("pubYear(%q) = %d, want %d", tt.pubdate, got, tt.want)
		}
	}
}

func TestFormatCSL(t *testing.T) {
	out := &types.SearchOutput{
		Articles: []types.BriefSummary{
			{ID: "100", Title: "First", Authors: []string{"Smith JA"}, PubDate: "2024"},
			{ID: "200", Title: "Second", DOI: "10.1000/xyz200"},
		},
	}

	var buf bytes.Buffer
	if err := FormatCSL(out, &buf); err != nil {
		t.Fatalf("FormatCSL: %v", err)
	}

	var items []CSLItem
	if err := yaml.Unmarshal(buf.Bytes(), &items); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].ID != "pmid100" || items[1].DOI != "10.1000/xyz200" {
		t.Errorf("items = %+v", items)
	}
	if !strings.Contains(buf.String(), "article-journal") {
		t.Errorf("output missing type:\n%s", buf.String())
	}
}
