// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/entrez-mcp/internal/eutils"
	"github.com/pdiddy/entrez-mcp/internal/history"
	"github.com/pdiddy/entrez-mcp/internal/plan"
	"github.com/pdiddy/entrez-mcp/internal/relate"
	"github.com/pdiddy/entrez-mcp/pkg/types"
)

type mockAPI struct {
	searchResult *eutils.SearchResult
	searchErr    error
	summaryBody  string
	summaryErr   error
	linkBody     string
	linkErr      error
	fetchBody    string
	fetchErr     error

	searchCalls  []eutils.SearchParams
	summaryCalls []relate.SummaryParams
	linkCalls    []relate.LinkParams
	fetchCalls   []eutils.FetchParams
}

func (m *mockAPI) Search(ctx context.Context, p eutils.SearchParams) (*eutils.SearchResult, string, error) {
	m.searchCalls = append(m.searchCalls, p)
	if m.searchErr != nil {
		return nil, "", m.searchErr
	}
	res := *m.searchResult
	return &res, "https://example.invalid/esearch.fcgi", nil
}

func (m *mockAPI) Summary(ctx context.Context, p relate.SummaryParams) (json.RawMessage, string, error) {
	m.summaryCalls = append(m.summaryCalls, p)
	if m.summaryErr != nil {
		return nil, "https://example.invalid/esummary.fcgi", m.summaryErr
	}
	return json.RawMessage(m.summaryBody), "https://example.invalid/esummary.fcgi", nil
}

func (m *mockAPI) Link(ctx context.Context, p relate.LinkParams) (json.RawMessage, string, error) {
	m.linkCalls = append(m.linkCalls, p)
	if m.linkErr != nil {
		return nil, "https://example.invalid/elink.fcgi", m.linkErr
	}
	return json.RawMessage(m.linkBody), "https://example.invalid/elink.fcgi", nil
}

func (m *mockAPI) Fetch(ctx context.Context, p eutils.FetchParams) ([]byte, string, error) {
	m.fetchCalls = append(m.fetchCalls, p)
	if m.fetchErr != nil {
		return nil, "https://example.invalid/efetch.fcgi", m.fetchErr
	}
	return []byte(m.fetchBody), "https://example.invalid/efetch.fcgi", nil
}

const searchSummaryBody = `{
	"result": {
		"uids": ["101", "102"],
		"101": {
			"title": "Gut microbiome in depression",
			"authors": [{"name": "Ramos P"}],
			"source": "Nat Rev Neurosci",
			"pubdate": "2024 Jan",
			"articleids": [{"idtype": "doi", "value": "10.1038/s41583-024-0001"}]
		},
		"102": {
			"title": "The microbiota-gut-brain axis",
			"authors": [{"name": "Cryan JF"}, {"name": "Dinan TG"}],
			"source": "Physiol Rev",
			"pubdate": "2019"
		}
	}
}`

const relatedLinkBody = `{
	"linksets": [
		{
			"ids": ["555"],
			"linksetdbs": [
				{
					"linkname": "pubmed_pubmed",
					"links": [
						{"id": "901", "score": 80},
						{"id": "902", "score": 120}
					]
				}
			]
		}
	]
}`

const relatedSummaryBody = `{
	"result": {
		"uids": ["902", "901"],
		"902": {"title": "Best match"},
		"901": {"title": "Second match"}
	}
}`

func TestRunSearch(t *testing.T) {
	api := &mockAPI{
		searchResult: &eutils.SearchResult{
			Count:            2,
			IDs:              []string{"101", "102"},
			QueryTranslation: `"depression"[MeSH Terms]`,
		},
		summaryBody: searchSummaryBody,
	}
	s := &Server{client: api, warn: io.Discard}

	text, err := s.runSearch(context.Background(), searchArgs{Query: "depression", Max: 5})
	if err != nil {
		t.Fatalf("runSearch: %v", err)
	}

	var out types.SearchOutput
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if out.Count != 2 {
		t.Errorf("count = %d, want 2", out.Count)
	}
	if len(out.Articles) != 2 {
		t.Fatalf("got %d articles, want 2", len(out.Articles))
	}
	if out.Articles[0].ID != "101" || out.Articles[0].Title != "Gut microbiome in depression" {
		t.Errorf("first article = %+v", out.Articles[0])
	}
	if out.QueryTranslation == "" {
		t.Error("query translation missing")
	}

	if len(api.searchCalls) != 1 {
		t.Fatalf("got %d search calls, want 1", len(api.searchCalls))
	}
	if got := api.searchCalls[0]; got.Term != "depression" || got.MaxResults != 5 {
		t.Errorf("search params = %+v", got)
	}
}

func TestRunSearchRemoteError(t *testing.T) {
	api := &mockAPI{searchErr: errors.New("esearch: boom")}
	s := &Server{client: api, warn: io.Discard}

	if _, err := s.runSearch(context.Background(), searchArgs{Query: "x"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestRunSummaries(t *testing.T) {
	api := &mockAPI{summaryBody: searchSummaryBody}
	s := &Server{client: api, warn: io.Discard}

	text, err := s.runSummaries(context.Background(), []string{"101", "102"})
	if err != nil {
		t.Fatalf("runSummaries: %v", err)
	}

	var out struct {
		Articles       []types.BriefSummary `json:"articles"`
		RetrievedCount int                  `json:"retrievedCount"`
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if out.RetrievedCount != 2 || len(out.Articles) != 2 {
		t.Fatalf("got %d/%d articles, want 2/2", out.RetrievedCount, len(out.Articles))
	}
	if got := out.Articles[1].Authors; len(got) != 2 || got[0] != "Cryan JF" {
		t.Errorf("authors = %v", got)
	}
	if got := api.summaryCalls[0].IDs; len(got) != 2 || got[0] != "101" {
		t.Errorf("summary ids = %v", got)
	}
}

func TestRunSummariesUnusableResponse(t *testing.T) {
	api := &mockAPI{summaryBody: `"nope"`}
	s := &Server{client: api, warn: io.Discard}

	_, err := s.runSummaries(context.Background(), []string{"101"})
	var parseErr *relate.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("err = %v, want ParseError", err)
	}
}

func TestRunAbstract(t *testing.T) {
	api := &mockAPI{fetchBody: "\n1. Nat Rev. 2024.\n\nBACKGROUND: Something important.\n\n"}
	s := &Server{client: api, warn: io.Discard}

	text, err := s.runAbstract(context.Background(), []string{"42", "43"})
	if err != nil {
		t.Fatalf("runAbstract: %v", err)
	}
	if !strings.HasPrefix(text, "1. Nat Rev.") || strings.HasSuffix(text, "\n") {
		t.Errorf("text not trimmed: %q", text)
	}
	if got := api.fetchCalls[0].IDs; len(got) != 2 || got[0] != "42" || got[1] != "43" {
		t.Errorf("fetch ids = %v", got)
	}
}

func TestRunAbstractEmptyBody(t *testing.T) {
	api := &mockAPI{fetchBody: "  \n"}
	s := &Server{client: api, warn: io.Discard}

	text, err := s.runAbstract(context.Background(), []string{"42"})
	if err != nil {
		t.Fatalf("runAbstract: %v", err)
	}
	if text != "No abstract available for PMID 42." {
		t.Errorf("text = %q", text)
	}
}

func TestRunAbstractFetchError(t *testing.T) {
	api := &mockAPI{fetchErr: errors.New("efetch: 502")}
	s := &Server{client: api, warn: io.Discard}

	_, err := s.runAbstract(context.Background(), []string{"42"})
	if err == nil || !strings.Contains(err.Error(), "fetch query") {
		t.Fatalf("err = %v, want fetch query error", err)
	}
}

func TestRunRelated(t *testing.T) {
	api := &mockAPI{linkBody: relatedLinkBody, summaryBody: relatedSummaryBody}
	s := &Server{client: api, warn: io.Discard}

	text, err := s.runRelated(context.Background(), relatedArgs{ID: "555", Kind: relate.KindSimilar})
	if err != nil {
		t.Fatalf("runRelated: %v", err)
	}

	var out types.RelatedOutput
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if out.RetrievedCount != 2 || len(out.RelatedArticles) != 2 {
		t.Fatalf("got %d/%d articles, want 2/2", out.RetrievedCount, len(out.RelatedArticles))
	}
	if out.RelatedArticles[0].ID != "902" || out.RelatedArticles[0].Title != "Best match" {
		t.Errorf("best match = %+v", out.RelatedArticles[0])
	}
	if got := api.linkCalls[0]; got.ID != "555" || got.LinkName != "pubmed_pubmed" {
		t.Errorf("link params = %+v", got)
	}
}

func TestRunRelatedDegradesOnSummaryFailure(t *testing.T) {
	api := &mockAPI{linkBody: relatedLinkBody, summaryErr: errors.New("esummary: 503")}
	var warn bytes.Buffer
	s := &Server{client: api, warn: &warn}

	text, err := s.runRelated(context.Background(), relatedArgs{ID: "555", Kind: relate.KindSimilar})
	if err != nil {
		t.Fatalf("runRelated: %v", err)
	}

	var out types.RelatedOutput
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if len(out.RelatedArticles) != 2 || out.RelatedArticles[0].Title != "" {
		t.Errorf("articles = %+v, want bare listing", out.RelatedArticles)
	}
	if !strings.Contains(warn.String(), "warning: summary query") {
		t.Errorf("warn = %q", warn.String())
	}
}

func TestRunTrend(t *testing.T) {
	api := &mockAPI{searchResult: &eutils.SearchResult{Count: 5}}
	s := &Server{client: api, warn: io.Discard}

	text, err := s.runTrend(context.Background(), trendArgs{
		Query: "crispr", FromYear: 2020, ToYear: 2022,
	})
	if err != nil {
		t.Fatalf("runTrend: %v", err)
	}

	var out types.TrendOutput
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if len(out.Points) != 3 || out.Total != 15 {
		t.Fatalf("points = %+v total = %d", out.Points, out.Total)
	}
	if out.ChartPath != "" {
		t.Errorf("chart path = %q, want none without render", out.ChartPath)
	}

	if len(api.searchCalls) != 3 {
		t.Fatalf("got %d count queries, want 3", len(api.searchCalls))
	}
	first := api.searchCalls[0]
	if !first.CountOnly || first.FromDate != "2020" || first.ToDate != "2020" {
		t.Errorf("first count query = %+v", first)
	}
}

func TestRunTrendRendersChart(t *testing.T) {
	api := &mockAPI{searchResult: &eutils.SearchResult{Count: 5}}
	s := &Server{
		client: api,
		cfg:    types.Config{Trend: types.TrendConfig{ChartDir: t.TempDir()}},
		warn:   io.Discard,
	}

	text, err := s.runTrend(context.Background(), trendArgs{
		Query: "crispr", FromYear: 2021, ToYear: 2023, Render: true,
	})
	if err != nil {
		t.Fatalf("runTrend: %v", err)
	}

	var out types.TrendOutput
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if out.ChartPath == "" {
		t.Fatal("chart path missing")
	}
	data, err := os.ReadFile(out.ChartPath)
	if err != nil {
		t.Fatalf("reading chart: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("chart is not a PNG")
	}
}

func TestRunTrendChartFailureDegrades(t *testing.T) {
	api := &mockAPI{searchResult: &eutils.SearchResult{Count: 0}}
	var warn bytes.Buffer
	s := &Server{
		client: api,
		cfg:    types.Config{Trend: types.TrendConfig{ChartDir: t.TempDir()}},
		warn:   &warn,
	}

	text, err := s.runTrend(context.Background(), trendArgs{
		Query: "crispr", FromYear: 2021, ToYear: 2023, Render: true,
	})
	if err != nil {
		t.Fatalf("runTrend: %v", err)
	}

	var out types.TrendOutput
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if out.ChartPath != "" {
		t.Errorf("chart path = %q, want none", out.ChartPath)
	}
	if !strings.Contains(warn.String(), "warning: chart not rendered") {
		t.Errorf("warn = %q", warn.String())
	}
}

func TestRunTrendDefaultYears(t *testing.T) {
	api := &mockAPI{searchResult: &eutils.SearchResult{Count: 1}}
	s := &Server{client: api, warn: io.Discard}

	if _, err := s.runTrend(context.Background(), trendArgs{Query: "x"}); err != nil {
		t.Fatalf("runTrend: %v", err)
	}
	if len(api.searchCalls) != 10 {
		t.Fatalf("got %d count queries, want 10", len(api.searchCalls))
	}
	wantFirst := strconv.Itoa(time.Now().Year() - 9)
	if got := api.searchCalls[0].FromDate; got != wantFirst {
		t.Errorf("first year = %s, want %s", got, wantFirst)
	}
}

func TestRunPlanMarkdown(t *testing.T) {
	s := &Server{warn: io.Discard}

	text, err := s.runPlan(context.Background(), planArgs{Topic: "gene drives", Format: "markdown"})
	if err != nil {
		t.Fatalf("runPlan: %v", err)
	}
	for _, want := range []string{
		"# Research plan: gene drives",
		"## Suggested queries",
		"## Steps",
		"search_articles",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRunPlanYAML(t *testing.T) {
	s := &Server{warn: io.Discard}

	text, err := s.runPlan(context.Background(), planArgs{
		Topic: "gene drives", Focus: []string{"malaria"}, Format: "yaml",
	})
	if err != nil {
		t.Fatalf("runPlan: %v", err)
	}

	var p plan.Plan
	if err := yaml.Unmarshal([]byte(text), &p); err != nil {
		t.Fatalf("result is not YAML: %v", err)
	}
	if p.Topic != "gene drives" {
		t.Errorf("topic = %q", p.Topic)
	}
	if len(p.SearchTerms) == 0 || len(p.Steps) == 0 {
		t.Errorf("plan incomplete: %+v", p)
	}
}

func TestRecordsInvocations(t *testing.T) {
	cfg := types.Config{History: types.HistoryConfig{
		Enabled:    true,
		HistoryDir: t.TempDir(),
	}}
	srv := New(cfg, "0.0.0-test", io.Discard)
	t.Cleanup(func() { srv.Close() })
	if srv.store == nil {
		t.Fatal("history store not opened")
	}
	srv.client = &mockAPI{
		summaryBody: searchSummaryBody,
		fetchErr:    errors.New("efetch: 502"),
	}
	ctx := context.Background()

	if _, err := srv.runSummaries(ctx, []string{"101"}); err != nil {
		t.Fatalf("runSummaries: %v", err)
	}
	if _, err := srv.runAbstract(ctx, []string{"42"}); err == nil {
		t.Fatal("expected fetch error")
	}

	invs, err := srv.store.Retrieve(ctx, history.QueryOptions{})
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(invs) != 2 {
		t.Fatalf("got %d invocations, want 2", len(invs))
	}
	if invs[0].Tool != toolAbstract || invs[0].Status != types.InvocationError {
		t.Errorf("latest = %+v, want failed %s", invs[0], toolAbstract)
	}
	if !strings.Contains(invs[0].Detail, "fetch query") {
		t.Errorf("detail = %q", invs[0].Detail)
	}
	if invs[1].Tool != toolSummaries || invs[1].Status != types.InvocationOK {
		t.Errorf("earliest = %+v, want ok %s", invs[1], toolSummaries)
	}
	for _, inv := range invs {
		if inv.ID == "" || inv.StartedAt.IsZero() {
			t.Errorf("invocation not filled in: %+v", inv)
		}
	}
}

func TestRecordsDegradedStatus(t *testing.T) {
	cfg := types.Config{History: types.HistoryConfig{
		Enabled:    true,
		HistoryDir: t.TempDir(),
	}}
	srv := New(cfg, "0.0.0-test", io.Discard)
	t.Cleanup(func() { srv.Close() })
	srv.client = &mockAPI{
		linkBody:   relatedLinkBody,
		summaryErr: errors.New("esummary: 503"),
	}
	ctx := context.Background()

	if _, err := srv.runRelated(ctx, relatedArgs{ID: "555", Kind: relate.KindSimilar}); err != nil {
		t.Fatalf("runRelated: %v", err)
	}

	invs, err := srv.store.Retrieve(ctx, history.QueryOptions{Tool: toolRelated})
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(invs) != 1 {
		t.Fatalf("got %d invocations, want 1", len(invs))
	}
	if invs[0].Status != types.InvocationDegraded {
		t.Errorf("status = %s, want %s", invs[0].Status, types.InvocationDegraded)
	}
	if !strings.Contains(invs[0].Detail, "summary query") {
		t.Errorf("detail = %q", invs[0].Detail)
	}
	if invs[0].Argument != "555 similar" {
		t.Errorf("argument = %q", invs[0].Argument)
	}
}

func TestNewWithoutHistory(t *testing.T) {
	srv := New(types.Config{}, "0.0.0-test", io.Discard)
	if srv.store != nil {
		t.Error("store opened with history disabled")
	}
	if srv.mcp == nil {
		t.Error("mcp server not built")
	}
	if err := srv.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}

func TestSplitCSV(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a, b ,c", []string{"a", "b", "c"}},
		{" , ,", nil},
		{"31452104,32887691", []string{"31452104", "32887691"}},
	}
	for _, tt := range tests {
		got := splitCSV(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("splitCSV(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitCSV(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}

func TestParseFlexDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2024-06-30", "2024-06-30", false},
		{"2024/06/30", "2024-06-30", false},
		{"2024", "2024-01-01", false},
		{"June 2024", "", true},
		{"24-06-30", "", true},
	}
	for _, tt := range tests {
		got, err := parseFlexDate(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseFlexDate(%q) succeeded, want error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseFlexDate(%q): %v", tt.in, err)
			continue
		}
		if got.Format("2006-01-02") != tt.want {
			t.Errorf("parseFlexDate(%q) = %s, want %s", tt.in, got.Format("2006-01-02"), tt.want)
		}
	}
}
