// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mcpserver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/pdiddy/entrez-mcp/internal/eutils"
	"github.com/pdiddy/entrez-mcp/internal/plan"
	"github.com/pdiddy/entrez-mcp/internal/relate"
	"github.com/pdiddy/entrez-mcp/internal/search"
	"github.com/pdiddy/entrez-mcp/internal/trend"
	"github.com/pdiddy/entrez-mcp/pkg/types"
)

// The handle* methods adapt MCP requests to the run* methods below.
// Argument errors become error results; transport and remote errors do
// too, because a protocol-level error would abort the client session
// over a single failed lookup.

func (s *Server) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := searchArgs{
		Query:    query,
		Author:   req.GetString("author", ""),
		Keywords: splitCSV(req.GetString("keywords", "")),
		Sort:     req.GetString("sort", ""),
		Max:      req.GetInt("max_results", 0),
	}
	if v := req.GetString("from_date", ""); v != "" {
		if args.From, err = parseFlexDate(v); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	if v := req.GetString("to_date", ""); v != "" {
		if args.To, err = parseFlexDate(v); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	text, err := s.runSearch(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleSummaries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("article_ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ids := splitCSV(raw)
	if len(ids) == 0 {
		return mcp.NewToolResultError("article_ids must list at least one PMID"), nil
	}
	text, err := s.runSummaries(ctx, ids)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleAbstract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("article_ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ids := splitCSV(raw)
	if len(ids) == 0 {
		return mcp.NewToolResultError("article_ids must list at least one PMID"), nil
	}
	text, err := s.runAbstract(ctx, ids)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleRelated(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("article_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := relatedArgs{
		ID:   id,
		Kind: req.GetString("relationship", relate.KindSimilar),
		Max:  req.GetInt("max_results", 0),
	}
	text, err := s.runRelated(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleTrend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := trendArgs{
		Query:    query,
		FromYear: req.GetInt("from_year", 0),
		ToYear:   req.GetInt("to_year", 0),
		Render:   req.GetBool("render_chart", true),
	}
	text, err := s.runTrend(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handlePlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topic, err := req.RequireString("topic")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := planArgs{
		Topic:  topic,
		Focus:  splitCSV(req.GetString("focus_areas", "")),
		Years:  req.GetInt("trend_years", 0),
		Format: req.GetString("format", "markdown"),
	}
	text, err := s.runPlan(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

type searchArgs struct {
	Query    string
	Author   string
	Keywords []string
	From     time.Time
	To       time.Time
	Sort     string
	Max      int
}

func (s *Server) runSearch(ctx context.Context, args searchArgs) (string, error) {
	started := time.Now()
	q := search.Query{
		FreeText:   args.Query,
		Author:     args.Author,
		Keywords:   args.Keywords,
		DateFrom:   args.From,
		DateTo:     args.To,
		Sort:       args.Sort,
		MaxResults: args.Max,
	}
	var warnings bytes.Buffer
	out, err := search.Search(ctx, s.client, q, s.cfg.Search, io.MultiWriter(s.warn, &warnings))
	if err != nil {
		s.record(ctx, toolSearch, q.Term(), types.InvocationError, err.Error(), started)
		return "", err
	}
	s.record(ctx, toolSearch, q.Term(), statusFor(&warnings), detailFor(&warnings), started)
	return marshalResult(out)
}

func (s *Server) runSummaries(ctx context.Context, ids []string) (string, error) {
	started := time.Now()
	argument := strings.Join(ids, ",")

	raw, _, err := s.client.Summary(ctx, relate.SummaryParams{IDs: ids})
	if err != nil {
		err = fmt.Errorf("summary query: %w", err)
		s.record(ctx, toolSummaries, argument, types.InvocationError, err.Error(), started)
		return "", err
	}
	articles, err := relate.ExtractSummaries(raw)
	if err != nil {
		s.record(ctx, toolSummaries, argument, types.InvocationError, err.Error(), started)
		return "", err
	}
	s.record(ctx, toolSummaries, argument, types.InvocationOK, "", started)
	return marshalResult(struct {
		Articles       []types.BriefSummary `json:"articles"`
		RetrievedCount int                  `json:"retrievedCount"`
	}{Articles: articles, RetrievedCount: len(articles)})
}

func (s *Server) runAbstract(ctx context.Context, ids []string) (string, error) {
	started := time.Now()
	argument := strings.Join(ids, ",")

	body, _, err := s.client.Fetch(ctx, eutils.FetchParams{IDs: ids})
	if err != nil {
		err = fmt.Errorf("fetch query: %w", err)
		s.record(ctx, toolAbstract, argument, types.InvocationError, err.Error(), started)
		return "", err
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		text = "No abstract available for PMID " + strings.Join(ids, ", ") + "."
	}
	s.record(ctx, toolAbstract, argument, types.InvocationOK, "", started)
	return text, nil
}

type relatedArgs struct {
	ID   string
	Kind string
	Max  int
}

func (s *Server) runRelated(ctx context.Context, args relatedArgs) (string, error) {
	started := time.Now()
	argument := args.ID + " " + args.Kind

	var warnings bytes.Buffer
	r := relate.NewResolver(s.client, s.cfg.Related, io.MultiWriter(s.warn, &warnings))
	out, err := r.Resolve(ctx, args.ID, args.Kind, args.Max)
	if err != nil {
		s.record(ctx, toolRelated, argument, types.InvocationError, err.Error(), started)
		return "", err
	}
	s.record(ctx, toolRelated, argument, statusFor(&warnings), detailFor(&warnings), started)
	return marshalResult(out)
}

type trendArgs struct {
	Query    string
	FromYear int
	ToYear   int
	Render   bool
}

func (s *Server) runTrend(ctx context.Context, args trendArgs) (string, error) {
	started := time.Now()
	to := args.ToYear
	if to == 0 {
		to = time.Now().Year()
	}
	from := args.FromYear
	if from == 0 {
		from = to - 9
	}
	argument := fmt.Sprintf("%s %d-%d", args.Query, from, to)

	out, err := trend.Compute(ctx, s.client, args.Query, from, to)
	if err != nil {
		s.record(ctx, toolTrend, argument, types.InvocationError, err.Error(), started)
		return "", err
	}
	var warnings bytes.Buffer
	if args.Render {
		path, err := trend.RenderChart(out, s.cfg.Trend)
		if err != nil {
			fmt.Fprintf(io.MultiWriter(s.warn, &warnings), "warning: chart not rendered: %v\n", err)
		} else {
			out.ChartPath = path
		}
	}
	s.record(ctx, toolTrend, argument, statusFor(&warnings), detailFor(&warnings), started)
	return marshalResult(out)
}

type planArgs struct {
	Topic  string
	Focus  []string
	Years  int
	Format string
}

func (s *Server) runPlan(ctx context.Context, args planArgs) (string, error) {
	started := time.Now()
	p, err := plan.Build(args.Topic, plan.Options{FocusAreas: args.Focus, TrendYears: args.Years})
	if err != nil {
		s.record(ctx, toolPlan, args.Topic, types.InvocationError, err.Error(), started)
		return "", err
	}
	var buf bytes.Buffer
	if args.Format == "yaml" {
		err = p.EncodeYAML(&buf)
	} else {
		err = p.Markdown(&buf)
	}
	if err != nil {
		s.record(ctx, toolPlan, args.Topic, types.InvocationError, err.Error(), started)
		return "", err
	}
	s.record(ctx, toolPlan, args.Topic, types.InvocationOK, "", started)
	return buf.String(), nil
}

// splitCSV splits a comma-separated argument, dropping empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var dateLayouts = []string{"2006-01-02", "2006/01/02", "2006"}

func parseFlexDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q, want YYYY or YYYY-MM-DD", s)
}
