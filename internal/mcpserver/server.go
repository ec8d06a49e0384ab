// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mcpserver exposes the PubMed tools over the Model Context
// Protocol. One Server wraps the E-utilities client and per-tool
// handlers; the transport is stdio. Every tool call is recorded in the
// invocation history when history is enabled.
//
// See docs/ARCHITECTURE § Tool Surface.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/pdiddy/entrez-mcp/internal/eutils"
	"github.com/pdiddy/entrez-mcp/internal/history"
	"github.com/pdiddy/entrez-mcp/internal/relate"
	"github.com/pdiddy/entrez-mcp/pkg/types"
)

// Tool names as advertised to clients.
const (
	toolSearch    = "search_articles"
	toolSummaries = "get_article_summaries"
	toolAbstract  = "get_abstract"
	toolRelated   = "find_related_articles"
	toolTrend     = "publication_trend"
	toolPlan      = "research_plan"
)

const serverInstructions = "Tools for working with the PubMed bibliographic database: " +
	"search for articles, fetch summaries and abstracts by PMID, discover " +
	"related or citing articles, chart publication trends over time, and " +
	"draft literature-review plans. Article identifiers are PMIDs (numeric " +
	"strings). Results are JSON unless a tool says otherwise."

// entrezAPI is the slice of the E-utilities client the handlers use.
type entrezAPI interface {
	Search(ctx context.Context, p eutils.SearchParams) (*eutils.SearchResult, string, error)
	Summary(ctx context.Context, p relate.SummaryParams) (json.RawMessage, string, error)
	Link(ctx context.Context, p relate.LinkParams) (json.RawMessage, string, error)
	Fetch(ctx context.Context, p eutils.FetchParams) ([]byte, string, error)
}

// Server hosts the MCP tool surface over a single E-utilities client.
type Server struct {
	mcp    *server.MCPServer
	client entrezAPI
	store  *history.Store // nil when history is disabled or unavailable
	cfg    types.Config
	warn   io.Writer
}

// New builds a Server from cfg. A failure to open the invocation
// history is reported on warn and the server runs without it; tools
// must stay usable when the local database is not.
func New(cfg types.Config, version string, warn io.Writer) *Server {
	if warn == nil {
		warn = io.Discard
	}
	s := &Server{
		client: eutils.NewClient(cfg.Eutils),
		cfg:    cfg,
		warn:   warn,
	}
	if cfg.History.Enabled {
		store, err := history.NewStore(cfg.History)
		if err != nil {
			fmt.Fprintf(warn, "warning: invocation history unavailable: %v\n", err)
		} else {
			s.store = store
		}
	}
	s.mcp = server.NewMCPServer(
		"entrez-mcp",
		version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions),
	)
	s.registerTools()
	return s
}

// Run serves MCP over stdin/stdout until the client disconnects.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcp)
}

// Close releases the invocation history.
func (s *Server) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool(toolSearch,
		mcp.WithDescription("Search PubMed for articles. Returns matched articles with PMID, title, authors, journal, publication date and DOI, plus the total match count and the query as PubMed interpreted it."),
		mcp.WithString("query", mcp.Required(),
			mcp.Description("Free-text query, e.g. \"CRISPR base editing\". PubMed field tags such as cancer[MeSH] are passed through.")),
		mcp.WithString("author",
			mcp.Description("Restrict to an author, PubMed format: family name then initials, e.g. \"Smith JA\".")),
		mcp.WithString("keywords",
			mcp.Description("Comma-separated keywords required in the title or abstract.")),
		mcp.WithString("from_date",
			mcp.Description("Earliest publication date, YYYY or YYYY-MM-DD.")),
		mcp.WithString("to_date",
			mcp.Description("Latest publication date, YYYY or YYYY-MM-DD.")),
		mcp.WithString("sort",
			mcp.Description("Result order. Default is relevance."),
			mcp.Enum("relevance", "pub_date")),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of articles to return.")),
	), s.handleSearch)

	s.mcp.AddTool(mcp.NewTool(toolSummaries,
		mcp.WithDescription("Fetch brief summaries (title, authors, journal, publication date, DOI) for one or more PubMed articles by PMID."),
		mcp.WithString("article_ids", mcp.Required(),
			mcp.Description("Comma-separated PMIDs, e.g. \"31452104,32887691\".")),
	), s.handleSummaries)

	s.mcp.AddTool(mcp.NewTool(toolAbstract,
		mcp.WithDescription("Fetch the abstracts of one or more PubMed articles as plain text, including the citation header PubMed prepends."),
		mcp.WithString("article_ids", mcp.Required(),
			mcp.Description("Comma-separated PMIDs.")),
	), s.handleAbstract)

	s.mcp.AddTool(mcp.NewTool(toolRelated,
		mcp.WithDescription("Find articles related to a given PubMed article. relationship=similar lists articles PubMed considers similar in content; relationship=cited_by lists articles that cite the given one. Results carry relevance scores when PubMed provides them and are ranked best first."),
		mcp.WithString("article_id", mcp.Required(),
			mcp.Description("PMID of the source article.")),
		mcp.WithString("relationship",
			mcp.Description("Relationship kind. Default is similar."),
			mcp.Enum(relate.KindSimilar, relate.KindCitedBy)),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of related articles to return.")),
	), s.handleRelated)

	s.mcp.AddTool(mcp.NewTool(toolTrend,
		mcp.WithDescription("Count PubMed publications matching a query for each year in a range and optionally render the series as a PNG bar chart. Useful for gauging how active a research area is."),
		mcp.WithString("query", mcp.Required(),
			mcp.Description("Free-text query, same syntax as search_articles.")),
		mcp.WithNumber("from_year",
			mcp.Description("First year of the range. Defaults to nine years before to_year.")),
		mcp.WithNumber("to_year",
			mcp.Description("Last year of the range. Defaults to the current year.")),
		mcp.WithBoolean("render_chart",
			mcp.Description("Render a PNG bar chart of the series. Default true.")),
	), s.handleTrend)

	s.mcp.AddTool(mcp.NewTool(toolPlan,
		mcp.WithDescription("Draft a literature-review plan for a topic: guiding questions, suggested PubMed queries, and an ordered sequence of tool invocations to carry the review out."),
		mcp.WithString("topic", mcp.Required(),
			mcp.Description("Research topic, e.g. \"gut microbiome and depression\".")),
		mcp.WithString("focus_areas",
			mcp.Description("Comma-separated subtopics to investigate individually.")),
		mcp.WithNumber("trend_years",
			mcp.Description("Width of the publication-trend window in years. Default 10.")),
		mcp.WithString("format",
			mcp.Description("Output format. Default markdown."),
			mcp.Enum("markdown", "yaml")),
	), s.handlePlan)
}

// record stores one invocation in the history. History failures are
// warnings; a tool result never depends on the local database.
func (s *Server) record(ctx context.Context, tool, argument string, status types.InvocationStatus, detail string, started time.Time) {
	if s.store == nil {
		return
	}
	inv := types.Invocation{
		Tool:       tool,
		Argument:   argument,
		Status:     status,
		Detail:     detail,
		StartedAt:  started,
		DurationMS: time.Since(started).Milliseconds(),
	}
	if _, err := s.store.Record(ctx, inv); err != nil {
		fmt.Fprintf(s.warn, "warning: recording invocation: %v\n", err)
	}
}

// statusFor maps the per-call warning buffer to an invocation status:
// any warning means the call succeeded in degraded form.
func statusFor(warnings *bytes.Buffer) types.InvocationStatus {
	if warnings.Len() > 0 {
		return types.InvocationDegraded
	}
	return types.InvocationOK
}

func marshalResult(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}
	return string(data), nil
}

func detailFor(warnings *bytes.Buffer) string {
	return strings.TrimSpace(warnings.String())
}
