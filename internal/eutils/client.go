// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package eutils implements the NCBI Entrez E-utilities client: ESearch,
// ESummary, ELink, and EFetch over HTTPS with request spacing, API key
// identification, and retry on rate-limited responses.
// See docs/ARCHITECTURE § E-utilities Client.
package eutils

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/entrez-mcp/internal/httputil"
	"github.com/pdiddy/entrez-mcp/internal/relate"
	"github.com/pdiddy/entrez-mcp/pkg/types"
)

// eutilsAPIBase is the E-utilities endpoint root. Declared as a var so
// tests can point the client at an httptest server.
var eutilsAPIBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/"

const (
	endpointSearch  = "esearch.fcgi"
	endpointSummary = "esummary.fcgi"
	endpointLink    = "elink.fcgi"
	endpointFetch   = "efetch.fcgi"
)

// NCBI allows 3 requests per second without an API key and 10 with one.
const (
	defaultInterval      = 340 * time.Millisecond
	defaultKeyedInterval = 100 * time.Millisecond
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "entrez-mcp/0.1"
	defaultTool      = "entrez-mcp"
)

// Client issues E-utilities requests with the configured spacing and
// identification parameters. Safe for concurrent use; the throttle
// serializes request starts across goroutines.
type Client struct {
	http *http.Client
	cfg  types.EutilsConfig

	mu   sync.Mutex
	last time.Time
}

// NewClient builds a Client from cfg, filling in defaults for timeout,
// user agent, tool name, and request spacing.
func NewClient(cfg types.EutilsConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Tool == "" {
		cfg.Tool = defaultTool
	}
	if cfg.MinInterval <= 0 {
		if cfg.APIKey != "" {
			cfg.MinInterval = defaultKeyedInterval
		} else {
			cfg.MinInterval = defaultInterval
		}
	}
	return &Client{
		http: &http.Client{Timeout: cfg.Timeout},
		cfg:  cfg,
	}
}

// Link performs an ELink request and returns the raw response body plus
// the diagnostic request URL. Implements relate.Querier.
func (c *Client) Link(ctx context.Context, p relate.LinkParams) (json.RawMessage, string, error) {
	q := url.Values{}
	q.Set("dbfrom", valueOr(p.FromDB, "pubmed"))
	q.Set("db", valueOr(p.ToDB, "pubmed"))
	q.Set("cmd", valueOr(p.Cmd, "neighbor_score"))
	if p.LinkName != "" {
		q.Set("linkname", p.LinkName)
	}
	q.Set("id", p.ID)
	q.Set("retmode", valueOr(p.Mode, "json"))

	body, requestURL, err := c.get(ctx, endpointLink, q)
	if err != nil {
		return nil, requestURL, fmt.Errorf("elink: %w", err)
	}
	return body, requestURL, nil
}

// Summary performs a batch ESummary request and returns the raw response
// body plus the diagnostic request URL. Implements relate.Querier.
func (c *Client) Summary(ctx context.Context, p relate.SummaryParams) (json.RawMessage, string, error) {
	q := url.Values{}
	q.Set("db", valueOr(p.DB, "pubmed"))
	q.Set("id", strings.Join(p.IDs, ","))
	q.Set("version", valueOr(p.Version, "2.0"))
	q.Set("retmode", valueOr(p.Mode, "json"))

	body, requestURL, err := c.get(ctx, endpointSummary, q)
	if err != nil {
		return nil, requestURL, fmt.Errorf("esummary: %w", err)
	}
	return body, requestURL, nil
}

// SearchParams describes one ESearch request.
type SearchParams struct {
	DB         string
	Term       string
	MaxResults int
	Sort       string // "", "relevance", "pub_date"
	FromDate   string // YYYY, YYYY/MM, or YYYY/MM/DD
	ToDate     string
	CountOnly  bool // ask for the match count without an id list
}

// SearchResult is the parsed portion of an ESearch response.
type SearchResult struct {
	Count            int
	IDs              []string
	QueryTranslation string
}

// Search performs an ESearch request and parses the result envelope.
func (c *Client) Search(ctx context.Context, p SearchParams) (*SearchResult, string, error) {
	q := url.Values{}
	q.Set("db", valueOr(p.DB, "pubmed"))
	q.Set("term", p.Term)
	if p.MaxResults > 0 {
		q.Set("retmax", strconv.Itoa(p.MaxResults))
	}
	if p.Sort != "" {
		q.Set("sort", p.Sort)
	}
	if p.FromDate != "" || p.ToDate != "" {
		q.Set("datetype", "pdat")
		if p.FromDate != "" {
			q.Set("mindate", p.FromDate)
		}
		if p.ToDate != "" {
			q.Set("maxdate", p.ToDate)
		}
	}
	if p.CountOnly {
		q.Set("rettype", "count")
	}
	q.Set("retmode", "json")

	body, requestURL, err := c.get(ctx, endpointSearch, q)
	if err != nil {
		return nil, requestURL, fmt.Errorf("esearch: %w", err)
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, requestURL, fmt.Errorf("esearch: parsing response: %w", err)
	}
	if sr.ESearchResult.Error != "" {
		return nil, requestURL, fmt.Errorf("esearch: %s", sr.ESearchResult.Error)
	}

	count, err := strconv.Atoi(sr.ESearchResult.Count)
	if err != nil {
		count = len(sr.ESearchResult.IDList)
	}
	return &SearchResult{
		Count:            count,
		IDs:              sr.ESearchResult.IDList,
		QueryTranslation: sr.ESearchResult.QueryTranslation,
	}, requestURL, nil
}

// FetchParams describes one EFetch request.
type FetchParams struct {
	DB      string
	IDs     []string
	RetType string // default "abstract"
	RetMode string // default "text"
}

// Fetch performs an EFetch request and returns the body verbatim. The
// abstract rendition NCBI produces for rettype=abstract is plain text
// and is passed through untouched.
func (c *Client) Fetch(ctx context.Context, p FetchParams) ([]byte, string, error) {
	q := url.Values{}
	q.Set("db", valueOr(p.DB, "pubmed"))
	q.Set("id", strings.Join(p.IDs, ","))
	q.Set("rettype", valueOr(p.RetType, "abstract"))
	q.Set("retmode", valueOr(p.RetMode, "text"))

	body, requestURL, err := c.get(ctx, endpointFetch, q)
	if err != nil {
		return nil, requestURL, fmt.Errorf("efetch: %w", err)
	}
	return body, requestURL, nil
}

// throttle blocks until the configured interval has passed since the
// previous request started.
func (c *Client) throttle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if wait := c.cfg.MinInterval - time.Since(c.last); wait > 0 {
		time.Sleep(wait)
	}
	c.last = time.Now()
}

// get performs one throttled GET against the named endpoint. The
// returned URL is built before the request is attempted, so callers can
// carry it in diagnostics even on failure; the api_key parameter is left
// out of it to keep the key out of tool output and logs.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, string, error) {
	params.Set("tool", c.cfg.Tool)
	if c.cfg.Email != "" {
		params.Set("email", c.cfg.Email)
	}
	diagURL := eutilsAPIBase + endpoint + "?" + params.Encode()

	if c.cfg.APIKey != "" {
		params.Set("api_key", c.cfg.APIKey)
	}
	requestURL := eutilsAPIBase + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, diagURL, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	c.throttle()

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.cfg.MaxRetries)
	if err != nil {
		return nil, diagURL, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, diagURL, fmt.Errorf("%s returned status %d", endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, diagURL, fmt.Errorf("reading response: %w", err)
	}
	return body, diagURL, nil
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// ESearch response shape (retmode=json).

type searchResponse struct {
	ESearchResult struct {
		Count            string   `json:"count"`
		IDList           []string `json:"idlist"`
		QueryTranslation string   `json:"querytranslation"`
		Error            string   `json:"ERROR"`
	} `json:"esearchresult"`
}
