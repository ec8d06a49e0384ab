package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "entrez-mcp/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// EutilsConfig holds settings for the NCBI E-utilities client.
type EutilsConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey is the NCBI API key. Keyed clients get a 10 req/s budget
	// instead of 3 req/s. Loaded from .secrets/ncbi-api-key when unset.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Email is reported to NCBI in the email parameter, per E-utilities
	// usage policy. Loaded from .secrets/entrez-email when unset.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`

	// Tool is the tool name reported to NCBI (default "entrez-mcp").
	Tool string `json:"tool" yaml:"tool"`

	// MinInterval is the minimum spacing between consecutive requests.
	// Zero selects 340ms, or 100ms when an API key is configured.
	MinInterval time.Duration `json:"min_interval" yaml:"min_interval"`

	// MaxRetries is the retry budget for rate-limited responses (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// SearchConfig holds settings for article search.
type SearchConfig struct {
	// MaxResults is the default page width for search queries (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// RelatedConfig holds settings for the related-articles pipeline.
type RelatedConfig struct {
	// MaxResults caps the number of related articles returned (default 10).
	// Ranking and truncation happen before enrichment, so this also bounds
	// the summary batch size.
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// HistoryConfig holds settings for the invocation log.
type HistoryConfig struct {
	// Enabled turns invocation logging on. The log is append-only from the
	// server's point of view; nothing in the query path reads it back.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// HistoryDir is the directory holding history.db (default "history").
	HistoryDir string `json:"history_dir" yaml:"history_dir"`

	// MaxResults is the default listing width for history queries (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// TrendConfig holds settings for publication-trend charts.
type TrendConfig struct {
	// ChartDir is the directory for rendered chart PNGs (default "charts").
	ChartDir string `json:"chart_dir" yaml:"chart_dir"`

	// Width and Height are the chart dimensions in pixels (default 800x400).
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Config groups all component configurations.
type Config struct {
	Eutils  EutilsConfig  `json:"eutils" yaml:"eutils"`
	Search  SearchConfig  `json:"search" yaml:"search"`
	Related RelatedConfig `json:"related" yaml:"related"`
	History HistoryConfig `json:"history" yaml:"history"`
	Trend   TrendConfig   `json:"trend" yaml:"trend"`
}
