// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// TrendPoint is the number of articles matching a query that were
// published in one year.
type TrendPoint struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// TrendOutput is a per-year publication count series for a query, with
// the rendered chart's path when one was produced.
type TrendOutput struct {
	Query     string       `json:"query"`
	Points    []TrendPoint `json:"points"`
	Total     int          `json:"total"`
	ChartPath string       `json:"chartPath,omitempty"`
}
