// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package trend computes per-year publication counts for a query and
// renders them as a bar chart.
// See docs/ARCHITECTURE § Publication Trends.
package trend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/pdiddy/entrez-mcp/internal/eutils"
	"github.com/pdiddy/entrez-mcp/pkg/types"
)

// maxYearSpan bounds the number of per-year count queries one trend
// request may issue against the remote.
const maxYearSpan = 50

const (
	defaultWidth  = 800
	defaultHeight = 400
)

// Client is the slice of the E-utilities client this package uses.
// Implemented by eutils.Client; tests supply a mock.
type Client interface {
	Search(ctx context.Context, p eutils.SearchParams) (*eutils.SearchResult, string, error)
}

// Compute runs one count-only search per year in [fromYear, toYear] and
// collects the series. Every year in the span gets a point, zeros
// included, so gaps are visible.
func Compute(ctx context.Context, c Client, query string, fromYear, toYear int) (*types.TrendOutput, error) {
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if fromYear <= 0 || toYear <= 0 || toYear < fromYear {
		return nil, fmt.Errorf("invalid year range %d..%d", fromYear, toYear)
	}
	if span := toYear - fromYear + 1; span > maxYearSpan {
		return nil, fmt.Errorf("year range spans %d years, limit is %d", span, maxYearSpan)
	}

	out := &types.TrendOutput{
		Query:  query,
		Points: make([]types.TrendPoint, 0, toYear-fromYear+1),
	}
	for year := fromYear; year <= toYear; year++ {
		ys := strconv.Itoa(year)
		result, _, err := c.Search(ctx, eutils.SearchParams{
			Term:      query,
			FromDate:  ys,
			ToDate:    ys,
			CountOnly: true,
		})
		if err != nil {
			return nil, fmt.Errorf("counting year %d: %w", year, err)
		}
		out.Points = append(out.Points, types.TrendPoint{Year: year, Count: result.Count})
		out.Total += result.Count
	}
	return out, nil
}

// RenderChart writes the series as a PNG bar chart under cfg.ChartDir
// and returns the file path. A series with no matches at all has nothing
// to scale the bars against, so it is an error.
func RenderChart(out *types.TrendOutput, cfg types.TrendConfig) (string, error) {
	if len(out.Points) == 0 || out.Total == 0 {
		return "", fmt.Errorf("no publications in range, nothing to chart")
	}

	width := cfg.Width
	if width <= 0 {
		width = defaultWidth
	}
	height := cfg.Height
	if height <= 0 {
		height = defaultHeight
	}
	dir := cfg.ChartDir
	if dir == "" {
		dir = "charts"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating chart directory: %w", err)
	}

	bars := make([]chart.Value, len(out.Points))
	for i, p := range out.Points {
		bars[i] = chart.Value{
			Label: strconv.Itoa(p.Year),
			Value: float64(p.Count),
		}
	}

	barWidth := (width - 100) / len(bars)
	if barWidth < 4 {
		barWidth = 4
	} else if barWidth > 60 {
		barWidth = 60
	}

	bc := chart.BarChart{
		Title:    fmt.Sprintf("Publications per year: %s", truncateTitle(out.Query, 60)),
		Width:    width,
		Height:   height,
		BarWidth: barWidth,
		Bars:     bars,
	}

	path := filepath.Join(dir, chartFileName(out))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating chart file: %w", err)
	}
	defer f.Close()

	if err := bc.Render(chart.PNG, f); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("rendering chart: %w", err)
	}
	return path, nil
}

// chartFileName derives a stable, filesystem-safe name from the query
// and year span.
func chartFileName(out *types.TrendOutput) string {
	first := out.Points[0].Year
	last := out.Points[len(out.Points)-1].Year
	return fmt.Sprintf("trend-%s-%d-%d.png", slugify(out.Query), first, last)
}

// slugify keeps letters and digits, folding everything else into single
// hyphens.
func slugify(s string) string {
	var b []rune
	lastHyphen := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b = append(b, r)
			lastHyphen = false
		case r >= 'A' && r <= 'Z':
			b = append(b, r+('a'-'A'))
			lastHyphen = false
		default:
			if !lastHyphen {
				b = append(b, '-')
				lastHyphen = true
			}
		}
		if len(b) >= 40 {
			break
		}
	}
	for len(b) > 0 && b[len(b)-1] == '-' {
		b = b[:len(b)-1]
	}
	if len(b) == 0 {
		return "query"
	}
	return string(b)
}

func truncateTitle(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
