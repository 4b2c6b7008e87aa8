// Package cli formats search results and status for the gazo command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/gazo/internal/models"
	"github.com/hyperjump/gazo/pkg/utils"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputCompact prints one tab-separated line per result.
	OutputCompact SearchOutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

const maxFilenameWidth = 60

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (SearchOutputFormat, error) {
	switch f := SearchOutputFormat(strings.ToLower(s)); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
}

// WriteSearchResults writes search results to w in the given format. baseURL,
// when set, is prefixed to each result URL in text and compact output.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format SearchOutputFormat, baseURL string) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	case OutputCompact:
		for _, r := range response.Results {
			if _, err := fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", FormatScore(r.Score), r.Key, r.Filename, joinURL(baseURL, r.URL)); err != nil {
				return err
			}
		}
		return nil
	default:
		return writeSearchResultsText(w, response, baseURL)
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse, baseURL string) error {
	if _, err := fmt.Fprintf(w, "\nFound %d images in %dms\n\n", response.Total, response.QueryTime); err != nil {
		return err
	}
	for i, r := range response.Results {
		fmt.Fprintf(w, "%3d. %s  %-*s  %s\n", i+1, FormatScore(r.Score), maxFilenameWidth,
			utils.Truncate(r.Filename, maxFilenameWidth), joinURL(baseURL, r.URL))
	}
	if len(response.Results) > 0 {
		fmt.Fprintln(w)
	}
	return nil
}

// FormatScore renders a score with two decimals.
func FormatScore(score float64) string {
	return fmt.Sprintf("%.2f", score)
}

func joinURL(base, path string) string {
	if base == "" {
		return path
	}
	return strings.TrimRight(base, "/") + path
}
