package models

import "strconv"

// SearchResult is a single image hit.
type SearchResult struct {
	URL      string  `json:"url"`
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
	Key      uint64  `json:"key"`
}

// ImageURL is the path clients fetch an indexed image from.
func ImageURL(key uint64) string {
	return "/image/" + strconv.FormatUint(key, 10)
}

// SearchRequest is the body of a text search request.
// Count and Threshold are optional; nil means use the server default.
type SearchRequest struct {
	Query     string   `json:"query"`
	Count     int      `json:"count,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	QueryTime int64           `json:"query_time_ms"`
	Query     string          `json:"query,omitempty"`
}
