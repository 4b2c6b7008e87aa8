// Package models defines core data structures for indexed images, build reports, and search results.
package models

import "time"

// ImageRecord maps a content key to the one file that represents it.
type ImageRecord struct {
	Key  uint64 `json:"key"`
	Path string `json:"path"`
}

// SkipReason classifies why a discovered file did not enter the index.
type SkipReason string

const (
	SkipNone       SkipReason = ""
	SkipEmpty      SkipReason = "empty"
	SkipNotRegular SkipReason = "not_regular"
	SkipUnreadable SkipReason = "unreadable"
	SkipDuplicate  SkipReason = "duplicate"
	SkipDecode     SkipReason = "decode"
	SkipEmbed      SkipReason = "embed"
	SkipDimension  SkipReason = "dimension"
)

// BuildReport summarizes one index build.
// Discovered counts every path yielded by discovery, including repeats.
type BuildReport struct {
	BuildID    string        `json:"build_id"`
	Roots      []string      `json:"roots"`
	Discovered int           `json:"discovered"`
	Indexed    int           `json:"indexed"`
	Duplicates int           `json:"duplicates"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Dimensions int           `json:"dimensions"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration_ns"`
}
