package models

// StatusResponse is the shape of GET /api/v1/status.
type StatusResponse struct {
	Images           int          `json:"images"`
	IndexType        string       `json:"index_type,omitempty"`
	EmbeddingModel   string       `json:"embedding_model"`
	Roots            []string     `json:"roots"`
	LastBuild        *BuildReport `json:"last_build,omitempty"`
	CachedEmbeddings *int64       `json:"cached_embeddings,omitempty"`
	DiskUsageBytes   *int64       `json:"disk_usage_bytes,omitempty"`
}
