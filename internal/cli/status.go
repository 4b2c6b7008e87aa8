package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hyperjump/gazo/internal/models"
)

// WriteStatus writes engine status to w as aligned text or indented JSON.
// Compact output is treated as text.
func WriteStatus(w io.Writer, status *models.StatusResponse, format SearchOutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	fmt.Fprintf(w, "images:             %s\n", humanize.Comma(int64(status.Images)))
	if status.IndexType != "" {
		fmt.Fprintf(w, "index_type:         %s\n", status.IndexType)
	}
	fmt.Fprintf(w, "embedding_model:    %s\n", status.EmbeddingModel)
	fmt.Fprintf(w, "directories:        %s\n", strings.Join(status.Roots, ", "))
	if status.CachedEmbeddings != nil {
		fmt.Fprintf(w, "cached_embeddings:  %s\n", humanize.Comma(*status.CachedEmbeddings))
	}
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage:         %s\n", humanize.Bytes(uint64(*status.DiskUsageBytes)))
	}
	if b := status.LastBuild; b != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# last build")
		fmt.Fprintf(w, "build_id:           %s\n", b.BuildID)
		fmt.Fprintf(w, "started:            %s (took %s)\n", humanize.Time(b.StartedAt), b.Duration.Round(time.Millisecond))
		fmt.Fprintf(w, "discovered:         %s\n", humanize.Comma(int64(b.Discovered)))
		fmt.Fprintf(w, "indexed:            %s\n", humanize.Comma(int64(b.Indexed)))
		fmt.Fprintf(w, "duplicates:         %s\n", humanize.Comma(int64(b.Duplicates)))
		fmt.Fprintf(w, "skipped:            %s\n", humanize.Comma(int64(b.Skipped)))
		fmt.Fprintf(w, "failed:             %s\n", humanize.Comma(int64(b.Failed)))
		if b.Dimensions > 0 {
			fmt.Fprintf(w, "dimensions:         %d\n", b.Dimensions)
		}
	}
	return nil
}
