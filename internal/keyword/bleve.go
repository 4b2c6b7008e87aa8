package keyword

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/hyperjump/gazo/internal/models"
	"github.com/hyperjump/gazo/internal/ranking"
)

const batchSize = 500

// filenameDoc is the indexed form of an image path.
type filenameDoc struct {
	Name   string `json:"name"`
	Folder string `json:"folder"`
}

// FilenameIndex is an in-memory Bleve index of image file names keyed by content key.
// It is built alongside the vector index and replaced with it; it is never persisted.
type FilenameIndex struct {
	index bleve.Index
}

// NewFilenameIndex creates an empty in-memory index.
func NewFilenameIndex() (*FilenameIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// standard analyzer: lowercase + tokenize, no stemming, so "foxes" does not match "fox"
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("name", textFieldMapping)
	docMapping.AddFieldMappingsAt("folder", textFieldMapping)
	im.AddDocumentMapping("image", docMapping)
	im.DefaultType = "image"
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &FilenameIndex{index: index}, nil
}

// IndexRecords adds records in batches.
func (f *FilenameIndex) IndexRecords(ctx context.Context, records []models.ImageRecord) error {
	batch := f.index.NewBatch()
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc := filenameDoc{
			Name:   ranking.NormalizeFilename(filepath.Base(rec.Path)),
			Folder: ranking.SplitWords(filepath.Base(filepath.Dir(rec.Path))),
		}
		if err := batch.Index(strconv.FormatUint(rec.Key, 10), doc); err != nil {
			return fmt.Errorf("batch index %s: %w", rec.Path, err)
		}
		if batch.Size() >= batchSize {
			if err := f.index.Batch(batch); err != nil {
				return fmt.Errorf("Bleve batch failed: %w", err)
			}
			batch.Reset()
		}
	}
	if batch.Size() > 0 {
		if err := f.index.Batch(batch); err != nil {
			return fmt.Errorf("Bleve batch failed: %w", err)
		}
	}
	return nil
}

// Search matches query terms against file and folder names and returns up to limit hits,
// best first. The name field is boosted over the folder field.
func (f *FilenameIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]Hit, error) {
	terms := tokenizeQuery(query)
	if len(terms) == 0 || limit <= 0 {
		return nil, nil
	}
	fuzziness := 0
	if opts != nil && opts.FuzzyEnabled {
		fuzziness = opts.Fuzziness
		if fuzziness <= 0 {
			fuzziness = 1
		}
	}

	q := bleve.NewDisjunctionQuery(
		buildFieldQuery(terms, "name", fuzziness, 2.0),
		buildFieldQuery(terms, "folder", fuzziness, 1.0),
	)
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := f.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]Hit, 0, len(results.Hits))
	for _, hit := range results.Hits {
		key, err := strconv.ParseUint(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, Hit{Key: key, Score: hit.Score})
	}
	return out, nil
}

// buildFieldQuery requires every term to match in field, optionally fuzzily.
func buildFieldQuery(terms []string, field string, fuzziness int, boost float64) blevequery.Query {
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		if fuzziness > 0 {
			fq := bleve.NewFuzzyQuery(term)
			fq.SetFuzziness(fuzziness)
			fq.SetField(field)
			queries = append(queries, fq)
			continue
		}
		mq := bleve.NewMatchQuery(term)
		mq.SetField(field)
		queries = append(queries, mq)
	}
	cq := bleve.NewConjunctionQuery(queries...)
	cq.SetBoost(boost)
	return cq
}

// DocCount returns the total number of documents in the index.
func (f *FilenameIndex) DocCount() (uint64, error) {
	return f.index.DocCount()
}

// Close closes the Bleve index.
func (f *FilenameIndex) Close() error {
	return f.index.Close()
}
