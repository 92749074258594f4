package backfill

import (
	"context"

	"github.com/kailas-cloud/docfusion/internal/domain"
	"github.com/kailas-cloud/docfusion/internal/domain/batch"
	"github.com/kailas-cloud/docfusion/internal/domain/document"
)

// Index is the part of the search index the worker reads and writes.
type Index interface {
	EnsureIndex(ctx context.Context) error
	Dimensions() int
	Readiness(ctx context.Context) (domain.Readiness, error)
	FindMissing(ctx context.Context, limit int) ([]document.Record, error)
	WriteVectors(ctx context.Context, writes []batch.VectorWrite) []batch.Result
}

// Embedder vectorizes canonical texts in one call.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// TextExtractor derives the embedding input of a document.
type TextExtractor interface {
	ExtractRecord(r document.Record) string
}
