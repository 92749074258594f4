package search

import (
	"context"

	"github.com/kailas-cloud/docfusion/internal/domain/document"
	"github.com/kailas-cloud/docfusion/internal/domain/query"
	"github.com/kailas-cloud/docfusion/internal/domain/search/answer"
	"github.com/kailas-cloud/docfusion/internal/domain/search/result"
)

// Analyzer splits a query into identifiers and keywords.
type Analyzer interface {
	Analyze(q string) query.Analysis
}

// StructuredStore provides relational signals and full document text.
type StructuredStore interface {
	MatchIdentifiers(ctx context.Context, ids []string) ([]string, error)
	ScoreKeywords(ctx context.Context, keywords []string) (map[string]float64, error)
	FullContent(ctx context.Context, ids []string) (map[string]string, error)
}

// Index is the search-index read path.
type Index interface {
	IndexName() string
	KeywordSearch(ctx context.Context, query string, size int) ([]result.Result, error)
	VectorSearch(ctx context.Context, query string, size int) ([]result.Result, error)
	Hydrate(ctx context.Context, ids []string) (map[string]document.Record, error)
	Get(ctx context.Context, id string) (document.Record, error)
	Counts(ctx context.Context) map[string]int
}

// Answerer synthesizes a natural-language answer from ranked documents.
type Answerer interface {
	Answer(ctx context.Context, query string, sources []answer.Source) (string, error)
}
