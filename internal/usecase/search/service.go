package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/docfusion/internal/domain"
	"github.com/kailas-cloud/docfusion/internal/domain/document"
	"github.com/kailas-cloud/docfusion/internal/domain/fileurl"
	"github.com/kailas-cloud/docfusion/internal/domain/search/answer"
	"github.com/kailas-cloud/docfusion/internal/domain/search/mode"
	"github.com/kailas-cloud/docfusion/internal/domain/search/request"
	"github.com/kailas-cloud/docfusion/internal/domain/search/result"
	"github.com/kailas-cloud/docfusion/internal/domain/snippet"
	"github.com/kailas-cloud/docfusion/internal/logger"
	"github.com/kailas-cloud/docfusion/internal/metrics"
)

// Sub-query sources reported when a signal degrades to empty.
const (
	sourceStructured = "structured"
	sourceKeyword    = "keyword"
	sourceVector     = "vector"
	sourceContent    = "content"
	sourceAnswer     = "answer"
)

// Options configure ranking and presentation.
type Options struct {
	Weights  Weights
	Snippets snippet.Options
}

// Service runs hybrid retrieval: structured-store signals and search-index
// hits are gathered concurrently, fused into one ranking and rendered for
// display.
type Service struct {
	analyzer   Analyzer
	structured StructuredStore
	index      Index
	answerer   Answerer
	files      *fileurl.Resolver
	snippets   *snippet.Extractor
	weights    Weights
	now        func() time.Time
}

// New creates a search service. answerer may be nil.
func New(
	analyzer Analyzer,
	structured StructuredStore,
	index Index,
	answerer Answerer,
	files *fileurl.Resolver,
	opts Options,
) *Service {
	return &Service{
		analyzer:   analyzer,
		structured: structured,
		index:      index,
		answerer:   answerer,
		files:      files,
		snippets:   snippet.NewExtractor(opts.Snippets),
		weights:    opts.Weights.withDefaults(),
		now:        time.Now,
	}
}

// Search ranks documents for req.
//
// Failing sub-queries contribute nothing and are logged. The call fails with
// domain.ErrSearchUnavailable only when every search-index query it issued
// was rejected by the index, or when ranked documents cannot be loaded.
func (s *Service) Search(ctx context.Context, req request.Request) (*Response, error) {
	start := s.now()
	m := req.Mode()
	defer func() {
		metrics.SearchDuration.WithLabelValues(string(m)).Observe(s.now().Sub(start).Seconds())
	}()

	analysis := s.analyzer.Analyze(req.Query())
	size := m.IndexSize(req.TopK())

	var (
		identified    []string
		keywordScores map[string]float64
		keywordHits   []result.Result
		vectorHits    []result.Result
		keywordErr    error
		vectorErr     error
	)

	var g errgroup.Group
	g.Go(func() error {
		ids, err := s.structured.MatchIdentifiers(ctx, analysis.Identifiers)
		if err != nil {
			s.degrade(ctx, sourceStructured, "Identifier lookup failed", err)
			return nil
		}
		identified = ids
		return nil
	})
	g.Go(func() error {
		scores, err := s.structured.ScoreKeywords(ctx, analysis.Keywords)
		if err != nil {
			s.degrade(ctx, sourceStructured, "Keyword scoring failed", err)
			return nil
		}
		keywordScores = scores
		return nil
	})
	if m.UsesKeyword() {
		g.Go(func() error {
			keywordHits, keywordErr = s.index.KeywordSearch(ctx, req.Query(), size)
			return nil
		})
	}
	if m.UsesVector() {
		g.Go(func() error {
			vectorHits, vectorErr = s.index.VectorSearch(ctx, req.Query(), size)
			return nil
		})
	}
	_ = g.Wait()

	if err := s.checkIndex(ctx, m, keywordErr, vectorErr); err != nil {
		return nil, err
	}

	sig := newSignals(identified, keywordScores)
	ranked := rank(keywordHits, vectorHits, sig, s.weights)

	top, err := s.hydrateTop(ctx, ranked, req.TopK())
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(top))
	for i := range top {
		ids[i] = top[i].hit.ID()
	}
	contents, err := s.structured.FullContent(ctx, ids)
	if err != nil {
		s.degrade(ctx, sourceContent, "Full content lookup failed", err)
		contents = nil
	}

	docs := make([]Document, len(top))
	for i := range top {
		docs[i] = s.render(top[i].hit, top[i].record, contents[top[i].hit.ID()], analysis.Keywords)
	}

	resp := &Response{
		Query:     req.Query(),
		Mode:      m,
		Total:     len(docs),
		Documents: docs,
		Metadata: Metadata{
			StructuredHits:   sig.hits(),
			IdentifiersFound: analysis.Identifiers,
			KeywordsUsed:     analysis.Keywords,
			Index:            s.index.IndexName(),
		},
	}
	if req.UseAnswer() {
		resp.Answer = s.answer(ctx, req.Query(), docs)
	}
	resp.SearchTimeMS = s.now().Sub(start).Milliseconds()

	metrics.SearchResultsReturned.Observe(float64(len(docs)))
	return resp, nil
}

// checkIndex degrades failed index queries to empty and reports
// ErrSearchUnavailable when none of the issued ones succeeded.
func (s *Service) checkIndex(ctx context.Context, m mode.Mode, keywordErr, vectorErr error) error {
	var issued, rejected int
	var last error

	if m.UsesKeyword() {
		issued++
		if keywordErr != nil {
			s.degrade(ctx, sourceKeyword, "Keyword search failed", keywordErr)
			if errors.Is(keywordErr, domain.ErrSearchUnavailable) {
				rejected++
				last = keywordErr
			}
		}
	}
	if m.UsesVector() {
		issued++
		if vectorErr != nil {
			s.degrade(ctx, sourceVector, "Vector search failed", vectorErr)
			// embedding failures never make the index unavailable
			if errors.Is(vectorErr, domain.ErrSearchUnavailable) {
				rejected++
				last = vectorErr
			}
		}
	}

	if issued > 0 && rejected == issued {
		return fmt.Errorf("search: %w", last)
	}
	return nil
}

type hydrated struct {
	hit    result.Result
	record document.Record
}

// hydrateTop loads ranked documents in rank order until topK are found.
// Documents missing from the index are skipped.
func (s *Service) hydrateTop(ctx context.Context, ranked []result.Result, topK int) ([]hydrated, error) {
	out := make([]hydrated, 0, min(topK, len(ranked)))

	for start := 0; start < len(ranked) && len(out) < topK; start += topK {
		chunk := ranked[start:min(start+topK, len(ranked))]
		ids := make([]string, len(chunk))
		for i := range chunk {
			ids[i] = chunk[i].ID()
		}

		records, err := s.index.Hydrate(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load ranked documents: %w", err)
		}

		for i := range chunk {
			rec, ok := records[chunk[i].ID()]
			if !ok {
				logger.FromContext(ctx).Debug("Ranked document missing from index",
					zap.String("doc_id", chunk[i].ID()))
				continue
			}
			out = append(out, hydrated{hit: chunk[i], record: rec})
			if len(out) == topK {
				break
			}
		}
	}
	return out, nil
}

func (s *Service) answer(ctx context.Context, query string, docs []Document) string {
	if s.answerer == nil || len(docs) == 0 {
		return ""
	}

	n := min(len(docs), answer.MaxSources)
	sources := make([]answer.Source, n)
	for i := range n {
		d := docs[i]
		sources[i] = answer.Source{
			DocNumber:    d.DocNumber,
			Title:        d.Title,
			DocType:      d.DocType,
			ProductCodes: d.ProductCodes,
			Department:   d.Department,
			Summary:      d.Summary,
		}
	}

	text, err := s.answerer.Answer(ctx, query, sources)
	if err != nil {
		s.degrade(ctx, sourceAnswer, "Answer synthesis failed", err)
		return ""
	}
	return text
}

func (s *Service) degrade(ctx context.Context, source, msg string, err error) {
	metrics.SearchDegradedTotal.WithLabelValues(source).Inc()
	logger.FromContext(ctx).Warn(msg, zap.String("source", source), zap.Error(err))
}

// Get returns one document with its public file URL and related documents.
func (s *Service) Get(ctx context.Context, id string) (*Detail, error) {
	rec, err := s.index.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	url := s.files.Resolve(rec.First(document.AttrFilePath, document.AttrFileName), rec.Attrs[document.AttrFileName])
	return &Detail{
		ID:          rec.ID,
		IndexOrigin: rec.Origin,
		Fields:      rec.Public(),
		FileURL:     url,
		Related:     rec.List(attrRelated),
	}, nil
}

// Stats returns per-index document counts.
func (s *Service) Stats(ctx context.Context) Stats {
	counts := s.index.Counts(ctx)
	var total int
	for _, n := range counts {
		total += n
	}
	return Stats{Total: total, Counts: counts}
}
