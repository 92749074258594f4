package search

import (
	"context"
	"sync"

	"github.com/kailas-cloud/docfusion/internal/domain"
	"github.com/kailas-cloud/docfusion/internal/domain/document"
	"github.com/kailas-cloud/docfusion/internal/domain/fileurl"
	"github.com/kailas-cloud/docfusion/internal/domain/query"
	"github.com/kailas-cloud/docfusion/internal/domain/search/answer"
	"github.com/kailas-cloud/docfusion/internal/domain/search/result"
)

// --- Mocks ---

type mockStructured struct {
	identified []string
	idErr      error
	scores     map[string]float64
	scoreErr   error
	contents   map[string]string
	contentErr error

	mu        sync.Mutex
	gotIDs    []string
	gotKWs    []string
	gotDocIDs []string
}

func (m *mockStructured) MatchIdentifiers(_ context.Context, ids []string) ([]string, error) {
	m.mu.Lock()
	m.gotIDs = ids
	m.mu.Unlock()
	return m.identified, m.idErr
}

func (m *mockStructured) ScoreKeywords(_ context.Context, kws []string) (map[string]float64, error) {
	m.mu.Lock()
	m.gotKWs = kws
	m.mu.Unlock()
	return m.scores, m.scoreErr
}

func (m *mockStructured) FullContent(_ context.Context, ids []string) (map[string]string, error) {
	m.gotDocIDs = ids
	return m.contents, m.contentErr
}

type mockIndex struct {
	keywordHits []result.Result
	keywordErr  error
	vectorHits  []result.Result
	vectorErr   error
	records     map[string]document.Record
	hydrateErr  error
	counts      map[string]int

	mu            sync.Mutex
	keywordSize   int
	vectorSize    int
	keywordCalled bool
	vectorCalled  bool
	hydrated      [][]string
}

func (m *mockIndex) IndexName() string { return "docfusion:idx" }

func (m *mockIndex) KeywordSearch(_ context.Context, _ string, size int) ([]result.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keywordCalled = true
	m.keywordSize = size
	return m.keywordHits, m.keywordErr
}

func (m *mockIndex) VectorSearch(_ context.Context, _ string, size int) ([]result.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectorCalled = true
	m.vectorSize = size
	return m.vectorHits, m.vectorErr
}

func (m *mockIndex) Hydrate(_ context.Context, ids []string) (map[string]document.Record, error) {
	m.hydrated = append(m.hydrated, ids)
	if m.hydrateErr != nil {
		return nil, m.hydrateErr
	}
	out := make(map[string]document.Record)
	for _, id := range ids {
		if r, ok := m.records[id]; ok {
			out[id] = r
		}
	}
	return out, nil
}

func (m *mockIndex) Get(_ context.Context, id string) (document.Record, error) {
	r, ok := m.records[id]
	if !ok {
		return document.Record{}, domain.ErrDocumentNotFound
	}
	return r, nil
}

func (m *mockIndex) Counts(_ context.Context) map[string]int { return m.counts }

type mockAnswerer struct {
	text    string
	err     error
	sources []answer.Source
	called  bool
}

func (m *mockAnswerer) Answer(_ context.Context, _ string, sources []answer.Source) (string, error) {
	m.called = true
	m.sources = sources
	return m.text, m.err
}

// --- Helpers ---

func record(id, origin string, attrs map[string]string) document.Record {
	if attrs == nil {
		attrs = map[string]string{}
	}
	attrs[document.AttrDocID] = id
	attrs[document.AttrOrigin] = origin
	return document.Record{ID: id, Origin: origin, Attrs: attrs}
}

func newTestService(st *mockStructured, idx *mockIndex, ans Answerer) *Service {
	return New(
		query.NewAnalyzer(query.DefaultMaxKeywords),
		st, idx, ans,
		fileurl.NewResolver("http://files.local", nil),
		Options{},
	)
}
