package searchindex

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/docfusion/internal/db"
	"github.com/kailas-cloud/docfusion/internal/domain"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	pingFn         func(ctx context.Context) error
	createIndexFn  func(ctx context.Context, def *db.IndexDefinition) error
	indexInfoFn    func(ctx context.Context, name string) (*db.IndexInfo, error)
	searchKNNFn    func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	searchTextFn   func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	searchListFn   func(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
	searchCountFn  func(ctx context.Context, index, query string) (int, error)
	hsetMultiFn    func(ctx context.Context, items []db.HashSetItem) []error
	hgetAllFn      func(ctx context.Context, key string) (map[string]string, error)
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
}

func (m *mockStore) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) IndexInfo(ctx context.Context, name string) (*db.IndexInfo, error) {
	if m.indexInfoFn != nil {
		return m.indexInfoFn(ctx, name)
	}
	return &db.IndexInfo{Name: name, PercentIndexed: 1}, nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if m.searchTextFn != nil {
		return m.searchTextFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error) {
	if m.searchListFn != nil {
		return m.searchListFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchCount(ctx context.Context, index, query string) (int, error) {
	if m.searchCountFn != nil {
		return m.searchCountFn(ctx, index, query)
	}
	return 0, nil
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) []error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return make([]error, len(items))
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return make([]map[string]string, len(keys)), nil
}

// mockEmbedder returns a fixed vector or error.
type mockEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

const testDims = 4

func newTestRepo(t *testing.T) (*Repo, *mockStore, *mockEmbedder) {
	t.Helper()
	ms := &mockStore{}
	me := &mockEmbedder{vec: testVector()}
	repo := New(ms, me, Options{
		Dimensions:  testDims,
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
	})
	repo.now = func() time.Time { return time.Unix(1700000000, 0) }
	return repo, ms, me
}

func testVector() []float32 {
	return []float32{0.1, 0.2, 0.3, 0.4}
}

func transientErr() error {
	return &db.Error{Op: db.OpSearch, Err: context.DeadlineExceeded, Transient: true}
}

func permanentErr() error {
	return &db.Error{Op: db.OpSearch, Err: errSyntax}
}
