package searchindex

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/kailas-cloud/docfusion/internal/db"
	"github.com/kailas-cloud/docfusion/internal/domain"
	"github.com/kailas-cloud/docfusion/internal/domain/batch"
	"github.com/kailas-cloud/docfusion/internal/domain/document"
	"github.com/kailas-cloud/docfusion/internal/domain/search/result"
)

var errSyntax = errors.New("Syntax error at offset 3")

func TestKeywordSearch_QueryShape(t *testing.T) {
	repo, ms, _ := newTestRepo(t)

	var captured *db.TextQuery
	ms.searchTextFn = func(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
		captured = q
		return &db.SearchResult{Total: 2, Entries: []db.SearchEntry{
			{
				Key:   "doc:EN-001",
				Score: 4.2,
				Fields: map[string]string{
					"doc_id":       "EN-001",
					"index_origin": "erp-ecn-notices",
					"summary":      "<em>連接器</em>更換... 改善<em>連接器</em>端子",
				},
			},
			{
				Key:    "doc:CR-002",
				Score:  1.1,
				Fields: map[string]string{"index_origin": "erp-complaint-records", "summary": "no marks"},
			},
		}}, nil
	}

	hits, err := repo.KeywordSearch(context.Background(), "連接器 failure", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if captured.IndexName != "docfusion:idx" {
		t.Errorf("IndexName = %q", captured.IndexName)
	}
	if !captured.Fuzzy || captured.Limit != 10 {
		t.Errorf("Fuzzy=%v Limit=%d", captured.Fuzzy, captured.Limit)
	}
	if strings.Join(captured.Fields, ",") != "doc_number,file_name,summary,keywords" {
		t.Errorf("Fields = %v", captured.Fields)
	}
	if captured.Highlight == nil || captured.Highlight.OpenTag != "<em>" || captured.Highlight.Frags != 2 {
		t.Errorf("Highlight = %+v", captured.Highlight)
	}

	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ID() != "EN-001" || hits[0].Origin() != "erp-ecn-notices" || hits[0].Score() != 4.2 {
		t.Errorf("hit[0] = %s %s %f", hits[0].ID(), hits[0].Origin(), hits[0].Score())
	}
	if hits[0].Source() != result.SourceKeyword {
		t.Errorf("Source() = %q", hits[0].Source())
	}
	frags := hits[0].Highlights()["summary"]
	if len(frags) != 2 || frags[0] != "<em>連接器</em>更換" {
		t.Errorf("summary fragments = %q", frags)
	}
	// ID falls back to the key when doc_id is not returned.
	if hits[1].ID() != "CR-002" {
		t.Errorf("hit[1].ID() = %q", hits[1].ID())
	}
	if hits[1].Highlights() != nil {
		t.Errorf("unmarked field should not yield highlights: %v", hits[1].Highlights())
	}
}

func TestKeywordSearch_EmptyQuery(t *testing.T) {
	repo, ms, _ := newTestRepo(t)
	ms.searchTextFn = func(context.Context, *db.TextQuery) (*db.SearchResult, error) {
		t.Fatal("store must not be called")
		return nil, nil
	}
	hits, err := repo.KeywordSearch(context.Background(), "  ", 10)
	if err != nil || hits != nil {
		t.Errorf("got %v, %v", hits, err)
	}
}

func TestKeywordSearch_RetriesTransient(t *testing.T) {
	repo, ms, _ := newTestRepo(t)

	calls := 0
	ms.searchTextFn = func(context.Context, *db.TextQuery) (*db.SearchResult, error) {
		calls++
		if calls < 3 {
			return nil, transientErr()
		}
		return &db.SearchResult{Total: 1, Entries: []db.SearchEntry{{Key: "doc:A", Score: 1}}}, nil
	}

	hits, err := repo.KeywordSearch(context.Background(), "valve", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if len(hits) != 1 {
		t.Errorf("expected 1 hit, got %d", len(hits))
	}
}

func TestKeywordSearch_RetriesExhausted(t *testing.T) {
	repo, ms, _ := newTestRepo(t)

	calls := 0
	ms.searchTextFn = func(context.Context, *db.TextQuery) (*db.SearchResult, error) {
		calls++
		return nil, transientErr()
	}

	_, err := repo.KeywordSearch(context.Background(), "valve", 5)
	if !errors.Is(err, domain.ErrSearchUnavailable) {
		t.Fatalf("expected ErrSearchUnavailable, got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want MaxAttempts=3", calls)
	}
}

func TestKeywordSearch_PermanentNotRetried(t *testing.T) {
	repo, ms, _ := newTestRepo(t)

	calls := 0
	ms.searchTextFn = func(context.Context, *db.TextQuery) (*db.SearchResult, error) {
		calls++
		return nil, permanentErr()
	}

	_, err := repo.KeywordSearch(context.Background(), "valve", 5)
	if !errors.Is(err, domain.ErrSearchUnavailable) {
		t.Fatalf("expected ErrSearchUnavailable, got %v", err)
	}
	if !errors.Is(err, errSyntax) {
		t.Errorf("expected wrapped cause, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestVectorSearch_CandidatePool(t *testing.T) {
	repo, ms, me := newTestRepo(t)

	var captured *db.KNNQuery
	ms.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		captured = q
		return &db.SearchResult{Total: 1, Entries: []db.SearchEntry{
			{Key: "doc:FM-9", Score: 0.87, Fields: map[string]string{"index_origin": "erp-fmea"}},
		}}, nil
	}

	hits, err := repo.VectorSearch(context.Background(), "terminal crack", 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if me.calls != 1 {
		t.Errorf("embedder calls = %d", me.calls)
	}
	if captured.K != 20 || captured.EFRuntime != 200 {
		t.Errorf("K=%d EF=%d, want 20/200", captured.K, captured.EFRuntime)
	}
	if captured.VectorField != "content_vector" {
		t.Errorf("VectorField = %q", captured.VectorField)
	}
	if len(hits) != 1 || hits[0].ID() != "FM-9" || hits[0].Source() != result.SourceVector {
		t.Errorf("unexpected hits %+v", hits)
	}
}

func TestVectorSearch_EmbeddingFailure(t *testing.T) {
	repo, ms, me := newTestRepo(t)
	me.err = domain.ErrEmbeddingProviderError
	ms.searchKNNFn = func(context.Context, *db.KNNQuery) (*db.SearchResult, error) {
		t.Fatal("kNN must not run without a query vector")
		return nil, nil
	}

	_, err := repo.VectorSearch(context.Background(), "q", 5)
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Errorf("expected embedding error, got %v", err)
	}
}

func TestVectorSearch_NoEmbedder(t *testing.T) {
	repo := New(&mockStore{}, nil, Options{})
	_, err := repo.VectorSearch(context.Background(), "q", 5)
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Errorf("expected ErrEmbeddingUnavailable, got %v", err)
	}
}

func TestFindMissing(t *testing.T) {
	repo, ms, _ := newTestRepo(t)

	var captured *db.ListQuery
	ms.searchListFn = func(_ context.Context, q *db.ListQuery) (*db.SearchResult, error) {
		captured = q
		return &db.SearchResult{Total: 1, Entries: []db.SearchEntry{
			{Key: "doc:EN-1", Fields: map[string]string{
				"doc_id": "EN-1", "index_origin": "erp-ecn-notices", "notice_number": "EN-1",
			}},
		}}, nil
	}

	recs, err := repo.FindMissing(context.Background(), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured.Query != "ismissing(@vector_generated_at)" {
		t.Errorf("Query = %q", captured.Query)
	}
	if captured.SortBy != "doc_id" || captured.Descending || captured.Limit != 100 {
		t.Errorf("unexpected list query %+v", captured)
	}
	if len(recs) != 1 || recs[0].ID != "EN-1" || recs[0].Category() != document.CategoryNotice {
		t.Errorf("unexpected records %+v", recs)
	}
}

func TestWriteVectors(t *testing.T) {
	repo, ms, _ := newTestRepo(t)

	var written []db.HashSetItem
	ms.hsetMultiFn = func(_ context.Context, items []db.HashSetItem) []error {
		written = append(written, items...)
		return make([]error, len(items))
	}

	nan := float32(math.NaN())
	results := repo.WriteVectors(context.Background(), []batch.VectorWrite{
		{DocID: "A", Vector: testVector()},
		{DocID: "B", Vector: []float32{0.1}},
		{DocID: "C", Vector: []float32{0.1, nan, 0.3, 0.4}},
		{DocID: "D", Vector: testVector()},
	})

	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if results[0].Status() != batch.StatusOK || results[3].Status() != batch.StatusOK {
		t.Errorf("valid vectors should succeed: %v %v", results[0].Err(), results[3].Err())
	}
	if !errors.Is(results[1].Err(), domain.ErrVectorDimMismatch) {
		t.Errorf("B: expected dimension mismatch, got %v", results[1].Err())
	}
	if !errors.Is(results[2].Err(), domain.ErrNonFiniteVector) {
		t.Errorf("C: expected non-finite, got %v", results[2].Err())
	}

	if len(written) != 2 {
		t.Fatalf("invalid vectors must not reach the store, wrote %d", len(written))
	}
	if written[0].Key != "doc:A" {
		t.Errorf("Key = %q", written[0].Key)
	}
	if written[0].Fields["vector_generated_at"] != "1700000000" {
		t.Errorf("vector_generated_at = %q", written[0].Fields["vector_generated_at"])
	}
	if len(written[0].Fields["content_vector"]) != testDims*4 {
		t.Errorf("content_vector len = %d", len(written[0].Fields["content_vector"]))
	}
}

func TestWriteVectors_RetriesOnlyTransientItems(t *testing.T) {
	repo, ms, _ := newTestRepo(t)

	var rounds [][]string
	ms.hsetMultiFn = func(_ context.Context, items []db.HashSetItem) []error {
		keys := make([]string, len(items))
		errs := make([]error, len(items))
		for i, it := range items {
			keys[i] = it.Key
			switch {
			case it.Key == "doc:B" && len(rounds) == 0:
				errs[i] = transientErr()
			case it.Key == "doc:C":
				errs[i] = permanentErr()
			}
		}
		rounds = append(rounds, keys)
		return errs
	}

	results := repo.WriteVectors(context.Background(), []batch.VectorWrite{
		{DocID: "A", Vector: testVector()},
		{DocID: "B", Vector: testVector()},
		{DocID: "C", Vector: testVector()},
	})

	if len(rounds) != 2 {
		t.Fatalf("expected 2 rounds, got %d", len(rounds))
	}
	if strings.Join(rounds[1], ",") != "doc:B" {
		t.Errorf("second round = %v, want only doc:B", rounds[1])
	}
	if batch.CountOK(results) != 2 {
		t.Errorf("CountOK = %d, want 2", batch.CountOK(results))
	}
	if results[2].Status() != batch.StatusError {
		t.Errorf("C should fail")
	}
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name    string
		pingErr error
		info    *db.IndexInfo
		infoErr error
		want    domain.Readiness
	}{
		{"ping fails", errors.New("refused"), nil, nil, domain.ReadinessRed},
		{"index missing", nil, nil, db.ErrIndexNotFound, domain.ReadinessRed},
		{"indexing", nil, &db.IndexInfo{PercentIndexed: 0.4, Indexing: true}, nil, domain.ReadinessYellow},
		{"ready", nil, &db.IndexInfo{PercentIndexed: 1}, nil, domain.ReadinessGreen},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo, ms, _ := newTestRepo(t)
			ms.pingFn = func(context.Context) error { return tc.pingErr }
			ms.indexInfoFn = func(context.Context, string) (*db.IndexInfo, error) { return tc.info, tc.infoErr }

			got, _ := repo.Readiness(context.Background())
			if got != tc.want {
				t.Errorf("Readiness() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCounts(t *testing.T) {
	repo, ms, _ := newTestRepo(t)
	ms.searchCountFn = func(_ context.Context, _, query string) (int, error) {
		switch query {
		case `@index_origin:{erp\-fmea}`:
			return 7, nil
		case `@index_origin:{erp\-documents}`:
			return 0, errors.New("timeout")
		default:
			return 2, nil
		}
	}

	counts := repo.Counts(context.Background())
	if len(counts) != len(document.KnownIndices) {
		t.Fatalf("expected %d entries, got %d", len(document.KnownIndices), len(counts))
	}
	if counts["erp-fmea"] != 7 || counts["erp-documents"] != 0 || counts["erp-ecn-notices"] != 2 {
		t.Errorf("counts = %v", counts)
	}
}

func TestGet(t *testing.T) {
	repo, ms, _ := newTestRepo(t)
	ms.hgetAllFn = func(_ context.Context, key string) (map[string]string, error) {
		if key != "doc:EN-1" {
			return nil, db.ErrKeyNotFound
		}
		return map[string]string{
			"doc_id": "EN-1", "index_origin": "erp-ecn-notices", "content_vector": "xxxx",
		}, nil
	}

	rec, err := repo.Get(context.Background(), "EN-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := rec.Attrs["content_vector"]; ok {
		t.Error("content_vector must be dropped")
	}
	if rec.Origin != "erp-ecn-notices" {
		t.Errorf("Origin = %q", rec.Origin)
	}

	_, err = repo.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestHydrate_SkipsMissing(t *testing.T) {
	repo, ms, _ := newTestRepo(t)
	ms.hgetAllMultiFn = func(_ context.Context, keys []string) ([]map[string]string, error) {
		return []map[string]string{
			{"doc_id": "A", "summary": "s"},
			{},
		}, nil
	}

	recs, err := repo.Hydrate(context.Background(), []string{"A", "B"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs["A"].Attrs["summary"] != "s" {
		t.Errorf("unexpected record %+v", recs["A"])
	}
}

func TestEnsureIndex(t *testing.T) {
	repo, ms, _ := newTestRepo(t)

	var def *db.IndexDefinition
	ms.createIndexFn = func(_ context.Context, d *db.IndexDefinition) error {
		def = d
		return db.ErrIndexExists
	}

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("existing index should not be an error: %v", err)
	}
	if def.Name != "docfusion:idx" || def.Prefixes[0] != "doc:" {
		t.Errorf("unexpected definition %s", def)
	}

	weights := map[string]float64{}
	var vectorDim int
	for _, f := range def.Fields {
		if f.Type == db.IndexFieldText {
			weights[f.Name] = f.Weight
		}
		if f.Type == db.IndexFieldVector {
			vectorDim = f.VectorDim
		}
	}
	if weights["doc_number"] != 10 || weights["keywords"] != 7 || weights["summary"] != 5 {
		t.Errorf("weights = %v", weights)
	}
	if vectorDim != testDims {
		t.Errorf("vector dim = %d", vectorDim)
	}

	ms.createIndexFn = func(context.Context, *db.IndexDefinition) error { return errors.New("boom") }
	if err := repo.EnsureIndex(context.Background()); err == nil {
		t.Error("expected error")
	}
}
