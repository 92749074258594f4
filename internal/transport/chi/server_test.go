package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docfusion/internal/domain"
	"github.com/kailas-cloud/docfusion/internal/domain/search/mode"
	"github.com/kailas-cloud/docfusion/internal/domain/search/request"
	healthuc "github.com/kailas-cloud/docfusion/internal/usecase/health"
	searchuc "github.com/kailas-cloud/docfusion/internal/usecase/search"
)

type fakeSearcher struct {
	lastReq  request.Request
	resp     *searchuc.Response
	err      error
	detail   *searchuc.Detail
	getErr   error
	stats    searchuc.Stats
	searched bool
}

func (f *fakeSearcher) Search(_ context.Context, req request.Request) (*searchuc.Response, error) {
	f.searched = true
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeSearcher) Get(_ context.Context, _ string) (*searchuc.Detail, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.detail, nil
}

func (f *fakeSearcher) Stats(_ context.Context) searchuc.Stats { return f.stats }

type fakeHealth struct{ report healthuc.Report }

func (f *fakeHealth) Check(_ context.Context) healthuc.Report { return f.report }

func newTestRouter(s *fakeSearcher, h *fakeHealth) http.Handler {
	if h == nil {
		h = &fakeHealth{report: healthuc.Report{Status: healthuc.Healthy, Readiness: domain.ReadinessGreen}}
	}
	srv := NewServer(s, h, Info{Service: "docfusion", Version: "test", Index: "docfusion:idx"}, zap.NewNop())
	r := chi.NewRouter()
	r.Use(JSONRecoverer(zap.NewNop()))
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(zap.NewNop()))
	srv.Register(r)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var e errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&e); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return e
}

func TestQuery_Success(t *testing.T) {
	s := &fakeSearcher{resp: &searchuc.Response{
		Query: "ABC-1234 焊點",
		Mode:  mode.Hybrid,
		Total: 1,
		Documents: []searchuc.Document{{
			DocID:        "EN-1",
			DocNumber:    "EN-1",
			Score:        11.5,
			IndexOrigin:  "erp-ecn-notices",
			ProductCodes: []string{"ABC-1234"},
		}},
		SearchTimeMS: 12,
		Metadata: searchuc.Metadata{
			StructuredHits:   1,
			IdentifiersFound: []string{"ABC-1234"},
			Index:            "docfusion:idx",
		},
	}}
	rr := doJSON(t, newTestRouter(s, nil), http.MethodPost, "/query",
		`{"query":"ABC-1234 焊點","top_k":5,"use_answer":true}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	if s.lastReq.TopK() != 5 || s.lastReq.Mode() != mode.Hybrid || !s.lastReq.UseAnswer() {
		t.Errorf("unexpected request %+v", s.lastReq)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}

	var body queryResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.Total != 1 || len(body.Documents) != 1 {
		t.Fatalf("unexpected body %+v", body)
	}
	if body.Documents[0].DocID != "EN-1" || body.Documents[0].Score != 11.5 {
		t.Errorf("unexpected document %+v", body.Documents[0])
	}
	if body.Answer != nil {
		t.Errorf("expected no answer, got %q", *body.Answer)
	}
	if body.Metadata.KeywordsUsed == nil {
		t.Error("keywords_used should encode as an empty list")
	}
}

func TestQuery_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", `{"query":`, codeBadRequest},
		{"empty query", `{"query":"   "}`, codeValidationFailed},
		{"top_k too large", `{"query":"x","top_k":51}`, codeValidationFailed},
		{"negative top_k", `{"query":"x","top_k":-1}`, codeValidationFailed},
		{"unknown mode", `{"query":"x","mode":"semantic"}`, codeValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSearcher{}
			rr := doJSON(t, newTestRouter(s, nil), http.MethodPost, "/query", tt.body)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want 400", rr.Code)
			}
			if got := decodeError(t, rr).Code; got != tt.code {
				t.Errorf("code: got %s, want %s", got, tt.code)
			}
			if s.searched {
				t.Error("search must not run for invalid requests")
			}
		})
	}
}

func TestQuery_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"index unavailable", fmt.Errorf("keyword: %w", domain.ErrSearchUnavailable), http.StatusServiceUnavailable, codeSearchUnavailable},
		{"embedding provider", fmt.Errorf("embed: %w", domain.ErrEmbeddingProviderError), http.StatusBadGateway, codeEmbeddingProviderError},
		{"invalid query", domain.ErrInvalidQuery, http.StatusBadRequest, codeValidationFailed},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, codeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSearcher{err: tt.err}
			rr := doJSON(t, newTestRouter(s, nil), http.MethodPost, "/query", `{"query":"x"}`)

			if rr.Code != tt.status {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.status)
			}
			e := decodeError(t, rr)
			if e.Code != tt.code {
				t.Errorf("code: got %s, want %s", e.Code, tt.code)
			}
			if strings.Contains(e.Message, "boom") || strings.Contains(e.Message, "keyword:") {
				t.Errorf("message leaks internals: %q", e.Message)
			}
		})
	}
}

func TestGetDocument(t *testing.T) {
	s := &fakeSearcher{detail: &searchuc.Detail{
		ID:          "EN-1",
		IndexOrigin: "erp-ecn-notices",
		Fields:      map[string]string{"notice_number": "EN-1"},
		FileURL:     "http://files.local/a.pdf",
		Related:     []string{"EA-7"},
	}}
	rr := doJSON(t, newTestRouter(s, nil), http.MethodGet, "/document/EN-1", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	var body detailResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Document["doc_id"] != "EN-1" || body.Document["notice_number"] != "EN-1" {
		t.Errorf("unexpected document %v", body.Document)
	}
	if body.Document["download_url"] != "http://files.local/a.pdf" {
		t.Errorf("expected download_url, got %v", body.Document)
	}
	if len(body.RelatedDocNumbers) != 1 || body.RelatedDocNumbers[0] != "EA-7" {
		t.Errorf("unexpected related %v", body.RelatedDocNumbers)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	s := &fakeSearcher{getErr: fmt.Errorf("get document: %w", domain.ErrDocumentNotFound)}
	rr := doJSON(t, newTestRouter(s, nil), http.MethodGet, "/document/missing", "")

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rr.Code)
	}
	if got := decodeError(t, rr).Code; got != codeDocumentNotFound {
		t.Errorf("code: got %s", got)
	}
}

func TestStats(t *testing.T) {
	s := &fakeSearcher{stats: searchuc.Stats{
		Total:  7,
		Counts: map[string]int{"erp-fmea": 3, "erp-documents": 4},
	}}
	rr := doJSON(t, newTestRouter(s, nil), http.MethodGet, "/stats", "")

	var body statsResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.TotalDocuments != 7 || body.IndexCounts["erp-fmea"] != 3 {
		t.Errorf("unexpected stats %+v", body)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		status healthuc.Status
		want   int
	}{
		{healthuc.Healthy, http.StatusOK},
		{healthuc.Degraded, http.StatusOK},
		{healthuc.Unhealthy, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			h := &fakeHealth{report: healthuc.Report{
				Status:    tt.status,
				Readiness: domain.ReadinessYellow,
				Checks:    map[string]healthuc.CheckResult{healthuc.ComponentIndex: healthuc.CheckOK},
			}}
			rr := doJSON(t, newTestRouter(&fakeSearcher{}, h), http.MethodGet, "/health", "")

			if rr.Code != tt.want {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.want)
			}
			var body healthResponse
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Status != string(tt.status) || body.Readiness != "yellow" || body.Checks["index"] != "ok" {
				t.Errorf("unexpected body %+v", body)
			}
		})
	}
}

func TestRoot(t *testing.T) {
	rr := doJSON(t, newTestRouter(&fakeSearcher{}, nil), http.MethodGet, "/", "")

	var body infoResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Service != "docfusion" || body.Index != "docfusion:idx" || body.Status != "running" {
		t.Errorf("unexpected info %+v", body)
	}
}

type panicSearcher struct{ fakeSearcher }

func (p *panicSearcher) Stats(context.Context) searchuc.Stats { panic("stats exploded") }

func TestJSONRecoverer(t *testing.T) {
	srv := NewServer(&panicSearcher{}, &fakeHealth{}, Info{}, zap.NewNop())
	r := chi.NewRouter()
	r.Use(JSONRecoverer(zap.NewNop()))
	srv.Register(r)

	rr := doJSON(t, r, http.MethodGet, "/stats", "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", rr.Code)
	}
	if got := decodeError(t, rr).Code; got != codeInternalError {
		t.Errorf("code: got %s", got)
	}
}
