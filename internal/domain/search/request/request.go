package request

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/docfusion/internal/domain"
	"github.com/kailas-cloud/docfusion/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed query length in characters.
	MaxQueryLength = 1000
	DefaultTopK    = 10
	MaxTopK        = 50
)

// Request is a validated search query.
type Request struct {
	query      string
	searchMode mode.Mode
	topK       int
	useAnswer  bool
}

// New validates and normalizes search parameters.
// Defaults: mode=hybrid, topK=DefaultTopK. Out-of-range topK is rejected.
func New(query string, m mode.Mode, topK int, useAnswer bool) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("%w: query is required", domain.ErrInvalidQuery)
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidQuery, MaxQueryLength)
	}
	if m == "" {
		m = mode.Hybrid
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("%w: invalid search mode %q", domain.ErrInvalidQuery, m)
	}
	if topK == 0 {
		topK = DefaultTopK
	}
	if topK < 1 || topK > MaxTopK {
		return Request{}, fmt.Errorf("%w: top_k must be between 1 and %d", domain.ErrInvalidQuery, MaxTopK)
	}

	return Request{
		query:      query,
		searchMode: m,
		topK:       topK,
		useAnswer:  useAnswer,
	}, nil
}

// Query returns the trimmed query text.
func (r *Request) Query() string { return r.query }

// Mode returns the retrieval strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// TopK returns the number of results to return.
func (r *Request) TopK() int { return r.topK }

// UseAnswer reports whether a synthesized answer was requested.
func (r *Request) UseAnswer() bool { return r.useAnswer }
