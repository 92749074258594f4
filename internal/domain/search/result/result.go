package result

// Source identifies where a hit entered the candidate list.
type Source string

// Hit sources.
const (
	SourceKeyword    Source = "keyword"
	SourceVector     Source = "vector"
	SourceStructured Source = "structured"
)

// Result is a single search-index hit, scoped to one request.
type Result struct {
	id         string
	origin     string
	score      float64
	source     Source
	highlights map[string][]string
}

// New creates a search hit.
func New(id, origin string, score float64, source Source, highlights map[string][]string) Result {
	return Result{
		id: id, origin: origin, score: score,
		source: source, highlights: highlights,
	}
}

// ID returns the document identifier.
func (r *Result) ID() string { return r.id }

// Origin returns the logical index the document came from.
func (r *Result) Origin() string { return r.origin }

// Score returns the raw relevance score reported by the index.
func (r *Result) Score() float64 { return r.score }

// Source returns the retrieval path that produced the hit.
func (r *Result) Source() Source { return r.source }

// Highlights returns highlighted fragments keyed by field name.
func (r *Result) Highlights() map[string][]string { return r.highlights }
