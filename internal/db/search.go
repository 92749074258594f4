package db

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName   string
	Filter      string // pre-filter expression; empty matches all
	VectorField string
	Vector      []float32
	K           int
	// EFRuntime widens the HNSW candidate pool; 0 keeps the index default.
	EFRuntime    int
	ReturnFields []string
}

// TextQuery is the input for a scored full-text search. Terms are OR-ed and
// scoped to Fields; the store handles escaping.
type TextQuery struct {
	IndexName    string
	Fields       []string
	Terms        []string
	Fuzzy        bool
	Limit        int
	ReturnFields []string
	Highlight    *Highlight
}

// Highlight requests marked fragments for the given fields.
type Highlight struct {
	Fields   []string
	OpenTag  string
	CloseTag string
	Frags    int
	FragLen  int
}

// ListQuery is the input for an unscored, optionally sorted listing.
type ListQuery struct {
	IndexName    string
	Query        string
	Offset       int
	Limit        int
	SortBy       string
	Descending   bool
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
