package mode

// Mode is the retrieval strategy.
type Mode string

// Search mode constants.
const (
	// Hybrid merges keyword and vector hits.
	Hybrid  Mode = "hybrid"
	Keyword Mode = "keyword"
	Vector  Mode = "vector"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Hybrid || m == Keyword || m == Vector
}

// UsesKeyword reports whether the mode queries the keyword index.
func (m Mode) UsesKeyword() bool { return m == Hybrid || m == Keyword }

// UsesVector reports whether the mode queries the vector index.
func (m Mode) UsesVector() bool { return m == Hybrid || m == Vector }

// IndexSize is how many hits to request from each index source for a
// caller asking for topK results. Single-source modes double the request so
// that structured-store matches have room to reorder.
func (m Mode) IndexSize(topK int) int {
	if m == Hybrid {
		return topK
	}
	return topK * 2
}
