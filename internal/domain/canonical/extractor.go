// Package canonical renders documents into the single text blob used as
// embedding input.
package canonical

import (
	"strings"

	"github.com/kailas-cloud/docfusion/internal/domain/document"
)

// DefaultMaxChars is the embedding model input budget in characters.
const DefaultMaxChars = 8000

// Extractor renders category templates into canonical text.
type Extractor struct {
	maxChars int
}

// New creates an Extractor. maxChars <= 0 selects DefaultMaxChars.
func New(maxChars int) *Extractor {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Extractor{maxChars: maxChars}
}

// Extract returns the canonical text for f. The result depends only on f:
// empty segments are skipped and the text is cut to the character budget.
func (e *Extractor) Extract(f document.Fields) string {
	if f == nil {
		return ""
	}

	segs := f.Segments()
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		v := strings.TrimSpace(s.Value)
		if v == "" {
			continue
		}
		parts = append(parts, s.Label+v)
	}

	return Truncate(strings.Join(parts, " "), e.maxChars)
}

// ExtractRecord derives the canonical text of an index record.
func (e *Extractor) ExtractRecord(r document.Record) string {
	return e.Extract(r.Fields())
}

// Truncate cuts s to at most n characters without splitting a rune.
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
