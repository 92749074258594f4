// Package snippet cleans document text and extracts keyword-anchored
// excerpts from full content.
package snippet

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Defaults for Options.
const (
	DefaultMaxSnippets = 5
	DefaultLength      = 500
	DefaultLead        = 100
)

const (
	boundaryScan = 50
	minLength    = 20
	ellipsis     = "..."
	boundaries   = "。！？\n；"
)

// Options tune snippet extraction. Lengths are in characters.
type Options struct {
	MaxSnippets int
	Length      int
	Lead        int
	Similarity  float64
}

func (o *Options) applyDefaults() {
	if o.MaxSnippets <= 0 {
		o.MaxSnippets = DefaultMaxSnippets
	}
	if o.Length <= 0 {
		o.Length = DefaultLength
	}
	if o.Lead < 0 || o.Lead >= o.Length {
		o.Lead = min(DefaultLead, o.Length/2)
	}
	if o.Similarity <= 0 {
		o.Similarity = DefaultSimilarity
	}
}

// Extractor finds non-overlapping, non-redundant excerpts around keyword
// occurrences.
type Extractor struct {
	opts Options
}

// NewExtractor creates an Extractor; zero options take defaults.
func NewExtractor(opts Options) *Extractor {
	opts.applyDefaults()
	return &Extractor{opts: opts}
}

// Extract returns up to MaxSnippets excerpts of content around occurrences
// of keywords. No two excerpts start within Length/2 of each other, none is
// near-duplicate of the summary or of another excerpt, and excerpts shorter
// than 20 characters after trimming are dropped. Empty content or keywords
// yield nil.
func (e *Extractor) Extract(content, summary string, keywords []string) []string {
	if content == "" || len(keywords) == 0 {
		return nil
	}

	text := []rune(Clean(content, true))
	lower := lowerRunes(text)
	cleanSummary := Clean(summary, false)

	var (
		snippets []string
		used     []int
	)

	kws := keywords
	if len(kws) > e.opts.MaxSnippets*2 {
		kws = kws[:e.opts.MaxSnippets*2]
	}

	for _, kw := range kws {
		needle := lowerRunes([]rune(kw))
		if len(needle) == 0 {
			continue
		}

		for pos := indexRunes(lower, needle, 0); pos >= 0; pos = indexRunes(lower, needle, pos+1) {
			if e.overlaps(used, pos) {
				continue
			}

			s := e.window(text, pos)
			if IsSimilar(s, cleanSummary, e.opts.Similarity) || e.duplicates(s, snippets) {
				continue
			}
			if utf8.RuneCountInString(strings.Trim(s, ".\n ")) < minLength {
				continue
			}

			snippets = append(snippets, s)
			used = append(used, pos)
			if len(snippets) >= e.opts.MaxSnippets {
				return snippets
			}
		}
	}

	return snippets
}

func (e *Extractor) overlaps(used []int, pos int) bool {
	half := e.opts.Length / 2
	for _, u := range used {
		if abs(pos-u) < half {
			return true
		}
	}
	return false
}

func (e *Extractor) duplicates(s string, existing []string) bool {
	for _, x := range existing {
		if IsSimilar(s, x, e.opts.Similarity) {
			return true
		}
	}
	return false
}

// window cuts Length characters starting Lead before pos, then trims each
// cut end to the nearest sentence boundary within reach and marks it.
func (e *Extractor) window(text []rune, pos int) string {
	start := max(0, pos-e.opts.Lead)
	end := min(len(text), pos+e.opts.Length-e.opts.Lead)
	s := append([]rune(nil), text[start:end]...)

	if start > 0 {
		for i := 0; i < min(boundaryScan, len(s)); i++ {
			if isBoundary(s[i]) {
				s = s[i+1:]
				break
			}
		}
		s = append([]rune(ellipsis), s...)
	}

	if end < len(text) {
		for i := len(s) - 1; i > max(0, len(s)-boundaryScan); i-- {
			if isBoundary(s[i]) {
				s = s[:i+1]
				break
			}
		}
		s = append(s, []rune(ellipsis)...)
	}

	return strings.TrimSpace(string(s))
}

func isBoundary(r rune) bool {
	return strings.ContainsRune(boundaries, r)
}

func lowerRunes(r []rune) []rune {
	out := make([]rune, len(r))
	for i, c := range r {
		out[i] = unicode.ToLower(c)
	}
	return out
}

// indexRunes returns the first index >= from where needle occurs in hay, or -1.
func indexRunes(hay, needle []rune, from int) int {
	for i := from; i+len(needle) <= len(hay); i++ {
		match := true
		for j, c := range needle {
			if hay[i+j] != c {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
