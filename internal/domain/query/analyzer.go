// Package query extracts identifier and keyword tokens from free-text queries.
package query

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// DefaultMaxKeywords bounds the keyword list handed to downstream scorers.
const DefaultMaxKeywords = 10

var (
	identifierPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[A-Z]{2,4}\d{2,4}[A-Z]?\d{0,4}[A-Z]{0,4}\d{0,4}[A-Z]{0,4}`),
		regexp.MustCompile(`\d{2,3}-\d{1,4}`),
		regexp.MustCompile(`[A-Z]{1,4}-\d{2,6}[A-Z]?`),
	}
	codePattern = regexp.MustCompile(`[A-Z0-9]{2,}-?[A-Z0-9]*`)
	hanPattern  = regexp.MustCompile(`\p{Han}{2,}`)
)

// stopWords are replaced by a separator before splitting. Longer entries go
// first so that "未來" is removed as a whole before "來".
var stopWords = func() []string {
	w := []string{
		"的", "是", "在", "和", "將", "或", "有", "為", "等", "了",
		"請", "所有", "來", "出", "未來", "改善", "統整", "列出",
	}
	sort.SliceStable(w, func(i, j int) bool {
		return utf8.RuneCountInString(w[i]) > utf8.RuneCountInString(w[j])
	})
	return w
}()

const separator = "|"

// Analysis is the output of Analyze.
type Analysis struct {
	Identifiers []string
	Keywords    []string
}

// Analyzer turns a query into identifiers and keywords. It is pure and safe
// for concurrent use.
type Analyzer struct {
	maxKeywords int
}

// NewAnalyzer creates an Analyzer. maxKeywords <= 0 selects DefaultMaxKeywords.
func NewAnalyzer(maxKeywords int) *Analyzer {
	if maxKeywords <= 0 {
		maxKeywords = DefaultMaxKeywords
	}
	return &Analyzer{maxKeywords: maxKeywords}
}

// Analyze extracts identifiers and keywords from q. A non-blank query always
// yields at least one keyword.
func (a *Analyzer) Analyze(q string) Analysis {
	return Analysis{
		Identifiers: Identifiers(q),
		Keywords:    a.Keywords(q),
	}
}

// Identifiers returns the deduplicated part/case codes found in q.
// Matching is case-insensitive; results are upper case.
func Identifiers(q string) []string {
	upper := strings.ToUpper(q)

	var ids []string
	for _, p := range identifierPatterns {
		ids = append(ids, p.FindAllString(upper, -1)...)
	}
	return dedupe(ids)
}

// Keywords returns up to maxKeywords keyword tokens in query order.
func (a *Analyzer) Keywords(q string) []string {
	kws := codePattern.FindAllString(q, -1)

	cleaned := q
	for _, w := range stopWords {
		cleaned = strings.ReplaceAll(cleaned, w, separator)
	}
	cleaned = strings.Join(strings.Fields(cleaned), separator)

	for _, tok := range strings.Split(cleaned, separator) {
		tok = strings.TrimSpace(tok)
		if utf8.RuneCountInString(tok) >= 2 {
			kws = append(kws, tok)
		}
	}

	if len(kws) == 0 {
		kws = hanPattern.FindAllString(q, -1)
	}
	if len(kws) == 0 {
		if raw := strings.TrimSpace(q); raw != "" {
			kws = []string{raw}
		}
	}

	kws = dedupe(kws)
	if len(kws) > a.maxKeywords {
		kws = kws[:a.maxKeywords]
	}
	return kws
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
