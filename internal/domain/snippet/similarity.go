package snippet

import (
	"regexp"
	"strings"
)

// DefaultSimilarity is the trigram Jaccard threshold above which two texts
// count as near-duplicates.
const DefaultSimilarity = 0.7

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// IsSimilar reports whether a and b are near-duplicates: after dropping
// punctuation and whitespace one contains the other, or their trigram
// Jaccard similarity exceeds threshold.
func IsSimilar(a, b string, threshold float64) bool {
	if a == "" || b == "" {
		return false
	}

	ca := nonWord.ReplaceAllString(strings.ToLower(a), "")
	cb := nonWord.ReplaceAllString(strings.ToLower(b), "")
	if ca == "" || cb == "" {
		return false
	}
	if strings.Contains(ca, cb) || strings.Contains(cb, ca) {
		return true
	}

	return Jaccard(trigrams(ca), trigrams(cb)) > threshold
}

// Jaccard returns |a∩b| / |a∪b|, or 0 when either set is empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

func trigrams(s string) map[string]struct{} {
	r := []rune(s)
	out := make(map[string]struct{}, max(0, len(r)-2))
	for i := 0; i+3 <= len(r); i++ {
		out[string(r[i:i+3])] = struct{}{}
	}
	return out
}
