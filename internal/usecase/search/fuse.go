package search

import (
	"sort"

	"github.com/kailas-cloud/docfusion/internal/domain/search/result"
)

// Default fusion weights.
const (
	DefaultIdentifierBonus   = 10.0
	DefaultKeywordMultiplier = 2.0
)

// Weights scale structured-store signals into the composite score.
type Weights struct {
	IdentifierBonus   float64
	KeywordMultiplier float64
}

func (w Weights) withDefaults() Weights {
	if w.IdentifierBonus <= 0 {
		w.IdentifierBonus = DefaultIdentifierBonus
	}
	if w.KeywordMultiplier <= 0 {
		w.KeywordMultiplier = DefaultKeywordMultiplier
	}
	return w
}

// signals are the structured-store contributions for one query.
type signals struct {
	identified    map[string]struct{}
	keywordScores map[string]float64
}

func newSignals(identified []string, keywordScores map[string]float64) signals {
	set := make(map[string]struct{}, len(identified))
	for _, id := range identified {
		set[id] = struct{}{}
	}
	return signals{identified: set, keywordScores: keywordScores}
}

// hits is the number of distinct documents the structured store matched.
func (s signals) hits() int {
	n := len(s.identified)
	for id := range s.keywordScores {
		if _, ok := s.identified[id]; !ok {
			n++
		}
	}
	return n
}

func (w Weights) contribution(id string, s signals) float64 {
	var score float64
	if _, ok := s.identified[id]; ok {
		score += w.IdentifierBonus
	}
	return score + s.keywordScores[id]*w.KeywordMultiplier
}

// rank fuses keyword hits, vector hits and structured signals into one list
// ordered by composite score, highest first.
//
// Hits are deduplicated by document ID keeping the first occurrence, keyword
// hits before vector hits. Documents known only to the structured store are
// appended in ID order with an index score of zero. Equal scores keep that
// merged order.
func rank(keyword, vector []result.Result, s signals, w Weights) []result.Result {
	seen := make(map[string]struct{}, len(keyword)+len(vector))
	out := make([]result.Result, 0, len(keyword)+len(vector))

	for _, list := range [][]result.Result{keyword, vector} {
		for i := range list {
			h := &list[i]
			if _, dup := seen[h.ID()]; dup {
				continue
			}
			seen[h.ID()] = struct{}{}
			out = append(out, result.New(
				h.ID(), h.Origin(), h.Score()+w.contribution(h.ID(), s), h.Source(), h.Highlights(),
			))
		}
	}

	var extra []string
	add := func(id string) {
		if _, ok := seen[id]; ok || id == "" {
			return
		}
		seen[id] = struct{}{}
		extra = append(extra, id)
	}
	for id := range s.identified {
		add(id)
	}
	for id := range s.keywordScores {
		add(id)
	}
	sort.Strings(extra)
	for _, id := range extra {
		out = append(out, result.New(id, "", w.contribution(id, s), result.SourceStructured, nil))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score() > out[j].Score()
	})
	return out
}
