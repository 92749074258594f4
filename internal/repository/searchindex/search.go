package searchindex

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/docfusion/internal/db"
	"github.com/kailas-cloud/docfusion/internal/domain"
	"github.com/kailas-cloud/docfusion/internal/domain/document"
	"github.com/kailas-cloud/docfusion/internal/domain/search/result"
)

const (
	attrChangeDescription    = "change_description"
	attrComplaintDescription = "complaint_description"

	highlightOpen  = "<em>"
	highlightClose = "</em>"
	// fragmentSeparator is the SUMMARIZE default between fragments.
	fragmentSeparator = "... "
)

// keywordFields are the weighted fields searched by keyword queries.
var keywordFields = []string{
	document.AttrDocNumber,
	document.AttrFileName,
	document.AttrSummary,
	document.AttrKeywords,
}

// highlightFields are the long descriptive fields fragments come from.
var highlightFields = []string{
	document.AttrSummary,
	attrChangeDescription,
	attrComplaintDescription,
}

var hitFields = []string{document.AttrDocID, document.AttrOrigin}

// KeywordSearch runs a fuzzy multi-field query and returns hits in index
// order with highlighted fragments.
func (r *Repo) KeywordSearch(ctx context.Context, query string, size int) ([]result.Result, error) {
	if strings.TrimSpace(query) == "" || size <= 0 {
		return nil, nil
	}

	q := &db.TextQuery{
		IndexName:    r.opts.IndexName,
		Fields:       keywordFields,
		Terms:        []string{query},
		Fuzzy:        true,
		Limit:        size,
		ReturnFields: hitFields,
		Highlight: &db.Highlight{
			Fields:   highlightFields,
			OpenTag:  highlightOpen,
			CloseTag: highlightClose,
			Frags:    r.opts.HighlightFrags,
			FragLen:  r.opts.HighlightLen,
		},
	}

	var sr *db.SearchResult
	err := r.retry(ctx, func() error {
		var err error
		sr, err = r.store.SearchText(ctx, q)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	return r.toHits(sr, result.SourceKeyword, true), nil
}

// VectorSearch embeds the query and runs a kNN query with a candidate pool
// CandidateFactor times the result size.
func (r *Repo) VectorSearch(ctx context.Context, query string, size int) ([]result.Result, error) {
	if strings.TrimSpace(query) == "" || size <= 0 {
		return nil, nil
	}
	if r.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	emb, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	q := &db.KNNQuery{
		IndexName:    r.opts.IndexName,
		VectorField:  document.AttrVector,
		Vector:       emb.Embedding,
		K:            size,
		EFRuntime:    size * r.opts.CandidateFactor,
		ReturnFields: hitFields,
	}

	var sr *db.SearchResult
	err = r.retry(ctx, func() error {
		var err error
		sr, err = r.store.SearchKNN(ctx, q)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	return r.toHits(sr, result.SourceVector, false), nil
}

func (r *Repo) toHits(sr *db.SearchResult, src result.Source, highlights bool) []result.Result {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}
	hits := make([]result.Result, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		var hl map[string][]string
		if highlights {
			hl = parseHighlights(e.Fields)
		}
		hits = append(hits, result.New(
			r.docID(e.Key, e.Fields),
			e.Fields[document.AttrOrigin],
			e.Score, src, hl,
		))
	}
	return hits
}

// parseHighlights keeps only fragments that carry a highlight mark.
func parseHighlights(fields map[string]string) map[string][]string {
	var out map[string][]string
	for _, f := range highlightFields {
		v := fields[f]
		if !strings.Contains(v, highlightOpen) {
			continue
		}
		var frags []string
		for _, frag := range strings.Split(v, fragmentSeparator) {
			if frag = strings.TrimSpace(frag); frag != "" {
				frags = append(frags, frag)
			}
		}
		if len(frags) == 0 {
			continue
		}
		if out == nil {
			out = make(map[string][]string)
		}
		out[f] = frags
	}
	return out
}
