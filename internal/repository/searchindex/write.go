package searchindex

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/docfusion/internal/db"
	"github.com/kailas-cloud/docfusion/internal/domain"
	"github.com/kailas-cloud/docfusion/internal/domain/batch"
	"github.com/kailas-cloud/docfusion/internal/domain/document"
)

// FindMissing returns up to limit documents that have no embedding yet,
// ordered by doc_id.
func (r *Repo) FindMissing(ctx context.Context, limit int) ([]document.Record, error) {
	if limit <= 0 {
		return nil, nil
	}
	q := &db.ListQuery{
		IndexName: r.opts.IndexName,
		Query:     db.IsMissing(document.AttrVectorAt),
		Limit:     limit,
		SortBy:    document.AttrDocID,
	}

	var sr *db.SearchResult
	err := r.retry(ctx, func() error {
		var err error
		sr, err = r.store.SearchList(ctx, q)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("find missing vectors: %w", err)
	}
	if sr == nil {
		return nil, nil
	}

	out := make([]document.Record, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		out = append(out, toRecord(r.docID(e.Key, e.Fields), e.Fields))
	}
	return out, nil
}

// WriteVectors upserts embeddings together with their generation time.
// Invalid vectors are rejected before the write. Items that fail with a
// transient error are retried; the result holds one outcome per input.
func (r *Repo) WriteVectors(ctx context.Context, writes []batch.VectorWrite) []batch.Result {
	results := make([]batch.Result, len(writes))
	generatedAt := strconv.FormatInt(r.now().Unix(), 10)

	pending := make([]int, 0, len(writes))
	for i, w := range writes {
		if err := domain.ValidateVector(w.Vector, r.opts.Dimensions); err != nil {
			results[i] = batch.NewError(w.DocID, err)
			continue
		}
		pending = append(pending, i)
	}

	_ = r.retry(ctx, func() error {
		items := make([]db.HashSetItem, len(pending))
		for j, i := range pending {
			items[j] = db.HashSetItem{
				Key: r.key(writes[i].DocID),
				Fields: map[string]string{
					document.AttrVector:   vectorToBytes(writes[i].Vector),
					document.AttrVectorAt: generatedAt,
				},
			}
		}

		errs := r.store.HSetMulti(ctx, items)
		var retryable []int
		var firstTransient error
		for j, i := range pending {
			var err error
			if j < len(errs) {
				err = errs[j]
			}
			switch {
			case err == nil:
				results[i] = batch.NewOK(writes[i].DocID)
			case db.IsTransient(err):
				results[i] = batch.NewError(writes[i].DocID, err)
				retryable = append(retryable, i)
				if firstTransient == nil {
					firstTransient = err
				}
			default:
				results[i] = batch.NewError(writes[i].DocID, err)
			}
		}
		pending = retryable
		return firstTransient
	})

	return results
}
