package searchindex

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docfusion/internal/db"
	"github.com/kailas-cloud/docfusion/internal/domain"
	"github.com/kailas-cloud/docfusion/internal/domain/document"
	"github.com/kailas-cloud/docfusion/internal/logger"
)

// store is the consumer interface for the search index (ISP).
type store interface {
	Ping(ctx context.Context) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexInfo(ctx context.Context, name string) (*db.IndexInfo, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
	HSetMulti(ctx context.Context, items []db.HashSetItem) []error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// Options configures the index layout and query behaviour.
type Options struct {
	IndexName  string
	KeyPrefix  string
	Language   string
	Dimensions int
	HNSWM      int
	HNSWEFC    int
	// CandidateFactor multiplies the kNN result size into EF_RUNTIME.
	CandidateFactor int
	MaxAttempts     int
	BaseDelay       time.Duration
	HighlightFrags  int
	HighlightLen    int
}

func (o Options) withDefaults() Options {
	if o.IndexName == "" {
		o.IndexName = "docfusion:idx"
	}
	if o.KeyPrefix == "" {
		o.KeyPrefix = "doc:"
	}
	if o.Dimensions <= 0 {
		o.Dimensions = domain.ModelDimensions("")
	}
	if o.CandidateFactor <= 0 {
		o.CandidateFactor = 10
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = time.Second
	}
	if o.HighlightFrags <= 0 {
		o.HighlightFrags = 2
	}
	if o.HighlightLen <= 0 {
		o.HighlightLen = 150
	}
	return o
}

// Repo is the search-index client used by retrieval and backfill.
type Repo struct {
	store    store
	embedder domain.Embedder
	opts     Options
	now      func() time.Time
}

// New creates a search-index repository. The embedder may be nil, in which
// case vector search reports domain.ErrEmbeddingUnavailable.
func New(s store, embedder domain.Embedder, opts Options) *Repo {
	return &Repo{
		store:    s,
		embedder: embedder,
		opts:     opts.withDefaults(),
		now:      time.Now,
	}
}

// IndexName returns the FT index the repository queries.
func (r *Repo) IndexName() string { return r.opts.IndexName }

// Dimensions returns the expected embedding length.
func (r *Repo) Dimensions() int { return r.opts.Dimensions }

// EnsureIndex creates the FT index when it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	def, err := r.Definition()
	if err != nil {
		return err
	}
	err = r.store.CreateIndex(ctx, def)
	if err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", r.opts.IndexName, err)
	}
	if err == nil {
		logger.FromContext(ctx).Info("Search index created",
			zap.String("index", r.opts.IndexName),
			zap.Int("dimensions", r.opts.Dimensions),
		)
	}
	return nil
}

// Definition describes the document index.
func (r *Repo) Definition() (*db.IndexDefinition, error) {
	return db.NewIndex(r.opts.IndexName).
		Prefix(r.opts.KeyPrefix).
		Language(r.opts.Language).
		SortableTag(document.AttrDocID).
		Tag(document.AttrOrigin).
		Tag(document.AttrDocType).
		WeightedText(document.AttrDocNumber, 10).
		WeightedText(document.AttrFileName, 7).
		WeightedText(document.AttrSummary, 5).
		WeightedText(document.AttrKeywords, 7).
		Text(attrChangeDescription).
		Text(attrComplaintDescription).
		Text(document.AttrContent).
		NumericMissing(document.AttrVectorAt).
		VectorHNSW(document.AttrVector, r.opts.Dimensions, db.DistanceCosine, r.opts.HNSWM, r.opts.HNSWEFC).
		Build()
}

// Readiness reports red when the store or index is unreachable, yellow while
// the index is still catching up, and green otherwise.
func (r *Repo) Readiness(ctx context.Context) (domain.Readiness, error) {
	if err := r.store.Ping(ctx); err != nil {
		return domain.ReadinessRed, fmt.Errorf("ping: %w", err)
	}
	info, err := r.store.IndexInfo(ctx, r.opts.IndexName)
	if err != nil {
		return domain.ReadinessRed, fmt.Errorf("index info %s: %w", r.opts.IndexName, err)
	}
	if info.PercentIndexed < 1 || info.Indexing {
		return domain.ReadinessYellow, nil
	}
	return domain.ReadinessGreen, nil
}

// Counts returns the number of documents per logical index. A failed count
// reports zero for that index.
func (r *Repo) Counts(ctx context.Context) map[string]int {
	out := make(map[string]int, len(document.KnownIndices))
	for _, origin := range document.KnownIndices {
		n, err := r.store.SearchCount(ctx, r.opts.IndexName, db.TagMatch(document.AttrOrigin, origin))
		if err != nil {
			logger.FromContext(ctx).Warn("Count failed",
				zap.String("index_origin", origin),
				zap.Error(err),
			)
		}
		out[origin] = n
	}
	return out
}

// Get returns one document without its vector.
func (r *Repo) Get(ctx context.Context, id string) (document.Record, error) {
	var attrs map[string]string
	err := r.retry(ctx, func() error {
		var err error
		attrs, err = r.store.HGetAll(ctx, r.key(id))
		return err
	})
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return document.Record{}, domain.ErrDocumentNotFound
		}
		return document.Record{}, fmt.Errorf("get %s: %w", id, err)
	}
	return toRecord(id, attrs), nil
}

// Hydrate loads the stored attributes for ids. Documents absent from the
// index are missing from the returned map.
func (r *Repo) Hydrate(ctx context.Context, ids []string) (map[string]document.Record, error) {
	if len(ids) == 0 {
		return map[string]document.Record{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}

	var rows []map[string]string
	err := r.retry(ctx, func() error {
		var err error
		rows, err = r.store.HGetAllMulti(ctx, keys)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("hydrate %d documents: %w", len(ids), err)
	}

	out := make(map[string]document.Record, len(rows))
	for i, attrs := range rows {
		if len(attrs) == 0 {
			continue
		}
		out[ids[i]] = toRecord(ids[i], attrs)
	}
	return out, nil
}

func (r *Repo) key(id string) string {
	return r.opts.KeyPrefix + id
}

func (r *Repo) docID(key string, fields map[string]string) string {
	if id := fields[document.AttrDocID]; id != "" {
		return id
	}
	return strings.TrimPrefix(key, r.opts.KeyPrefix)
}
