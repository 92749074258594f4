package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docfusion/internal/db"
	"github.com/kailas-cloud/docfusion/internal/domain"
)

const cacheKeyPrefix = "docfusion:emb_cache:"

// Cache outcome labels.
const (
	resultHitMemory = "hit_memory"
	resultHitRedis  = "hit_redis"
	resultMiss      = "miss"
)

// store is the consumer interface for the shared cache tier (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Options configures both cache tiers.
type Options struct {
	Model string
	// Size bounds the in-process tier; 0 disables it.
	Size int
	// TTL applies to the shared tier; 0 disables it.
	TTL time.Duration
}

// CachedEmbedder caches query embeddings in process and in a shared
// key-value store. Cache failures fall through to the inner embedder.
type CachedEmbedder struct {
	inner      domain.Embedder
	store      store
	local      *lru.Cache[string, []float32]
	model      string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator. s may be nil to use only the local tier.
// cacheTotal is a counter vec with label "result", passed explicitly.
func New(
	inner domain.Embedder,
	s store,
	opts Options,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) (*CachedEmbedder, error) {
	c := &CachedEmbedder{
		inner:      inner,
		store:      s,
		model:      opts.Model,
		ttl:        opts.TTL,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
	if opts.Size > 0 {
		local, err := lru.New[string, []float32](opts.Size)
		if err != nil {
			return nil, fmt.Errorf("create embedding lru: %w", err)
		}
		c.local = local
	}
	return c, nil
}

// Embed returns a cached embedding or calls the inner embedder.
// Cache hit: TotalTokens = 0 (no real tokens consumed).
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.cacheKey(text)

	if c.local != nil {
		if vec, ok := c.local.Get(key); ok {
			c.incCache(resultHitMemory)
			return domain.EmbeddingResult{Embedding: vec}, nil
		}
	}

	if vec, ok := c.getFromStore(ctx, key); ok {
		c.incCache(resultHitRedis)
		if c.local != nil {
			c.local.Add(key, vec)
		}
		return domain.EmbeddingResult{Embedding: vec}, nil
	}

	c.incCache(resultMiss)

	result, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}

	if c.local != nil {
		c.local.Add(key, result.Embedding)
	}
	c.putToStore(ctx, key, result.Embedding)
	return result, nil
}

// HealthCheck delegates to the inner embedder when it supports it.
func (c *CachedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

func (c *CachedEmbedder) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// cacheKey separates model and text so different models never share vectors.
func (c *CachedEmbedder) cacheKey(text string) string {
	h := sha256.Sum256([]byte(c.model + "\x00" + text))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}

func (c *CachedEmbedder) getFromStore(ctx context.Context, key string) ([]float32, bool) {
	if c.store == nil || c.ttl <= 0 {
		return nil, false
	}
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached embedding", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	vec, err := bytesToVector(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	return vec, true
}

func (c *CachedEmbedder) putToStore(ctx context.Context, key string, vec []float32) {
	if c.store == nil || c.ttl <= 0 || len(vec) == 0 {
		return
	}
	if err := c.store.SetWithTTL(ctx, key, vectorToCacheBytes(vec), c.ttl); err != nil {
		c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
}

func vectorToCacheBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding cache data: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
