package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kailas-cloud/docfusion/internal/config"
	dbRedis "github.com/kailas-cloud/docfusion/internal/db/redis"
	"github.com/kailas-cloud/docfusion/internal/domain"
	logpkg "github.com/kailas-cloud/docfusion/internal/logger"
	"github.com/kailas-cloud/docfusion/internal/metrics"
	"github.com/kailas-cloud/docfusion/internal/repository/embcache"
	"github.com/kailas-cloud/docfusion/internal/repository/searchindex"
	"github.com/kailas-cloud/docfusion/internal/repository/structured"
	openaiEmb "github.com/kailas-cloud/docfusion/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/docfusion/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/docfusion/internal/usecase/health"
	searchuc "github.com/kailas-cloud/docfusion/internal/usecase/search"
)

// app is the composition root shared by all subcommands.
type app struct {
	cfg        config.Config
	env        string
	logger     *zap.Logger
	store      *dbRedis.Store
	gdb        *gorm.DB
	structured *structured.Repo
	index      *searchindex.Repo
	// docEmbedder embeds documents for backfill; queryEmbedder adds the cache.
	docEmbedder   *embeddinguc.InstrumentedEmbedder
	queryEmbedder domain.Embedder
}

func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := opts.load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(opts.env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()
	metrics.RegisterBackfillMetrics()

	a := &app{cfg: cfg, env: opts.env, logger: logger}
	if err := a.connect(ctx); err != nil {
		a.close()
		return nil, err
	}
	a.buildEmbedders()

	dims := cfg.Embedding.Dimensions
	if dims == 0 {
		dims = domain.ModelDimensions(cfg.Embedding.Model)
	}
	a.index = searchindex.New(a.store, a.queryEmbedder, searchindex.Options{
		IndexName:       cfg.Index.Name,
		KeyPrefix:       cfg.Index.KeyPrefix,
		Language:        cfg.Index.Language,
		Dimensions:      dims,
		HNSWM:           cfg.Index.HNSWM,
		HNSWEFC:         cfg.Index.HNSWEFConstruct,
		CandidateFactor: cfg.Search.KNNCandidateFactor,
		MaxAttempts:     cfg.Index.MaxAttempts,
		BaseDelay:       cfg.Index.BaseDelay(),
		HighlightFrags:  cfg.Search.HighlightFrags,
		HighlightLen:    cfg.Search.HighlightFragLen,
	})
	return a, nil
}

func (a *app) connect(ctx context.Context) error {
	cfg := a.cfg
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:          cfg.Index.Addrs,
		Username:       cfg.Index.Username,
		Password:       cfg.Index.Password,
		RequestTimeout: cfg.Index.RequestTimeout(),
	})
	if err != nil {
		return fmt.Errorf("create index store: %w", err)
	}
	a.store = store

	if err := store.WaitForReady(ctx, time.Duration(cfg.Index.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("index store not ready: %w", err)
	}
	a.logger.Info("Connected to search index", zap.Strings("addrs", cfg.Index.Addrs))

	if cfg.Structured.Enabled {
		gdb, err := structured.Open(ctx, structured.Options{
			Host:            cfg.Structured.Host,
			Port:            cfg.Structured.Port,
			Username:        cfg.Structured.Username,
			Password:        cfg.Structured.Password,
			Database:        cfg.Structured.Database,
			MaxIdleConns:    cfg.Structured.MaxIdleConns,
			MaxOpenConns:    cfg.Structured.MaxOpenConns,
			ConnMaxLifetime: time.Duration(cfg.Structured.ConnMaxLifetimeSec) * time.Second,
		}, a.logger.With(zap.String("component", "structured")))
		if err != nil {
			// Ranking works without structured signals.
			a.logger.Error("Structured store unavailable, continuing without it", zap.Error(err))
		} else {
			a.gdb = gdb
			a.logger.Info("Connected to structured store",
				zap.String("host", cfg.Structured.Host),
				zap.String("database", cfg.Structured.Database),
			)
		}
	}
	a.structured = structured.New(a.gdb, structured.ScoreOptions{
		ContentWeight:    cfg.Search.ContentWeight,
		ContentScanLimit: cfg.Search.ContentScanLimit,
	})
	return nil
}

// buildEmbedders assembles the decorator chain: OpenAI -> Instrumented -> Cached (query path only).
func (a *app) buildEmbedders() {
	ec := a.cfg.Embedding
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     ec.APIKey,
		BaseURL:    ec.BaseURL,
		Model:      ec.Model,
		Dimensions: ec.Dimensions,
		Provider:   ec.Provider,
		Logger:     a.logger,
	})
	if ec.APIKey == "" {
		a.logger.Warn("Embedding API key not set, vector search and backfill are disabled")
	}

	a.docEmbedder = embeddinguc.NewInstrumentedEmbedder(base, ec.Provider, ec.Model, embeddinguc.Options{
		MaxInputChars: ec.MaxInputChars,
		MaxBatchSize:  ec.MaxBatchSize,
	}, a.logger)

	a.queryEmbedder = a.docEmbedder
	cached, err := embcache.New(a.docEmbedder, a.store, embcache.Options{
		Model: ec.Model,
		Size:  ec.CacheSize,
		TTL:   time.Duration(ec.CacheTTLSec) * time.Second,
	}, metrics.EmbeddingCacheTotal, a.logger)
	if err != nil {
		a.logger.Warn("Query embedding cache disabled", zap.Error(err))
		return
	}
	a.queryEmbedder = cached
}

// answerer returns a nil interface when answer synthesis is not configured.
func (a *app) answerer() searchuc.Answerer {
	ec := a.cfg.Embedding
	if ec.ChatModel == "" || ec.APIKey == "" {
		return nil
	}
	return openaiEmb.NewAnswerer(&openaiEmb.Config{
		APIKey:  ec.APIKey,
		BaseURL: ec.BaseURL,
		Model:   ec.ChatModel,
		Logger:  a.logger,
	})
}

func (a *app) health() *healthuc.Service {
	// Pass nil interface (not typed nil pointer!) when the store is disabled.
	var pinger healthuc.DBPinger
	if a.structured.Enabled() {
		pinger = a.structured
	}
	var embedding healthuc.EmbeddingChecker
	if a.cfg.Embedding.APIKey != "" {
		embedding = a.docEmbedder
	}
	return healthuc.New(a.index, pinger, embedding)
}

func (a *app) close() {
	if a.gdb != nil {
		if sqlDB, err := a.gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.store != nil {
		a.store.Close()
	}
	_ = a.logger.Sync()
}
