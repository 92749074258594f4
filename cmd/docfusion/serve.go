package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docfusion/internal/domain/fileurl"
	"github.com/kailas-cloud/docfusion/internal/domain/query"
	"github.com/kailas-cloud/docfusion/internal/domain/snippet"
	"github.com/kailas-cloud/docfusion/internal/metrics"
	chiTransport "github.com/kailas-cloud/docfusion/internal/transport/chi"
	searchuc "github.com/kailas-cloud/docfusion/internal/usecase/search"
	"github.com/kailas-cloud/docfusion/internal/version"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the retrieval HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, root)
		},
	}
}

func runServe(ctx context.Context, root *rootOptions) error {
	a, err := newApp(ctx, root)
	if err != nil {
		return err
	}
	defer a.close()
	cfg := a.cfg
	logger := a.logger

	logger.Info("Starting docfusion API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", a.env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("index", cfg.Index.Name),
		zap.Bool("structured", a.structured.Enabled()),
		zap.String("chat_model", cfg.Embedding.ChatModel),
	)

	if err := a.index.EnsureIndex(ctx); err != nil {
		logger.Warn("Could not ensure search index", zap.Error(err))
	}

	files := fileurl.NewResolver(cfg.Files.PublicURL, cfg.Files.StripPrefixes)
	searchSvc := searchuc.New(
		query.NewAnalyzer(cfg.Search.MaxKeywords),
		a.structured,
		a.index,
		a.answerer(),
		files,
		searchuc.Options{
			Weights: searchuc.Weights{
				IdentifierBonus:   cfg.Search.IdentifierBonus,
				KeywordMultiplier: cfg.Search.KeywordMultiplier,
			},
			Snippets: snippet.Options{
				MaxSnippets: cfg.Search.SnippetMax,
				Length:      cfg.Search.SnippetLength,
				Lead:        cfg.Search.SnippetLead,
			},
		},
	)

	server := chiTransport.NewServer(searchSvc, a.health(), chiTransport.Info{
		Service:     "docfusion",
		Version:     version.Version,
		Index:       cfg.Index.Name,
		FileService: cfg.Files.PublicURL,
	}, logger)

	r := chi.NewRouter()
	r.Use(chiTransport.JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.RequestLogger(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
