package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docfusion/internal/domain"
	"github.com/kailas-cloud/docfusion/internal/domain/canonical"
	backfilluc "github.com/kailas-cloud/docfusion/internal/usecase/backfill"
	"github.com/kailas-cloud/docfusion/internal/version"
)

type backfillFlags struct {
	once bool
}

func newBackfillCommand(root *rootOptions) *cobra.Command {
	flags := &backfillFlags{}
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Embed documents that have no vector yet",
		Long: "Waits for the search index, then repeatedly discovers documents without an\n" +
			"embedding, embeds their canonical text and writes the vectors back.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runBackfill(ctx, root, flags)
		},
	}
	cmd.Flags().BoolVar(&flags.once, "once", false,
		"stop after the first empty round (forces auto-stop with a limit of 1)")
	return cmd
}

func runBackfill(ctx context.Context, root *rootOptions, flags *backfillFlags) error {
	a, err := newApp(ctx, root)
	if err != nil {
		return err
	}
	defer a.close()

	bc := a.cfg.Backfill
	opts := backfilluc.Options{
		BatchSize:       bc.BatchSize,
		Sleep:           time.Duration(bc.SleepSec) * time.Second,
		WaitTimeout:     time.Duration(bc.WaitTimeoutSec) * time.Second,
		WaitPoll:        time.Duration(bc.WaitPollSec) * time.Second,
		MinReadiness:    domain.Readiness(bc.MinReadiness),
		AutoStop:        bc.AutoStop,
		EmptyRoundLimit: bc.EmptyRoundLimit,
		FailLimit:       bc.FailLimit,
	}
	if flags.once {
		opts.AutoStop = true
		opts.EmptyRoundLimit = 1
	}

	a.logger.Info("Starting vector backfill",
		zap.String("version", version.Version),
		zap.String("index", a.cfg.Index.Name),
		zap.String("model", a.cfg.Embedding.Model),
		zap.Int("batch_size", opts.BatchSize),
		zap.Bool("auto_stop", opts.AutoStop),
	)

	worker := backfilluc.New(
		a.index,
		a.docEmbedder,
		canonical.New(a.cfg.Embedding.MaxInputChars),
		opts,
		a.logger,
	)

	progress, err := worker.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("Vector backfill stopped with error",
			zap.String("reason", string(progress.Reason)),
			zap.Int("processed", progress.Processed),
			zap.Int("failed", progress.Failed),
			zap.Error(err),
		)
		return err
	}
	return nil
}
