// Package backfill generates embeddings for indexed documents that lack one.
package backfill

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docfusion/internal/domain"
	"github.com/kailas-cloud/docfusion/internal/domain/batch"
	"github.com/kailas-cloud/docfusion/internal/domain/document"
	"github.com/kailas-cloud/docfusion/internal/logger"
	"github.com/kailas-cloud/docfusion/internal/metrics"
)

// State is a phase of the worker loop.
type State string

// Worker states.
const (
	StateWaitingForIndex State = "waiting_for_index"
	StateDiscover        State = "discover"
	StateExtractAndEmbed State = "extract_and_embed"
	StateWrite           State = "write"
	StateStopped         State = "stopped"
)

var allStates = []State{StateWaitingForIndex, StateDiscover, StateExtractAndEmbed, StateWrite, StateStopped}

// StopReason explains why the worker reached StateStopped.
type StopReason string

// Stop reasons.
const (
	StopCancelled  StopReason = "cancelled"
	StopDrained    StopReason = "drained"
	StopFailing    StopReason = "failing"
	StopNeverReady StopReason = "index_not_ready"
)

// Defaults for Options.
const (
	DefaultBatchSize       = 100
	DefaultSleep           = 10 * time.Second
	DefaultWaitTimeout     = 180 * time.Second
	DefaultWaitPoll        = 3 * time.Second
	DefaultEmptyRoundLimit = 3
	DefaultFailLimit       = 5
	previewRunes           = 80
)

// Options tune the worker loop.
type Options struct {
	BatchSize       int
	Sleep           time.Duration
	WaitTimeout     time.Duration
	WaitPoll        time.Duration
	MinReadiness    domain.Readiness
	AutoStop        bool
	EmptyRoundLimit int
	FailLimit       int
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Sleep <= 0 {
		o.Sleep = DefaultSleep
	}
	if o.WaitTimeout <= 0 {
		o.WaitTimeout = DefaultWaitTimeout
	}
	if o.WaitPoll <= 0 {
		o.WaitPoll = DefaultWaitPoll
	}
	if o.MinReadiness == "" {
		o.MinReadiness = domain.ReadinessYellow
	}
	if o.EmptyRoundLimit <= 0 {
		o.EmptyRoundLimit = DefaultEmptyRoundLimit
	}
	if o.FailLimit <= 0 {
		o.FailLimit = DefaultFailLimit
	}
	return o
}

// Progress is the worker state carried from one loop iteration to the next.
type Progress struct {
	State               State
	Rounds              int
	EmptyRounds         int
	ConsecutiveFailures int
	Processed           int
	Failed              int
	Reason              StopReason
}

// Worker runs the backfill state machine:
// WAITING_FOR_INDEX, then DISCOVER, EXTRACT_AND_EMBED and WRITE in a loop
// until STOPPED.
type Worker struct {
	index    Index
	embedder Embedder
	texts    TextExtractor
	opts     Options
	logger   *zap.Logger
}

// New creates a backfill worker.
func New(index Index, embedder Embedder, texts TextExtractor, opts Options, log *zap.Logger) *Worker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Worker{
		index:    index,
		embedder: embedder,
		texts:    texts,
		opts:     opts.withDefaults(),
		logger:   log,
	}
}

// Run drives the worker until it stops. Cancelling ctx stops it cleanly
// between batches. It returns domain.ErrIndexNotReady when the index never
// becomes ready and domain.ErrBackfillFailing when the consecutive failure
// limit is reached.
func (w *Worker) Run(ctx context.Context) (Progress, error) {
	ctx, log := logger.With(ctx, w.logger,
		zap.String("component", "backfill"),
		zap.String("run_id", uuid.NewString()),
	)

	log.Info("Backfill started",
		zap.Int("batch_size", w.opts.BatchSize),
		zap.Int("dimensions", w.index.Dimensions()),
		zap.Bool("auto_stop", w.opts.AutoStop),
		zap.Int("empty_round_limit", w.opts.EmptyRoundLimit),
		zap.Int("fail_limit", w.opts.FailLimit),
	)

	p := &Progress{}
	err := w.run(ctx, p)
	w.enter(p, StateStopped)

	log.Info("Backfill stopped",
		zap.String("reason", string(p.Reason)),
		zap.Int("rounds", p.Rounds),
		zap.Int("processed", p.Processed),
		zap.Int("failed", p.Failed),
	)
	return *p, err
}

func (w *Worker) run(ctx context.Context, p *Progress) error {
	w.enter(p, StateWaitingForIndex)
	// A fresh store has no index yet; readiness would stay red until timeout.
	if err := w.index.EnsureIndex(ctx); err != nil {
		logger.FromContext(ctx).Warn("Could not ensure search index", zap.Error(err))
	}
	if err := w.waitForIndex(ctx); err != nil {
		if ctx.Err() != nil {
			p.Reason = StopCancelled
			return nil
		}
		p.Reason = StopNeverReady
		return err
	}

	for {
		if ctx.Err() != nil {
			p.Reason = StopCancelled
			return nil
		}

		stop, err := w.round(ctx, p)
		if stop {
			return err
		}
	}
}

// round runs one DISCOVER → EXTRACT_AND_EMBED → WRITE cycle and reports
// whether the worker must stop.
func (w *Worker) round(ctx context.Context, p *Progress) (bool, error) {
	log := logger.FromContext(ctx)
	p.Rounds++

	w.enter(p, StateDiscover)
	docs, err := w.index.FindMissing(ctx, w.opts.BatchSize)
	if err != nil {
		log.Error("Discovery failed", zap.Error(err))
		metrics.BackfillRoundsTotal.WithLabelValues("error").Inc()
		return w.fail(ctx, p)
	}

	if len(docs) == 0 {
		p.EmptyRounds++
		metrics.BackfillEmptyRounds.Set(float64(p.EmptyRounds))
		metrics.BackfillRoundsTotal.WithLabelValues("empty").Inc()
		log.Info("No documents without vectors", zap.Int("empty_rounds", p.EmptyRounds))

		if w.opts.AutoStop && p.EmptyRounds >= w.opts.EmptyRoundLimit {
			p.Reason = StopDrained
			return true, nil
		}
		return w.pause(ctx, p)
	}
	p.EmptyRounds = 0
	metrics.BackfillEmptyRounds.Set(0)

	w.enter(p, StateExtractAndEmbed)
	writes := w.embed(ctx, docs)

	w.enter(p, StateWrite)
	var ok int
	if len(writes) > 0 {
		results := w.index.WriteVectors(ctx, writes)
		for _, r := range results {
			if r.Err() != nil {
				log.Warn("Vector write failed", zap.String("doc_id", r.ID()), zap.Error(r.Err()))
			}
		}
		ok = batch.CountOK(results)
	}
	failed := len(docs) - ok

	p.Processed += ok
	p.Failed += failed
	metrics.BackfillDocumentsTotal.WithLabelValues("written").Add(float64(ok))
	metrics.BackfillDocumentsTotal.WithLabelValues("failed").Add(float64(failed))

	if ok == 0 {
		log.Warn("Every document in the batch failed",
			zap.Int("batch", len(docs)),
			zap.Int("consecutive_failures", p.ConsecutiveFailures+1),
		)
		metrics.BackfillRoundsTotal.WithLabelValues("failed").Inc()
		return w.fail(ctx, p)
	}

	p.ConsecutiveFailures = 0
	metrics.BackfillConsecutiveFailures.Set(0)
	metrics.BackfillRoundsTotal.WithLabelValues("success").Inc()
	log.Info("Batch written",
		zap.Int("written", ok),
		zap.Int("failed", failed),
		zap.Int("total_processed", p.Processed),
	)
	return false, nil
}

// embed derives canonical texts and embeds the non-empty ones in a single
// call. Documents without text or without an embedding are left out.
func (w *Worker) embed(ctx context.Context, docs []document.Record) []batch.VectorWrite {
	log := logger.FromContext(ctx)

	texts := make([]string, 0, len(docs))
	slots := make([]int, 0, len(docs))
	for i, d := range docs {
		text := w.texts.ExtractRecord(d)
		log.Debug("Canonical text",
			zap.String("doc_id", d.ID),
			zap.String("origin", d.Origin),
			zap.Int("length", utf8.RuneCountInString(text)),
			zap.String("preview", preview(text)),
		)
		if text == "" {
			log.Warn("Document has no canonical text", zap.String("doc_id", d.ID))
			continue
		}
		texts = append(texts, text)
		slots = append(slots, i)
	}
	if len(texts) == 0 {
		return nil
	}

	res, err := w.embedder.BatchEmbed(ctx, texts)
	if err != nil {
		log.Error("Batch embedding failed", zap.Int("texts", len(texts)), zap.Error(err))
		return nil
	}

	writes := make([]batch.VectorWrite, 0, len(slots))
	for j, i := range slots {
		if j >= len(res.Embeddings) || len(res.Embeddings[j]) == 0 {
			log.Warn("Missing embedding", zap.String("doc_id", docs[i].ID))
			continue
		}
		writes = append(writes, batch.VectorWrite{DocID: docs[i].ID, Vector: res.Embeddings[j]})
	}
	return writes
}

// fail counts a failed round and stops the worker at the failure limit.
func (w *Worker) fail(ctx context.Context, p *Progress) (bool, error) {
	p.ConsecutiveFailures++
	metrics.BackfillConsecutiveFailures.Set(float64(p.ConsecutiveFailures))

	if p.ConsecutiveFailures >= w.opts.FailLimit {
		p.Reason = StopFailing
		logger.FromContext(ctx).Error("Consecutive failure limit reached",
			zap.Int("consecutive_failures", p.ConsecutiveFailures))
		return true, fmt.Errorf("%w: %d consecutive failed rounds", domain.ErrBackfillFailing, p.ConsecutiveFailures)
	}
	return w.pause(ctx, p)
}

// pause sleeps between rounds and stops the worker when ctx is cancelled.
func (w *Worker) pause(ctx context.Context, p *Progress) (bool, error) {
	t := time.NewTimer(w.opts.Sleep)
	defer t.Stop()

	select {
	case <-ctx.Done():
		p.Reason = StopCancelled
		return true, nil
	case <-t.C:
		return false, nil
	}
}

// waitForIndex polls readiness every WaitPoll until MinReadiness is reached
// or WaitTimeout elapses.
func (w *Worker) waitForIndex(ctx context.Context) error {
	log := logger.FromContext(ctx)
	waitCtx, cancel := context.WithTimeout(ctx, w.opts.WaitTimeout)
	defer cancel()

	var last domain.Readiness
	err := backoff.Retry(func() error {
		level, err := w.index.Readiness(waitCtx)
		last = level
		if err != nil {
			log.Debug("Index readiness check failed", zap.Error(err))
			return err
		}
		if !level.AtLeast(w.opts.MinReadiness) {
			return fmt.Errorf("readiness %s below %s", level, w.opts.MinReadiness)
		}
		return nil
	}, backoff.WithContext(backoff.NewConstantBackOff(w.opts.WaitPoll), waitCtx))
	if err == nil {
		log.Info("Index ready", zap.String("readiness", string(last)))
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("last readiness %q", last)
	}
	return fmt.Errorf("%w within %s: %w", domain.ErrIndexNotReady, w.opts.WaitTimeout, err)
}

func (w *Worker) enter(p *Progress, s State) {
	p.State = s
	for _, st := range allStates {
		v := 0.0
		if st == s {
			v = 1
		}
		metrics.BackfillState.WithLabelValues(string(st)).Set(v)
	}
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewRunes {
		return text
	}
	return string([]rune(text)[:previewRunes])
}
