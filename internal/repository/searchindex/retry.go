package searchindex

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docfusion/internal/db"
	"github.com/kailas-cloud/docfusion/internal/domain"
	"github.com/kailas-cloud/docfusion/internal/logger"
)

// retry runs op with exponential backoff while it fails transiently, up to
// MaxAttempts calls. A non-transient failure or an exhausted budget is
// reported as domain.ErrSearchUnavailable, except db.ErrKeyNotFound which is
// passed through.
func (r *Repo) retry(ctx context.Context, op func() error) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = r.opts.BaseDelay
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = r.opts.BaseDelay << (r.opts.MaxAttempts - 1)
	exp.MaxElapsedTime = 0

	policy := backoff.WithContext(
		backoff.WithMaxRetries(exp, uint64(r.opts.MaxAttempts-1)),
		ctx,
	)

	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		err := op()
		if err != nil && !db.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		logger.FromContext(ctx).Warn("Search index call failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
	})
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrSearchUnavailable, err)
}
