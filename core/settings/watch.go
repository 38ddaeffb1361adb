package settings

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// Retry policy for a failed poll
const (
	DefaultRetryBase = 250 * time.Millisecond
	DefaultRetries   = 3
)

// Watch reloads every interval until ctx is done. A failed fetch is retried
// with exponential backoff; a rejected document is not. Failures are logged
// and the published snapshot is kept.
func (p *Provider) Watch(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := p.ReloadWithRetry(ctx); err != nil && ctx.Err() == nil {
				p.logger.Error("settings poll failed", zap.Error(err))
			}
		}
	}
}

// ReloadWithRetry is Reload with exponential backoff on fetch failures
func (p *Provider) ReloadWithRetry(ctx context.Context) (*Snapshot, error) {
	backoff := retry.WithMaxRetries(DefaultRetries, retry.NewExponential(DefaultRetryBase))

	var snap *Snapshot
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		s, retryable, err := p.reload(ctx)
		if err != nil {
			if retryable {
				return retry.RetryableError(err)
			}
			return err
		}
		snap = s
		return nil
	})
	return snap, err
}
