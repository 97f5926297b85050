package tasks

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// BootstrapKey guards the first-run population across scheduler instances.
const BootstrapKey = "bootstrap:populate_initial_content"

const bootstrapTTL = 24 * time.Hour

// VideoCounter reports how many videos exist.
type VideoCounter interface {
	Count(ctx context.Context) (int, error)
}

// Locker grants a key to exactly one caller.
type Locker interface {
	AcquireOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Bootstrapper populates an empty platform once.
type Bootstrapper struct {
	videos VideoCounter
	lock   Locker
	client *Client
	delay  time.Duration
	logger *zap.Logger
}

// NewBootstrapper creates a bootstrapper that waits delay before checking.
func NewBootstrapper(videos VideoCounter, lock Locker, client *Client, delay time.Duration, logger *zap.Logger) *Bootstrapper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bootstrapper{videos: videos, lock: lock, client: client, delay: delay, logger: logger}
}

// Run enqueues populate_initial_content when there are no videos and no
// other instance has done so. It returns the task id, or "" when nothing
// was enqueued.
func (b *Bootstrapper) Run(ctx context.Context) (string, error) {
	if b.delay > 0 {
		t := time.NewTimer(b.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-t.C:
		}
	}

	n, err := b.videos.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("count videos: %w", err)
	}
	if n > 0 {
		b.logger.Info("content present, skipping initial population", zap.Int("videos", n))
		return "", nil
	}
	won, err := b.lock.AcquireOnce(ctx, BootstrapKey, bootstrapTTL)
	if err != nil {
		return "", err
	}
	if !won {
		b.logger.Info("initial population already scheduled elsewhere")
		return "", nil
	}
	id, err := b.client.Populate(ctx)
	if err != nil {
		return "", fmt.Errorf("enqueue populate: %w", err)
	}
	b.logger.Info("initial population scheduled", zap.String("task_id", id))
	return id, nil
}
