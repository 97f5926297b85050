// Package worker pulls jobs off the queue and hands them to the dispatcher.
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vidpulse/backend/internal/tasks"
	"github.com/vidpulse/backend/pkg/queue"
)

// ErrorBackoff is how long a loop waits after a queue error.
const ErrorBackoff = 2 * time.Second

// Source yields jobs. *queue.Queue implements it.
type Source interface {
	PromoteDue(ctx context.Context) (int, error)
	Dequeue(ctx context.Context) (*queue.Job, error)
}

// Executor runs one job. *tasks.Dispatcher implements it.
type Executor interface {
	Execute(ctx context.Context, job *queue.Job) tasks.Outcome
}

// Processor runs a fixed number of job loops.
type Processor struct {
	source      Source
	exec        Executor
	concurrency int
	backoff     time.Duration
	logger      *zap.Logger
}

// NewProcessor creates a job processor.
func NewProcessor(source Source, exec Executor, concurrency int, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Processor{source: source, exec: exec, concurrency: concurrency, backoff: ErrorBackoff, logger: logger}
}

// Run starts the loops and blocks until ctx is done and every in-flight job
// has returned.
func (p *Processor) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < p.concurrency; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			p.loop(ctx, p.logger.With(zap.Int("loop", n)))
		}(i)
	}
	wg.Wait()
	p.logger.Info("job worker stopping")
}

func (p *Processor) loop(ctx context.Context, log *zap.Logger) {
	for ctx.Err() == nil {
		if _, err := p.source.PromoteDue(ctx); err != nil && ctx.Err() == nil {
			log.Warn("promote delayed jobs failed", zap.Error(err))
		}

		job, err := p.source.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		log.Debug("processing job", zap.String("job_id", job.ID), zap.String("name", job.Name), zap.Int("attempt", job.Attempt))
		out := p.exec.Execute(ctx, job)
		log.Debug("job finished", zap.String("job_id", job.ID), zap.String("status", string(out.Status)))
	}
}

func (p *Processor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
