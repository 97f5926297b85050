package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// QueueJobs is the Redis list key for jobs ready to run.
	QueueJobs = "worker:jobs"
	// QueueDelayed is the sorted set of jobs waiting for their retry time, scored by unix millis.
	QueueDelayed = "worker:delayed"
	// QueueDLQ is the dead-letter queue for jobs that used up their retries.
	QueueDLQ = "worker:dlq"
	// DefaultPollTimeout bounds how long Dequeue blocks so the loop can observe shutdown.
	DefaultPollTimeout = 2 * time.Second
	// promoteBatch caps how many due jobs one PromoteDue call moves.
	promoteBatch = 100
)

// ErrRetriesExhausted is returned by Retry after the job was moved to the dead-letter queue.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Job is a generic job envelope. ID doubles as the task id recorded in task logs.
type Job struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Payload    json.RawMessage `json:"payload"`
	Attempt    int             `json:"attempt"`
	MaxRetries int             `json:"max_retries"`
	CreatedAt  time.Time       `json:"created_at"`
}

// EnqueueOptions control a single enqueue.
type EnqueueOptions struct {
	MaxRetries int
	Delay      time.Duration
}

// Queue enqueues and dequeues jobs via Redis.
type Queue struct {
	client      *redis.Client
	logger      *zap.Logger
	pollTimeout time.Duration
	now         func() time.Time
}

// NewQueue creates a new Redis-backed job queue.
func NewQueue(client *redis.Client, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger, pollTimeout: DefaultPollTimeout, now: time.Now}
}

// WithPollTimeout sets how long Dequeue blocks waiting for a job.
func (q *Queue) WithPollTimeout(d time.Duration) *Queue {
	if d > 0 {
		q.pollTimeout = d
	}
	return q
}

// Enqueue submits a named job and returns its task id.
func (q *Queue) Enqueue(ctx context.Context, name string, payload interface{}, opts EnqueueOptions) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	job := Job{
		ID:         uuid.New().String(),
		Name:       name,
		Payload:    body,
		Attempt:    0,
		MaxRetries: opts.MaxRetries,
		CreatedAt:  q.now().UTC(),
	}
	if opts.Delay > 0 {
		err = q.schedule(ctx, &job, opts.Delay)
	} else {
		err = q.push(ctx, QueueJobs, &job)
	}
	if err != nil {
		return "", err
	}
	q.logger.Debug("enqueued job", zap.String("job_id", job.ID), zap.String("name", name))
	return job.ID, nil
}

// Dequeue blocks up to the poll timeout for a ready job. It returns nil, nil when
// nothing arrived or the envelope was malformed.
func (q *Queue) Dequeue(ctx context.Context) (*Job, error) {
	result, err := q.client.BLPop(ctx, q.pollTimeout, QueueJobs).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, nil
	}
	return &job, nil
}

// PromoteDue moves delayed jobs whose time has come onto the ready list.
// ZREM decides ownership, so concurrent workers never promote the same job twice.
func (q *Queue) PromoteDue(ctx context.Context) (int, error) {
	max := strconv.FormatInt(q.now().UnixMilli(), 10)
	due, err := q.client.ZRangeByScore(ctx, QueueDelayed, &redis.ZRangeBy{
		Min: "-inf", Max: max, Offset: 0, Count: promoteBatch,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("zrangebyscore: %w", err)
	}
	promoted := 0
	for _, raw := range due {
		removed, err := q.client.ZRem(ctx, QueueDelayed, raw).Result()
		if err != nil {
			return promoted, fmt.Errorf("zrem: %w", err)
		}
		if removed == 0 {
			continue
		}
		if err := q.client.RPush(ctx, QueueJobs, raw).Err(); err != nil {
			return promoted, fmt.Errorf("rpush: %w", err)
		}
		promoted++
	}
	return promoted, nil
}

// Retry schedules the job again after delay with an incremented attempt.
// Once attempt reaches MaxRetries the job goes to the DLQ and ErrRetriesExhausted is returned.
func (q *Queue) Retry(ctx context.Context, job *Job, delay time.Duration) error {
	if job.Attempt >= job.MaxRetries {
		if err := q.push(ctx, QueueDLQ, job); err != nil {
			q.logger.Error("dlq push failed", zap.Error(err), zap.String("job_id", job.ID))
			return err
		}
		q.logger.Warn("job moved to DLQ", zap.String("job_id", job.ID), zap.String("name", job.Name), zap.Int("attempt", job.Attempt))
		return ErrRetriesExhausted
	}
	next := *job
	next.Attempt++
	if err := q.schedule(ctx, &next, delay); err != nil {
		return err
	}
	q.logger.Info("job retried", zap.String("job_id", job.ID), zap.Int("attempt", next.Attempt), zap.Duration("delay", delay))
	return nil
}

// DeadLetters returns up to limit jobs from the DLQ, oldest first.
func (q *Queue) DeadLetters(ctx context.Context, limit int64) ([]Job, error) {
	raws, err := q.client.LRange(ctx, QueueDLQ, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange: %w", err)
	}
	jobs := make([]Job, 0, len(raws))
	for _, raw := range raws {
		var job Job
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (q *Queue) push(ctx context.Context, key string, job *Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, key, raw).Err(); err != nil {
		return fmt.Errorf("rpush: %w", err)
	}
	return nil
}

func (q *Queue) schedule(ctx context.Context, job *Job, delay time.Duration) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	due := q.now().Add(delay).UnixMilli()
	if err := q.client.ZAdd(ctx, QueueDelayed, redis.Z{Score: float64(due), Member: raw}).Err(); err != nil {
		return fmt.Errorf("zadd: %w", err)
	}
	return nil
}
