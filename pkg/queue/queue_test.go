package queue

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestQueue connects to TEST_REDIS_ADDR and flushes the selected database.
func newTestQueue(t *testing.T) (*Queue, *redis.Client) {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	ctx := context.Background()
	require.NoError(t, rdb.Ping(ctx).Err())
	require.NoError(t, rdb.FlushDB(ctx).Err())
	t.Cleanup(func() {
		rdb.FlushDB(context.Background())
		rdb.Close()
	})
	return NewQueue(rdb, nil).WithPollTimeout(100 * time.Millisecond), rdb
}

func TestEnqueueDequeue(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, "generate_comments_for_video", map[string]int{"video_id": 7}, EnqueueOptions{MaxRetries: 3})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	job, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, id, job.ID)
	assert.Equal(t, "generate_comments_for_video", job.Name)
	assert.Equal(t, 3, job.MaxRetries)
	assert.JSONEq(t, `{"video_id":7}`, string(job.Payload))

	job, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestDequeueDropsMalformedEnvelope(t *testing.T) {
	q, rdb := newTestQueue(t)
	ctx := context.Background()
	require.NoError(t, rdb.RPush(ctx, QueueJobs, "not json").Err())

	job, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestRetryDelaysThenPromotes(t *testing.T) {
	q, rdb := newTestQueue(t)
	ctx := context.Background()
	now := time.Now()
	q.now = func() time.Time { return now }

	job := &Job{ID: "abc", Name: "simulate_user_engagement", Payload: json.RawMessage(`{}`), MaxRetries: 2}
	require.NoError(t, q.Retry(ctx, job, time.Minute))
	assert.Equal(t, 0, job.Attempt, "caller's job is not mutated")

	n, err := q.PromoteDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	q.now = func() time.Time { return now.Add(2 * time.Minute) }
	n, err = q.PromoteDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Zero(t, rdb.ZCard(ctx, QueueDelayed).Val())

	got, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "abc", got.ID)
	assert.Equal(t, 1, got.Attempt)
}

func TestRetryExhaustedMovesToDLQ(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	job := &Job{ID: "dead", Name: "generate_video_content", Attempt: 3, MaxRetries: 3}
	err := q.Retry(ctx, job, time.Second)
	assert.ErrorIs(t, err, ErrRetriesExhausted)

	dead, err := q.DeadLetters(ctx, 10)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, "dead", dead[0].ID)
}

func TestEnqueueWithDelay(t *testing.T) {
	q, rdb := newTestQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, "cleanup_old_data", nil, EnqueueOptions{Delay: time.Hour})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rdb.ZCard(ctx, QueueDelayed).Val())
	assert.Zero(t, rdb.LLen(ctx, QueueJobs).Val())
}
