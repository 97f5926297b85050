package tasklog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidpulse/backend/internal/models"
	"github.com/vidpulse/backend/internal/testutil/memstore"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newService(t *testing.T) (*Service, *memstore.TaskLogs, *memstore.DB, *clock) {
	t.Helper()
	db := memstore.New()
	store := db.TaskLogs()
	svc := NewService(store, nil)
	clk := &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	svc.now = clk.now
	return svc, store, db, clk
}

func TestLogStartStoresPending(t *testing.T) {
	svc, store, _, _ := newService(t)
	ctx := context.Background()

	l, err := svc.LogStart(ctx, "generate_comments_for_video", "t-1", []interface{}{int64(4), 5}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.TaskPending, l.Status)

	got, err := store.GetByTaskID(ctx, "t-1")
	require.NoError(t, err)
	assert.JSONEq(t, `[4,5]`, string(got.Args))
	assert.Nil(t, got.Kwargs)
	assert.Nil(t, got.CompletedAt)
	assert.Nil(t, got.DurationSeconds)
}

func TestLogSuccessRecordsDuration(t *testing.T) {
	svc, store, _, clk := newService(t)
	ctx := context.Background()

	_, err := svc.LogStart(ctx, "generate_video_content", "t-2", nil, map[string]interface{}{"days_old": 30})
	require.NoError(t, err)
	clk.t = clk.t.Add(1500 * time.Millisecond)
	svc.LogSuccess(ctx, "t-2", map[string]interface{}{"video_id": 9})

	got, err := store.GetByTaskID(ctx, "t-2")
	require.NoError(t, err)
	assert.Equal(t, models.TaskSuccess, got.Status)
	assert.JSONEq(t, `{"video_id":9}`, string(got.Result))
	assert.JSONEq(t, `{"days_old":30}`, string(got.Kwargs))
	require.NotNil(t, got.CompletedAt)
	require.NotNil(t, got.DurationSeconds)
	assert.InDelta(t, 1.5, *got.DurationSeconds, 1e-9)
	assert.False(t, got.CompletedAt.Before(got.StartedAt))
}

func TestLogFailureAndRetry(t *testing.T) {
	svc, store, _, clk := newService(t)
	ctx := context.Background()

	_, err := svc.LogStart(ctx, "simulate_user_engagement", "t-3", nil, nil)
	require.NoError(t, err)

	svc.LogRetry(ctx, "t-3", "db unavailable")
	got, err := store.GetByTaskID(ctx, "t-3")
	require.NoError(t, err)
	assert.Equal(t, models.TaskRetry, got.Status)
	assert.Equal(t, "db unavailable", got.ErrorMessage)
	assert.Nil(t, got.CompletedAt, "retry leaves completion untouched")
	assert.Nil(t, got.DurationSeconds)

	clk.t = clk.t.Add(3 * time.Second)
	svc.LogFailure(ctx, "t-3", "gave up")
	got, err = store.GetByTaskID(ctx, "t-3")
	require.NoError(t, err)
	assert.Equal(t, models.TaskFailure, got.Status)
	assert.Equal(t, "gave up", got.ErrorMessage)
	require.NotNil(t, got.DurationSeconds)
	assert.InDelta(t, 3.0, *got.DurationSeconds, 1e-9)
}

func TestTransitionsOnUnknownTaskAreNoOps(t *testing.T) {
	svc, store, _, _ := newService(t)
	ctx := context.Background()

	svc.LogSuccess(ctx, "missing", "result")
	svc.LogFailure(ctx, "missing", "boom")
	svc.LogRetry(ctx, "missing", "again")

	assert.Zero(t, store.Len())
}

func TestStoreErrorsAreSwallowed(t *testing.T) {
	svc, store, db, _ := newService(t)
	ctx := context.Background()

	_, err := svc.LogStart(ctx, "cleanup_old_data", "t-4", nil, nil)
	require.NoError(t, err)

	db.TaskLogErr = errors.New("connection refused")
	assert.NotPanics(t, func() { svc.LogSuccess(ctx, "t-4", nil) })

	db.TaskLogErr = nil
	got, err := store.GetByTaskID(ctx, "t-4")
	require.NoError(t, err)
	assert.Equal(t, models.TaskPending, got.Status)
}

func TestUnserializableResultStoredAsNull(t *testing.T) {
	svc, store, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.LogStart(ctx, "generate_engagement_stats", "t-5", nil, nil)
	require.NoError(t, err)
	svc.LogSuccess(ctx, "t-5", make(chan int))

	got, err := store.GetByTaskID(ctx, "t-5")
	require.NoError(t, err)
	assert.Equal(t, models.TaskSuccess, got.Status)
	assert.Nil(t, got.Result)
}

func TestListFiltersAndOrders(t *testing.T) {
	svc, _, _, clk := newService(t)
	ctx := context.Background()

	for i, name := range []string{"a", "b", "a"} {
		clk.t = clk.t.Add(time.Minute)
		_, err := svc.LogStart(ctx, name, string(rune('x'+i)), nil, nil)
		require.NoError(t, err)
	}
	svc.LogSuccess(ctx, "z", nil)

	list, total, err := svc.List(ctx, models.TaskLogFilter{TaskName: "a"}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "z", list[0].TaskID, "newest first")

	_, total, err = svc.List(ctx, models.TaskLogFilter{Status: models.TaskSuccess}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}
