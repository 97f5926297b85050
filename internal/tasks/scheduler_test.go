package tasks

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidpulse/backend/config"
	"github.com/vidpulse/backend/internal/models"
	"github.com/vidpulse/backend/internal/testutil/memstore"
	"github.com/vidpulse/backend/pkg/queue"
)

func tasksConfig() config.TasksConfig {
	return config.TasksConfig{
		VideoGenerationEnabled: true, VideoGenerationSpec: "@every 30m",
		EngagementEnabled: true, EngagementSpec: "@every 5m",
		StatsEnabled: false, StatsSpec: "@every 1h",
		CleanupEnabled: true, CleanupSpec: "0 0 2 * * *",
	}
}

func TestSchedulerRegistersEnabledJobs(t *testing.T) {
	s := NewScheduler(NewClient(&fakeQueue{}), nil)
	require.NoError(t, s.Register(Registrations(tasksConfig(), 30)))
	assert.Equal(t, 3, s.Entries())
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	cfg := tasksConfig()
	cfg.EngagementSpec = "every five minutes"
	s := NewScheduler(NewClient(&fakeQueue{}), nil)
	err := s.Register(Registrations(cfg, 30))
	require.Error(t, err)
	assert.Contains(t, err.Error(), SimulateUserEngagement)
}

func TestSchedulerTickEnqueues(t *testing.T) {
	q := &fakeQueue{}
	s := NewScheduler(NewClient(q), nil)
	for _, reg := range Registrations(tasksConfig(), 12) {
		s.Tick(context.Background(), reg)
	}
	assert.Equal(t, []string{GenerateVideoContent, SimulateUserEngagement, GenerateEngagementStats, CleanupOldData}, q.names())
	assert.Equal(t, CleanupPayload{DaysOld: 12}, q.jobs[3].Payload)
	assert.Equal(t, 2, q.jobs[1].Opts.MaxRetries)
	assert.Equal(t, 0, q.jobs[3].Opts.MaxRetries)
}

type fakeLock struct {
	held bool
	err  error
}

func (l *fakeLock) AcquireOnce(context.Context, string, time.Duration) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func TestBootstrapEnqueuesOnce(t *testing.T) {
	db := memstore.New()
	q := &fakeQueue{}
	lock := &fakeLock{}
	b := NewBootstrapper(db.Videos(), lock, NewClient(q), 0, nil)

	id, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "task-"+PopulateInitialContent, id)

	id, err = b.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Equal(t, []string{PopulateInitialContent}, q.names())
}

func TestBootstrapSkipsWhenContentExists(t *testing.T) {
	db := memstore.New()
	require.NoError(t, db.Videos().Create(context.Background(), &models.Video{Title: "Intro", URL: "https://youtube.com/watch?v=abc"}))
	q := &fakeQueue{}
	b := NewBootstrapper(db.Videos(), &fakeLock{}, NewClient(q), 0, nil)

	id, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Empty(t, q.jobs)
}

func TestBootstrapLockError(t *testing.T) {
	b := NewBootstrapper(memstore.New().Videos(), &fakeLock{err: errors.New("redis down")}, NewClient(&fakeQueue{}), 0, nil)
	_, err := b.Run(context.Background())
	require.Error(t, err)
}

func TestBootstrapHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := NewBootstrapper(memstore.New().Videos(), &fakeLock{}, NewClient(&fakeQueue{}), time.Hour, nil)
	_, err := b.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPopulateHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	q := &fakeQueue{}
	r := gin.New()
	NewHandler(NewClient(q), q, nil).Register(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tasks/populate", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"task_id":"task-populate_initial_content"`)

	q.err = errors.New("redis down")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tasks/populate", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDeadLettersHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	q := &fakeQueue{dead: []queue.Job{{ID: "j1", Name: GenerateVideoContent, Attempt: 3, MaxRetries: 3}}}
	r := gin.New()
	NewHandler(NewClient(q), q, nil).Register(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tasks/dead-letters", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"j1"`)
}
