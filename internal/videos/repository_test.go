package videos

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidpulse/backend/internal/apperror"
	"github.com/vidpulse/backend/internal/models"
	"github.com/vidpulse/backend/pkg/database"
)

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, dsn, nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE comments, videos RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func newVideo() *models.Video {
	slug := uuid.NewString()[:11]
	return &models.Video{Title: "Integration " + slug, URL: "https://youtube.com/watch?v=" + slug}
}

func TestRepositoryConcurrentIncrements(t *testing.T) {
	pool := newTestPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	v := newVideo()
	require.NoError(t, repo.Create(ctx, v))

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.IncrementViews(ctx, v.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got.ViewCount)
}

func TestRepositoryDeleteCascadesComments(t *testing.T) {
	pool := newTestPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	v := newVideo()
	require.NoError(t, repo.Create(ctx, v))
	for i := 0; i < 3; i++ {
		_, err := pool.Exec(ctx, `INSERT INTO comments (video_id, author, content) VALUES ($1, $2, 'hi')`, v.ID, fmt.Sprintf("user%d", i))
		require.NoError(t, err)
	}

	require.NoError(t, repo.Delete(ctx, v.ID))
	var left int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE video_id = $1`, v.ID).Scan(&left))
	assert.Zero(t, left)

	_, err := repo.GetByID(ctx, v.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestRepositoryUniqueURL(t *testing.T) {
	pool := newTestPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	v := newVideo()
	require.NoError(t, repo.Create(ctx, v))
	dup := &models.Video{Title: "dup", URL: v.URL}
	assert.ErrorIs(t, repo.Create(ctx, dup), apperror.ErrValidation)
}

func TestRepositoryStatsAndRanking(t *testing.T) {
	pool := newTestPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	empty, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalVideos)
	assert.Nil(t, empty.AvgViews)
	assert.Nil(t, empty.MaxViews)

	base := time.Now().Add(-time.Hour)
	var ids []int64
	for i := 0; i < 3; i++ {
		v := newVideo()
		v.ViewCount = (i + 1) * 100
		v.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, v))
		ids = append(ids, v.ID)
	}
	_, err = pool.Exec(ctx, `INSERT INTO comments (video_id, author, content) VALUES ($1, 'a', 'x'), ($1, 'b', 'y')`, ids[0])
	require.NoError(t, err)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalVideos)
	require.NotNil(t, stats.AvgViews)
	assert.InDelta(t, 200.0, *stats.AvgViews, 0.001)
	assert.Equal(t, 300, *stats.MaxViews)

	top, err := repo.MostCommented(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, ids[0], top[0].ID)
	assert.Equal(t, 2, top[0].CommentCount)
	assert.Equal(t, ids[2], top[1].ID, "ties broken by newest first")
}

func TestRepositoryDeleteCreatedBefore(t *testing.T) {
	pool := newTestPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	old := newVideo()
	old.CreatedAt = time.Now().AddDate(0, 0, -40)
	require.NoError(t, repo.Create(ctx, old))
	fresh := newVideo()
	require.NoError(t, repo.Create(ctx, fresh))

	n, err := repo.DeleteCreatedBefore(ctx, time.Now().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.GetByID(ctx, fresh.ID)
	assert.NoError(t, err)
}
