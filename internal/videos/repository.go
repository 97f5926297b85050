package videos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidpulse/backend/internal/apperror"
	"github.com/vidpulse/backend/internal/models"
	"github.com/vidpulse/backend/pkg/database"
)

// Store is the persistence contract for videos. *Repository implements it against Postgres.
type Store interface {
	Create(ctx context.Context, v *models.Video) error
	GetByID(ctx context.Context, id int64) (*models.Video, error)
	List(ctx context.Context, limit, offset int) ([]models.Video, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, v *models.Video) error
	Delete(ctx context.Context, id int64) error
	IncrementViews(ctx context.Context, id int64) (int, error)
	IncrementLikes(ctx context.Context, id int64) (int, error)
	Sample(ctx context.Context, n int) ([]models.Video, error)
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Stats(ctx context.Context) (models.VideoStats, error)
	MostCommented(ctx context.Context, limit int) ([]models.CommentedVideo, error)
}

const selectColumns = `v.id, v.title, v.description, v.url, v.thumbnail_url, v.duration,
	v.view_count, v.like_count,
	(SELECT COUNT(*) FROM comments c WHERE c.video_id = v.id) AS comments_count,
	v.created_at, v.updated_at`

// Repository handles video persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a videos repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanVideo(row pgx.Row) (*models.Video, error) {
	var v models.Video
	err := row.Scan(&v.ID, &v.Title, &v.Description, &v.URL, &v.ThumbnailURL, &v.Duration,
		&v.ViewCount, &v.LikeCount, &v.CommentsCount, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func collect(rows pgx.Rows) ([]models.Video, error) {
	defer rows.Close()
	list := []models.Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *v)
	}
	return list, rows.Err()
}

func mapWriteError(err error, v *models.Video) error {
	code, _ := database.PgErrorCode(err)
	switch code {
	case database.CodeUniqueViolation:
		return apperror.Validation("video with this url already exists.", map[string]string{"url": "video with this url already exists."})
	case database.CodeCheckViolation:
		return apperror.Validation("counters must not be negative.", nil)
	}
	return fmt.Errorf("write video %q: %w", v.URL, err)
}

// Create inserts a new video. A zero CreatedAt defaults to now.
func (r *Repository) Create(ctx context.Context, v *models.Video) error {
	const query = `INSERT INTO videos (title, description, url, thumbnail_url, duration, view_count, like_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()), COALESCE($8, now()))
		RETURNING id, created_at, updated_at`
	var createdAt *time.Time
	if !v.CreatedAt.IsZero() {
		createdAt = &v.CreatedAt
	}
	err := r.pool.QueryRow(ctx, query, v.Title, v.Description, v.URL, v.ThumbnailURL, v.Duration,
		v.ViewCount, v.LikeCount, createdAt).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return mapWriteError(err, v)
	}
	return nil
}

// GetByID returns a video by ID with its comment count.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Video, error) {
	query := `SELECT ` + selectColumns + ` FROM videos v WHERE v.id = $1`
	v, err := scanVideo(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("Video not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("get video %d: %w", id, err)
	}
	return v, nil
}

// List returns one page of videos, newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]models.Video, error) {
	query := `SELECT ` + selectColumns + ` FROM videos v ORDER BY v.created_at DESC, v.id DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return collect(rows)
}

// Count returns the number of videos.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM videos`).Scan(&n)
	return n, err
}

// Update saves the mutable fields of v.
func (r *Repository) Update(ctx context.Context, v *models.Video) error {
	const query = `UPDATE videos SET title = $2, description = $3, url = $4, thumbnail_url = $5, duration = $6, updated_at = now()
		WHERE id = $1 RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query, v.ID, v.Title, v.Description, v.URL, v.ThumbnailURL, v.Duration).Scan(&v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NotFound("Video not found.")
	}
	if err != nil {
		return mapWriteError(err, v)
	}
	return nil
}

// Delete removes a video; its comments go with it.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("Video not found.")
	}
	return nil
}

func (r *Repository) increment(ctx context.Context, id int64, column string) (int, error) {
	query := `UPDATE videos SET ` + column + ` = ` + column + ` + 1, updated_at = now() WHERE id = $1 RETURNING ` + column
	var n int
	err := r.pool.QueryRow(ctx, query, id).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperror.NotFound("Video not found.")
	}
	if err != nil {
		return 0, fmt.Errorf("increment %s on video %d: %w", column, id, err)
	}
	return n, nil
}

// IncrementViews adds one view in a single atomic statement and returns the new count.
func (r *Repository) IncrementViews(ctx context.Context, id int64) (int, error) {
	return r.increment(ctx, id, "view_count")
}

// IncrementLikes adds one like in a single atomic statement and returns the new count.
func (r *Repository) IncrementLikes(ctx context.Context, id int64) (int, error) {
	return r.increment(ctx, id, "like_count")
}

// Sample returns up to n distinct videos chosen at random.
func (r *Repository) Sample(ctx context.Context, n int) ([]models.Video, error) {
	query := `SELECT ` + selectColumns + ` FROM videos v ORDER BY random() LIMIT $1`
	rows, err := r.pool.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("sample videos: %w", err)
	}
	return collect(rows)
}

// DeleteCreatedBefore removes videos created before cutoff and returns how many were deleted.
func (r *Repository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM videos WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old videos: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Stats aggregates view and like counters over all videos.
func (r *Repository) Stats(ctx context.Context) (models.VideoStats, error) {
	const query = `SELECT COUNT(*), AVG(view_count)::float8, AVG(like_count)::float8, MAX(view_count), MAX(like_count) FROM videos`
	var s models.VideoStats
	err := r.pool.QueryRow(ctx, query).Scan(&s.TotalVideos, &s.AvgViews, &s.AvgLikes, &s.MaxViews, &s.MaxLikes)
	if err != nil {
		return s, fmt.Errorf("video stats: %w", err)
	}
	return s, nil
}

// MostCommented returns the top videos by comment count. Ties go to the newer video.
func (r *Repository) MostCommented(ctx context.Context, limit int) ([]models.CommentedVideo, error) {
	const query = `SELECT v.id, v.title, v.view_count, v.like_count, COUNT(c.id) AS comment_count, v.created_at
		FROM videos v LEFT JOIN comments c ON c.video_id = v.id
		GROUP BY v.id
		ORDER BY comment_count DESC, v.created_at DESC, v.id DESC
		LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("most commented: %w", err)
	}
	defer rows.Close()
	list := []models.CommentedVideo{}
	for rows.Next() {
		var cv models.CommentedVideo
		if err := rows.Scan(&cv.ID, &cv.Title, &cv.ViewCount, &cv.LikeCount, &cv.CommentCount, &cv.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, cv)
	}
	return list, rows.Err()
}
