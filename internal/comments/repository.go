package comments

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

// Store is the persistence contract for comments. *Repository implements it against Postgres.
type Store interface {
	Create(ctx context.Context, c *models.Comment) error
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
	List(ctx context.Context, videoID *int64, limit, offset int) ([]models.Comment, error)
	Count(ctx context.Context, videoID *int64) (int, error)
	ListByVideo(ctx context.Context, videoID int64) ([]models.Comment, error)
	Update(ctx context.Context, c *models.Comment) error
	Delete(ctx context.Context, id int64) error
	IncrementLikes(ctx context.Context, id int64) (int, error)
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Stats(ctx context.Context) (models.CommentStats, error)
}

const selectColumns = `id, video_id, author, content, like_count, created_at, updated_at`

// Repository handles comment persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a comments repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanComment(row pgx.Row) (*models.Comment, error) {
	var c models.Comment
	if err := row.Scan(&c.ID, &c.VideoID, &c.Author, &c.Content, &c.LikeCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func collect(rows pgx.Rows) ([]models.Comment, error) {
	defer rows.Close()
	list := []models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *c)
	}
	return list, rows.Err()
}

// Create inserts a new comment. A zero CreatedAt defaults to now.
func (r *Repository) Create(ctx context.Context, c *models.Comment) error {
	const query = `INSERT INTO comments (video_id, author, content, like_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()), COALESCE($5, now()))
		RETURNING id, created_at, updated_at`
	var createdAt *time.Time
	if !c.CreatedAt.IsZero() {
		createdAt = &c.CreatedAt
	}
	err := r.pool.QueryRow(ctx, query, c.VideoID, c.Author, c.Content, c.LikeCount, createdAt).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if code, _ := database.PgErrorCode(err); code == database.CodeForeignKeyViolation {
			return apperror.NotFound("Video not found.")
		}
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// GetByID returns a comment by ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	c, err := scanComment(r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM comments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("Comment not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("get comment %d: %w", id, err)
	}
	return c, nil
}

// List returns one page of comments, newest first, optionally for a single video.
func (r *Repository) List(ctx context.Context, videoID *int64, limit, offset int) ([]models.Comment, error) {
	query := `SELECT ` + selectColumns + ` FROM comments
		WHERE ($1::bigint IS NULL OR video_id = $1)
		ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, videoID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return collect(rows)
}

// Count returns the number of comments, optionally for a single video.
func (r *Repository) Count(ctx context.Context, videoID *int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE ($1::bigint IS NULL OR video_id = $1)`, videoID).Scan(&n)
	return n, err
}

// ListByVideo returns every comment of a video, newest first.
func (r *Repository) ListByVideo(ctx context.Context, videoID int64) ([]models.Comment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectColumns+` FROM comments WHERE video_id = $1 ORDER BY created_at DESC, id DESC`, videoID)
	if err != nil {
		return nil, fmt.Errorf("list comments for video %d: %w", videoID, err)
	}
	return collect(rows)
}

// Update saves the author and content of c.
func (r *Repository) Update(ctx context.Context, c *models.Comment) error {
	const query = `UPDATE comments SET author = $2, content = $3, updated_at = now() WHERE id = $1 RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query, c.ID, c.Author, c.Content).Scan(&c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NotFound("Comment not found.")
	}
	if err != nil {
		return fmt.Errorf("update comment %d: %w", c.ID, err)
	}
	return nil
}

// Delete removes a comment.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("Comment not found.")
	}
	return nil
}

// IncrementLikes adds one like in a single atomic statement and returns the new count.
func (r *Repository) IncrementLikes(ctx context.Context, id int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `UPDATE comments SET like_count = like_count + 1, updated_at = now() WHERE id = $1 RETURNING like_count`, id).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperror.NotFound("Comment not found.")
	}
	if err != nil {
		return 0, fmt.Errorf("increment likes on comment %d: %w", id, err)
	}
	return n, nil
}

// DeleteCreatedBefore removes comments created before cutoff and returns how many were deleted.
func (r *Repository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old comments: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Stats aggregates like counters over all comments.
func (r *Repository) Stats(ctx context.Context) (models.CommentStats, error) {
	var s models.CommentStats
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*), AVG(like_count)::float8 FROM comments`).Scan(&s.TotalComments, &s.AvgLikes)
	if err != nil {
		return s, fmt.Errorf("comment stats: %w", err)
	}
	return s, nil
}
