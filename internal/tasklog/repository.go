package tasklog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidpulse/backend/internal/apperror"
	"github.com/vidpulse/backend/internal/models"
)

// Store is the persistence contract for task logs.
type Store interface {
	Create(ctx context.Context, l *models.TaskLog) error
	GetByTaskID(ctx context.Context, taskID string) (*models.TaskLog, error)
	Update(ctx context.Context, l *models.TaskLog) error
	List(ctx context.Context, f models.TaskLogFilter, limit, offset int) ([]models.TaskLog, error)
	Count(ctx context.Context, f models.TaskLogFilter) (int, error)
}

const selectColumns = `id, task_name, task_id, status, result, error_message, args, kwargs, started_at, completed_at, duration_seconds`

// filterClause matches $1 status and $2 task name, either of which may be empty.
const filterClause = `WHERE ($1 = '' OR status = $1) AND ($2 = '' OR task_name = $2)`

// Repository handles task log persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a task log repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanLog(row pgx.Row) (*models.TaskLog, error) {
	var l models.TaskLog
	var status string
	err := row.Scan(&l.ID, &l.TaskName, &l.TaskID, &status, &l.Result, &l.ErrorMessage,
		&l.Args, &l.Kwargs, &l.StartedAt, &l.CompletedAt, &l.DurationSeconds)
	if err != nil {
		return nil, err
	}
	l.Status = models.TaskStatus(status)
	return &l, nil
}

// nullJSON stores empty raw JSON as SQL NULL.
func nullJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// Create inserts a new task log.
func (r *Repository) Create(ctx context.Context, l *models.TaskLog) error {
	const query = `INSERT INTO task_logs (task_name, task_id, status, args, kwargs, started_at)
		VALUES ($1, $2, $3, $4::jsonb, $5::jsonb, $6)
		RETURNING id`
	err := r.pool.QueryRow(ctx, query, l.TaskName, l.TaskID, string(l.Status),
		nullJSON(l.Args), nullJSON(l.Kwargs), l.StartedAt).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("create task log %s: %w", l.TaskID, err)
	}
	return nil
}

// GetByTaskID returns the log for a task id.
func (r *Repository) GetByTaskID(ctx context.Context, taskID string) (*models.TaskLog, error) {
	l, err := scanLog(r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM task_logs WHERE task_id = $1`, taskID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("Task log not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("get task log %s: %w", taskID, err)
	}
	return l, nil
}

// Update saves the status transition fields of l.
func (r *Repository) Update(ctx context.Context, l *models.TaskLog) error {
	const query = `UPDATE task_logs SET status = $2, result = $3::jsonb, error_message = $4,
		completed_at = $5, duration_seconds = $6
		WHERE task_id = $1`
	tag, err := r.pool.Exec(ctx, query, l.TaskID, string(l.Status), nullJSON(l.Result), l.ErrorMessage,
		l.CompletedAt, l.DurationSeconds)
	if err != nil {
		return fmt.Errorf("update task log %s: %w", l.TaskID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("Task log not found.")
	}
	return nil
}

// List returns one page of task logs, most recently started first.
func (r *Repository) List(ctx context.Context, f models.TaskLogFilter, limit, offset int) ([]models.TaskLog, error) {
	query := `SELECT ` + selectColumns + ` FROM task_logs ` + filterClause + ` ORDER BY started_at DESC, id DESC LIMIT $3 OFFSET $4`
	rows, err := r.pool.Query(ctx, query, string(f.Status), f.TaskName, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list task logs: %w", err)
	}
	defer rows.Close()
	list := []models.TaskLog{}
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *l)
	}
	return list, rows.Err()
}

// Count returns the number of task logs matching f.
func (r *Repository) Count(ctx context.Context, f models.TaskLogFilter) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM task_logs `+filterClause, string(f.Status), f.TaskName).Scan(&n)
	return n, err
}
