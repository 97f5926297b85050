package tasks

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vidpulse/backend/pkg/queue"
	"github.com/vidpulse/backend/pkg/response"
)

// Enqueuer submits jobs. *queue.Queue implements it.
type Enqueuer interface {
	Enqueue(ctx context.Context, name string, payload interface{}, opts queue.EnqueueOptions) (string, error)
}

// Client enqueues jobs with their retry policy attached.
type Client struct {
	q Enqueuer
}

// NewClient creates a task client.
func NewClient(q Enqueuer) *Client {
	return &Client{q: q}
}

// Enqueue submits a named job and returns its task id.
func (c *Client) Enqueue(ctx context.Context, name string, payload interface{}) (string, error) {
	return c.q.Enqueue(ctx, name, payload, queue.EnqueueOptions{MaxRetries: PolicyFor(name).MaxRetries})
}

// GenerateComments enqueues comment generation for a video.
func (c *Client) GenerateComments(ctx context.Context, videoID int64, count int) (string, error) {
	return c.Enqueue(ctx, GenerateCommentsForVideo, CommentsPayload{VideoID: videoID, CommentCount: count})
}

// Populate enqueues the initial population job.
func (c *Client) Populate(ctx context.Context) (string, error) {
	return c.Enqueue(ctx, PopulateInitialContent, struct{}{})
}

// DeadLetterReader lists jobs that used up their retries. *queue.Queue implements it.
type DeadLetterReader interface {
	DeadLetters(ctx context.Context, limit int64) ([]queue.Job, error)
}

const deadLetterLimit = 100

// Handler exposes the manual population trigger and the dead-letter list.
type Handler struct {
	client *Client
	dlq    DeadLetterReader
	logger *zap.Logger
}

// NewHandler creates a task handler.
func NewHandler(client *Client, dlq DeadLetterReader, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{client: client, dlq: dlq, logger: logger}
}

// Register mounts the task routes.
func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/tasks/populate", h.Populate)
	r.GET("/tasks/dead-letters", h.DeadLetters)
}

// Populate handles POST /tasks/populate.
func (h *Handler) Populate(c *gin.Context) {
	id, err := h.client.Populate(c.Request.Context())
	if err != nil {
		h.logger.Error("enqueue populate failed", zap.Error(err))
		response.ServiceUnavailable(c, "job queue unavailable")
		return
	}
	response.Accepted(c, gin.H{"task_id": id, "task_name": PopulateInitialContent})
}

// DeadLetters handles GET /tasks/dead-letters.
func (h *Handler) DeadLetters(c *gin.Context) {
	jobs, err := h.dlq.DeadLetters(c.Request.Context(), deadLetterLimit)
	if err != nil {
		h.logger.Error("read dead letters failed", zap.Error(err))
		response.ServiceUnavailable(c, "job queue unavailable")
		return
	}
	response.OK(c, jobs)
}
