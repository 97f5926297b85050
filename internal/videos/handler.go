package videos

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/vidpulse/backend/internal/apperror"
	"github.com/vidpulse/backend/internal/models"
	"github.com/vidpulse/backend/pkg/response"
)

// CommentLister loads the comments embedded in a video detail.
type CommentLister interface {
	ListByVideo(ctx context.Context, videoID int64) ([]models.Comment, error)
}

// CreateRequest is the body for POST /videos.
type CreateRequest struct {
	Title        string `json:"title" binding:"required,max=200"`
	Description  string `json:"description"`
	URL          string `json:"url" binding:"required,url"`
	ThumbnailURL string `json:"thumbnail_url" binding:"omitempty,url"`
	Duration     int    `json:"duration" binding:"gte=0"`
}

// ReplaceRequest is the body for PUT /videos/:id.
type ReplaceRequest struct {
	Title        string  `json:"title" binding:"required,max=200"`
	Description  *string `json:"description" binding:"required"`
	URL          string  `json:"url" binding:"required,url"`
	ThumbnailURL *string `json:"thumbnail_url" binding:"omitempty,url"`
	Duration     *int    `json:"duration" binding:"omitempty,gte=0"`
}

// Handler handles video HTTP routes.
type Handler struct {
	svc      *Service
	comments CommentLister
}

// NewHandler creates a videos handler.
func NewHandler(svc *Service, comments CommentLister) *Handler {
	return &Handler{svc: svc, comments: comments}
}

// Register mounts the video routes.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/videos", h.List)
	r.POST("/videos", h.Create)
	r.GET("/videos/:id", h.Get)
	r.PUT("/videos/:id", h.Replace)
	r.PATCH("/videos/:id", h.Patch)
	r.DELETE("/videos/:id", h.Delete)
	r.POST("/videos/:id/increment_views", h.IncrementViews)
	r.POST("/videos/:id/like", h.Like)
}

// List handles GET /videos.
func (h *Handler) List(c *gin.Context) {
	page, ok := response.ParsePage(c)
	if !ok {
		response.NotFound(c, "Invalid page.")
		return
	}
	ctx := c.Request.Context()
	total, err := h.svc.Count(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !page.InRange(total) {
		response.NotFound(c, "Invalid page.")
		return
	}
	list, err := h.svc.List(ctx, page.Size, page.Offset())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, page, total, list)
}

// Create handles POST /videos.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.FromValidator(err))
		return
	}
	v := &models.Video{
		Title:        req.Title,
		Description:  req.Description,
		URL:          req.URL,
		ThumbnailURL: req.ThumbnailURL,
		Duration:     req.Duration,
	}
	if err := h.svc.Create(c.Request.Context(), v); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, v)
}

// Get handles GET /videos/:id and embeds the comments.
func (h *Handler) Get(c *gin.Context) {
	id, ok := response.PathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	v, err := h.svc.GetByID(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	list, err := h.comments.ListByVideo(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, models.VideoDetail{Video: *v, Comments: list})
}

// Replace handles PUT /videos/:id.
func (h *Handler) Replace(c *gin.Context) {
	id, ok := response.PathID(c, "id")
	if !ok {
		return
	}
	var req ReplaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.FromValidator(err))
		return
	}
	h.save(c, id, models.VideoPatch{
		Title:        &req.Title,
		Description:  req.Description,
		URL:          &req.URL,
		ThumbnailURL: req.ThumbnailURL,
		Duration:     req.Duration,
	})
}

// Patch handles PATCH /videos/:id.
func (h *Handler) Patch(c *gin.Context) {
	id, ok := response.PathID(c, "id")
	if !ok {
		return
	}
	var patch models.VideoPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, apperror.FromValidator(err))
		return
	}
	h.save(c, id, patch)
}

func (h *Handler) save(c *gin.Context, id int64, patch models.VideoPatch) {
	v, err := h.svc.Patch(c.Request.Context(), id, patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, v)
}

// Delete handles DELETE /videos/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := response.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// IncrementViews handles POST /videos/:id/increment_views.
func (h *Handler) IncrementViews(c *gin.Context) {
	id, ok := response.PathID(c, "id")
	if !ok {
		return
	}
	n, err := h.svc.IncrementViews(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"view_count": n})
}

// Like handles POST /videos/:id/like.
func (h *Handler) Like(c *gin.Context) {
	id, ok := response.PathID(c, "id")
	if !ok {
		return
	}
	n, err := h.svc.IncrementLikes(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"like_count": n})
}
