package comments

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vidpulse/backend/internal/apperror"
	"github.com/vidpulse/backend/internal/models"
	"github.com/vidpulse/backend/pkg/response"
)

// CreateRequest is the body for POST /comments.
type CreateRequest struct {
	Video   int64  `json:"video" binding:"required"`
	Author  string `json:"author" binding:"required,max=100"`
	Content string `json:"content" binding:"required"`
}

// ReplaceRequest is the body for PUT /comments/:id.
type ReplaceRequest struct {
	Author  string `json:"author" binding:"required,max=100"`
	Content string `json:"content" binding:"required"`
}

// Handler handles comment HTTP routes.
type Handler struct {
	svc *Service
}

// NewHandler creates a comments handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the comment routes.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/comments", h.List)
	r.POST("/comments", h.Create)
	r.GET("/comments/:id", h.Get)
	r.PUT("/comments/:id", h.Replace)
	r.PATCH("/comments/:id", h.Patch)
	r.DELETE("/comments/:id", h.Delete)
	r.POST("/comments/:id/like", h.Like)
}

// List handles GET /comments with an optional ?video= filter.
func (h *Handler) List(c *gin.Context) {
	var videoID *int64
	if raw := c.Query("video"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.BadRequest(c, map[string]string{"video": "Select a valid choice."})
			return
		}
		videoID = &id
	}
	page, ok := response.ParsePage(c)
	if !ok {
		response.NotFound(c, "Invalid page.")
		return
	}
	ctx := c.Request.Context()
	total, err := h.svc.Count(ctx, videoID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !page.InRange(total) {
		response.NotFound(c, "Invalid page.")
		return
	}
	list, err := h.svc.List(ctx, videoID, page.Size, page.Offset())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, page, total, list)
}

// Create handles POST /comments.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.FromValidator(err))
		return
	}
	cm := &models.Comment{VideoID: req.Video, Author: req.Author, Content: req.Content}
	if err := h.svc.Create(c.Request.Context(), cm); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cm)
}

// Get handles GET /comments/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := response.PathID(c, "id")
	if !ok {
		return
	}
	cm, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cm)
}

// Replace handles PUT /comments/:id.
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
	h.save(c, id, models.CommentPatch{Author: &req.Author, Content: &req.Content})
}

// Patch handles PATCH /comments/:id.
func (h *Handler) Patch(c *gin.Context) {
	id, ok := response.PathID(c, "id")
	if !ok {
		return
	}
	var patch models.CommentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, apperror.FromValidator(err))
		return
	}
	h.save(c, id, patch)
}

func (h *Handler) save(c *gin.Context, id int64, patch models.CommentPatch) {
	cm, err := h.svc.Patch(c.Request.Context(), id, patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cm)
}

// Delete handles DELETE /comments/:id.
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

// Like handles POST /comments/:id/like.
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
