package textgen

import (
	"github.com/gin-gonic/gin"

	"github.com/vidpulse/backend/internal/apperror"
	"github.com/vidpulse/backend/pkg/response"
)

// GenerateRequest is the body for POST /videos/:id/generate-comments.
type GenerateRequest struct {
	Count  int      `json:"count"`
	Tones  []string `json:"tones"`
	Author string   `json:"author"`
}

// Handler exposes on-demand comment generation.
type Handler struct {
	gen *Generator
}

// NewHandler creates a generation handler.
func NewHandler(gen *Generator) *Handler {
	return &Handler{gen: gen}
}

// Register mounts the generation route.
func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/videos/:id/generate-comments", h.Generate)
}

// Generate handles POST /videos/:id/generate-comments: writes count comments and saves them.
func (h *Handler) Generate(c *gin.Context) {
	id, ok := response.PathID(c, "id")
	if !ok {
		return
	}
	req := GenerateRequest{Count: 1}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, apperror.FromValidator(err))
			return
		}
	}
	saved, err := h.gen.GenerateAndSave(c.Request.Context(), id, req.Author, req.Count, req.Tones)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"video_id": id, "comments": saved})
}
