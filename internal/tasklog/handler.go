package tasklog

import (
	"github.com/gin-gonic/gin"

	"github.com/vidpulse/backend/internal/models"
	"github.com/vidpulse/backend/pkg/response"
)

// Handler exposes task logs to operators.
type Handler struct {
	svc *Service
}

// NewHandler creates a task log handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the task log routes.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/tasks/logs", h.List)
	r.GET("/tasks/logs/:task_id", h.Get)
}

// List handles GET /tasks/logs?status=&task_name=.
func (h *Handler) List(c *gin.Context) {
	f := models.TaskLogFilter{Status: models.TaskStatus(c.Query("status")), TaskName: c.Query("task_name")}
	if f.Status != "" && !f.Status.Valid() {
		response.BadRequest(c, map[string]string{"status": "Select a valid choice."})
		return
	}
	page, ok := response.ParsePage(c)
	if !ok {
		response.NotFound(c, "Invalid page.")
		return
	}
	list, total, err := h.svc.List(c.Request.Context(), f, page.Size, page.Offset())
	if err != nil {
		response.Error(c, err)
		return
	}
	if !page.InRange(total) {
		response.NotFound(c, "Invalid page.")
		return
	}
	response.Paginated(c, page, total, list)
}

// Get handles GET /tasks/logs/:task_id.
func (h *Handler) Get(c *gin.Context) {
	l, err := h.svc.Get(c.Request.Context(), c.Param("task_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, l)
}
