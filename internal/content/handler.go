package content

import (
	"github.com/gin-gonic/gin"

	"github.com/vidpulse/backend/pkg/response"
)

// Handler serves live platform statistics.
type Handler struct {
	sim *Simulator
}

// NewHandler creates a statistics handler.
func NewHandler(sim *Simulator) *Handler {
	return &Handler{sim: sim}
}

// Register mounts the statistics route.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/stats", h.Stats)
}

// Stats handles GET /stats.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.sim.Statistics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}
