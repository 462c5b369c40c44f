package reminder

import (
	"net/http"

	"gigmarket/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	sweeper *Sweeper
}

func NewHandler(sweeper *Sweeper) *Handler {
	return &Handler{sweeper: sweeper}
}

// RegisterRoutes mounts the internal trigger. The group must be guarded by
// the internal token middleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/reminders/sweep", h.Sweep)
}

func (h *Handler) Sweep(c *gin.Context) {
	res, ran, err := h.sweeper.SweepOnce(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"ran":    ran,
		"result": res,
	})
}
