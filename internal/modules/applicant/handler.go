package applicant

import (
	"context"
	"net/http"
	"strconv"

	"gigmarket/internal/domain"
	"gigmarket/internal/middleware"
	"gigmarket/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/orders/:id/applicants", middleware.RequireRole(domain.RoleWorker), h.Create)
	rg.GET("/orders/:id/applicants", middleware.RequireRole(domain.RoleCustomer), h.ListForOrder)

	applicants := rg.Group("/applicants")
	{
		applicants.GET("/my", middleware.RequireRole(domain.RoleWorker), h.ListMine)
		applicants.POST("/:id/accept", middleware.RequireRole(domain.RoleCustomer), h.Accept)
		applicants.POST("/:id/reject", middleware.RequireRole(domain.RoleCustomer), h.Reject)
		applicants.POST("/:id/cancel", middleware.RequireRole(domain.RoleWorker), h.Cancel)
	}
}

func (h *Handler) Create(c *gin.Context) {
	orderID, ok := parseID(c)
	if !ok {
		return
	}
	var req CreateApplicantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	a, err := h.service.Create(c.Request.Context(), middleware.ActorFrom(c), orderID, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"applicant": a})
}

// ListForOrder returns the customer's view; ?raw=true includes every status.
func (h *Handler) ListForOrder(c *gin.Context) {
	orderID, ok := parseID(c)
	if !ok {
		return
	}
	var q ListApplicantsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}

	actor := middleware.ActorFrom(c)
	var (
		list []domain.Applicant
		err  error
	)
	if q.Raw {
		list, err = h.service.ListForOrder(c.Request.Context(), actor, orderID)
	} else {
		list, err = h.service.ListFilteredForOrder(c.Request.Context(), actor, orderID)
	}
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"applicants": list})
}

func (h *Handler) ListMine(c *gin.Context) {
	var q ListMineQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}
	list, err := h.service.ListMine(c.Request.Context(), middleware.ActorFrom(c), q)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"applicants": list})
}

func (h *Handler) Accept(c *gin.Context) {
	h.transition(c, h.service.Accept)
}

func (h *Handler) Reject(c *gin.Context) {
	h.transition(c, h.service.Reject)
}

func (h *Handler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

type transitionFunc func(ctx context.Context, actor domain.Actor, id int64) (*domain.Applicant, error)

func (h *Handler) transition(c *gin.Context, fn transitionFunc) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	a, err := fn(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"applicant": a})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid id")
		return 0, false
	}
	return id, true
}
