package assignment

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"courier-dispatch/internal/pkg/apperrors"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func driverID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString("sub"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": "invalid driver id in token"}})
		return uuid.Nil, false
	}
	return id, true
}

func assignmentID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": "invalid assignment id"}})
		return uuid.Nil, false
	}
	return id, true
}

// -------------------------------------------------------------------------------------------------
// Current returns the caller's active assignment.
func (h *Handler) Current(c *gin.Context) {
	did, ok := driverID(c)
	if !ok {
		return
	}

	a, err := h.service.CurrentForDriver(c.Request.Context(), did)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}
	c.JSON(http.StatusOK, AssignmentResponse{Assignment: a})
}

// -------------------------------------------------------------------------------------------------
func (h *Handler) Accept(c *gin.Context) {
	h.transition(c, h.service.Accept)
}

func (h *Handler) Reject(c *gin.Context) {
	h.transition(c, h.service.Reject)
}

func (h *Handler) Start(c *gin.Context) {
	h.transition(c, h.service.Start)
}

func (h *Handler) Complete(c *gin.Context) {
	h.transition(c, h.service.Complete)
}

func (h *Handler) transition(c *gin.Context, fn func(ctx context.Context, assignmentID, driverID uuid.UUID) (*Assignment, error)) {
	aid, ok := assignmentID(c)
	if !ok {
		return
	}
	did, ok := driverID(c)
	if !ok {
		return
	}

	a, err := fn(c.Request.Context(), aid, did)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}
	c.JSON(http.StatusOK, AssignmentResponse{Assignment: a})
}
