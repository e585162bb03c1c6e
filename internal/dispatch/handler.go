package dispatch

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"courier-dispatch/internal/assignment"
	"courier-dispatch/internal/common"
	"courier-dispatch/internal/pkg/apperrors"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type nearestDriverRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// -------------------------------------------------------------------------------------------------
func (h *Handler) NearestDriver(c *gin.Context) {
	var req nearestDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": err.Error()}})
		return
	}

	d, dist, err := h.service.FindNearestDriver(c.Request.Context(), common.Location{Lat: *req.Latitude, Lng: *req.Longitude})
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}
	if d == nil {
		c.JSON(http.StatusOK, gin.H{"driver": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"driver": d, "distance_km": dist})
}

// -------------------------------------------------------------------------------------------------
func (h *Handler) AutoAssign(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": "invalid order id"}})
		return
	}

	a, err := h.service.AutoAssign(c.Request.Context(), orderID)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}
	c.JSON(http.StatusCreated, assignment.AssignmentResponse{Assignment: a})
}
