package driver

import (
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

// driverID reads the authenticated driver's id from the jwt subject claim.
func driverID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString("sub"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": "invalid driver id in token"}})
		return uuid.Nil, false
	}
	return id, true
}

// -------------------------------------------------------------------------------------------------
func (h *Handler) Heartbeat(c *gin.Context) {
	id, ok := driverID(c)
	if !ok {
		return
	}

	var req HeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": err.Error()}})
		return
	}

	d, err := h.service.Heartbeat(c.Request.Context(), id, *req.Latitude, *req.Longitude)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}

	c.JSON(http.StatusOK, HeartbeatResponse{
		DriverID:       d.ID,
		Available:      d.IsAvailable(),
		CurrentOrderID: d.CurrentOrderID,
	})
}

// -------------------------------------------------------------------------------------------------
func (h *Handler) RegisterDriver(c *gin.Context) {
	var req RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": err.Error()}})
		return
	}

	d, err := h.service.Register(c.Request.Context(), req.Name, req.Phone)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"driver": d})
}

// -------------------------------------------------------------------------------------------------
func (h *Handler) SetActive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": "invalid driver id"}})
		return
	}

	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": err.Error()}})
		return
	}

	d, err := h.service.SetActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"driver": d})
}
