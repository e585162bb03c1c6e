package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"courier-dispatch/internal/assignment"
	"courier-dispatch/internal/order"
	"courier-dispatch/internal/pkg/apperrors"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ListOrders(c *gin.Context) {
	page, limit := parsePagination(c)

	var statusPtr *order.Status
	if s := c.Query("status"); s != "" {
		st := order.Status(s)
		statusPtr = &st
	}

	orders, total, err := h.service.ListOrders(c.Request.Context(), statusPtr, page, limit)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": total, "page": page, "limit": limit})
}

func (h *Handler) ListDrivers(c *gin.Context) {
	page, limit := parsePagination(c)

	drivers, total, err := h.service.ListDrivers(c.Request.Context(), page, limit)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"drivers": drivers, "total": total, "page": page, "limit": limit})
}

func (h *Handler) CancelOrder(c *gin.Context) {
	id, ok := pathID(c, "invalid order id")
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = "cancelled by admin"
	}

	if err := h.service.CancelOrder(c.Request.Context(), id, req.Reason); err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": id, "status": order.StatusCancelled})
}

func (h *Handler) CancelAssignment(c *gin.Context) {
	id, ok := pathID(c, "invalid assignment id")
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = "cancelled by admin"
	}

	a, err := h.service.CancelAssignment(c.Request.Context(), id, req.Reason)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}
	c.JSON(http.StatusOK, assignment.AssignmentResponse{Assignment: a})
}

func (h *Handler) ManualAssign(c *gin.Context) {
	var req assignment.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": err.Error()}})
		return
	}

	a, err := h.service.ManualAssign(c.Request.Context(), req.OrderID, req.DriverID)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}
	c.JSON(http.StatusCreated, assignment.AssignmentResponse{Assignment: a})
}

func (h *Handler) OrderAssignments(c *gin.Context) {
	id, ok := pathID(c, "invalid order id")
	if !ok {
		return
	}

	list, err := h.service.OrderAssignments(c.Request.Context(), id)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": list})
}

func pathID(c *gin.Context, msg string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": msg}})
		return uuid.Nil, false
	}
	return id, true
}

func parsePagination(c *gin.Context) (int, int) {
	page := 1
	limit := 20
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if l := c.Query("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	return page, limit
}
