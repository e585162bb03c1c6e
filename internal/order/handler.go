package order

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"courier-dispatch/internal/pkg/apperrors"
)

// OrderCanceller is a local interface so the handler doesn't import the
// assignment package (avoiding circular deps). Cancelling an order must also
// cancel its active assignment, which only the assignment manager can do.
type OrderCanceller interface {
	CancelOrder(ctx context.Context, orderID uuid.UUID, reason string) error
}

type Handler struct {
	service   Service
	canceller OrderCanceller
}

func NewHandler(service Service, canceller OrderCanceller) *Handler {
	return &Handler{service: service, canceller: canceller}
}

// -------------------------------------------------------------------------------------------------
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": err.Error()}})
		return
	}

	o, err := h.service.PlaceOrder(c.Request.Context(), req)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}
	c.JSON(http.StatusCreated, OrderResponse{Order: o})
}

// -------------------------------------------------------------------------------------------------
func (h *Handler) MarkPreparing(c *gin.Context) {
	h.simpleTransition(c, h.service.MarkPreparing)
}

// -------------------------------------------------------------------------------------------------
func (h *Handler) MarkReady(c *gin.Context) {
	h.simpleTransition(c, h.service.MarkReady)
}

func (h *Handler) simpleTransition(c *gin.Context, fn func(context.Context, uuid.UUID) (*Order, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": "invalid order id"}})
		return
	}

	o, err := fn(c.Request.Context(), id)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}
	c.JSON(http.StatusOK, OrderResponse{Order: o})
}

// -------------------------------------------------------------------------------------------------
func (h *Handler) GetOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": "invalid order id"}})
		return
	}

	o, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}
	c.JSON(http.StatusOK, OrderResponse{Order: o})
}

// -------------------------------------------------------------------------------------------------
func (h *Handler) GetHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": "invalid order id"}})
		return
	}

	entries, err := h.service.History(c.Request.Context(), id)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": id, "history": entries})
}

// -------------------------------------------------------------------------------------------------
func (h *Handler) CancelOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": "invalid order id"}})
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = "cancelled by admin"
	}

	if err := h.canceller.CancelOrder(c.Request.Context(), id, req.Reason); err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order cancelled"})
}

// -------------------------------------------------------------------------------------------------
func (h *Handler) ListOrders(c *gin.Context) {
	var status *Status
	if raw := c.Query("status"); raw != "" {
		s := Status(raw)
		if !s.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": "invalid status filter"}})
			return
		}
		status = &s
	}

	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)

	orders, total, err := h.service.ListAll(c.Request.Context(), status, page, limit)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListOrdersResponse{Orders: orders, Total: total, Page: page, Limit: limit})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
