package order

import (
	"time"

	"github.com/google/uuid"

	"courier-dispatch/internal/common"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready_for_pickup"
	StatusAssigned  Status = "assigned_to_driver"
	StatusInTransit Status = "in_transit"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusAssigned,
		StatusInTransit, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type DeliveryType string

const (
	TypeDelivery DeliveryType = "delivery"
	TypeDineIn   DeliveryType = "dine_in"
)

func (t DeliveryType) Valid() bool {
	return t == TypeDelivery || t == TypeDineIn
}

type Order struct {
	ID              uuid.UUID    `db:"id" json:"id"`
	CustomerID      string       `db:"customer_id" json:"customer_id"`
	DeliveryType    DeliveryType `db:"delivery_type" json:"delivery_type"`
	DeliveryAddress string       `db:"delivery_address" json:"delivery_address"`
	DeliveryLat     *float64     `db:"delivery_lat" json:"delivery_lat,omitempty"`
	DeliveryLng     *float64     `db:"delivery_lng" json:"delivery_lng,omitempty"`
	TotalCents      int64        `db:"total_cents" json:"total_cents"`
	Status          Status       `db:"status" json:"status"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
}

type PlaceOrderRequest struct {
	CustomerID      string           `json:"customer_id" binding:"required"`
	DeliveryType    DeliveryType     `json:"delivery_type" binding:"required"`
	DeliveryAddress string           `json:"delivery_address"`
	Coordinates     *common.Location `json:"coordinates,omitempty"`
	TotalCents      int64            `json:"total_cents" binding:"required"`
}

type OrderResponse struct {
	Order *Order `json:"order"`
}

type ListOrdersResponse struct {
	Orders []*Order `json:"orders"`
	Total  int      `json:"total"`
	Page   int      `json:"page"`
	Limit  int      `json:"limit"`
}
