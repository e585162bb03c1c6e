package driver

import (
	"time"

	"github.com/google/uuid"
)

type Driver struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	Phone          string     `db:"phone" json:"phone"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	Latitude       *float64   `db:"latitude" json:"latitude,omitempty"`
	Longitude      *float64   `db:"longitude" json:"longitude,omitempty"`
	CurrentOrderID *uuid.UUID `db:"current_order_id" json:"current_order_id,omitempty"`
	Rating         *float64   `db:"rating" json:"rating,omitempty"`
	LastSeen       *time.Time `db:"last_seen" json:"last_seen,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

type RegisterDriverRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
}

type HeartbeatRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

type HeartbeatResponse struct {
	DriverID       uuid.UUID  `json:"driver_id"`
	Available      bool       `json:"available"`
	CurrentOrderID *uuid.UUID `json:"current_order_id,omitempty"`
}
