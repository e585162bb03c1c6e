package assignment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusCompleted || s == StatusCancelled
}

// IsActive reports whether the assignment still binds its order and driver.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusAccepted
}

type Assignment struct {
	ID                   uuid.UUID  `db:"id" json:"id"`
	OrderID              uuid.UUID  `db:"order_id" json:"order_id"`
	DriverID             uuid.UUID  `db:"driver_id" json:"driver_id"`
	Status               Status     `db:"status" json:"status"`
	StartLat             float64    `db:"start_lat" json:"start_lat"`
	StartLng             float64    `db:"start_lng" json:"start_lng"`
	DeliveryLat          float64    `db:"delivery_lat" json:"delivery_lat"`
	DeliveryLng          float64    `db:"delivery_lng" json:"delivery_lng"`
	EstimatedDistanceKM  *float64   `db:"estimated_distance_km" json:"estimated_distance_km,omitempty"`
	EstimatedDurationMin *float64   `db:"estimated_duration_min" json:"estimated_duration_min,omitempty"`
	AssignedAt           time.Time  `db:"assigned_at" json:"assigned_at"`
	AcceptedAt           *time.Time `db:"accepted_at" json:"accepted_at,omitempty"`
	CompletedAt          *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CancelReason         *string    `db:"cancel_reason" json:"cancel_reason,omitempty"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

type CreateAssignmentRequest struct {
	OrderID  uuid.UUID `json:"order_id" binding:"required"`
	DriverID uuid.UUID `json:"driver_id" binding:"required"`
}

type AssignmentResponse struct {
	Assignment *Assignment `json:"assignment"`
}
