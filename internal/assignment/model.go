package assignment

import (
	"time"

	"github.com/google/uuid"

	"courier-dispatch/internal/common"
	domainerrors "courier-dispatch/internal/errors"
)

func New(orderID, driverID uuid.UUID, start, delivery common.Location) *Assignment {
	now := time.Now()
	return &Assignment{
		ID:          uuid.New(),
		OrderID:     orderID,
		DriverID:    driverID,
		Status:      StatusPending,
		StartLat:    start.Lat,
		StartLng:    start.Lng,
		DeliveryLat: delivery.Lat,
		DeliveryLng: delivery.Lng,
		AssignedAt:  now,
		UpdatedAt:   now,
	}
}

func (a *Assignment) StartLocation() common.Location {
	return common.NewLocation(a.StartLat, a.StartLng)
}

func (a *Assignment) DeliveryLocation() common.Location {
	return common.NewLocation(a.DeliveryLat, a.DeliveryLng)
}

func (a *Assignment) SetEstimate(distanceKM, durationMin float64) {
	a.EstimatedDistanceKM = &distanceKM
	a.EstimatedDurationMin = &durationMin
}

// Accept resolves a pending assignment in the driver's favor.
func (a *Assignment) Accept() error {
	if a.Status != StatusPending {
		return domainerrors.AssignmentAlreadyResolved(a.ID.String(), string(a.Status))
	}
	now := time.Now()
	a.Status = StatusAccepted
	a.AcceptedAt = &now
	a.UpdatedAt = now
	return nil
}

// Reject resolves a pending assignment against the driver. A rejected
// assignment never held the driver's slot.
func (a *Assignment) Reject() error {
	if a.Status != StatusPending {
		return domainerrors.AssignmentAlreadyResolved(a.ID.String(), string(a.Status))
	}
	a.Status = StatusRejected
	a.UpdatedAt = time.Now()
	return nil
}

// Complete closes an accepted assignment after delivery.
func (a *Assignment) Complete() error {
	if a.Status != StatusAccepted {
		if a.Status.IsTerminal() {
			return domainerrors.AssignmentAlreadyResolved(a.ID.String(), string(a.Status))
		}
		return domainerrors.AssignmentInvalidTransition(string(a.Status), string(StatusCompleted))
	}
	now := time.Now()
	a.Status = StatusCompleted
	a.CompletedAt = &now
	a.UpdatedAt = now
	return nil
}

// Cancel is the admin compensation path, valid while the assignment is active.
func (a *Assignment) Cancel(reason string) error {
	if !a.Status.IsActive() {
		return domainerrors.AssignmentAlreadyResolved(a.ID.String(), string(a.Status))
	}
	a.Status = StatusCancelled
	if reason != "" {
		a.CancelReason = &reason
	}
	a.UpdatedAt = time.Now()
	return nil
}
