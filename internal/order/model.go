package order

import (
	"time"

	"github.com/google/uuid"

	"courier-dispatch/internal/common"
	domainerrors "courier-dispatch/internal/errors"
)

func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func NewOrder(customerID string, deliveryType DeliveryType, address string, totalCents int64) *Order {
	now := time.Now()
	return &Order{
		ID:              uuid.New(),
		CustomerID:      customerID,
		DeliveryType:    deliveryType,
		DeliveryAddress: address,
		TotalCents:      totalCents,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// DeliveryLocation returns the resolved delivery coordinates, or nil if the
// address has not been geocoded yet.
func (o *Order) DeliveryLocation() *common.Location {
	if o.DeliveryLat == nil || o.DeliveryLng == nil {
		return nil
	}
	loc := common.NewLocation(*o.DeliveryLat, *o.DeliveryLng)
	return &loc
}

func (o *Order) SetDeliveryLocation(loc common.Location) {
	o.DeliveryLat = &loc.Lat
	o.DeliveryLng = &loc.Lng
	o.UpdatedAt = time.Now()
}

func (o *Order) MarkPreparing() error {
	if o.Status != StatusPending {
		return domainerrors.OrderInvalidTransition(string(o.Status), string(StatusPreparing))
	}
	o.Status = StatusPreparing
	o.UpdatedAt = time.Now()
	return nil
}

func (o *Order) MarkReady() error {
	if o.Status != StatusPreparing {
		return domainerrors.OrderInvalidTransition(string(o.Status), string(StatusReady))
	}
	o.Status = StatusReady
	o.UpdatedAt = time.Now()
	return nil
}

// Assign moves the order to assigned_to_driver. Only the assignment manager
// calls this, as a side effect of creating an assignment.
func (o *Order) Assign() error {
	if o.Status != StatusReady {
		if o.Status == StatusAssigned {
			return domainerrors.OrderAlreadyAssigned(o.ID.String())
		}
		return domainerrors.OrderNotReady(o.ID.String(), string(o.Status))
	}
	o.Status = StatusAssigned
	o.UpdatedAt = time.Now()
	return nil
}

// Requeue returns the order to ready_for_pickup after a rejected or cancelled
// assignment, so it re-enters the dispatch pool.
func (o *Order) Requeue() error {
	if o.Status != StatusAssigned && o.Status != StatusInTransit {
		return domainerrors.OrderInvalidTransition(string(o.Status), string(StatusReady))
	}
	o.Status = StatusReady
	o.UpdatedAt = time.Now()
	return nil
}

func (o *Order) StartTransit() error {
	if o.Status != StatusAssigned {
		return domainerrors.OrderInvalidTransition(string(o.Status), string(StatusInTransit))
	}
	o.Status = StatusInTransit
	o.UpdatedAt = time.Now()
	return nil
}

func (o *Order) MarkDelivered() error {
	if o.Status != StatusInTransit {
		return domainerrors.OrderInvalidTransition(string(o.Status), string(StatusDelivered))
	}
	o.Status = StatusDelivered
	o.UpdatedAt = time.Now()
	return nil
}

// Cancel is valid from any non-terminal status.
func (o *Order) Cancel() error {
	if o.Status.IsTerminal() {
		return domainerrors.OrderInvalidTransition(string(o.Status), string(StatusCancelled))
	}
	o.Status = StatusCancelled
	o.UpdatedAt = time.Now()
	return nil
}
