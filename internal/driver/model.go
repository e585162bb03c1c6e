package driver

import (
	"time"

	"github.com/google/uuid"

	"courier-dispatch/internal/common"
	domainerrors "courier-dispatch/internal/errors"
)

func New(name, phone string) *Driver {
	now := time.Now()
	return &Driver{
		ID:        uuid.New(),
		Name:      name,
		Phone:     phone,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsAvailable is derived, never stored: an active driver with no held order.
func (d *Driver) IsAvailable() bool {
	return d.IsActive && d.CurrentOrderID == nil
}

// Location returns the last known position, or nil if the driver has never
// sent a heartbeat.
func (d *Driver) Location() *common.Location {
	if d.Latitude == nil || d.Longitude == nil {
		return nil
	}
	loc := common.NewLocation(*d.Latitude, *d.Longitude)
	return &loc
}

// Hold occupies the driver's slot with an order. Called only when the driver
// accepts an assignment.
func (d *Driver) Hold(orderID uuid.UUID) error {
	if !d.IsActive {
		return domainerrors.DriverUnavailable(d.ID.String())
	}
	if d.CurrentOrderID != nil {
		return domainerrors.DriverUnavailable(d.ID.String())
	}
	d.CurrentOrderID = &orderID
	d.UpdatedAt = time.Now()
	return nil
}

// Release frees the driver's slot after a completed or cancelled delivery.
func (d *Driver) Release() {
	d.CurrentOrderID = nil
	d.UpdatedAt = time.Now()
}

func (d *Driver) UpdateLocation(lat, lng float64) {
	d.Latitude = &lat
	d.Longitude = &lng
	now := time.Now()
	d.LastSeen = &now
	d.UpdatedAt = now
}

func (d *Driver) SetActive(active bool) error {
	if !active && d.CurrentOrderID != nil {
		return domainerrors.NewConflict("driver is holding an order and cannot be deactivated")
	}
	d.IsActive = active
	d.UpdatedAt = time.Now()
	return nil
}
