package assignment

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"courier-dispatch/internal/common"
	domainerrors "courier-dispatch/internal/errors"
	"courier-dispatch/internal/geo"
	"courier-dispatch/internal/history"
	"courier-dispatch/internal/notify"
	"courier-dispatch/internal/order"
)

type Service interface {
	Create(ctx context.Context, orderID, driverID uuid.UUID, start, delivery common.Location) (*Assignment, error)
	Accept(ctx context.Context, assignmentID, driverID uuid.UUID) (*Assignment, error)
	Reject(ctx context.Context, assignmentID, driverID uuid.UUID) (*Assignment, error)
	Start(ctx context.Context, assignmentID, driverID uuid.UUID) (*Assignment, error)
	Complete(ctx context.Context, assignmentID, driverID uuid.UUID) (*Assignment, error)
	Cancel(ctx context.Context, assignmentID uuid.UUID, reason string) (*Assignment, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID, reason string) error

	GetByID(ctx context.Context, id uuid.UUID) (*Assignment, error)
	CurrentForDriver(ctx context.Context, driverID uuid.UUID) (*Assignment, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*Assignment, error)
}

type service struct {
	store    Store
	distance geo.DistanceProvider
	sink     notify.Sink
}

func NewService(store Store, distance geo.DistanceProvider, sink notify.Sink) Service {
	return &service{store: store, distance: distance, sink: sink}
}

// ----------------------------------------------------------------------------
// Create
// ----------------------------------------------------------------------------

// Create offers an order to a driver. The order must be ready for pickup and
// the driver must be free; both rows are locked so only one of several
// concurrent offers for the same order can win.
func (s *service) Create(ctx context.Context, orderID, driverID uuid.UUID, start, delivery common.Location) (*Assignment, error) {
	a := New(orderID, driverID, start, delivery)

	// The route estimate is advisory. Fetch it before the transaction so the
	// provider's latency never extends row-lock hold time, and keep the
	// fields nil if the provider is down.
	if s.distance != nil {
		est, err := s.distance.DistanceAndDuration(ctx, start, delivery)
		if err != nil {
			slog.WarnContext(ctx, "route estimate unavailable",
				slog.String("order_id", orderID.String()),
				slog.Any("error", err))
		} else {
			a.SetEstimate(est.DistanceKM, est.DurationMin)
		}
	}

	var o *order.Order
	err := s.store.Within(ctx, func(tx Tx) error {
		var err error
		o, err = tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := o.Assign(); err != nil {
			return err
		}
		if existing, err := tx.ActiveByOrder(ctx, orderID); err != nil {
			return err
		} else if existing != nil {
			return domainerrors.OrderAlreadyAssigned(orderID.String())
		}
		d, err := tx.DriverForUpdate(ctx, driverID)
		if err != nil {
			return err
		}
		if !d.IsAvailable() {
			return domainerrors.DriverUnavailable(driverID.String())
		}
		if err := tx.SaveOrder(ctx, o); err != nil {
			return err
		}
		if err := tx.Insert(ctx, a); err != nil {
			return err
		}
		return tx.AppendHistory(ctx, history.NewEntry(orderID, string(o.Status), &driverID, "assigned to driver"))
	})
	if err != nil {
		return nil, err
	}

	notify.Send(ctx, s.sink, o.CustomerID, o.ID, string(o.Status))
	return a, nil
}

// ----------------------------------------------------------------------------
// Accept
// ----------------------------------------------------------------------------

// Accept records the driver taking the offer and marks the driver busy. The
// order keeps its status, so no history entry is written.
func (s *service) Accept(ctx context.Context, assignmentID, driverID uuid.UUID) (*Assignment, error) {
	var a *Assignment
	err := s.store.Within(ctx, func(tx Tx) error {
		var err error
		a, err = tx.AssignmentForUpdate(ctx, assignmentID)
		if err != nil {
			return err
		}
		if a.DriverID != driverID {
			return domainerrors.NewForbidden("assignment belongs to another driver")
		}
		if err := a.Accept(); err != nil {
			return err
		}
		d, err := tx.DriverForUpdate(ctx, a.DriverID)
		if err != nil {
			return err
		}
		if err := d.Hold(a.OrderID); err != nil {
			return err
		}
		if err := tx.SaveDriver(ctx, d); err != nil {
			return err
		}
		return tx.Save(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ----------------------------------------------------------------------------
// Reject
// ----------------------------------------------------------------------------

// Reject declines a pending offer and returns the order to the ready pool.
// The driver row is untouched: a pending offer never held the driver.
func (s *service) Reject(ctx context.Context, assignmentID, driverID uuid.UUID) (*Assignment, error) {
	var (
		a *Assignment
		o *order.Order
	)
	err := s.store.Within(ctx, func(tx Tx) error {
		var err error
		a, err = tx.AssignmentForUpdate(ctx, assignmentID)
		if err != nil {
			return err
		}
		if a.DriverID != driverID {
			return domainerrors.NewForbidden("assignment belongs to another driver")
		}
		if err := a.Reject(); err != nil {
			return err
		}
		o, err = tx.OrderForUpdate(ctx, a.OrderID)
		if err != nil {
			return err
		}
		if err := o.Requeue(); err != nil {
			return err
		}
		if err := tx.SaveOrder(ctx, o); err != nil {
			return err
		}
		if err := tx.Save(ctx, a); err != nil {
			return err
		}
		return tx.AppendHistory(ctx, history.NewEntry(o.ID, string(o.Status), &driverID, "driver rejected assignment"))
	})
	if err != nil {
		return nil, err
	}

	notify.Send(ctx, s.sink, o.CustomerID, o.ID, string(o.Status))
	return a, nil
}

// ----------------------------------------------------------------------------
// Start
// ----------------------------------------------------------------------------

// Start marks pickup: the driver has the order and is en route.
func (s *service) Start(ctx context.Context, assignmentID, driverID uuid.UUID) (*Assignment, error) {
	var (
		a *Assignment
		o *order.Order
	)
	err := s.store.Within(ctx, func(tx Tx) error {
		var err error
		a, err = tx.AssignmentForUpdate(ctx, assignmentID)
		if err != nil {
			return err
		}
		if a.DriverID != driverID {
			return domainerrors.NewForbidden("assignment belongs to another driver")
		}
		if a.Status != StatusAccepted {
			return domainerrors.AssignmentInvalidTransition(string(a.Status), "start")
		}
		o, err = tx.OrderForUpdate(ctx, a.OrderID)
		if err != nil {
			return err
		}
		if err := o.StartTransit(); err != nil {
			return err
		}
		if err := tx.SaveOrder(ctx, o); err != nil {
			return err
		}
		return tx.AppendHistory(ctx, history.NewEntry(o.ID, string(o.Status), &driverID, "driver picked up order"))
	})
	if err != nil {
		return nil, err
	}

	notify.Send(ctx, s.sink, o.CustomerID, o.ID, string(o.Status))
	return a, nil
}

// ----------------------------------------------------------------------------
// Complete
// ----------------------------------------------------------------------------

// Complete closes the assignment, marks the order delivered and frees the
// driver for the next dispatch.
func (s *service) Complete(ctx context.Context, assignmentID, driverID uuid.UUID) (*Assignment, error) {
	var (
		a *Assignment
		o *order.Order
	)
	err := s.store.Within(ctx, func(tx Tx) error {
		var err error
		a, err = tx.AssignmentForUpdate(ctx, assignmentID)
		if err != nil {
			return err
		}
		if a.DriverID != driverID {
			return domainerrors.NewForbidden("assignment belongs to another driver")
		}
		if err := a.Complete(); err != nil {
			return err
		}
		o, err = tx.OrderForUpdate(ctx, a.OrderID)
		if err != nil {
			return err
		}
		if err := o.MarkDelivered(); err != nil {
			return err
		}
		d, err := tx.DriverForUpdate(ctx, a.DriverID)
		if err != nil {
			return err
		}
		d.Release()
		if err := tx.SaveDriver(ctx, d); err != nil {
			return err
		}
		if err := tx.SaveOrder(ctx, o); err != nil {
			return err
		}
		if err := tx.Save(ctx, a); err != nil {
			return err
		}
		return tx.AppendHistory(ctx, history.NewEntry(o.ID, string(o.Status), &driverID, "order delivered"))
	})
	if err != nil {
		return nil, err
	}

	notify.Send(ctx, s.sink, o.CustomerID, o.ID, string(o.Status))
	return a, nil
}

// ----------------------------------------------------------------------------
// Cancel
// ----------------------------------------------------------------------------

// Cancel voids an active assignment. The order goes back to the ready pool
// and is eligible for re-dispatch; if the driver had accepted, they are freed.
func (s *service) Cancel(ctx context.Context, assignmentID uuid.UUID, reason string) (*Assignment, error) {
	var (
		a *Assignment
		o *order.Order
	)
	err := s.store.Within(ctx, func(tx Tx) error {
		var err error
		a, err = tx.AssignmentForUpdate(ctx, assignmentID)
		if err != nil {
			return err
		}
		wasAccepted := a.Status == StatusAccepted
		if err := a.Cancel(reason); err != nil {
			return err
		}
		if wasAccepted {
			d, err := tx.DriverForUpdate(ctx, a.DriverID)
			if err != nil {
				return err
			}
			d.Release()
			if err := tx.SaveDriver(ctx, d); err != nil {
				return err
			}
		}
		o, err = tx.OrderForUpdate(ctx, a.OrderID)
		if err != nil {
			return err
		}
		if err := o.Requeue(); err != nil {
			return err
		}
		if err := tx.SaveOrder(ctx, o); err != nil {
			return err
		}
		if err := tx.Save(ctx, a); err != nil {
			return err
		}
		return tx.AppendHistory(ctx, history.NewEntry(o.ID, string(o.Status), &a.DriverID, "assignment cancelled: "+reason))
	})
	if err != nil {
		return nil, err
	}

	notify.Send(ctx, s.sink, o.CustomerID, o.ID, string(o.Status))
	return a, nil
}

// ----------------------------------------------------------------------------
// CancelOrder
// ----------------------------------------------------------------------------

// CancelOrder cancels an order from any non-terminal status. An active
// assignment, if present, is cancelled in the same transaction and its driver
// freed.
func (s *service) CancelOrder(ctx context.Context, orderID uuid.UUID, reason string) error {
	var o *order.Order
	err := s.store.Within(ctx, func(tx Tx) error {
		var err error
		o, err = tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		a, err := tx.ActiveByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		var driverID *uuid.UUID
		if a != nil {
			wasAccepted := a.Status == StatusAccepted
			if err := a.Cancel(reason); err != nil {
				return err
			}
			if wasAccepted {
				d, err := tx.DriverForUpdate(ctx, a.DriverID)
				if err != nil {
					return err
				}
				d.Release()
				if err := tx.SaveDriver(ctx, d); err != nil {
					return err
				}
			}
			if err := tx.Save(ctx, a); err != nil {
				return err
			}
			driverID = &a.DriverID
		}
		if err := o.Cancel(); err != nil {
			return err
		}
		if err := tx.SaveOrder(ctx, o); err != nil {
			return err
		}
		return tx.AppendHistory(ctx, history.NewEntry(o.ID, string(o.Status), driverID, reason))
	})
	if err != nil {
		return err
	}

	notify.Send(ctx, s.sink, o.CustomerID, o.ID, string(o.Status))
	return nil
}

// ----------------------------------------------------------------------------
// Reads
// ----------------------------------------------------------------------------

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*Assignment, error) {
	return s.store.GetByID(ctx, id)
}

// CurrentForDriver returns the driver's active assignment, or NOT_FOUND when
// the driver has none.
func (s *service) CurrentForDriver(ctx context.Context, driverID uuid.UUID) (*Assignment, error) {
	a, err := s.store.ActiveByDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, domainerrors.NewNotFound("active assignment", driverID.String())
	}
	return a, nil
}

func (s *service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*Assignment, error) {
	return s.store.ListByOrder(ctx, orderID)
}
