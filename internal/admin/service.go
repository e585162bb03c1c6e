package admin

import (
	"context"

	"github.com/google/uuid"

	"courier-dispatch/internal/assignment"
	"courier-dispatch/internal/common"
	"courier-dispatch/internal/driver"
	domainerrors "courier-dispatch/internal/errors"
	"courier-dispatch/internal/order"
)

type Service interface {
	ListOrders(ctx context.Context, status *order.Status, page, limit int) ([]*order.Order, int, error)
	ListDrivers(ctx context.Context, page, limit int) ([]*driver.Driver, int, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID, reason string) error
	CancelAssignment(ctx context.Context, assignmentID uuid.UUID, reason string) (*assignment.Assignment, error)
	ManualAssign(ctx context.Context, orderID, driverID uuid.UUID) (*assignment.Assignment, error)
	OrderAssignments(ctx context.Context, orderID uuid.UUID) ([]*assignment.Assignment, error)
}

type service struct {
	orders      order.Service
	drivers     driver.Service
	assignments assignment.Service
	origin      common.Location
}

func NewService(orders order.Service, drivers driver.Service, assignments assignment.Service, origin common.Location) Service {
	return &service{orders: orders, drivers: drivers, assignments: assignments, origin: origin}
}

func (s *service) ListOrders(ctx context.Context, status *order.Status, page, limit int) ([]*order.Order, int, error) {
	return s.orders.ListAll(ctx, status, page, limit)
}

func (s *service) ListDrivers(ctx context.Context, page, limit int) ([]*driver.Driver, int, error) {
	return s.drivers.ListAll(ctx, page, limit)
}

func (s *service) CancelOrder(ctx context.Context, orderID uuid.UUID, reason string) error {
	return s.assignments.CancelOrder(ctx, orderID, reason)
}

func (s *service) CancelAssignment(ctx context.Context, assignmentID uuid.UUID, reason string) (*assignment.Assignment, error) {
	return s.assignments.Cancel(ctx, assignmentID, reason)
}

// ManualAssign offers an order to a specific driver, bypassing the nearest
// scan. The order must already carry resolved delivery coordinates; auto
// assignment is the path that geocodes.
func (s *service) ManualAssign(ctx context.Context, orderID, driverID uuid.UUID) (*assignment.Assignment, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	dest := o.DeliveryLocation()
	if dest == nil {
		return nil, domainerrors.NewValidation("order has no delivery coordinates, use auto-assign to geocode")
	}
	return s.assignments.Create(ctx, orderID, driverID, s.origin, *dest)
}

func (s *service) OrderAssignments(ctx context.Context, orderID uuid.UUID) ([]*assignment.Assignment, error) {
	return s.assignments.ListByOrder(ctx, orderID)
}
