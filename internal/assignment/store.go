package assignment

import (
	"context"

	"github.com/google/uuid"

	"courier-dispatch/internal/driver"
	"courier-dispatch/internal/history"
	"courier-dispatch/internal/order"
)

// Tx is the set of row operations available inside one transaction. The
// ForUpdate reads take row locks, so concurrent operations on the same order,
// assignment or driver serialize at the store and the loser observes committed
// state, never a stale snapshot.
type Tx interface {
	OrderForUpdate(ctx context.Context, orderID uuid.UUID) (*order.Order, error)
	SaveOrder(ctx context.Context, o *order.Order) error

	DriverForUpdate(ctx context.Context, driverID uuid.UUID) (*driver.Driver, error)
	SaveDriver(ctx context.Context, d *driver.Driver) error

	AssignmentForUpdate(ctx context.Context, id uuid.UUID) (*Assignment, error)
	ActiveByOrder(ctx context.Context, orderID uuid.UUID) (*Assignment, error)
	Insert(ctx context.Context, a *Assignment) error
	Save(ctx context.Context, a *Assignment) error

	AppendHistory(ctx context.Context, e *history.Entry) error
}

// Store is the persistence boundary of the assignment manager. Within runs fn
// as one transaction: everything commits or nothing does. Implementations may
// retry fn on transient failures, so fn must be safe to re-run from a fresh
// read of the rows it touches.
type Store interface {
	Within(ctx context.Context, fn func(tx Tx) error) error

	GetByID(ctx context.Context, id uuid.UUID) (*Assignment, error)
	ActiveByDriver(ctx context.Context, driverID uuid.UUID) (*Assignment, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*Assignment, error)
}
