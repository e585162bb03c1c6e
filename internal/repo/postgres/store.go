package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"courier-dispatch/internal/assignment"
	"courier-dispatch/internal/driver"
	domainerrors "courier-dispatch/internal/errors"
	"courier-dispatch/internal/history"
	"courier-dispatch/internal/order"
	"courier-dispatch/internal/pkg/retry"
)

// Store backs the assignment manager with PostgreSQL transactions. Within
// retries the whole transaction on transient failures, so the callback always
// re-reads its rows from committed state.
type Store struct {
	db          *sqlx.DB
	orders      order.Repository
	drivers     driver.Repository
	assignments assignment.Repository
	hist        history.Repository
	budget      retry.Budget
}

func NewStore(db *sqlx.DB, budget retry.Budget) *Store {
	return &Store{
		db:          db,
		orders:      order.NewRepository(),
		drivers:     driver.NewRepository(),
		assignments: assignment.NewRepository(),
		hist:        history.NewRepository(),
		budget:      budget,
	}
}

func (s *Store) Within(ctx context.Context, fn func(tx assignment.Tx) error) error {
	return retry.Do(ctx, s.budget, Transient, func(ctx context.Context) error {
		dbtx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return domainerrors.NewPersistence("failed to begin transaction", err)
		}
		defer dbtx.Rollback()

		if err := fn(&storeTx{store: s, tx: dbtx}); err != nil {
			return err
		}
		if err := dbtx.Commit(); err != nil {
			return domainerrors.NewPersistence("failed to commit transaction", err)
		}
		return nil
	})
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*assignment.Assignment, error) {
	a, err := s.assignments.GetByID(ctx, s.db, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.AssignmentNotFound(id.String())
	}
	if err != nil {
		return nil, domainerrors.NewPersistence("failed to load assignment", err)
	}
	return a, nil
}

func (s *Store) ActiveByDriver(ctx context.Context, driverID uuid.UUID) (*assignment.Assignment, error) {
	a, err := s.assignments.ActiveByDriver(ctx, s.db, driverID)
	if err != nil {
		return nil, domainerrors.NewPersistence("failed to load assignment", err)
	}
	return a, nil
}

func (s *Store) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*assignment.Assignment, error) {
	list, err := s.assignments.ListByOrder(ctx, s.db, orderID)
	if err != nil {
		return nil, domainerrors.NewPersistence("failed to list assignments", err)
	}
	return list, nil
}

// storeTx adapts one open sqlx transaction to the assignment.Tx surface.
type storeTx struct {
	store *Store
	tx    *sqlx.Tx
}

func (t *storeTx) OrderForUpdate(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	o, err := t.store.orders.GetByIDForUpdate(ctx, t.tx, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.OrderNotFound(orderID.String())
	}
	if err != nil {
		return nil, domainerrors.NewPersistence("failed to lock order", err)
	}
	return o, nil
}

func (t *storeTx) SaveOrder(ctx context.Context, o *order.Order) error {
	if err := t.store.orders.Update(ctx, t.tx, o); err != nil {
		return domainerrors.NewPersistence("failed to update order", err)
	}
	return nil
}

func (t *storeTx) DriverForUpdate(ctx context.Context, driverID uuid.UUID) (*driver.Driver, error) {
	d, err := t.store.drivers.GetByIDForUpdate(ctx, t.tx, driverID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.DriverNotFound(driverID.String())
	}
	if err != nil {
		return nil, domainerrors.NewPersistence("failed to lock driver", err)
	}
	return d, nil
}

func (t *storeTx) SaveDriver(ctx context.Context, d *driver.Driver) error {
	if err := t.store.drivers.Update(ctx, t.tx, d); err != nil {
		return domainerrors.NewPersistence("failed to update driver", err)
	}
	return nil
}

func (t *storeTx) AssignmentForUpdate(ctx context.Context, id uuid.UUID) (*assignment.Assignment, error) {
	a, err := t.store.assignments.GetByIDForUpdate(ctx, t.tx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.AssignmentNotFound(id.String())
	}
	if err != nil {
		return nil, domainerrors.NewPersistence("failed to lock assignment", err)
	}
	return a, nil
}

func (t *storeTx) ActiveByOrder(ctx context.Context, orderID uuid.UUID) (*assignment.Assignment, error) {
	a, err := t.store.assignments.ActiveByOrder(ctx, t.tx, orderID)
	if err != nil {
		return nil, domainerrors.NewPersistence("failed to load assignment", err)
	}
	return a, nil
}

func (t *storeTx) Insert(ctx context.Context, a *assignment.Assignment) error {
	if err := t.store.assignments.Insert(ctx, t.tx, a); err != nil {
		return domainerrors.NewPersistence("failed to insert assignment", err)
	}
	return nil
}

func (t *storeTx) Save(ctx context.Context, a *assignment.Assignment) error {
	if err := t.store.assignments.Update(ctx, t.tx, a); err != nil {
		return domainerrors.NewPersistence("failed to update assignment", err)
	}
	return nil
}

func (t *storeTx) AppendHistory(ctx context.Context, e *history.Entry) error {
	if err := t.store.hist.Append(ctx, t.tx, e); err != nil {
		return domainerrors.NewPersistence("failed to append status history", err)
	}
	return nil
}
