package assignment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const columns = `id, order_id, driver_id, status, start_lat, start_lng, delivery_lat, delivery_lng, estimated_distance_km, estimated_duration_min, assigned_at, accepted_at, completed_at, cancel_reason, updated_at`

type Repository interface {
	Insert(ctx context.Context, ext sqlx.ExtContext, a *Assignment) error
	GetByID(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID) (*Assignment, error)
	GetByIDForUpdate(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID) (*Assignment, error)
	// ActiveByOrder returns the order's pending or accepted assignment, or nil.
	ActiveByOrder(ctx context.Context, ext sqlx.ExtContext, orderID uuid.UUID) (*Assignment, error)
	ActiveByDriver(ctx context.Context, ext sqlx.ExtContext, driverID uuid.UUID) (*Assignment, error)
	Update(ctx context.Context, ext sqlx.ExtContext, a *Assignment) error
	ListByOrder(ctx context.Context, ext sqlx.ExtContext, orderID uuid.UUID) ([]*Assignment, error)
}

type assignmentRepository struct{}

func NewRepository() Repository {
	return &assignmentRepository{}
}

func (r *assignmentRepository) Insert(ctx context.Context, ext sqlx.ExtContext, a *Assignment) error {
	const query = `INSERT INTO assignments (id, order_id, driver_id, status, start_lat, start_lng, delivery_lat, delivery_lng, estimated_distance_km, estimated_duration_min, assigned_at, accepted_at, completed_at, cancel_reason, updated_at)
		VALUES (:id, :order_id, :driver_id, :status, :start_lat, :start_lng, :delivery_lat, :delivery_lng, :estimated_distance_km, :estimated_duration_min, :assigned_at, :accepted_at, :completed_at, :cancel_reason, :updated_at)`
	_, err := sqlx.NamedExecContext(ctx, ext, query, a)
	return err
}

func (r *assignmentRepository) GetByID(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID) (*Assignment, error) {
	var a Assignment
	query := fmt.Sprintf(`SELECT %s FROM assignments WHERE id = $1`, columns)
	if err := sqlx.GetContext(ctx, ext, &a, query, id); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepository) GetByIDForUpdate(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID) (*Assignment, error) {
	var a Assignment
	query := fmt.Sprintf(`SELECT %s FROM assignments WHERE id = $1 FOR UPDATE`, columns)
	if err := sqlx.GetContext(ctx, ext, &a, query, id); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepository) ActiveByOrder(ctx context.Context, ext sqlx.ExtContext, orderID uuid.UUID) (*Assignment, error) {
	var a Assignment
	query := fmt.Sprintf(`SELECT %s FROM assignments WHERE order_id = $1 AND status IN ('pending', 'accepted')`, columns)
	err := sqlx.GetContext(ctx, ext, &a, query, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepository) ActiveByDriver(ctx context.Context, ext sqlx.ExtContext, driverID uuid.UUID) (*Assignment, error) {
	var a Assignment
	query := fmt.Sprintf(`SELECT %s FROM assignments WHERE driver_id = $1 AND status IN ('pending', 'accepted')`, columns)
	err := sqlx.GetContext(ctx, ext, &a, query, driverID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepository) Update(ctx context.Context, ext sqlx.ExtContext, a *Assignment) error {
	const query = `UPDATE assignments SET status = :status, estimated_distance_km = :estimated_distance_km, estimated_duration_min = :estimated_duration_min, accepted_at = :accepted_at, completed_at = :completed_at, cancel_reason = :cancel_reason, updated_at = :updated_at WHERE id = :id`
	_, err := sqlx.NamedExecContext(ctx, ext, query, a)
	return err
}

func (r *assignmentRepository) ListByOrder(ctx context.Context, ext sqlx.ExtContext, orderID uuid.UUID) ([]*Assignment, error) {
	var assignments []*Assignment
	query := fmt.Sprintf(`SELECT %s FROM assignments WHERE order_id = $1 ORDER BY assigned_at ASC`, columns)
	if err := sqlx.SelectContext(ctx, ext, &assignments, query, orderID); err != nil {
		return nil, err
	}
	return assignments, nil
}
