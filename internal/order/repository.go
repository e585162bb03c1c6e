package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"courier-dispatch/internal/common"
)

const columns = `id, customer_id, delivery_type, delivery_address, delivery_lat, delivery_lng, total_cents, status, created_at, updated_at`

type Repository interface {
	Create(ctx context.Context, ext sqlx.ExtContext, o *Order) error
	GetByID(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID) (*Order, error)
	// GetByIDForUpdate takes a row lock; callers serialize all writers on the
	// same order through it.
	GetByIDForUpdate(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID) (*Order, error)
	Update(ctx context.Context, ext sqlx.ExtContext, o *Order) error
	SetDeliveryLocation(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID, loc common.Location) error
	ListAll(ctx context.Context, ext sqlx.ExtContext, status *Status, page, limit int) ([]*Order, int, error)
}

type orderRepository struct{}

func NewRepository() Repository {
	return &orderRepository{}
}

func (r *orderRepository) Create(ctx context.Context, ext sqlx.ExtContext, o *Order) error {
	const query = `INSERT INTO orders (id, customer_id, delivery_type, delivery_address, delivery_lat, delivery_lng, total_cents, status, created_at, updated_at)
		VALUES (:id, :customer_id, :delivery_type, :delivery_address, :delivery_lat, :delivery_lng, :total_cents, :status, :created_at, :updated_at)`

	_, err := sqlx.NamedExecContext(ctx, ext, query, o)
	return err
}

func (r *orderRepository) GetByID(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID) (*Order, error) {
	var o Order
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, columns)
	if err := sqlx.GetContext(ctx, ext, &o, query, id); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) GetByIDForUpdate(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID) (*Order, error) {
	var o Order
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1 FOR UPDATE`, columns)
	if err := sqlx.GetContext(ctx, ext, &o, query, id); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) Update(ctx context.Context, ext sqlx.ExtContext, o *Order) error {
	const query = `UPDATE orders SET status = :status, delivery_lat = :delivery_lat, delivery_lng = :delivery_lng, delivery_address = :delivery_address, updated_at = :updated_at WHERE id = :id`
	_, err := sqlx.NamedExecContext(ctx, ext, query, o)
	return err
}

func (r *orderRepository) SetDeliveryLocation(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID, loc common.Location) error {
	const query = `UPDATE orders SET delivery_lat = $2, delivery_lng = $3, updated_at = NOW() WHERE id = $1`
	_, err := ext.ExecContext(ctx, query, id, loc.Lat, loc.Lng)
	return err
}

func (r *orderRepository) ListAll(ctx context.Context, ext sqlx.ExtContext, status *Status, page, limit int) ([]*Order, int, error) {
	offset := (page - 1) * limit
	args := []any{}
	argIdx := 1

	where := ""
	if status != nil {
		where = fmt.Sprintf(" WHERE status = $%d", argIdx)
		args = append(args, *status)
		argIdx++
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM orders%s`, where)
	if err := sqlx.GetContext(ctx, ext, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	dataQuery := fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, columns, where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	var orders []*Order
	if err := sqlx.SelectContext(ctx, ext, &orders, dataQuery, args...); err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}
