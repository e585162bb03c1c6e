package history

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Append(ctx context.Context, ext sqlx.ExtContext, e *Entry) error
	ListByOrder(ctx context.Context, ext sqlx.ExtContext, orderID uuid.UUID) ([]*Entry, error)
}

type historyRepository struct{}

func NewRepository() Repository {
	return &historyRepository{}
}

func (r *historyRepository) Append(ctx context.Context, ext sqlx.ExtContext, e *Entry) error {
	const query = `INSERT INTO order_status_history (order_id, status, driver_id, note, created_at)
		VALUES (:order_id, :status, :driver_id, :note, :created_at)`
	_, err := sqlx.NamedExecContext(ctx, ext, query, e)
	return err
}

func (r *historyRepository) ListByOrder(ctx context.Context, ext sqlx.ExtContext, orderID uuid.UUID) ([]*Entry, error) {
	var entries []*Entry
	const query = `SELECT id, order_id, status, driver_id, note, created_at
		FROM order_status_history WHERE order_id = $1 ORDER BY id ASC`
	if err := sqlx.SelectContext(ctx, ext, &entries, query, orderID); err != nil {
		return nil, err
	}
	return entries, nil
}
