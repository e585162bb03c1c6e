package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const columns = `id, name, phone, is_active, latitude, longitude, current_order_id, rating, last_seen, created_at, updated_at`

type Repository interface {
	Create(ctx context.Context, ext sqlx.ExtContext, d *Driver) error
	GetByID(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID) (*Driver, error)
	GetByIDForUpdate(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID) (*Driver, error)
	Update(ctx context.Context, ext sqlx.ExtContext, d *Driver) error
	// UpdateLocation touches only the position columns so a heartbeat can
	// never overwrite current_order_id written by a concurrent assignment.
	UpdateLocation(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID, lat, lng float64, at time.Time) (int64, error)
	// ListAvailable returns active drivers holding no order, oldest first so
	// the dispatch scan order is stable.
	ListAvailable(ctx context.Context, ext sqlx.ExtContext) ([]*Driver, error)
	ListAll(ctx context.Context, ext sqlx.ExtContext, page, limit int) ([]*Driver, int, error)
}

type driverRepository struct{}

func NewRepository() Repository {
	return &driverRepository{}
}

func (r *driverRepository) Create(ctx context.Context, ext sqlx.ExtContext, d *Driver) error {
	const query = `INSERT INTO drivers (id, name, phone, is_active, latitude, longitude, current_order_id, rating, last_seen, created_at, updated_at)
		VALUES (:id, :name, :phone, :is_active, :latitude, :longitude, :current_order_id, :rating, :last_seen, :created_at, :updated_at)`
	_, err := sqlx.NamedExecContext(ctx, ext, query, d)
	return err
}

func (r *driverRepository) GetByID(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID) (*Driver, error) {
	var d Driver
	query := fmt.Sprintf(`SELECT %s FROM drivers WHERE id = $1`, columns)
	if err := sqlx.GetContext(ctx, ext, &d, query, id); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *driverRepository) GetByIDForUpdate(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID) (*Driver, error) {
	var d Driver
	query := fmt.Sprintf(`SELECT %s FROM drivers WHERE id = $1 FOR UPDATE`, columns)
	if err := sqlx.GetContext(ctx, ext, &d, query, id); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *driverRepository) Update(ctx context.Context, ext sqlx.ExtContext, d *Driver) error {
	const query = `UPDATE drivers SET name = :name, phone = :phone, is_active = :is_active, latitude = :latitude, longitude = :longitude, current_order_id = :current_order_id, rating = :rating, last_seen = :last_seen, updated_at = :updated_at WHERE id = :id`
	_, err := sqlx.NamedExecContext(ctx, ext, query, d)
	return err
}

func (r *driverRepository) UpdateLocation(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID, lat, lng float64, at time.Time) (int64, error) {
	const query = `UPDATE drivers SET latitude = $1, longitude = $2, last_seen = $3, updated_at = $3 WHERE id = $4`
	res, err := ext.ExecContext(ctx, query, lat, lng, at, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *driverRepository) ListAvailable(ctx context.Context, ext sqlx.ExtContext) ([]*Driver, error) {
	var drivers []*Driver
	query := fmt.Sprintf(`SELECT %s FROM drivers WHERE is_active = TRUE AND current_order_id IS NULL ORDER BY created_at ASC`, columns)
	if err := sqlx.SelectContext(ctx, ext, &drivers, query); err != nil {
		return nil, err
	}
	return drivers, nil
}

func (r *driverRepository) ListAll(ctx context.Context, ext sqlx.ExtContext, page, limit int) ([]*Driver, int, error) {
	offset := (page - 1) * limit

	var total int
	if err := sqlx.GetContext(ctx, ext, &total, `SELECT COUNT(*) FROM drivers`); err != nil {
		return nil, 0, err
	}

	var drivers []*Driver
	query := fmt.Sprintf(`SELECT %s FROM drivers ORDER BY created_at ASC LIMIT $1 OFFSET $2`, columns)
	if err := sqlx.SelectContext(ctx, ext, &drivers, query, limit, offset); err != nil {
		return nil, 0, err
	}

	return drivers, total, nil
}
