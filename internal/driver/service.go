package driver

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"courier-dispatch/internal/common"
	domainerrors "courier-dispatch/internal/errors"
	"courier-dispatch/internal/redis"
)

type Service interface {
	Register(ctx context.Context, name, phone string) (*Driver, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Driver, error)
	Heartbeat(ctx context.Context, driverID uuid.UUID, lat, lng float64) (*Driver, error)
	GetLocation(ctx context.Context, driverID uuid.UUID) (*common.Location, error)
	SetActive(ctx context.Context, driverID uuid.UUID, active bool) (*Driver, error)
	ListAvailable(ctx context.Context) ([]*Driver, error)
	ListAll(ctx context.Context, page, limit int) ([]*Driver, int, error)
}

type service struct {
	repo       Repository
	db         *sqlx.DB
	cache      *redis.DriverLocationCache
	zoneCenter common.Location
	zoneRadius float64
}

func NewService(repo Repository, db *sqlx.DB, cache *redis.DriverLocationCache, zoneCenter common.Location, zoneRadius float64) Service {
	return &service{
		repo:       repo,
		db:         db,
		cache:      cache,
		zoneCenter: zoneCenter,
		zoneRadius: zoneRadius,
	}
}

// -------------------------------------------------------------------------------------------------
func (s *service) Register(ctx context.Context, name, phone string) (*Driver, error) {
	d := New(name, phone)
	if err := s.repo.Create(ctx, s.db, d); err != nil {
		return nil, domainerrors.NewPersistence("failed to register driver", err)
	}
	return d, nil
}

// -------------------------------------------------------------------------------------------------
func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*Driver, error) {
	d, err := s.repo.GetByID(ctx, s.db, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainerrors.DriverNotFound(id.String())
		}
		return nil, domainerrors.NewPersistence("failed to load driver", err)
	}
	return d, nil
}

// -------------------------------------------------------------------------------------------------
func (s *service) Heartbeat(ctx context.Context, driverID uuid.UUID, lat, lng float64) (*Driver, error) {
	if err := common.ValidateLatLng(lat, lng); err != nil {
		return nil, domainerrors.NewValidation(err.Error())
	}
	loc := common.NewLocation(lat, lng)
	if err := common.ValidateInZone(loc, s.zoneCenter, s.zoneRadius); err != nil {
		return nil, domainerrors.NewOutOfZone("heartbeat location is outside the service zone")
	}

	// Position columns only. A full-row write here could race a concurrent
	// accept and revert current_order_id from a stale read.
	n, err := s.repo.UpdateLocation(ctx, s.db, driverID, lat, lng, time.Now())
	if err != nil {
		return nil, domainerrors.NewPersistence("failed to update driver location", err)
	}
	if n == 0 {
		return nil, domainerrors.DriverNotFound(driverID.String())
	}

	d, err := s.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}

	// Cache write is best-effort; postgres stays the source of truth.
	if s.cache != nil {
		if err := s.cache.Set(ctx, driverID.String(), loc); err != nil {
			slog.WarnContext(ctx, "driver location cache write failed",
				slog.String("driver_id", driverID.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	return d, nil
}

// -------------------------------------------------------------------------------------------------
func (s *service) GetLocation(ctx context.Context, driverID uuid.UUID) (*common.Location, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, driverID.String())
		if err == nil && cached != nil {
			loc := common.NewLocation(cached.Lat, cached.Lng)
			return &loc, nil
		}
	}

	d, err := s.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	loc := d.Location()
	if loc == nil {
		return nil, nil
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, driverID.String(), *loc)
	}
	return loc, nil
}

// -------------------------------------------------------------------------------------------------
func (s *service) SetActive(ctx context.Context, driverID uuid.UUID, active bool) (*Driver, error) {
	// The holding-an-order check must see the committed current_order_id, so
	// the read takes the row lock the assignment transactions take.
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, domainerrors.NewPersistence("failed to begin transaction", err)
	}
	defer tx.Rollback()

	d, err := s.repo.GetByIDForUpdate(ctx, tx, driverID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainerrors.DriverNotFound(driverID.String())
		}
		return nil, domainerrors.NewPersistence("failed to load driver", err)
	}
	if err := d.SetActive(active); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, tx, d); err != nil {
		return nil, domainerrors.NewPersistence("failed to update driver", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, domainerrors.NewPersistence("failed to commit transaction", err)
	}
	return d, nil
}

// -------------------------------------------------------------------------------------------------
func (s *service) ListAvailable(ctx context.Context) ([]*Driver, error) {
	drivers, err := s.repo.ListAvailable(ctx, s.db)
	if err != nil {
		return nil, domainerrors.NewPersistence("failed to list available drivers", err)
	}
	return drivers, nil
}

// -------------------------------------------------------------------------------------------------
func (s *service) ListAll(ctx context.Context, page, limit int) ([]*Driver, int, error) {
	return s.repo.ListAll(ctx, s.db, page, limit)
}
