package order

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"courier-dispatch/internal/common"
	domainerrors "courier-dispatch/internal/errors"
	"courier-dispatch/internal/history"
	"courier-dispatch/internal/notify"
)

type Service interface {
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error)
	MarkPreparing(ctx context.Context, orderID uuid.UUID) (*Order, error)
	MarkReady(ctx context.Context, orderID uuid.UUID) (*Order, error)
	GetByID(ctx context.Context, orderID uuid.UUID) (*Order, error)
	SetDeliveryLocation(ctx context.Context, orderID uuid.UUID, loc common.Location) error
	History(ctx context.Context, orderID uuid.UUID) ([]*history.Entry, error)
	ListAll(ctx context.Context, status *Status, page, limit int) ([]*Order, int, error)
}

// ZoneConfig describes the single service location: dispatch origin and the
// radius inside which deliveries are accepted.
type ZoneConfig struct {
	StoreLat float64
	StoreLng float64
	RadiusKM float64
}

func (z ZoneConfig) Origin() common.Location {
	return common.NewLocation(z.StoreLat, z.StoreLng)
}

type service struct {
	repo Repository
	hist history.Repository
	db   *sqlx.DB
	zone ZoneConfig
	sink notify.Sink
}

func NewService(repo Repository, hist history.Repository, db *sqlx.DB, zone ZoneConfig, sink notify.Sink) Service {
	return &service{repo: repo, hist: hist, db: db, zone: zone, sink: sink}
}

// -------------------------------------------------------------------------------------------------
func (s *service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	if !req.DeliveryType.Valid() {
		return nil, domainerrors.NewValidation("delivery_type must be 'delivery' or 'dine_in'")
	}
	if req.TotalCents <= 0 {
		return nil, domainerrors.NewValidation("total_cents must be positive")
	}
	if req.DeliveryType == TypeDelivery && req.DeliveryAddress == "" && req.Coordinates == nil {
		return nil, domainerrors.NewValidation("delivery orders need an address or coordinates")
	}

	o := NewOrder(req.CustomerID, req.DeliveryType, req.DeliveryAddress, req.TotalCents)
	if req.Coordinates != nil {
		if err := common.ValidateLatLng(req.Coordinates.Lat, req.Coordinates.Lng); err != nil {
			return nil, domainerrors.NewValidation(err.Error())
		}
		if err := common.ValidateInZone(*req.Coordinates, s.zone.Origin(), s.zone.RadiusKM); err != nil {
			return nil, domainerrors.NewOutOfZone("delivery location is outside the service zone")
		}
		o.SetDeliveryLocation(*req.Coordinates)
	}

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.Create(ctx, tx, o); err != nil {
			return domainerrors.NewPersistence("failed to create order", err)
		}
		return s.hist.Append(ctx, tx, history.NewEntry(o.ID, string(o.Status), nil, "order placed"))
	})
	if err != nil {
		return nil, err
	}

	notify.Send(ctx, s.sink, o.CustomerID, o.ID, string(o.Status))
	return o, nil
}

// -------------------------------------------------------------------------------------------------
func (s *service) MarkPreparing(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	return s.transition(ctx, orderID, "kitchen started preparing", (*Order).MarkPreparing)
}

// -------------------------------------------------------------------------------------------------
func (s *service) MarkReady(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	return s.transition(ctx, orderID, "ready for pickup", (*Order).MarkReady)
}

// transition runs one intake transition as a single transaction: locked read,
// state-machine call, update, history append.
func (s *service) transition(ctx context.Context, orderID uuid.UUID, note string, fn func(*Order) error) (*Order, error) {
	var o *Order
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		o, err = s.repo.GetByIDForUpdate(ctx, tx, orderID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domainerrors.OrderNotFound(orderID.String())
			}
			return domainerrors.NewPersistence("failed to load order", err)
		}
		if err := fn(o); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, tx, o); err != nil {
			return domainerrors.NewPersistence("failed to update order", err)
		}
		return s.hist.Append(ctx, tx, history.NewEntry(o.ID, string(o.Status), nil, note))
	})
	if err != nil {
		return nil, err
	}

	notify.Send(ctx, s.sink, o.CustomerID, o.ID, string(o.Status))
	return o, nil
}

// -------------------------------------------------------------------------------------------------
func (s *service) GetByID(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, s.db, orderID)
	if err != nil {
		return nil, domainerrors.OrderNotFound(orderID.String())
	}
	return o, nil
}

// -------------------------------------------------------------------------------------------------
func (s *service) SetDeliveryLocation(ctx context.Context, orderID uuid.UUID, loc common.Location) error {
	return s.repo.SetDeliveryLocation(ctx, s.db, orderID, loc)
}

// -------------------------------------------------------------------------------------------------
func (s *service) History(ctx context.Context, orderID uuid.UUID) ([]*history.Entry, error) {
	if _, err := s.repo.GetByID(ctx, s.db, orderID); err != nil {
		return nil, domainerrors.OrderNotFound(orderID.String())
	}
	return s.hist.ListByOrder(ctx, s.db, orderID)
}

// -------------------------------------------------------------------------------------------------
func (s *service) ListAll(ctx context.Context, status *Status, page, limit int) ([]*Order, int, error) {
	return s.repo.ListAll(ctx, s.db, status, page, limit)
}

// -------------------------------------------------------------------------------------------------
func (s *service) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return domainerrors.NewPersistence("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return domainerrors.NewPersistence("failed to commit transaction", err)
	}
	return nil
}
