package dispatch

import (
	"context"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"courier-dispatch/internal/assignment"
	"courier-dispatch/internal/common"
	"courier-dispatch/internal/driver"
	domainerrors "courier-dispatch/internal/errors"
	"courier-dispatch/internal/geo"
	"courier-dispatch/internal/order"
)

// DriverPool is the slice of the driver service dispatch needs.
type DriverPool interface {
	ListAvailable(ctx context.Context) ([]*driver.Driver, error)
}

// Orders is the slice of the order service dispatch needs.
type Orders interface {
	GetByID(ctx context.Context, orderID uuid.UUID) (*order.Order, error)
	SetDeliveryLocation(ctx context.Context, orderID uuid.UUID, loc common.Location) error
}

type Service interface {
	FindNearestDriver(ctx context.Context, from common.Location) (*driver.Driver, float64, error)
	AutoAssign(ctx context.Context, orderID uuid.UUID) (*assignment.Assignment, error)
}

type service struct {
	drivers     DriverPool
	orders      Orders
	assignments assignment.Service
	geocoder    geo.Geocoder
	distance    geo.DistanceProvider
	origin      common.Location
}

func NewService(drivers DriverPool, orders Orders, assignments assignment.Service, geocoder geo.Geocoder, distance geo.DistanceProvider, origin common.Location) Service {
	return &service{
		drivers:     drivers,
		orders:      orders,
		assignments: assignments,
		geocoder:    geocoder,
		distance:    distance,
		origin:      origin,
	}
}

// -------------------------------------------------------------------------------------------------
// FindNearestDriver scans the available pool and returns the driver closest
// to from, with the distance in kilometers. Drivers with no known position
// are skipped, and a failed distance lookup drops that candidate rather than
// failing the scan. Returns (nil, 0, nil) when the pool is empty.
func (s *service) FindNearestDriver(ctx context.Context, from common.Location) (*driver.Driver, float64, error) {
	pool, err := s.drivers.ListAvailable(ctx)
	if err != nil {
		return nil, 0, err
	}

	var (
		best     *driver.Driver
		bestDist = math.MaxFloat64
	)
	for _, d := range pool {
		loc := d.Location()
		if loc == nil {
			continue
		}
		dist, err := s.driverDistance(ctx, *loc, from)
		if err != nil {
			slog.DebugContext(ctx, "skipping driver, distance lookup failed",
				slog.String("driver_id", d.ID.String()),
				slog.Any("error", err))
			continue
		}
		if dist < bestDist {
			best = d
			bestDist = dist
		}
	}
	if best == nil {
		return nil, 0, nil
	}
	return best, bestDist, nil
}

// driverDistance asks the routing provider for road distance and falls back
// to straight-line distance when no provider is configured.
func (s *service) driverDistance(ctx context.Context, a, b common.Location) (float64, error) {
	if s.distance == nil {
		return common.HaversineDistance(a, b), nil
	}
	est, err := s.distance.DistanceAndDuration(ctx, a, b)
	if err != nil {
		return 0, err
	}
	return est.DistanceKM, nil
}

// -------------------------------------------------------------------------------------------------
// AutoAssign resolves the order's delivery coordinates, picks the nearest
// available driver and creates the assignment. Geocoding failure is fatal:
// an order we cannot place on the map cannot be dispatched.
func (s *service) AutoAssign(ctx context.Context, orderID uuid.UUID) (*assignment.Assignment, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != order.StatusReady {
		return nil, domainerrors.OrderNotReady(o.ID.String(), string(o.Status))
	}

	dest := o.DeliveryLocation()
	if dest == nil {
		if o.DeliveryAddress == "" {
			return nil, domainerrors.NewValidation("order has no delivery address or coordinates")
		}
		loc, err := s.geocoder.Geocode(ctx, o.DeliveryAddress)
		if err != nil {
			return nil, err
		}
		dest = &loc
		// Cache the resolved coordinates on the order. Losing the write only
		// costs a re-geocode next time.
		if err := s.orders.SetDeliveryLocation(ctx, orderID, loc); err != nil {
			slog.WarnContext(ctx, "failed to store geocoded location",
				slog.String("order_id", orderID.String()),
				slog.Any("error", err))
		}
	}

	d, dist, err := s.FindNearestDriver(ctx, s.origin)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, domainerrors.NoDriverAvailable()
	}
	slog.InfoContext(ctx, "dispatching order",
		slog.String("order_id", orderID.String()),
		slog.String("driver_id", d.ID.String()),
		slog.Float64("driver_distance_km", dist))

	return s.assignments.Create(ctx, orderID, d.ID, s.origin, *dest)
}
