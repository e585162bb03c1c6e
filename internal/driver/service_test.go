package driver

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"courier-dispatch/internal/common"
	domainerrors "courier-dispatch/internal/errors"
)

// fakeRepo keeps drivers in memory. UpdateLocation mirrors the SQL statement:
// it touches position columns only, never current_order_id.
type fakeRepo struct {
	drivers     map[uuid.UUID]*Driver
	fullUpdates int
}

func newFakeRepo(drivers ...*Driver) *fakeRepo {
	m := make(map[uuid.UUID]*Driver, len(drivers))
	for _, d := range drivers {
		m[d.ID] = d
	}
	return &fakeRepo{drivers: m}
}

func (r *fakeRepo) Create(_ context.Context, _ sqlx.ExtContext, d *Driver) error {
	r.drivers[d.ID] = d
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, _ sqlx.ExtContext, id uuid.UUID) (*Driver, error) {
	d, ok := r.drivers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *d
	return &cp, nil
}

func (r *fakeRepo) GetByIDForUpdate(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID) (*Driver, error) {
	return r.GetByID(ctx, ext, id)
}

func (r *fakeRepo) Update(_ context.Context, _ sqlx.ExtContext, d *Driver) error {
	r.fullUpdates++
	cp := *d
	r.drivers[d.ID] = &cp
	return nil
}

func (r *fakeRepo) UpdateLocation(_ context.Context, _ sqlx.ExtContext, id uuid.UUID, lat, lng float64, at time.Time) (int64, error) {
	d, ok := r.drivers[id]
	if !ok {
		return 0, nil
	}
	d.Latitude = &lat
	d.Longitude = &lng
	d.LastSeen = &at
	d.UpdatedAt = at
	return 1, nil
}

func (r *fakeRepo) ListAvailable(_ context.Context, _ sqlx.ExtContext) ([]*Driver, error) {
	var out []*Driver
	for _, d := range r.drivers {
		if d.IsAvailable() {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListAll(_ context.Context, _ sqlx.ExtContext, _, _ int) ([]*Driver, int, error) {
	var out []*Driver
	for _, d := range r.drivers {
		out = append(out, d)
	}
	return out, len(out), nil
}

func heartbeatService(repo Repository) Service {
	return NewService(repo, nil, nil, common.NewLocation(24.7136, 46.6753), 30)
}

// -------------------------------------------------------------------------------------------------

func TestHeartbeat_LeavesHeldOrderAlone(t *testing.T) {
	d := New("sara", "+100200300")
	orderID := uuid.New()
	// The driver accepted an assignment after an earlier heartbeat read would
	// have seen current_order_id as null.
	if err := d.Hold(orderID); err != nil {
		t.Fatalf("hold: %v", err)
	}
	repo := newFakeRepo(d)
	svc := heartbeatService(repo)

	got, err := svc.Heartbeat(context.Background(), d.ID, 24.72, 46.68)
	if err != nil {
		t.Fatalf("heartbeat: %v", err)
	}

	stored := repo.drivers[d.ID]
	if stored.CurrentOrderID == nil || *stored.CurrentOrderID != orderID {
		t.Fatal("heartbeat must not clear current_order_id")
	}
	if got.CurrentOrderID == nil || *got.CurrentOrderID != orderID {
		t.Fatal("heartbeat response should reflect the held order")
	}
	if repo.fullUpdates != 0 {
		t.Fatalf("heartbeat issued %d full-row updates, want 0", repo.fullUpdates)
	}
	if stored.Latitude == nil || *stored.Latitude != 24.72 {
		t.Fatalf("unexpected latitude: %v", stored.Latitude)
	}
	if stored.LastSeen == nil {
		t.Fatal("expected last_seen to be set")
	}
}

func TestHeartbeat_UnknownDriver(t *testing.T) {
	svc := heartbeatService(newFakeRepo())

	_, err := svc.Heartbeat(context.Background(), uuid.New(), 24.72, 46.68)
	var de *domainerrors.DomainError
	if !errors.As(err, &de) || de.Code != domainerrors.ErrNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestHeartbeat_OutOfZone(t *testing.T) {
	d := New("sara", "+100200300")
	repo := newFakeRepo(d)
	svc := heartbeatService(repo)

	// Jeddah is well outside a 30km radius around the store.
	_, err := svc.Heartbeat(context.Background(), d.ID, 21.4858, 39.1925)
	var de *domainerrors.DomainError
	if !errors.As(err, &de) || de.Code != domainerrors.ErrOutOfZone {
		t.Fatalf("expected OUT_OF_ZONE, got %v", err)
	}
	if repo.drivers[d.ID].Latitude != nil {
		t.Fatal("rejected heartbeat must not store a location")
	}
}
