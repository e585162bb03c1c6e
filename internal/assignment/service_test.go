package assignment

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"courier-dispatch/internal/common"
	"courier-dispatch/internal/driver"
	domainerrors "courier-dispatch/internal/errors"
	"courier-dispatch/internal/geo"
	"courier-dispatch/internal/history"
	"courier-dispatch/internal/order"
)

// memStore is an in-memory Store. Within serializes transactions with a
// mutex and commits the working copies only when the callback succeeds, so
// rollback semantics match the real store.
type memStore struct {
	mu          sync.Mutex
	orders      map[uuid.UUID]*order.Order
	drivers     map[uuid.UUID]*driver.Driver
	assignments map[uuid.UUID]*Assignment
	history     []*history.Entry
}

func newMemStore() *memStore {
	return &memStore{
		orders:      make(map[uuid.UUID]*order.Order),
		drivers:     make(map[uuid.UUID]*driver.Driver),
		assignments: make(map[uuid.UUID]*Assignment),
	}
}

type memTx struct {
	store       *memStore
	orders      map[uuid.UUID]*order.Order
	drivers     map[uuid.UUID]*driver.Driver
	assignments map[uuid.UUID]*Assignment
	history     []*history.Entry
}

func (s *memStore) Within(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		store:       s,
		orders:      make(map[uuid.UUID]*order.Order, len(s.orders)),
		drivers:     make(map[uuid.UUID]*driver.Driver, len(s.drivers)),
		assignments: make(map[uuid.UUID]*Assignment, len(s.assignments)),
	}
	for id, o := range s.orders {
		c := *o
		tx.orders[id] = &c
	}
	for id, d := range s.drivers {
		c := *d
		tx.drivers[id] = &c
	}
	for id, a := range s.assignments {
		c := *a
		tx.assignments[id] = &c
	}

	if err := fn(tx); err != nil {
		return err
	}

	s.orders = tx.orders
	s.drivers = tx.drivers
	s.assignments = tx.assignments
	s.history = append(s.history, tx.history...)
	return nil
}

func (s *memStore) GetByID(ctx context.Context, id uuid.UUID) (*Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[id]
	if !ok {
		return nil, domainerrors.AssignmentNotFound(id.String())
	}
	c := *a
	return &c, nil
}

func (s *memStore) ActiveByDriver(ctx context.Context, driverID uuid.UUID) (*Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.assignments {
		if a.DriverID == driverID && a.Status.IsActive() {
			c := *a
			return &c, nil
		}
	}
	return nil, nil
}

func (s *memStore) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Assignment
	for _, a := range s.assignments {
		if a.OrderID == orderID {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *memStore) order(t *testing.T, id uuid.UUID) *order.Order {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		t.Fatalf("order %s not in store", id)
	}
	return o
}

func (s *memStore) driver(t *testing.T, id uuid.UUID) *driver.Driver {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drivers[id]
	if !ok {
		t.Fatalf("driver %s not in store", id)
	}
	return d
}

func (tx *memTx) OrderForUpdate(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	o, ok := tx.orders[orderID]
	if !ok {
		return nil, domainerrors.OrderNotFound(orderID.String())
	}
	return o, nil
}

func (tx *memTx) SaveOrder(ctx context.Context, o *order.Order) error {
	tx.orders[o.ID] = o
	return nil
}

func (tx *memTx) DriverForUpdate(ctx context.Context, driverID uuid.UUID) (*driver.Driver, error) {
	d, ok := tx.drivers[driverID]
	if !ok {
		return nil, domainerrors.DriverNotFound(driverID.String())
	}
	return d, nil
}

func (tx *memTx) SaveDriver(ctx context.Context, d *driver.Driver) error {
	tx.drivers[d.ID] = d
	return nil
}

func (tx *memTx) AssignmentForUpdate(ctx context.Context, id uuid.UUID) (*Assignment, error) {
	a, ok := tx.assignments[id]
	if !ok {
		return nil, domainerrors.AssignmentNotFound(id.String())
	}
	return a, nil
}

func (tx *memTx) ActiveByOrder(ctx context.Context, orderID uuid.UUID) (*Assignment, error) {
	for _, a := range tx.assignments {
		if a.OrderID == orderID && a.Status.IsActive() {
			return a, nil
		}
	}
	return nil, nil
}

func (tx *memTx) Insert(ctx context.Context, a *Assignment) error {
	tx.assignments[a.ID] = a
	return nil
}

func (tx *memTx) Save(ctx context.Context, a *Assignment) error {
	tx.assignments[a.ID] = a
	return nil
}

func (tx *memTx) AppendHistory(ctx context.Context, e *history.Entry) error {
	tx.history = append(tx.history, e)
	return nil
}

// --- test doubles ---

type fakeDistance struct {
	est  geo.Estimate
	err  error
	hits int
}

func (f *fakeDistance) DistanceAndDuration(ctx context.Context, from, to common.Location) (geo.Estimate, error) {
	f.hits++
	if f.err != nil {
		return geo.Estimate{}, f.err
	}
	return f.est, nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingSink) Notify(ctx context.Context, customerID string, orderID uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, status)
	return nil
}

func (r *recordingSink) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return ""
	}
	return r.events[len(r.events)-1]
}

// --- fixtures ---

var (
	origin = common.NewLocation(24.7136, 46.6753)
	dest   = common.NewLocation(24.7500, 46.7000)
)

type fixture struct {
	store  *memStore
	sink   *recordingSink
	dist   *fakeDistance
	svc    Service
	order  *order.Order
	driver *driver.Driver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	sink := &recordingSink{}
	dist := &fakeDistance{est: geo.Estimate{DistanceKM: 4.8, DurationMin: 15}}

	o := order.NewOrder("customer-1", order.TypeDelivery, "1 Main St", 2500)
	_ = o.MarkPreparing()
	_ = o.MarkReady()
	o.SetDeliveryLocation(dest)
	store.orders[o.ID] = o

	d := driver.New("sara", "+100200300")
	d.UpdateLocation(24.72, 46.68)
	store.drivers[d.ID] = d

	return &fixture{
		store:  store,
		sink:   sink,
		dist:   dist,
		svc:    NewService(store, dist, sink),
		order:  o,
		driver: d,
	}
}

func (f *fixture) create(t *testing.T) *Assignment {
	t.Helper()
	a, err := f.svc.Create(context.Background(), f.order.ID, f.driver.ID, origin, dest)
	if err != nil {
		t.Fatalf("create: unexpected error: %v", err)
	}
	return a
}

func (f *fixture) accept(t *testing.T, a *Assignment) {
	t.Helper()
	if _, err := f.svc.Accept(context.Background(), a.ID, f.driver.ID); err != nil {
		t.Fatalf("accept: unexpected error: %v", err)
	}
}

func wantCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	var de *domainerrors.DomainError
	if !errors.As(err, &de) {
		t.Fatalf("expected DomainError, got %T: %v", err, err)
	}
	if de.Code != code {
		t.Fatalf("expected %s, got %s", code, de.Code)
	}
}

// --- Create ---

func TestService_Create_HappyPath(t *testing.T) {
	f := newFixture(t)

	a := f.create(t)

	if a.Status != StatusPending {
		t.Fatalf("expected pending, got %s", a.Status)
	}
	if a.EstimatedDistanceKM == nil || *a.EstimatedDistanceKM != 4.8 {
		t.Fatalf("expected estimate 4.8, got %v", a.EstimatedDistanceKM)
	}
	if got := f.store.order(t, f.order.ID).Status; got != order.StatusAssigned {
		t.Fatalf("expected order assigned_to_driver, got %s", got)
	}
	// Pending offer does not hold the driver yet.
	if !f.store.driver(t, f.driver.ID).IsAvailable() {
		t.Fatal("driver should stay available until accepting")
	}
	if len(f.store.history) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(f.store.history))
	}
	if f.sink.last() != string(order.StatusAssigned) {
		t.Fatalf("expected assigned notification, got %q", f.sink.last())
	}
}

func TestService_Create_SecondOffer_ReportsAlreadyAssigned(t *testing.T) {
	f := newFixture(t)
	f.create(t)

	other := driver.New("omar", "+100200301")
	f.store.drivers[other.ID] = other

	_, err := f.svc.Create(context.Background(), f.order.ID, other.ID, origin, dest)
	wantCode(t, err, domainerrors.ErrAlreadyAssigned)
}

func TestService_Create_ConcurrentOffers_SingleWinner(t *testing.T) {
	f := newFixture(t)

	const n = 8
	drivers := make([]*driver.Driver, n)
	for i := range drivers {
		d := driver.New("driver", "+1000")
		f.store.drivers[d.ID] = d
		drivers[i] = d
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Create(context.Background(), f.order.ID, drivers[i].ID, origin, dest)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly 1 winner, got %d", wins)
	}
}

func TestService_Create_DriverUnavailable_RollsBackOrder(t *testing.T) {
	f := newFixture(t)
	_ = f.driver.Hold(uuid.New())

	_, err := f.svc.Create(context.Background(), f.order.ID, f.driver.ID, origin, dest)
	wantCode(t, err, domainerrors.ErrDriverUnavailable)

	// The aborted transaction must not leave the order assigned.
	if got := f.store.order(t, f.order.ID).Status; got != order.StatusReady {
		t.Fatalf("expected order still ready_for_pickup, got %s", got)
	}
	if len(f.store.history) != 0 {
		t.Fatal("aborted transaction should append no history")
	}
}

func TestService_Create_OrderNotReady(t *testing.T) {
	f := newFixture(t)
	pending := order.NewOrder("customer-2", order.TypeDelivery, "2 Main St", 900)
	f.store.orders[pending.ID] = pending

	_, err := f.svc.Create(context.Background(), pending.ID, f.driver.ID, origin, dest)
	wantCode(t, err, domainerrors.ErrOrderNotReady)
}

func TestService_Create_ProviderDown_EstimatesStayNil(t *testing.T) {
	f := newFixture(t)
	f.dist.err = errors.New("routing unreachable")

	a := f.create(t)

	if a.EstimatedDistanceKM != nil || a.EstimatedDurationMin != nil {
		t.Fatal("expected nil estimates when the provider fails")
	}
	if a.Status != StatusPending {
		t.Fatalf("assignment should still be created, got %s", a.Status)
	}
}

// --- Accept ---

func TestService_Accept_HoldsDriver(t *testing.T) {
	f := newFixture(t)
	a := f.create(t)
	before := len(f.store.history)

	f.accept(t, a)

	d := f.store.driver(t, f.driver.ID)
	if d.IsAvailable() {
		t.Fatal("accepting driver should be held")
	}
	if d.CurrentOrderID == nil || *d.CurrentOrderID != f.order.ID {
		t.Fatal("driver should hold the accepted order")
	}
	// Order status is unchanged, so no history entry is written.
	if len(f.store.history) != before {
		t.Fatal("accept should not append history")
	}
}

func TestService_Accept_WrongDriver_Forbidden(t *testing.T) {
	f := newFixture(t)
	a := f.create(t)

	_, err := f.svc.Accept(context.Background(), a.ID, uuid.New())
	wantCode(t, err, domainerrors.ErrForbidden)
}

func TestService_Accept_Twice_ReportsResolved(t *testing.T) {
	f := newFixture(t)
	a := f.create(t)
	f.accept(t, a)

	_, err := f.svc.Accept(context.Background(), a.ID, f.driver.ID)
	wantCode(t, err, domainerrors.ErrAlreadyResolved)
}

// --- Reject ---

func TestService_Reject_RequeuesOrder(t *testing.T) {
	f := newFixture(t)
	a := f.create(t)

	if _, err := f.svc.Reject(context.Background(), a.ID, f.driver.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := f.store.order(t, f.order.ID).Status; got != order.StatusReady {
		t.Fatalf("expected order requeued to ready_for_pickup, got %s", got)
	}
	if !f.store.driver(t, f.driver.ID).IsAvailable() {
		t.Fatal("rejecting driver must stay available")
	}
	if f.sink.last() != string(order.StatusReady) {
		t.Fatalf("expected requeue notification, got %q", f.sink.last())
	}
}

func TestService_Reject_ThenOfferAgain(t *testing.T) {
	f := newFixture(t)
	a := f.create(t)
	if _, err := f.svc.Reject(context.Background(), a.ID, f.driver.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The same order can be offered again after a rejection.
	f.create(t)
}

// --- Start ---

func TestService_Start_MovesOrderInTransit(t *testing.T) {
	f := newFixture(t)
	a := f.create(t)
	f.accept(t, a)

	if _, err := f.svc.Start(context.Background(), a.ID, f.driver.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.store.order(t, f.order.ID).Status; got != order.StatusInTransit {
		t.Fatalf("expected in_transit, got %s", got)
	}
}

func TestService_Start_BeforeAccept_Fails(t *testing.T) {
	f := newFixture(t)
	a := f.create(t)

	_, err := f.svc.Start(context.Background(), a.ID, f.driver.ID)
	wantCode(t, err, domainerrors.ErrInvalidTransition)
}

// --- Complete ---

func TestService_Complete_DeliversAndReleasesDriver(t *testing.T) {
	f := newFixture(t)
	a := f.create(t)
	f.accept(t, a)
	if _, err := f.svc.Start(context.Background(), a.ID, f.driver.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := f.svc.Complete(context.Background(), a.ID, f.driver.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	if f.store.order(t, f.order.ID).Status != order.StatusDelivered {
		t.Fatal("expected order delivered")
	}
	if !f.store.driver(t, f.driver.ID).IsAvailable() {
		t.Fatal("driver should be released after delivery")
	}
	if f.sink.last() != string(order.StatusDelivered) {
		t.Fatalf("expected delivered notification, got %q", f.sink.last())
	}
}

func TestService_Complete_Twice_ReportsResolved(t *testing.T) {
	f := newFixture(t)
	a := f.create(t)
	f.accept(t, a)
	_, _ = f.svc.Start(context.Background(), a.ID, f.driver.ID)
	if _, err := f.svc.Complete(context.Background(), a.ID, f.driver.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := f.svc.Complete(context.Background(), a.ID, f.driver.ID)
	wantCode(t, err, domainerrors.ErrAlreadyResolved)
}

// --- Cancel ---

func TestService_Cancel_AcceptedAssignment_ReleasesDriver(t *testing.T) {
	f := newFixture(t)
	a := f.create(t)
	f.accept(t, a)

	got, err := f.svc.Cancel(context.Background(), a.ID, "driver stuck in traffic")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", got.Status)
	}
	if !f.store.driver(t, f.driver.ID).IsAvailable() {
		t.Fatal("driver should be released")
	}
	if f.store.order(t, f.order.ID).Status != order.StatusReady {
		t.Fatal("order should be requeued for another dispatch")
	}
}

func TestService_Cancel_PendingAssignment_LeavesDriverAlone(t *testing.T) {
	f := newFixture(t)
	a := f.create(t)

	if _, err := f.svc.Cancel(context.Background(), a.ID, "wrong driver picked"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.store.driver(t, f.driver.ID).IsAvailable() {
		t.Fatal("pending offer never held the driver")
	}
}

// --- CancelOrder ---

func TestService_CancelOrder_WithActiveAssignment(t *testing.T) {
	f := newFixture(t)
	a := f.create(t)
	f.accept(t, a)

	if err := f.svc.CancelOrder(context.Background(), f.order.ID, "customer changed mind"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.store.order(t, f.order.ID).Status != order.StatusCancelled {
		t.Fatal("expected order cancelled")
	}
	stored, err := f.store.GetByID(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Status != StatusCancelled {
		t.Fatalf("expected assignment cancelled, got %s", stored.Status)
	}
	if !f.store.driver(t, f.driver.ID).IsAvailable() {
		t.Fatal("driver should be released")
	}
}

func TestService_CancelOrder_WithoutAssignment(t *testing.T) {
	f := newFixture(t)

	if err := f.svc.CancelOrder(context.Background(), f.order.ID, "store closing"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.store.order(t, f.order.ID).Status != order.StatusCancelled {
		t.Fatal("expected order cancelled")
	}
}

func TestService_CancelOrder_Delivered_Fails(t *testing.T) {
	f := newFixture(t)
	a := f.create(t)
	f.accept(t, a)
	_, _ = f.svc.Start(context.Background(), a.ID, f.driver.ID)
	_, _ = f.svc.Complete(context.Background(), a.ID, f.driver.ID)

	err := f.svc.CancelOrder(context.Background(), f.order.ID, "too late")
	wantCode(t, err, domainerrors.ErrInvalidTransition)
}

// --- CurrentForDriver ---

func TestService_CurrentForDriver(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.CurrentForDriver(context.Background(), f.driver.ID); err == nil {
		t.Fatal("expected NOT_FOUND before any assignment")
	}

	a := f.create(t)
	got, err := f.svc.CurrentForDriver(context.Background(), f.driver.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != a.ID {
		t.Fatal("expected the pending assignment")
	}
}
