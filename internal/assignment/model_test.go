package assignment

import (
	"testing"

	"github.com/google/uuid"

	"courier-dispatch/internal/common"
	domainerrors "courier-dispatch/internal/errors"
)

func newPendingAssignment() *Assignment {
	return New(uuid.New(), uuid.New(),
		common.NewLocation(24.71, 46.67),
		common.NewLocation(24.75, 46.70))
}

func TestNew_DefaultsPending(t *testing.T) {
	a := newPendingAssignment()

	if a.Status != StatusPending {
		t.Fatalf("expected pending, got %s", a.Status)
	}
	if !a.Status.IsActive() {
		t.Fatal("pending assignment should be active")
	}
	if a.EstimatedDistanceKM != nil {
		t.Fatal("expected no estimate until the provider answers")
	}
}

// --- Accept ---

func TestAssignment_Accept_FromPending(t *testing.T) {
	a := newPendingAssignment()

	if err := a.Accept(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != StatusAccepted {
		t.Fatalf("expected accepted, got %s", a.Status)
	}
	if a.AcceptedAt == nil {
		t.Fatal("expected accepted_at to be set")
	}
}

func TestAssignment_Accept_AfterReject_ReportsResolved(t *testing.T) {
	a := newPendingAssignment()
	_ = a.Reject()

	err := a.Accept()
	de, ok := err.(*domainerrors.DomainError)
	if !ok {
		t.Fatalf("expected DomainError, got %T", err)
	}
	if de.Code != domainerrors.ErrAlreadyResolved {
		t.Fatalf("expected ALREADY_RESOLVED, got %s", de.Code)
	}
}

// --- Reject ---

func TestAssignment_Reject_Twice_ReportsResolved(t *testing.T) {
	a := newPendingAssignment()
	_ = a.Reject()

	if err := a.Reject(); err == nil {
		t.Fatal("expected error")
	}
}

// --- Complete ---

func TestAssignment_Complete_FromAccepted(t *testing.T) {
	a := newPendingAssignment()
	_ = a.Accept()

	if err := a.Complete(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", a.Status)
	}
	if a.CompletedAt == nil {
		t.Fatal("expected completed_at to be set")
	}
}

func TestAssignment_Complete_FromPending_Fails(t *testing.T) {
	a := newPendingAssignment()

	err := a.Complete()
	de, ok := err.(*domainerrors.DomainError)
	if !ok {
		t.Fatalf("expected DomainError, got %T", err)
	}
	if de.Code != domainerrors.ErrInvalidTransition {
		t.Fatalf("expected INVALID_TRANSITION, got %s", de.Code)
	}
}

func TestAssignment_Complete_Twice_ReportsResolved(t *testing.T) {
	a := newPendingAssignment()
	_ = a.Accept()
	_ = a.Complete()

	err := a.Complete()
	de, ok := err.(*domainerrors.DomainError)
	if !ok {
		t.Fatalf("expected DomainError, got %T", err)
	}
	if de.Code != domainerrors.ErrAlreadyResolved {
		t.Fatalf("expected ALREADY_RESOLVED, got %s", de.Code)
	}
}

// --- Cancel ---

func TestAssignment_Cancel_FromPendingAndAccepted(t *testing.T) {
	for _, setup := range []func() *Assignment{
		newPendingAssignment,
		func() *Assignment { a := newPendingAssignment(); _ = a.Accept(); return a },
	} {
		a := setup()
		if err := a.Cancel("driver stuck in traffic"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.Status != StatusCancelled {
			t.Fatalf("expected cancelled, got %s", a.Status)
		}
		if a.CancelReason == nil || *a.CancelReason != "driver stuck in traffic" {
			t.Fatal("cancel reason not recorded")
		}
	}
}

func TestAssignment_Cancel_Completed_ReportsResolved(t *testing.T) {
	a := newPendingAssignment()
	_ = a.Accept()
	_ = a.Complete()

	if err := a.Cancel("too late"); err == nil {
		t.Fatal("expected error")
	}
}

func TestAssignment_SetEstimate(t *testing.T) {
	a := newPendingAssignment()
	a.SetEstimate(4.2, 13.5)

	if a.EstimatedDistanceKM == nil || *a.EstimatedDistanceKM != 4.2 {
		t.Fatalf("unexpected distance: %v", a.EstimatedDistanceKM)
	}
	if a.EstimatedDurationMin == nil || *a.EstimatedDurationMin != 13.5 {
		t.Fatalf("unexpected duration: %v", a.EstimatedDurationMin)
	}
}
