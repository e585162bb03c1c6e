package errors

import "fmt"

const (
	ErrNotFound            = "NOT_FOUND"
	ErrInvalidTransition   = "INVALID_TRANSITION"
	ErrUnauthorized        = "UNAUTHORIZED"
	ErrForbidden           = "FORBIDDEN"
	ErrConflict            = "CONFLICT"
	ErrValidation          = "VALIDATION"
	ErrOutOfZone           = "OUT_OF_ZONE"
	ErrDriverUnavailable   = "DRIVER_UNAVAILABLE"
	ErrOrderNotReady       = "ORDER_NOT_READY"
	ErrAlreadyAssigned     = "ALREADY_ASSIGNED"
	ErrAlreadyResolved     = "ALREADY_RESOLVED"
	ErrGeocodeFailed       = "GEOCODE_FAILED"
	ErrUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	ErrPersistence         = "PERSISTENCE"
	ErrInternal            = "INTERNAL"
)

type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func Wrap(code, msg string, err error) *DomainError {
	return &DomainError{Code: code, Message: msg, Err: err}
}

// --- Generic ---

func NewNotFound(entity, id string) *DomainError {
	return &DomainError{Code: ErrNotFound, Message: fmt.Sprintf("%s with id %s not found", entity, id)}
}

func NewInvalidTransition(from, to string) *DomainError {
	return &DomainError{Code: ErrInvalidTransition, Message: fmt.Sprintf("cannot transition from %s to %s", from, to)}
}

func NewUnauthorized(msg string) *DomainError {
	return &DomainError{Code: ErrUnauthorized, Message: msg}
}

func NewForbidden(msg string) *DomainError {
	return &DomainError{Code: ErrForbidden, Message: msg}
}

func NewConflict(msg string) *DomainError {
	return &DomainError{Code: ErrConflict, Message: msg}
}

func NewValidation(msg string) *DomainError {
	return &DomainError{Code: ErrValidation, Message: msg}
}

func NewOutOfZone(msg string) *DomainError {
	return &DomainError{Code: ErrOutOfZone, Message: msg}
}

func NewInternal(msg string, err error) *DomainError {
	return &DomainError{Code: ErrInternal, Message: msg, Err: err}
}

func NewPersistence(msg string, err error) *DomainError {
	return &DomainError{Code: ErrPersistence, Message: msg, Err: err}
}

func NewUpstreamUnavailable(service string, err error) *DomainError {
	return &DomainError{Code: ErrUpstreamUnavailable, Message: service + " is unavailable", Err: err}
}

// --- Order ---

func OrderNotFound(id string) *DomainError {
	return NewNotFound("order", id)
}

func OrderInvalidTransition(from, to string) *DomainError {
	return NewInvalidTransition(from, to)
}

func OrderNotReady(id, status string) *DomainError {
	return &DomainError{Code: ErrOrderNotReady, Message: fmt.Sprintf("order %s is %s, not ready_for_pickup", id, status)}
}

func OrderAlreadyAssigned(id string) *DomainError {
	return &DomainError{Code: ErrAlreadyAssigned, Message: fmt.Sprintf("order %s already has an active assignment", id)}
}

// --- Driver ---

func DriverNotFound(id string) *DomainError {
	return NewNotFound("driver", id)
}

func DriverUnavailable(id string) *DomainError {
	return &DomainError{Code: ErrDriverUnavailable, Message: fmt.Sprintf("driver %s is not available", id)}
}

func DriverNotAssigned() *DomainError {
	return NewForbidden("driver is not assigned to this delivery")
}

// --- Assignment ---

func AssignmentNotFound(id string) *DomainError {
	return NewNotFound("assignment", id)
}

func AssignmentAlreadyResolved(id, status string) *DomainError {
	return &DomainError{Code: ErrAlreadyResolved, Message: fmt.Sprintf("assignment %s is already %s", id, status)}
}

func AssignmentInvalidTransition(from, to string) *DomainError {
	return NewInvalidTransition(from, to)
}

// --- Dispatch ---

func GeocodeFailed(address string, err error) *DomainError {
	return &DomainError{Code: ErrGeocodeFailed, Message: fmt.Sprintf("could not geocode %q", address), Err: err}
}

func NoDriverAvailable() *DomainError {
	return &DomainError{Code: ErrDriverUnavailable, Message: "no available driver in the pool"}
}
