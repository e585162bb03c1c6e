package history

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one row of the append-only order status ledger. Entries are written
// inside the same transaction as the status change they record and are never
// updated afterwards.
type Entry struct {
	ID        int64      `db:"id" json:"id"`
	OrderID   uuid.UUID  `db:"order_id" json:"order_id"`
	Status    string     `db:"status" json:"status"`
	DriverID  *uuid.UUID `db:"driver_id" json:"driver_id,omitempty"`
	Note      *string    `db:"note" json:"note,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

func NewEntry(orderID uuid.UUID, status string, driverID *uuid.UUID, note string) *Entry {
	e := &Entry{
		OrderID:   orderID,
		Status:    status,
		DriverID:  driverID,
		CreatedAt: time.Now(),
	}
	if note != "" {
		e.Note = &note
	}
	return e
}
