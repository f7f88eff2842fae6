package models

import (
	"time"

	"github.com/google/uuid"
)

// Hold is a time-bounded exclusive claim on a seat, taken between admission
// and purchase confirmation. Holds live only in the reservation ledger; a
// committed hold becomes a Ticket, an expired one releases the seat.
type Hold struct {
	SeatID     uuid.UUID `json:"seat_id"`
	EventID    uuid.UUID `json:"event_id"`
	SessionID  string    `json:"session_id"`
	Price      int64     `json:"price"`
	AcquiredAt time.Time `json:"acquired_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (h *Hold) Expired(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}
