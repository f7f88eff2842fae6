package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateEventRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Venue       string    `json:"venue"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	SaleStartAt time.Time `json:"sale_start_at"`
	SaleEndAt   time.Time `json:"sale_end_at"`
	Capacity    int       `json:"capacity"`
	// Accepted under both names; the reference clients use total_tickets.
	TotalTickets int   `json:"total_tickets"`
	Seated       bool  `json:"is_seated_event"`
	Price        int64 `json:"price"`
}

type SeatSpec struct {
	Section string `json:"section"`
	Row     string `json:"row"`
	Number  string `json:"number"`
	Price   int64  `json:"price"`
}

type LoadSeatsRequest struct {
	Seats []SeatSpec `json:"seats"`
}

type JoinQueueRequest struct {
	EventID   uuid.UUID `json:"event_id"`
	UserID    uuid.UUID `json:"user_id"`
	SessionID string    `json:"session_id"`
}

type PurchaseRequest struct {
	EventID   uuid.UUID  `json:"event_id"`
	UserID    uuid.UUID  `json:"user_id"`
	SessionID string     `json:"session_id"`
	SeatID    *uuid.UUID `json:"seat_id,omitempty"`
}

type SessionRequest struct {
	EventID   uuid.UUID `json:"event_id"`
	UserID    uuid.UUID `json:"user_id"`
	SessionID string    `json:"session_id"`
}
