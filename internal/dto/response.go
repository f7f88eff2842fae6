package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ticketry/turnstile/internal/models"
	"github.com/ticketry/turnstile/internal/service"
)

type EventResponse struct {
	ID          uuid.UUID          `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Venue       string             `json:"venue,omitempty"`
	StartTime   time.Time          `json:"start_time"`
	EndTime     time.Time          `json:"end_time"`
	Capacity    int                `json:"capacity"`
	Seated      bool               `json:"is_seated_event"`
	Status      models.EventStatus `json:"status"`
	Available   int                `json:"available_seats"`
	Held        int                `json:"held_seats"`
	Sold        int                `json:"sold_seats"`
}

type SeatResponse struct {
	ID      uuid.UUID `json:"id"`
	EventID uuid.UUID `json:"event_id"`
	Section string    `json:"section"`
	Row     string    `json:"row"`
	Number  string    `json:"number"`
	Price   int64     `json:"price"`
}

type QueueJoinResponse struct {
	SessionID string             `json:"session_id"`
	Position  int                `json:"position"`
	Status    models.QueueStatus `json:"status"`
}

type QueuePositionResponse struct {
	Position      int                `json:"position"`
	Status        models.QueueStatus `json:"status"`
	EstimatedWait string             `json:"estimated_wait,omitempty"`
	EnqueuedAt    time.Time          `json:"enqueued_at"`
}

type HoldResponse struct {
	SeatID    uuid.UUID `json:"seat_id"`
	SessionID string    `json:"session_id"`
	Price     int64     `json:"price"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToEventResponse(e *models.Event, avail service.EventAvailability) EventResponse {
	return EventResponse{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Venue:       e.Venue,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Capacity:    e.Capacity,
		Seated:      e.Seated,
		Status:      e.Status,
		Available:   avail.Available,
		Held:        avail.Held,
		Sold:        avail.Sold,
	}
}

func ToSeatResponse(s models.Seat) SeatResponse {
	return SeatResponse{
		ID:      s.ID,
		EventID: s.EventID,
		Section: s.Section,
		Row:     s.Row,
		Number:  s.Number,
		Price:   s.Price,
	}
}

func ToHoldResponse(h *models.Hold) HoldResponse {
	return HoldResponse{
		SeatID:    h.SeatID,
		SessionID: h.SessionID,
		Price:     h.Price,
		ExpiresAt: h.ExpiresAt,
	}
}
