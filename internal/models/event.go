package models

import (
	"time"

	"github.com/google/uuid"
)

type EventStatus string

const (
	EventActive   EventStatus = "active"
	EventInactive EventStatus = "inactive"
	EventSoldOut  EventStatus = "sold_out"
)

type Event struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string      `gorm:"not null" json:"name"`
	Description string      `json:"description"`
	Venue       string      `json:"venue"`
	StartTime   time.Time   `json:"start_time"`
	EndTime     time.Time   `json:"end_time"`
	SaleStartAt time.Time   `json:"sale_start_at"`
	SaleEndAt   time.Time   `json:"sale_end_at"`
	Capacity    int         `gorm:"not null" json:"capacity"`
	Seated      bool        `gorm:"not null" json:"seated"`
	Price       int64       `json:"price"` // cents; per-seat price for general admission
	Status      EventStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// OnSale reports whether tickets for the event can currently be sold.
// An unset sale window falls back to the event end time.
func (e *Event) OnSale(now time.Time) bool {
	if e.Status != EventActive {
		return false
	}
	if !e.SaleStartAt.IsZero() && now.Before(e.SaleStartAt) {
		return false
	}
	end := e.SaleEndAt
	if end.IsZero() {
		end = e.EndTime
	}
	return now.Before(end)
}
