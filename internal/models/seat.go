package models

import (
	"time"

	"github.com/google/uuid"
)

type SeatStatus string

const (
	SeatAvailable SeatStatus = "available"
	SeatHeld      SeatStatus = "held"
	SeatSold      SeatStatus = "sold"
)

type Seat struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	EventID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"event_id"`
	Section   string     `json:"section"`
	Row       string     `json:"row"`
	Number    string     `json:"number"`
	Price     int64      `json:"price"` // cents
	Status    SeatStatus `gorm:"type:varchar(20);not null;default:'available'" json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Label returns the human-readable seat identifier, e.g. "A-1-12".
// General-admission seats have no section/row/number and label as "GA".
func (s *Seat) Label() string {
	if s.Section == "" && s.Row == "" && s.Number == "" {
		return "GA"
	}
	return s.Section + "-" + s.Row + "-" + s.Number
}
