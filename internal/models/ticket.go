package models

import (
	"time"

	"github.com/google/uuid"
)

// Ticket is the durable proof of a committed sale. Immutable once created.
type Ticket struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	EventID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"event_id"`
	SeatID      *uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"seat_id,omitempty"` // general admission references its anonymous capacity row
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Price       int64      `json:"price"` // cents
	PurchasedAt time.Time  `gorm:"not null" json:"purchased_at"`
	CreatedAt   time.Time  `json:"created_at"`
}
