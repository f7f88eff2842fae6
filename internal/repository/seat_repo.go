package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ticketry/turnstile/internal/models"
)

// SeatRepository persists the durable copy of the seat table. The in-memory
// inventory is authoritative for status during a sale; rows here record the
// loaded layout and the terminal sold transitions.
type SeatRepository interface {
	ReplaceForEvent(ctx context.Context, eventID uuid.UUID, seats []models.Seat) error
	FindByEventID(ctx context.Context, eventID uuid.UUID) ([]models.Seat, error)
	MarkSold(ctx context.Context, seatID uuid.UUID) error
}

type seatRepository struct {
	db *gorm.DB
}

func NewSeatRepository(db *gorm.DB) SeatRepository {
	return &seatRepository{db: db}
}

func (r *seatRepository) ReplaceForEvent(ctx context.Context, eventID uuid.UUID, seats []models.Seat) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", eventID).Delete(&models.Seat{}).Error; err != nil {
			return err
		}
		if len(seats) == 0 {
			return nil
		}
		return tx.CreateInBatches(seats, 500).Error
	})
}

func (r *seatRepository) FindByEventID(ctx context.Context, eventID uuid.UUID) ([]models.Seat, error) {
	var seats []models.Seat
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("section ASC, row ASC, number ASC").
		Find(&seats).Error
	return seats, err
}

func (r *seatRepository) MarkSold(ctx context.Context, seatID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Seat{}).
		Where("id = ?", seatID).
		Update("status", models.SeatSold).Error
}
