package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ticketry/turnstile/internal/models"
)

func NewPostgresDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.Event{}, &models.Seat{}, &models.Ticket{}); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	// Partial unique index: one row per physical seat position. General
	// admission rows carry empty positions and are exempt.
	db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_seat_position
		ON seats (event_id, section, row, number)
		WHERE section <> '' OR row <> '' OR number <> ''
	`)

	return db, nil
}
