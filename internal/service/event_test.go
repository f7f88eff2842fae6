package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/ticketry/turnstile/internal/models"
)

func TestCreateEvent_GeneralAdmissionMaterializesCapacity(t *testing.T) {
	inv := NewSeatInventory()
	seatRepo := &mockSeatRepo{}
	events := &mockEventRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Event, error) {
			return &models.Event{ID: id, Status: models.EventActive}, nil
		},
	}
	svc := NewEventService(events, seatRepo, inv, nil, zerolog.Nop())

	event := &models.Event{
		Name:     "Standing Room Show",
		Capacity: 50,
		Price:    2500,
	}
	assert.NoError(t, svc.CreateEvent(context.Background(), event))
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, models.EventActive, event.Status)

	avail, err := svc.Availability(context.Background(), event.ID)
	assert.NoError(t, err)
	assert.Equal(t, 50, avail.Available)
	assert.Len(t, seatRepo.replaced, 50)
	assert.Equal(t, int64(2500), seatRepo.replaced[0].Price)
}

func TestCreateEvent_SeatedStartsEmpty(t *testing.T) {
	inv := NewSeatInventory()
	events := &mockEventRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Event, error) {
			return &models.Event{ID: id, Status: models.EventActive, Seated: true}, nil
		},
	}
	svc := NewEventService(events, &mockSeatRepo{}, inv, nil, zerolog.Nop())

	event := &models.Event{Name: "Concert", Capacity: 100, Seated: true}
	assert.NoError(t, svc.CreateEvent(context.Background(), event))

	// Seated events wait for an explicit seat map.
	_, err := svc.Availability(context.Background(), event.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestLoadSeats_UnknownEvent(t *testing.T) {
	events := &mockEventRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Event, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := NewEventService(events, &mockSeatRepo{}, NewSeatInventory(), nil, zerolog.Nop())

	_, err := svc.LoadSeats(context.Background(), uuid.New(), makeSeats(2))
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestLoadSeats_AssignsIDsAndCounts(t *testing.T) {
	events := &mockEventRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Event, error) {
			return &models.Event{ID: id, Status: models.EventActive, Seated: true}, nil
		},
	}
	seatRepo := &mockSeatRepo{}
	svc := NewEventService(events, seatRepo, NewSeatInventory(), nil, zerolog.Nop())

	seats := makeSeats(3)
	seats[1].ID = uuid.Nil
	n, err := svc.LoadSeats(context.Background(), uuid.New(), seats)
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
	for _, s := range seatRepo.replaced {
		assert.NotEqual(t, uuid.Nil, s.ID)
	}
}

func TestRestoreAll_RebuildsSoldSeats(t *testing.T) {
	eventID := uuid.New()
	seats := makeSeats(3)
	seats[1].Status = models.SeatSold
	seats[2].Status = models.SeatHeld // holds do not survive a restart

	events := &mockEventRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Event, error) {
			return &models.Event{ID: id, Status: models.EventActive, Seated: true}, nil
		},
		findActiveFn: func(ctx context.Context) ([]models.Event, error) {
			return []models.Event{{ID: eventID, Status: models.EventActive, Seated: true}}, nil
		},
	}
	seatRepo := &mockSeatRepo{
		findByEventFn: func(ctx context.Context, id uuid.UUID) ([]models.Seat, error) {
			out := make([]models.Seat, len(seats))
			copy(out, seats)
			return out, nil
		},
	}

	inv := NewSeatInventory()
	svc := NewEventService(events, seatRepo, inv, nil, zerolog.Nop())
	assert.NoError(t, svc.RestoreAll(context.Background()))

	avail, err := svc.Availability(context.Background(), eventID)
	assert.NoError(t, err)
	assert.Equal(t, 2, avail.Available)
	assert.Equal(t, 0, avail.Held)
	assert.Equal(t, 1, avail.Sold)

	// The restored sold seat stays terminal.
	_, err = inv.TryHold(eventID, seats[1].ID, "s1", time.Minute)
	assert.ErrorIs(t, err, ErrSeatUnavailable)
}
