package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ticketry/turnstile/internal/models"
	"github.com/ticketry/turnstile/internal/repository"
)

// EventAvailability summarizes an event's inventory state.
type EventAvailability struct {
	Available int `json:"available"`
	Held      int `json:"held"`
	Sold      int `json:"sold"`
}

// EventService is the thin facade over the external event-management
// collaborator's data. The core never mutates an event after its inventory
// is finalized; this service only creates, reads, and loads seat tables.
type EventService interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
	ListActiveEvents(ctx context.Context) ([]models.Event, error)
	LoadSeats(ctx context.Context, eventID uuid.UUID, seats []models.Seat) (int, error)
	AvailableSeats(ctx context.Context, eventID uuid.UUID) ([]models.Seat, error)
	Availability(ctx context.Context, eventID uuid.UUID) (EventAvailability, error)
	RestoreAll(ctx context.Context) error
}

type eventService struct {
	events    repository.EventRepository
	seats     repository.SeatRepository
	inventory *SeatInventory
	publisher Publisher
	log       zerolog.Logger
}

func NewEventService(events repository.EventRepository, seats repository.SeatRepository, inventory *SeatInventory, publisher Publisher, log zerolog.Logger) EventService {
	return &eventService{
		events:    events,
		seats:     seats,
		inventory: inventory,
		publisher: publisher,
		log:       log,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, event *models.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Status == "" {
		event.Status = models.EventActive
	}
	if err := s.events.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}

	// General-admission events have no seat map to load; materialize the
	// capacity as anonymous seat records so holds flow through the same
	// CAS path as seated events.
	if !event.Seated && event.Capacity > 0 {
		seats := make([]models.Seat, event.Capacity)
		for i := range seats {
			seats[i] = models.Seat{
				ID:      uuid.New(),
				EventID: event.ID,
				Price:   event.Price,
				Status:  models.SeatAvailable,
			}
		}
		if _, err := s.LoadSeats(ctx, event.ID, seats); err != nil {
			return err
		}
	}

	if s.publisher != nil {
		_ = s.publisher.Publish("event.created", event)
	}
	s.log.Info().Str("event_id", event.ID.String()).Str("name", event.Name).Msg("event created")
	return nil
}

func (s *eventService) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, ErrEventNotFound
	}
	return event, nil
}

func (s *eventService) ListActiveEvents(ctx context.Context) ([]models.Event, error) {
	return s.events.FindActive(ctx)
}

// LoadSeats installs an event's seat table into the live inventory and
// persists the layout. Returns the number of seats loaded.
func (s *eventService) LoadSeats(ctx context.Context, eventID uuid.UUID, seats []models.Seat) (int, error) {
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		return 0, ErrEventNotFound
	}

	for i := range seats {
		if seats[i].ID == uuid.Nil {
			seats[i].ID = uuid.New()
		}
		seats[i].EventID = eventID
		seats[i].Status = models.SeatAvailable
	}

	if err := s.inventory.BulkLoad(eventID, seats); err != nil {
		return 0, err
	}
	if err := s.seats.ReplaceForEvent(ctx, eventID, seats); err != nil {
		s.log.Error().Err(err).Str("event_id", eventID.String()).Msg("failed to persist seat layout")
		return 0, fmt.Errorf("persist seats: %w", err)
	}

	s.log.Info().Str("event_id", eventID.String()).Int("seats", len(seats)).Msg("seat inventory loaded")
	return len(seats), nil
}

func (s *eventService) AvailableSeats(ctx context.Context, eventID uuid.UUID) ([]models.Seat, error) {
	return s.inventory.ListAvailable(eventID)
}

func (s *eventService) Availability(ctx context.Context, eventID uuid.UUID) (EventAvailability, error) {
	available, held, sold, err := s.inventory.Counts(eventID)
	if err != nil {
		return EventAvailability{}, err
	}
	return EventAvailability{Available: available, Held: held, Sold: sold}, nil
}

// restoreEvent reloads one event's inventory from the durable seat rows.
// Seats persisted as sold stay sold; holds do not survive a restart, their
// TTL cannot be honored across one.
func (s *eventService) restoreEvent(ctx context.Context, eventID uuid.UUID) error {
	seats, err := s.seats.FindByEventID(ctx, eventID)
	if err != nil || len(seats) == 0 {
		return err
	}
	sold := make([]uuid.UUID, 0)
	for i := range seats {
		if seats[i].Status == models.SeatSold {
			sold = append(sold, seats[i].ID)
		}
		seats[i].Status = models.SeatAvailable
	}
	if err := s.inventory.BulkLoad(eventID, seats); err != nil {
		return err
	}
	for _, seatID := range sold {
		// Re-mark sold seats through the normal transition pair so the
		// terminal state is reconstructed, not forged.
		const restoreSession = "restore"
		if _, err := s.inventory.TryHold(eventID, seatID, restoreSession, time.Minute); err == nil {
			_ = s.inventory.CommitSale(eventID, seatID, restoreSession)
		}
	}
	return nil
}

// RestoreAll rebuilds the in-memory inventory for every active event.
func (s *eventService) RestoreAll(ctx context.Context) error {
	events, err := s.events.FindActive(ctx)
	if err != nil {
		return err
	}
	for _, event := range events {
		if err := s.restoreEvent(ctx, event.ID); err != nil {
			s.log.Warn().Err(err).Str("event_id", event.ID.String()).Msg("failed to restore inventory")
		}
	}
	return nil
}
