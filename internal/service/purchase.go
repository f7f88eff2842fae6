package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ticketry/turnstile/internal/models"
	"github.com/ticketry/turnstile/internal/monitoring"
	"github.com/ticketry/turnstile/internal/repository"
)

// Publisher is the slice of the message bus the purchase path uses for
// best-effort notifications.
type Publisher interface {
	Publish(routingKey string, payload any) error
}

// PurchaseService orchestrates admission check -> seat hold -> commit or
// rollback. It is the only component that touches the queue, the inventory
// and the ledger together, and the only place their cross-component
// invariants are enforced.
type PurchaseService interface {
	RequestHold(ctx context.Context, eventID, userID uuid.UUID, sessionID string, seatID *uuid.UUID) (*models.Hold, error)
	ConfirmPurchase(ctx context.Context, eventID, userID uuid.UUID, sessionID string) (*models.Ticket, error)
	PurchaseTicket(ctx context.Context, eventID, userID uuid.UUID, sessionID string, seatID *uuid.UUID) (*models.Ticket, error)
	Cancel(ctx context.Context, eventID, userID uuid.UUID, sessionID string) error
}

type purchaseService struct {
	queue     *WaitingQueue
	inventory *SeatInventory
	ledger    *ReservationLedger
	events    repository.EventRepository
	seats     repository.SeatRepository
	tickets   repository.TicketRepository
	publisher Publisher
	holdTTL   time.Duration
	log       zerolog.Logger
}

func NewPurchaseService(
	queue *WaitingQueue,
	inventory *SeatInventory,
	ledger *ReservationLedger,
	events repository.EventRepository,
	seats repository.SeatRepository,
	tickets repository.TicketRepository,
	publisher Publisher,
	holdTTL time.Duration,
	log zerolog.Logger,
) PurchaseService {
	return &purchaseService{
		queue:     queue,
		inventory: inventory,
		ledger:    ledger,
		events:    events,
		seats:     seats,
		tickets:   tickets,
		publisher: publisher,
		holdTTL:   holdTTL,
		log:       log,
	}
}

// RequestHold takes a seat hold for an admitted session. Seated events
// require an explicit seat; general admission picks one from the rotating
// scan. The hold is recorded in the ledger before being returned.
func (s *purchaseService) RequestHold(ctx context.Context, eventID, userID uuid.UUID, sessionID string, seatID *uuid.UUID) (*models.Hold, error) {
	entry, ok := s.queue.Entry(eventID, sessionID)
	if !ok || entry.UserID != userID ||
		entry.Status != models.QueueAdmitted ||
		!time.Now().Before(entry.AdmissionExpiresAt) {
		return nil, ErrNotAdmitted
	}

	// One live hold per session. Without this an admitted session could
	// stack holds it can never reach again, stranding seats until the sweep.
	if prev, held := s.ledger.FindBySession(sessionID); held && !prev.Expired(time.Now()) {
		return nil, ErrHoldActive
	}

	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, ErrEventNotFound
	}
	if !event.OnSale(time.Now()) {
		return nil, ErrEventNotOnSale
	}

	var hold *models.Hold
	switch {
	case seatID != nil:
		hold, err = s.inventory.TryHold(eventID, *seatID, sessionID, s.holdTTL)
	case event.Seated:
		return nil, ErrSeatRequired
	default:
		hold, err = s.inventory.HoldAny(eventID, sessionID, s.holdTTL)
	}
	if err != nil {
		monitoring.HoldOutcome("conflict")
		return nil, err
	}

	if err := s.ledger.Record(hold); err != nil {
		// The inventory CAS admitted a second holder; the ledger logged the
		// violation. Put the seat back and refuse the hold.
		_ = s.inventory.Release(eventID, hold.SeatID, sessionID)
		monitoring.HoldOutcome("rejected")
		return nil, err
	}

	monitoring.HoldOutcome("granted")
	s.log.Info().
		Str("event_id", eventID.String()).
		Str("seat_id", hold.SeatID.String()).
		Str("session_id", sessionID).
		Time("expires_at", hold.ExpiresAt).
		Msg("seat held")
	return hold, nil
}

// ConfirmPurchase commits the session's hold into a ticket. If the expiry
// sweep won the race the removed ledger entry is not restorable and the
// purchase fails with ErrHoldExpired: the user rejoins the queue rather than
// being silently retried past everyone still waiting.
func (s *purchaseService) ConfirmPurchase(ctx context.Context, eventID, userID uuid.UUID, sessionID string) (*models.Ticket, error) {
	held, ok := s.ledger.FindBySession(sessionID)
	if !ok || held.EventID != eventID {
		return nil, ErrHoldExpired
	}

	hold, err := s.ledger.Commit(held.SeatID, sessionID)
	if err != nil {
		return nil, ErrHoldExpired
	}

	if err := s.inventory.CommitSale(eventID, hold.SeatID, sessionID); err != nil {
		s.log.Warn().
			Str("seat_id", hold.SeatID.String()).
			Str("session_id", sessionID).
			Msg("hold swept between ledger commit and sale commit")
		return nil, ErrHoldExpired
	}

	ticket := &models.Ticket{
		ID:          uuid.New(),
		EventID:     eventID,
		UserID:      userID,
		Price:       hold.Price,
		PurchasedAt: time.Now(),
	}
	seatID := hold.SeatID
	ticket.SeatID = &seatID

	if err := s.tickets.Create(ctx, ticket); err != nil {
		// The sale is committed in the inventory; losing the durable record
		// is an operational incident, not a reason to resell the seat.
		s.log.Error().Err(err).
			Str("ticket_id", ticket.ID.String()).
			Str("seat_id", seatID.String()).
			Msg("failed to persist ticket for committed sale")
		return nil, fmt.Errorf("persist ticket: %w", err)
	}
	if err := s.seats.MarkSold(ctx, seatID); err != nil {
		s.log.Warn().Err(err).Str("seat_id", seatID.String()).Msg("failed to persist seat status")
	}

	s.queue.Complete(eventID, sessionID)
	monitoring.TicketSold()

	if s.publisher != nil {
		_ = s.publisher.Publish("ticket.sold", ticket)
	}

	s.log.Info().
		Str("ticket_id", ticket.ID.String()).
		Str("event_id", eventID.String()).
		Str("user_id", userID.String()).
		Int64("price", ticket.Price).
		Msg("ticket sold")
	return ticket, nil
}

// PurchaseTicket is the single-shot flow used by clients that do not split
// hold and confirm: take the hold and commit it immediately.
func (s *purchaseService) PurchaseTicket(ctx context.Context, eventID, userID uuid.UUID, sessionID string, seatID *uuid.UUID) (*models.Ticket, error) {
	if _, err := s.RequestHold(ctx, eventID, userID, sessionID, seatID); err != nil {
		return nil, err
	}
	return s.ConfirmPurchase(ctx, eventID, userID, sessionID)
}

// Cancel is the voluntary release: drop the hold if one exists, free the
// seat, and expire the queue entry so another attempt starts back at the
// tail of the queue.
func (s *purchaseService) Cancel(ctx context.Context, eventID, userID uuid.UUID, sessionID string) error {
	entry, ok := s.queue.Entry(eventID, sessionID)
	if !ok || entry.UserID != userID {
		return ErrNotInQueue
	}

	if hold, held := s.ledger.FindBySession(sessionID); held {
		if _, err := s.ledger.Remove(hold.SeatID, sessionID); err == nil {
			_ = s.inventory.Release(eventID, hold.SeatID, sessionID)
		}
	}

	s.queue.MarkExpired(eventID, sessionID)
	s.log.Info().
		Str("event_id", eventID.String()).
		Str("session_id", sessionID).
		Msg("session cancelled, admission revoked")
	return nil
}
