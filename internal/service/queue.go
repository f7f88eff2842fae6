package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ticketry/turnstile/internal/models"
	"github.com/ticketry/turnstile/internal/repository"
)

// QueueService fronts the waiting queue for the transport layer: it checks
// the event is on sale, issues session IDs, and annotates positions with a
// wait estimate. The FIFO mechanics live in WaitingQueue.
type QueueService interface {
	Join(ctx context.Context, eventID, userID uuid.UUID, sessionID string) (models.QueueEntry, int, error)
	Position(ctx context.Context, eventID, userID uuid.UUID) (models.QueueEntry, int, time.Duration, error)
	StatusBySession(ctx context.Context, sessionID string) (models.QueueEntry, error)
}

type queueService struct {
	queue  *WaitingQueue
	events repository.EventRepository
	// Average time an admission slot is occupied, used for the wait
	// estimate shown to waiting users.
	avgAdmissionPeriod time.Duration
	log                zerolog.Logger
}

func NewQueueService(queue *WaitingQueue, events repository.EventRepository, avgAdmissionPeriod time.Duration, log zerolog.Logger) QueueService {
	return &queueService{
		queue:              queue,
		events:             events,
		avgAdmissionPeriod: avgAdmissionPeriod,
		log:                log,
	}
}

// Join appends the user to the event's queue. The session ID is an opaque
// token: clients may supply their own correlation value, otherwise one is
// assigned here.
func (s *queueService) Join(ctx context.Context, eventID, userID uuid.UUID, sessionID string) (models.QueueEntry, int, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return models.QueueEntry{}, 0, ErrEventNotFound
	}
	if !event.OnSale(time.Now()) {
		return models.QueueEntry{}, 0, ErrEventNotOnSale
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	entry, position, err := s.queue.Join(eventID, userID, sessionID)
	if err != nil {
		return models.QueueEntry{}, 0, err
	}

	s.log.Info().
		Str("event_id", eventID.String()).
		Str("user_id", userID.String()).
		Int("position", position).
		Msg("user joined queue")
	return entry, position, nil
}

func (s *queueService) Position(ctx context.Context, eventID, userID uuid.UUID) (models.QueueEntry, int, time.Duration, error) {
	entry, rank, err := s.queue.Position(eventID, userID)
	if err != nil {
		return models.QueueEntry{}, 0, 0, err
	}
	var wait time.Duration
	if entry.Status == models.QueueWaiting && rank > 0 {
		wait = time.Duration(rank) * s.avgAdmissionPeriod
	}
	return entry, rank, wait, nil
}

func (s *queueService) StatusBySession(ctx context.Context, sessionID string) (models.QueueEntry, error) {
	entry, ok := s.queue.EntryBySession(sessionID)
	if !ok {
		return models.QueueEntry{}, ErrNotInQueue
	}
	return entry, nil
}
