package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ticketry/turnstile/internal/models"
)

// SeatReleaser is the slice of the seat inventory the ledger needs to hand
// seats back when holds lapse.
type SeatReleaser interface {
	Release(eventID, seatID uuid.UUID, sessionID string) error
}

type ledgerShard struct {
	mu    sync.Mutex
	holds map[uuid.UUID]*models.Hold // keyed by seat ID
}

// ReservationLedger tracks every live hold, keyed by seat. A hold leaves the
// ledger exactly once: committed into a ticket, expired by the sweep, or
// removed by a voluntary cancel.
type ReservationLedger struct {
	releaser SeatReleaser
	log      zerolog.Logger

	shards [seatShards]ledgerShard

	sessMu    sync.RWMutex
	bySession map[string]uuid.UUID // session ID -> held seat ID
}

func NewReservationLedger(releaser SeatReleaser, log zerolog.Logger) *ReservationLedger {
	l := &ReservationLedger{
		releaser:  releaser,
		log:       log,
		bySession: make(map[string]uuid.UUID),
	}
	for i := range l.shards {
		l.shards[i].holds = make(map[uuid.UUID]*models.Hold)
	}
	return l
}

// Record stores a hold. A live entry already present for the seat means the
// inventory CAS let two holders through, which is a locking bug, not
// contention; it is logged as such and refused.
func (l *ReservationLedger) Record(hold *models.Hold) error {
	shard := &l.shards[shardFor(hold.SeatID)]

	shard.mu.Lock()
	if existing, ok := shard.holds[hold.SeatID]; ok && !existing.Expired(time.Now()) {
		shard.mu.Unlock()
		l.log.Error().
			Str("seat_id", hold.SeatID.String()).
			Str("holder_session", existing.SessionID).
			Str("rejected_session", hold.SessionID).
			Msg("invariant violation: live ledger entry for a seat the inventory just held")
		return ErrAlreadyHeld
	}
	shard.holds[hold.SeatID] = hold
	shard.mu.Unlock()

	l.sessMu.Lock()
	l.bySession[hold.SessionID] = hold.SeatID
	l.sessMu.Unlock()
	return nil
}

// FindBySession returns a copy of the hold owned by the session, if any.
func (l *ReservationLedger) FindBySession(sessionID string) (models.Hold, bool) {
	l.sessMu.RLock()
	seatID, ok := l.bySession[sessionID]
	l.sessMu.RUnlock()
	if !ok {
		return models.Hold{}, false
	}

	shard := &l.shards[shardFor(seatID)]
	shard.mu.Lock()
	defer shard.mu.Unlock()
	hold, ok := shard.holds[seatID]
	if !ok || hold.SessionID != sessionID {
		return models.Hold{}, false
	}
	return *hold, true
}

// Commit removes and returns the session's hold on a seat so the caller can
// mint a ticket from it. A missing, foreign, or already-expired hold yields
// ErrNoActiveHold, the ordinary "hold expired before you confirmed" outcome.
func (l *ReservationLedger) Commit(seatID uuid.UUID, sessionID string) (*models.Hold, error) {
	shard := &l.shards[shardFor(seatID)]

	shard.mu.Lock()
	hold, ok := shard.holds[seatID]
	if !ok || hold.SessionID != sessionID || hold.Expired(time.Now()) {
		shard.mu.Unlock()
		return nil, ErrNoActiveHold
	}
	delete(shard.holds, seatID)
	shard.mu.Unlock()

	l.dropSession(sessionID, seatID)
	return hold, nil
}

// Remove deletes the session's hold without the expiry check, for voluntary
// cancels. The seat itself is not released here; that is the caller's step.
func (l *ReservationLedger) Remove(seatID uuid.UUID, sessionID string) (*models.Hold, error) {
	shard := &l.shards[shardFor(seatID)]

	shard.mu.Lock()
	hold, ok := shard.holds[seatID]
	if !ok || hold.SessionID != sessionID {
		shard.mu.Unlock()
		return nil, ErrNoActiveHold
	}
	delete(shard.holds, seatID)
	shard.mu.Unlock()

	l.dropSession(sessionID, seatID)
	return hold, nil
}

// ExpireOlderThan removes every hold whose expiry is at or before now and
// releases the seats back to the inventory. Safe to run concurrently with
// itself and with Commit: each hold is removed under its shard lock exactly
// once, and a release that lost the race is a no-op.
func (l *ReservationLedger) ExpireOlderThan(now time.Time) []*models.Hold {
	var expired []*models.Hold
	for i := range l.shards {
		shard := &l.shards[i]
		shard.mu.Lock()
		for seatID, hold := range shard.holds {
			if hold.Expired(now) {
				delete(shard.holds, seatID)
				expired = append(expired, hold)
			}
		}
		shard.mu.Unlock()
	}

	for _, hold := range expired {
		l.dropSession(hold.SessionID, hold.SeatID)
		if err := l.releaser.Release(hold.EventID, hold.SeatID, hold.SessionID); err != nil {
			l.log.Warn().Err(err).
				Str("seat_id", hold.SeatID.String()).
				Msg("failed to release seat for expired hold")
		}
	}
	return expired
}

// Len reports the number of live ledger entries.
func (l *ReservationLedger) Len() int {
	n := 0
	for i := range l.shards {
		shard := &l.shards[i]
		shard.mu.Lock()
		n += len(shard.holds)
		shard.mu.Unlock()
	}
	return n
}

func (l *ReservationLedger) dropSession(sessionID string, seatID uuid.UUID) {
	l.sessMu.Lock()
	if cur, ok := l.bySession[sessionID]; ok && cur == seatID {
		delete(l.bySession, sessionID)
	}
	l.sessMu.Unlock()
}
