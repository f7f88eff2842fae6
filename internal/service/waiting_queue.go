package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ticketry/turnstile/internal/models"
)

type eventQueue struct {
	mu        sync.Mutex
	waiting   []*models.QueueEntry // FIFO by enqueue time, then insertion order
	byUser    map[uuid.UUID]*models.QueueEntry
	bySession map[string]*models.QueueEntry
	admitted  int
}

// WaitingQueue rations access to the purchase path. Users join at the tail,
// a periodic driver admits them in FIFO order up to a ceiling of concurrently
// admitted sessions, and admissions that outlive their deadline are reclaimed
// so the queue keeps moving when buyers abandon checkout.
type WaitingQueue struct {
	admitCeiling int
	admissionTTL time.Duration

	mu       sync.RWMutex
	events   map[uuid.UUID]*eventQueue
	sessions map[string]uuid.UUID // session ID -> event ID
}

func NewWaitingQueue(admitCeiling int, admissionTTL time.Duration) *WaitingQueue {
	return &WaitingQueue{
		admitCeiling: admitCeiling,
		admissionTTL: admissionTTL,
		events:       make(map[uuid.UUID]*eventQueue),
		sessions:     make(map[string]uuid.UUID),
	}
}

func (q *WaitingQueue) eventQueue(eventID uuid.UUID, create bool) *eventQueue {
	q.mu.RLock()
	eq, ok := q.events[eventID]
	q.mu.RUnlock()
	if ok || !create {
		return eq
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if eq, ok = q.events[eventID]; ok {
		return eq
	}
	eq = &eventQueue{
		byUser:    make(map[uuid.UUID]*models.QueueEntry),
		bySession: make(map[string]*models.QueueEntry),
	}
	q.events[eventID] = eq
	return eq
}

// Join appends a waiting entry for the user and returns it along with the
// 1-based initial position. A second join while an entry is still waiting or
// admitted is rejected, not duplicated; rejoining after expiry starts over at
// the tail.
func (q *WaitingQueue) Join(eventID, userID uuid.UUID, sessionID string) (models.QueueEntry, int, error) {
	// Session IDs may be client-supplied; one colliding with another user's
	// live session elsewhere must not hijack it.
	if prev, ok := q.EntryBySession(sessionID); ok && prev.Active() && prev.UserID != userID {
		return models.QueueEntry{}, 0, ErrSessionTaken
	}

	eq := q.eventQueue(eventID, true)

	eq.mu.Lock()
	if prev, ok := eq.byUser[userID]; ok {
		if prev.Active() {
			eq.mu.Unlock()
			return models.QueueEntry{}, 0, ErrAlreadyQueued
		}
		delete(eq.bySession, prev.SessionID)
		defer q.forgetSession(prev.SessionID)
	}
	if prev, ok := eq.bySession[sessionID]; ok && prev.Active() {
		eq.mu.Unlock()
		return models.QueueEntry{}, 0, ErrSessionTaken
	}
	entry := &models.QueueEntry{
		EventID:    eventID,
		UserID:     userID,
		SessionID:  sessionID,
		Status:     models.QueueWaiting,
		EnqueuedAt: time.Now(),
	}
	eq.waiting = append(eq.waiting, entry)
	eq.byUser[userID] = entry
	eq.bySession[sessionID] = entry
	position := len(eq.waiting)
	eq.mu.Unlock()

	q.mu.Lock()
	q.sessions[sessionID] = eventID
	q.mu.Unlock()

	return *entry, position, nil
}

// Position returns the user's entry and, for waiting entries, the 1-based
// rank among waiting entries. Admitted and expired entries report rank 0.
func (q *WaitingQueue) Position(eventID, userID uuid.UUID) (models.QueueEntry, int, error) {
	eq := q.eventQueue(eventID, false)
	if eq == nil {
		return models.QueueEntry{}, 0, ErrNotInQueue
	}

	eq.mu.Lock()
	defer eq.mu.Unlock()

	entry, ok := eq.byUser[userID]
	if !ok {
		return models.QueueEntry{}, 0, ErrNotInQueue
	}
	if entry.Status != models.QueueWaiting {
		return *entry, 0, nil
	}
	rank := 0
	for _, e := range eq.waiting {
		if e.Status != models.QueueWaiting {
			continue
		}
		rank++
		if e == entry {
			return *entry, rank, nil
		}
	}
	return *entry, 0, nil
}

// Entry looks up a session's entry for an event.
func (q *WaitingQueue) Entry(eventID uuid.UUID, sessionID string) (models.QueueEntry, bool) {
	eq := q.eventQueue(eventID, false)
	if eq == nil {
		return models.QueueEntry{}, false
	}
	eq.mu.Lock()
	defer eq.mu.Unlock()
	entry, ok := eq.bySession[sessionID]
	if !ok {
		return models.QueueEntry{}, false
	}
	return *entry, true
}

// EntryBySession resolves a session across events, for status lookups that
// carry no event ID.
func (q *WaitingQueue) EntryBySession(sessionID string) (models.QueueEntry, bool) {
	q.mu.RLock()
	eventID, ok := q.sessions[sessionID]
	q.mu.RUnlock()
	if !ok {
		return models.QueueEntry{}, false
	}
	return q.Entry(eventID, sessionID)
}

// AdmitNext promotes up to n waiting entries, oldest first, without letting
// the number of concurrently admitted sessions exceed the ceiling. It is
// called by the periodic driver, never from the join path. Returns the
// promoted entries so the driver can notify them.
func (q *WaitingQueue) AdmitNext(eventID uuid.UUID, n int, now time.Time) []models.QueueEntry {
	eq := q.eventQueue(eventID, false)
	if eq == nil {
		return nil
	}

	eq.mu.Lock()
	defer eq.mu.Unlock()

	var promoted []models.QueueEntry
	for n > 0 && eq.admitted < q.admitCeiling && len(eq.waiting) > 0 {
		entry := eq.waiting[0]
		eq.waiting = eq.waiting[1:]
		if entry.Status != models.QueueWaiting {
			continue // lazily dropped after an expiry elsewhere
		}
		entry.Status = models.QueueAdmitted
		entry.AdmittedAt = now
		entry.AdmissionExpiresAt = now.Add(q.admissionTTL)
		eq.admitted++
		n--
		promoted = append(promoted, *entry)
	}
	return promoted
}

// ExpireAdmitted reclaims admission slots from sessions that ran out their
// admission deadline without completing a purchase. This is what lets
// AdmitNext make forward progress when buyers abandon checkout.
func (q *WaitingQueue) ExpireAdmitted(eventID uuid.UUID, now time.Time) []models.QueueEntry {
	eq := q.eventQueue(eventID, false)
	if eq == nil {
		return nil
	}

	eq.mu.Lock()
	defer eq.mu.Unlock()

	var expired []models.QueueEntry
	for _, entry := range eq.byUser {
		if entry.Status == models.QueueAdmitted && !now.Before(entry.AdmissionExpiresAt) {
			entry.Status = models.QueueExpired
			entry.ExpiredAt = now
			eq.admitted--
			expired = append(expired, *entry)
		}
	}
	return expired
}

// MarkExpired expires a session's entry immediately, freeing its admission
// slot. Used on cancel and on hold expiry: the user must rejoin at the tail,
// which is what keeps quick cancel/rejoin loops from jumping the queue.
func (q *WaitingQueue) MarkExpired(eventID uuid.UUID, sessionID string) bool {
	eq := q.eventQueue(eventID, false)
	if eq == nil {
		return false
	}

	eq.mu.Lock()
	defer eq.mu.Unlock()

	entry, ok := eq.bySession[sessionID]
	if !ok || entry.Status == models.QueueExpired {
		return false
	}
	if entry.Status == models.QueueAdmitted {
		eq.admitted--
	}
	entry.Status = models.QueueExpired
	entry.ExpiredAt = time.Now()
	return true
}

// Complete removes a session's entry after a successful purchase, freeing
// its admission slot.
func (q *WaitingQueue) Complete(eventID uuid.UUID, sessionID string) {
	eq := q.eventQueue(eventID, false)
	if eq == nil {
		return
	}

	eq.mu.Lock()
	entry, ok := eq.bySession[sessionID]
	if ok {
		if entry.Status == models.QueueAdmitted {
			eq.admitted--
		}
		delete(eq.bySession, sessionID)
		delete(eq.byUser, entry.UserID)
		// A waiting-slice element, if any, is skipped lazily by AdmitNext.
		entry.Status = models.QueueExpired
	}
	eq.mu.Unlock()

	q.mu.Lock()
	delete(q.sessions, sessionID)
	q.mu.Unlock()
}

// PruneExpired drops expired entries that have sat for longer than the
// admission TTL since expiring. The grace period lets status polls observe
// the expiry; the prune keeps abandoned sessions from accumulating over a
// long on-sale. Returns the number of entries dropped.
func (q *WaitingQueue) PruneExpired(eventID uuid.UUID, now time.Time) int {
	eq := q.eventQueue(eventID, false)
	if eq == nil {
		return 0
	}
	cutoff := now.Add(-q.admissionTTL)

	var dropped []string
	eq.mu.Lock()
	for userID, entry := range eq.byUser {
		if entry.Status == models.QueueExpired && entry.ExpiredAt.Before(cutoff) {
			delete(eq.byUser, userID)
			delete(eq.bySession, entry.SessionID)
			dropped = append(dropped, entry.SessionID)
		}
	}
	eq.mu.Unlock()

	for _, sessionID := range dropped {
		q.forgetSession(sessionID)
	}
	return len(dropped)
}

func (q *WaitingQueue) forgetSession(sessionID string) {
	q.mu.Lock()
	delete(q.sessions, sessionID)
	q.mu.Unlock()
}

// EventIDs lists events with queue state, for the sweep driver.
func (q *WaitingQueue) EventIDs() []uuid.UUID {
	q.mu.RLock()
	defer q.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(q.events))
	for id := range q.events {
		ids = append(ids, id)
	}
	return ids
}

// Depth reports the waiting and admitted counts for an event.
func (q *WaitingQueue) Depth(eventID uuid.UUID) (waiting, admitted int) {
	eq := q.eventQueue(eventID, false)
	if eq == nil {
		return 0, 0
	}
	eq.mu.Lock()
	defer eq.mu.Unlock()
	for _, e := range eq.waiting {
		if e.Status == models.QueueWaiting {
			waiting++
		}
	}
	return waiting, eq.admitted
}
