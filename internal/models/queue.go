package models

import (
	"time"

	"github.com/google/uuid"
)

type QueueStatus string

const (
	QueueWaiting  QueueStatus = "waiting"
	QueueAdmitted QueueStatus = "admitted"
	QueueExpired  QueueStatus = "expired"
)

// QueueEntry is a user's slot in the virtual waiting queue for an event.
// At most one non-expired entry exists per (event, user) pair.
type QueueEntry struct {
	EventID    uuid.UUID   `json:"event_id"`
	UserID     uuid.UUID   `json:"user_id"`
	SessionID  string      `json:"session_id"`
	Status     QueueStatus `json:"status"`
	EnqueuedAt time.Time   `json:"enqueued_at"`
	AdmittedAt time.Time   `json:"admitted_at,omitzero"`
	// Deadline by which an admitted session must complete checkout before
	// its admission slot is reclaimed.
	AdmissionExpiresAt time.Time `json:"admission_expires_at,omitzero"`
	// When the entry left the active set. Expired entries linger for a
	// while so status polls can see the outcome, then get pruned.
	ExpiredAt time.Time `json:"expired_at,omitzero"`
}

func (q *QueueEntry) Active() bool {
	return q.Status == QueueWaiting || q.Status == QueueAdmitted
}
