package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ticketry/turnstile/internal/models"
)

func TestJoin_AssignsPositionsInOrder(t *testing.T) {
	q := NewWaitingQueue(10, time.Minute)
	eventID := uuid.New()

	for i := 1; i <= 3; i++ {
		entry, pos, err := q.Join(eventID, uuid.New(), fmt.Sprintf("s%d", i))
		assert.NoError(t, err)
		assert.Equal(t, i, pos)
		assert.Equal(t, models.QueueWaiting, entry.Status)
	}
}

func TestJoin_RejectsActiveDuplicate(t *testing.T) {
	q := NewWaitingQueue(10, time.Minute)
	eventID := uuid.New()
	userID := uuid.New()

	_, _, err := q.Join(eventID, userID, "s1")
	assert.NoError(t, err)

	_, _, err = q.Join(eventID, userID, "s2")
	assert.ErrorIs(t, err, ErrAlreadyQueued)

	// Still rejected once admitted.
	q.AdmitNext(eventID, 1, time.Now())
	_, _, err = q.Join(eventID, userID, "s2")
	assert.ErrorIs(t, err, ErrAlreadyQueued)
}

func TestJoin_RejectsForeignSessionReuse(t *testing.T) {
	q := NewWaitingQueue(10, time.Minute)
	eventID := uuid.New()
	owner := uuid.New()

	_, _, err := q.Join(eventID, owner, "shared")
	assert.NoError(t, err)

	// Another user presenting the same session token must not hijack it,
	// on the same event or any other.
	_, _, err = q.Join(eventID, uuid.New(), "shared")
	assert.ErrorIs(t, err, ErrSessionTaken)
	_, _, err = q.Join(uuid.New(), uuid.New(), "shared")
	assert.ErrorIs(t, err, ErrSessionTaken)

	// The original binding is intact.
	entry, ok := q.EntryBySession("shared")
	assert.True(t, ok)
	assert.Equal(t, owner, entry.UserID)

	// Once the owner's entry expires the token is free again.
	assert.True(t, q.MarkExpired(eventID, "shared"))
	_, _, err = q.Join(eventID, uuid.New(), "shared")
	assert.NoError(t, err)
}

func TestAdmitNext_FIFOAndCeiling(t *testing.T) {
	q := NewWaitingQueue(2, time.Minute)
	eventID := uuid.New()

	first := uuid.New()
	second := uuid.New()
	third := uuid.New()
	for i, userID := range []uuid.UUID{first, second, third} {
		_, _, err := q.Join(eventID, userID, fmt.Sprintf("s%d", i))
		assert.NoError(t, err)
	}

	promoted := q.AdmitNext(eventID, 10, time.Now())
	assert.Len(t, promoted, 2)
	assert.Equal(t, first, promoted[0].UserID)
	assert.Equal(t, second, promoted[1].UserID)

	// Ceiling reached, the third user stays waiting.
	assert.Empty(t, q.AdmitNext(eventID, 10, time.Now()))

	entry, rank, err := q.Position(eventID, third)
	assert.NoError(t, err)
	assert.Equal(t, models.QueueWaiting, entry.Status)
	assert.Equal(t, 1, rank)
}

func TestExpireAdmitted_FreesSlotForNextWaiter(t *testing.T) {
	q := NewWaitingQueue(1, time.Minute)
	eventID := uuid.New()
	slow := uuid.New()
	next := uuid.New()

	_, _, err := q.Join(eventID, slow, "slow")
	assert.NoError(t, err)
	_, _, err = q.Join(eventID, next, "next")
	assert.NoError(t, err)

	now := time.Now()
	assert.Len(t, q.AdmitNext(eventID, 1, now), 1)
	assert.Empty(t, q.AdmitNext(eventID, 1, now))

	expired := q.ExpireAdmitted(eventID, now.Add(2*time.Minute))
	assert.Len(t, expired, 1)
	assert.Equal(t, slow, expired[0].UserID)

	promoted := q.AdmitNext(eventID, 1, now.Add(2*time.Minute))
	assert.Len(t, promoted, 1)
	assert.Equal(t, next, promoted[0].UserID)
}

func TestMarkExpired_RejoinGoesToTail(t *testing.T) {
	q := NewWaitingQueue(10, time.Minute)
	eventID := uuid.New()
	bouncer := uuid.New()

	_, _, err := q.Join(eventID, bouncer, "s1")
	assert.NoError(t, err)
	_, _, err = q.Join(eventID, uuid.New(), "s2")
	assert.NoError(t, err)

	assert.True(t, q.MarkExpired(eventID, "s1"))
	assert.False(t, q.MarkExpired(eventID, "s1"))

	_, pos, err := q.Join(eventID, bouncer, "s3")
	assert.NoError(t, err)
	assert.Equal(t, 3, pos)

	// Rank counts only waiting entries, so the stale slice slot is invisible.
	_, rank, err := q.Position(eventID, bouncer)
	assert.NoError(t, err)
	assert.Equal(t, 2, rank)

	// The old session no longer resolves.
	_, ok := q.EntryBySession("s1")
	assert.False(t, ok)
	entry, ok := q.EntryBySession("s3")
	assert.True(t, ok)
	assert.Equal(t, bouncer, entry.UserID)
}

func TestComplete_RemovesEntryAndFreesSlot(t *testing.T) {
	q := NewWaitingQueue(1, time.Minute)
	eventID := uuid.New()
	buyer := uuid.New()
	next := uuid.New()

	_, _, err := q.Join(eventID, buyer, "buyer")
	assert.NoError(t, err)
	_, _, err = q.Join(eventID, next, "next")
	assert.NoError(t, err)

	assert.Len(t, q.AdmitNext(eventID, 1, time.Now()), 1)
	q.Complete(eventID, "buyer")

	_, _, err = q.Position(eventID, buyer)
	assert.ErrorIs(t, err, ErrNotInQueue)

	promoted := q.AdmitNext(eventID, 1, time.Now())
	assert.Len(t, promoted, 1)
	assert.Equal(t, next, promoted[0].UserID)
}

func TestPruneExpired_DropsStaleEntriesAfterGrace(t *testing.T) {
	q := NewWaitingQueue(10, time.Minute)
	eventID := uuid.New()
	abandoned := uuid.New()
	recent := uuid.New()

	_, _, err := q.Join(eventID, abandoned, "s1")
	assert.NoError(t, err)
	_, _, err = q.Join(eventID, recent, "s2")
	assert.NoError(t, err)
	assert.True(t, q.MarkExpired(eventID, "s1"))
	assert.True(t, q.MarkExpired(eventID, "s2"))

	// Within the grace period the entries are still observable.
	assert.Equal(t, 0, q.PruneExpired(eventID, time.Now()))
	entry, _, err := q.Position(eventID, abandoned)
	assert.NoError(t, err)
	assert.Equal(t, models.QueueExpired, entry.Status)

	// Past it they are gone, along with their session bindings.
	assert.Equal(t, 2, q.PruneExpired(eventID, time.Now().Add(2*time.Minute)))
	_, _, err = q.Position(eventID, abandoned)
	assert.ErrorIs(t, err, ErrNotInQueue)
	_, ok := q.EntryBySession("s1")
	assert.False(t, ok)

	// Pruned users can rejoin cleanly.
	_, pos, err := q.Join(eventID, abandoned, "s3")
	assert.NoError(t, err)
	assert.Equal(t, 3, pos)
}

func TestDepth_CountsWaitingAndAdmitted(t *testing.T) {
	q := NewWaitingQueue(1, time.Minute)
	eventID := uuid.New()

	for i := 0; i < 3; i++ {
		_, _, err := q.Join(eventID, uuid.New(), fmt.Sprintf("s%d", i))
		assert.NoError(t, err)
	}
	q.AdmitNext(eventID, 1, time.Now())

	waiting, admitted := q.Depth(eventID)
	assert.Equal(t, 2, waiting)
	assert.Equal(t, 1, admitted)

	assert.Equal(t, []uuid.UUID{eventID}, q.EventIDs())
}
