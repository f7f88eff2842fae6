package service

import (
	"encoding/binary"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ticketry/turnstile/internal/models"
)

// seatShards is the number of exclusive sections per event. Seat status
// transitions serialize only against other operations on the same shard,
// never against the whole inventory.
const seatShards = 16

type seatRecord struct {
	seat   models.Seat
	holder string // session owning the hold; empty unless status is held
}

type seatShard struct {
	mu    sync.Mutex
	seats map[uuid.UUID]*seatRecord
}

type eventInventory struct {
	shards [seatShards]seatShard
	// Seat IDs ordered by (section, row, number), fixed at bulk load.
	// Drives ListAvailable snapshots and general-admission scans.
	order []uuid.UUID
	// Rotating scan offset for general-admission holds, so concurrent
	// buyers do not all contend on the first available seat.
	next atomic.Uint64
	sold atomic.Int64
}

func shardFor(seatID uuid.UUID) int {
	return int(binary.BigEndian.Uint32(seatID[12:]) % seatShards)
}

// SeatInventory owns every seat record and is the single place seat status
// transitions happen. All transitions are compare-and-set under the seat's
// shard lock; there is no lock spanning an event's whole inventory.
type SeatInventory struct {
	mu     sync.RWMutex
	events map[uuid.UUID]*eventInventory
}

func NewSeatInventory() *SeatInventory {
	return &SeatInventory{events: make(map[uuid.UUID]*eventInventory)}
}

func (inv *SeatInventory) event(eventID uuid.UUID) (*eventInventory, error) {
	inv.mu.RLock()
	ev, ok := inv.events[eventID]
	inv.mu.RUnlock()
	if !ok {
		return nil, ErrEventNotFound
	}
	return ev, nil
}

// BulkLoad installs the seat table for an event. It fails if a
// (section, row, number) position repeats, or if the event already has
// sales. Reloading an unsold inventory replaces it wholesale.
func (inv *SeatInventory) BulkLoad(eventID uuid.UUID, seats []models.Seat) error {
	seen := make(map[string]struct{}, len(seats))
	for _, s := range seats {
		if s.Section == "" && s.Row == "" && s.Number == "" {
			continue // general-admission seats carry no position
		}
		key := s.Section + "\x00" + s.Row + "\x00" + s.Number
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateSeat, s.Label())
		}
		seen[key] = struct{}{}
	}

	ev := &eventInventory{}
	for i := range ev.shards {
		ev.shards[i].seats = make(map[uuid.UUID]*seatRecord)
	}

	ordered := make([]models.Seat, len(seats))
	copy(ordered, seats)
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Section != b.Section {
			return a.Section < b.Section
		}
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Number < b.Number
	})

	ev.order = make([]uuid.UUID, 0, len(ordered))
	for _, s := range ordered {
		s.EventID = eventID
		s.Status = models.SeatAvailable
		shard := &ev.shards[shardFor(s.ID)]
		shard.seats[s.ID] = &seatRecord{seat: s}
		ev.order = append(ev.order, s.ID)
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()
	if prev, ok := inv.events[eventID]; ok && prev.sold.Load() > 0 {
		return ErrEventLocked
	}
	inv.events[eventID] = ev
	return nil
}

// TryHold atomically transitions a seat from available to held on behalf of
// sessionID. Exactly one of N concurrent callers on the same seat wins; the
// rest get ErrSeatUnavailable.
func (inv *SeatInventory) TryHold(eventID, seatID uuid.UUID, sessionID string, ttl time.Duration) (*models.Hold, error) {
	ev, err := inv.event(eventID)
	if err != nil {
		return nil, err
	}
	shard := &ev.shards[shardFor(seatID)]

	shard.mu.Lock()
	defer shard.mu.Unlock()

	rec, ok := shard.seats[seatID]
	if !ok || rec.seat.Status != models.SeatAvailable {
		return nil, ErrSeatUnavailable
	}
	rec.seat.Status = models.SeatHeld
	rec.holder = sessionID

	now := time.Now()
	return &models.Hold{
		SeatID:     seatID,
		EventID:    eventID,
		SessionID:  sessionID,
		Price:      rec.seat.Price,
		AcquiredAt: now,
		ExpiresAt:  now.Add(ttl),
	}, nil
}

// HoldAny holds the first available seat, scanning from a rotating offset so
// concurrent general-admission buyers spread across the inventory instead of
// herding on seat zero.
func (inv *SeatInventory) HoldAny(eventID uuid.UUID, sessionID string, ttl time.Duration) (*models.Hold, error) {
	ev, err := inv.event(eventID)
	if err != nil {
		return nil, err
	}
	n := len(ev.order)
	if n == 0 {
		return nil, ErrSoldOut
	}
	start := int(ev.next.Add(1) % uint64(n))
	for i := 0; i < n; i++ {
		seatID := ev.order[(start+i)%n]
		hold, err := inv.TryHold(eventID, seatID, sessionID, ttl)
		if err == nil {
			return hold, nil
		}
	}
	return nil, ErrSoldOut
}

// Release transitions a seat from held back to available, but only when the
// caller's session owns the hold. Releasing an already-available seat, an
// unknown seat, or a seat now held by someone else is a no-op: expiry sweeps
// and manual releases on the same seat must be commutative.
func (inv *SeatInventory) Release(eventID, seatID uuid.UUID, sessionID string) error {
	ev, err := inv.event(eventID)
	if err != nil {
		return err
	}
	shard := &ev.shards[shardFor(seatID)]

	shard.mu.Lock()
	defer shard.mu.Unlock()

	rec, ok := shard.seats[seatID]
	if !ok || rec.seat.Status != models.SeatHeld || rec.holder != sessionID {
		return nil
	}
	rec.seat.Status = models.SeatAvailable
	rec.holder = ""
	return nil
}

// CommitSale transitions a seat from held to sold. SOLD is terminal. The
// transition only happens when sessionID still owns the hold; a stale or
// swept hold gets ErrHoldMismatch.
func (inv *SeatInventory) CommitSale(eventID, seatID uuid.UUID, sessionID string) error {
	ev, err := inv.event(eventID)
	if err != nil {
		return err
	}
	shard := &ev.shards[shardFor(seatID)]

	shard.mu.Lock()
	defer shard.mu.Unlock()

	rec, ok := shard.seats[seatID]
	if !ok || rec.seat.Status != models.SeatHeld || rec.holder != sessionID {
		return ErrHoldMismatch
	}
	rec.seat.Status = models.SeatSold
	rec.holder = ""
	ev.sold.Add(1)
	return nil
}

// ListAvailable returns a snapshot of available seats ordered by
// (section, row, number). Holds taken elsewhere during the scan are fine;
// a later re-query simply returns fewer seats.
func (inv *SeatInventory) ListAvailable(eventID uuid.UUID) ([]models.Seat, error) {
	ev, err := inv.event(eventID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Seat, 0, len(ev.order))
	for _, seatID := range ev.order {
		shard := &ev.shards[shardFor(seatID)]
		shard.mu.Lock()
		if rec, ok := shard.seats[seatID]; ok && rec.seat.Status == models.SeatAvailable {
			out = append(out, rec.seat)
		}
		shard.mu.Unlock()
	}
	return out, nil
}

// Counts reports per-status seat totals for an event.
func (inv *SeatInventory) Counts(eventID uuid.UUID) (available, held, sold int, err error) {
	ev, err := inv.event(eventID)
	if err != nil {
		return 0, 0, 0, err
	}
	for i := range ev.shards {
		shard := &ev.shards[i]
		shard.mu.Lock()
		for _, rec := range shard.seats {
			switch rec.seat.Status {
			case models.SeatAvailable:
				available++
			case models.SeatHeld:
				held++
			case models.SeatSold:
				sold++
			}
		}
		shard.mu.Unlock()
	}
	return available, held, sold, nil
}
