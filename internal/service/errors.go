package service

import "errors"

// Setup errors: caller misuse, fatal to the call, never retried.
var (
	ErrDuplicateSeat  = errors.New("duplicate seat position in event")
	ErrEventLocked    = errors.New("event already has sales, inventory is locked")
	ErrEventNotFound  = errors.New("event not found")
	ErrEventNotOnSale = errors.New("event is not on sale")
	ErrSeatRequired   = errors.New("seat id is required for seated events")
)

// Admission errors: the user must resynchronize through the waiting queue.
var (
	ErrAlreadyQueued = errors.New("user already has an active queue entry for this event")
	ErrNotInQueue    = errors.New("user is not in the queue for this event")
	ErrNotAdmitted   = errors.New("session has not been admitted for purchase")
	ErrSessionTaken  = errors.New("session id is already bound to another user")
)

// Inventory conflict errors: expected under contention, surfaced as
// "try another seat / rejoin", never masked or retried by the core.
var (
	ErrSeatUnavailable = errors.New("seat is not available")
	ErrHoldMismatch    = errors.New("seat is not held by this session")
	ErrNoActiveHold    = errors.New("no active hold for this session")
	ErrHoldActive      = errors.New("session already holds a seat, confirm or cancel it first")
	ErrHoldExpired     = errors.New("hold has expired, rejoin the queue to try again")
	ErrSoldOut         = errors.New("no seats available")
)

// ErrAlreadyHeld is an invariant-violation signal: the ledger refused a hold
// the inventory CAS should have made impossible. Logged distinctly from
// ordinary contention errors, never conflated with them.
var ErrAlreadyHeld = errors.New("ledger already has a live hold for this seat")
