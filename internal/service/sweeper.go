package service

import (
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"github.com/ticketry/turnstile/internal/monitoring"
)

// Sweeper is the recurring background driver. It reclaims expired holds and
// admissions and tops up the admitted set, so capacity and availability stay
// accurate even when no requests are flowing. Nothing on the request path
// ever triggers a sweep.
type Sweeper struct {
	ledger    *ReservationLedger
	queue     *WaitingQueue
	publisher Publisher
	batch     int // admissions granted per pass and per event
	log       zerolog.Logger

	scheduler gocron.Scheduler
}

func NewSweeper(ledger *ReservationLedger, queue *WaitingQueue, publisher Publisher, batch int, log zerolog.Logger) (*Sweeper, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Sweeper{
		ledger:    ledger,
		queue:     queue,
		publisher: publisher,
		batch:     batch,
		log:       log,
		scheduler: scheduler,
	}, nil
}

// Start registers the two sweep jobs and begins running them. Hold expiry
// and admission expiry are independent timers with independent scopes (seat
// vs. session); they run as separate jobs on their own intervals.
func (s *Sweeper) Start(holdInterval, admissionInterval time.Duration) error {
	if _, err := s.scheduler.NewJob(
		gocron.DurationJob(holdInterval),
		gocron.NewTask(s.sweepHolds),
	); err != nil {
		return err
	}
	if _, err := s.scheduler.NewJob(
		gocron.DurationJob(admissionInterval),
		gocron.NewTask(s.sweepAdmissions),
	); err != nil {
		return err
	}
	s.scheduler.Start()
	return nil
}

func (s *Sweeper) Stop() error {
	return s.scheduler.Shutdown()
}

func (s *Sweeper) sweepHolds() {
	now := time.Now()
	expired := s.ledger.ExpireOlderThan(now)
	for _, hold := range expired {
		// Losing the seat hold invalidates the admission: the buyer rejoins
		// at the tail instead of hammering the freed seat.
		s.queue.MarkExpired(hold.EventID, hold.SessionID)
	}
	monitoring.SweepReclaimed("hold", len(expired))
	if len(expired) > 0 {
		s.log.Info().Int("count", len(expired)).Msg("expired holds reclaimed")
	}
}

func (s *Sweeper) sweepAdmissions() {
	now := time.Now()
	for _, eventID := range s.queue.EventIDs() {
		lapsed := s.queue.ExpireAdmitted(eventID, now)
		monitoring.SweepReclaimed("admission", len(lapsed))

		admitted := s.queue.AdmitNext(eventID, s.batch, now)
		for _, entry := range admitted {
			if s.publisher != nil {
				_ = s.publisher.Publish("queue.admitted", entry)
			}
		}
		if len(lapsed) > 0 || len(admitted) > 0 {
			s.log.Info().
				Str("event_id", eventID.String()).
				Int("lapsed", len(lapsed)).
				Int("admitted", len(admitted)).
				Msg("admission sweep")
		}

		if pruned := s.queue.PruneExpired(eventID, now); pruned > 0 {
			s.log.Debug().
				Str("event_id", eventID.String()).
				Int("pruned", pruned).
				Msg("dropped stale expired queue entries")
		}

		waiting, active := s.queue.Depth(eventID)
		monitoring.SetQueueDepth(eventID, waiting, active)
	}
}
