package monitoring

import (
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queueWaiting = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "turnstile_queue_waiting",
			Help: "Users waiting in the admission queue per event",
		},
		[]string{"event_id"},
	)

	queueAdmitted = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "turnstile_queue_admitted",
			Help: "Sessions currently admitted to the purchase path per event",
		},
		[]string{"event_id"},
	)

	holds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "turnstile_holds_total",
			Help: "Seat hold attempts by outcome",
		},
		[]string{"outcome"},
	)

	ticketsSold = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "turnstile_tickets_sold_total",
			Help: "Tickets committed",
		},
	)

	sweepReclaimed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "turnstile_sweep_reclaimed_total",
			Help: "Holds and admissions reclaimed by the background sweep",
		},
		[]string{"kind"},
	)
)

func SetQueueDepth(eventID uuid.UUID, waiting, admitted int) {
	queueWaiting.WithLabelValues(eventID.String()).Set(float64(waiting))
	queueAdmitted.WithLabelValues(eventID.String()).Set(float64(admitted))
}

// HoldOutcome records a hold attempt. Outcome is one of "granted",
// "conflict" or "rejected".
func HoldOutcome(outcome string) {
	holds.WithLabelValues(outcome).Inc()
}

func TicketSold() {
	ticketsSold.Inc()
}

// SweepReclaimed counts reclaimed resources; kind is "hold" or "admission".
func SweepReclaimed(kind string, n int) {
	if n > 0 {
		sweepReclaimed.WithLabelValues(kind).Add(float64(n))
	}
}
