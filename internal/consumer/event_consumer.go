package consumer

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/ticketry/turnstile/internal/models"
	"github.com/ticketry/turnstile/internal/repository"
)

// EventConsumer keeps the local event catalog in sync with definitions
// published by upstream management tools.
type EventConsumer struct {
	events repository.EventRepository
	log    zerolog.Logger
}

func NewEventConsumer(events repository.EventRepository, log zerolog.Logger) *EventConsumer {
	return &EventConsumer{events: events, log: log}
}

func (ec *EventConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			ec.handleMessage(msg)
		}
		ec.log.Info().Msg("event consumer channel closed")
	}()
}

func (ec *EventConsumer) handleMessage(msg amqp.Delivery) {
	var event models.Event
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		ec.log.Error().Err(err).Msg("unmarshal event message")
		msg.Nack(false, false)
		return
	}

	if err := ec.events.Upsert(context.Background(), &event); err != nil {
		ec.log.Error().Err(err).Stringer("event_id", event.ID).Msg("upsert event")
		msg.Nack(false, true) // requeue
		return
	}

	ec.log.Info().Stringer("event_id", event.ID).Str("name", event.Name).Msg("synced event")
	msg.Ack(false)
}
