package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/example/ride-dispatch/internal/domain/models"
	"github.com/example/ride-dispatch/pkg/logger"
	wrap "github.com/example/ride-dispatch/pkg/logger/wrapper"
	"github.com/example/ride-dispatch/pkg/metrics"
	"github.com/example/ride-dispatch/pkg/rabbit"
)

const (
	// RideExchange carries ride.status.<STATUS> routing keys.
	RideExchange = "ride_topic"
	// LocationExchange fans location pings out to interested services.
	LocationExchange = "location_fanout"
)

// DispatchBroker mirrors lifecycle transitions and location pings onto
// RabbitMQ for collaborating services. Publishes are best-effort: a
// failure is logged and never rolls back the committed state change.
type DispatchBroker struct {
	client *rabbit.RabbitMQ
	l      logger.Logger
}

func NewDispatchBroker(client *rabbit.RabbitMQ, log logger.Logger) (*DispatchBroker, error) {
	b := &DispatchBroker{client: client, l: log}

	if err := client.Channel.ExchangeDeclare(RideExchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare %s: %w", RideExchange, err)
	}
	if err := client.Channel.ExchangeDeclare(LocationExchange, "fanout", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare %s: %w", LocationExchange, err)
	}

	return b, nil
}

// PublishRideStatus publishes a transition with routing key
// ride.status.<NEW_STATUS>.
func (b *DispatchBroker) PublishRideStatus(ctx context.Context, msg models.RideStatusMessage) error {
	ctx = wrap.WithAction(ctx, "rabbitmq_publish_ride_status")

	key := fmt.Sprintf("ride.status.%s", msg.NewStatus)
	return b.publish(ctx, RideExchange, key, msg.CorrelationID, msg)
}

// PublishLocation publishes a location ping to the fanout exchange.
func (b *DispatchBroker) PublishLocation(ctx context.Context, msg models.LocationMessage) error {
	ctx = wrap.WithAction(ctx, "rabbitmq_publish_location")

	return b.publish(ctx, LocationExchange, "", "", msg)
}

func (b *DispatchBroker) publish(ctx context.Context, exchange, key, correlationID string, msg any) error {
	if err := b.client.EnsureConnection(ctx); err != nil {
		metrics.RecordRabbitPublish(exchange, err)
		return wrap.Error(ctx, err)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("failed to marshal message: %w", err))
	}

	err = retry(3, 500*time.Millisecond, func() error {
		return b.client.Channel.PublishWithContext(
			ctx,
			exchange,
			key,
			false, // mandatory
			false, // immediate
			amqp091.Publishing{
				ContentType:   "application/json",
				CorrelationId: correlationID,
				Body:          body,
				Timestamp:     time.Now(),
			},
		)
	})

	metrics.RecordRabbitPublish(exchange, err)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("failed to publish to %s: %w", exchange, err))
	}
	return nil
}

func retry(attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts-1 {
			time.Sleep(delay)
		}
	}
	return err
}
