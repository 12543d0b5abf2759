package rabbit

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/example/ride-dispatch/internal/domain/types"
	"github.com/example/ride-dispatch/pkg/logger"
	wrap "github.com/example/ride-dispatch/pkg/logger/wrapper"
)

// RabbitMQ wraps one connection and channel with reconnect support.
type RabbitMQ struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel

	closeChan chan *amqp.Error
	isClosed  bool
	mu        sync.Mutex
	dsn       string

	log logger.Logger
}

// New creates a rabbitMQ client and starts connection monitoring.
func New(ctx context.Context, dsn string, log logger.Logger) (*RabbitMQ, error) {
	conn, channel, closeChan, err := dial(dsn)
	if err != nil {
		return nil, err
	}

	log.Info(wrap.WithAction(ctx, types.ActionRabbitMQConnected), "connected to rabbitMQ")

	r := &RabbitMQ{
		Conn:      conn,
		Channel:   channel,
		closeChan: closeChan,
		dsn:       dsn,
		log:       log,
	}

	go r.monitorConnection()

	return r, nil
}

func dial(dsn string) (*amqp.Connection, *amqp.Channel, chan *amqp.Error, error) {
	conn, err := amqp.DialConfig(dsn, amqp.Config{
		Heartbeat: 10 * time.Second,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	closeChan := make(chan *amqp.Error, 1)
	conn.NotifyClose(closeChan)

	return conn, channel, closeChan, nil
}

func (r *RabbitMQ) monitorConnection() {
	closeErr := <-r.closeChan

	r.mu.Lock()
	r.isClosed = true
	r.mu.Unlock()

	ctx := wrap.WithAction(context.Background(), types.ActionRabbitConnectionClosed)
	if closeErr != nil {
		r.log.Error(ctx, "RabbitMQ connection closed with error", closeErr)
	} else {
		r.log.Debug(ctx, "RabbitMQ connection closed gracefully")
	}
}

// IsConnectionClosed checks if the connection is closed
func (r *RabbitMQ) IsConnectionClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Conn == nil {
		return true
	}
	return r.isClosed || r.Conn.IsClosed() || r.Channel.IsClosed()
}

// EnsureConnection reconnects when the connection has dropped.
func (r *RabbitMQ) EnsureConnection(ctx context.Context) error {
	if !r.IsConnectionClosed() {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var lastErr error
	for i := range 5 {
		conn, channel, closeChan, err := dial(r.dsn)
		if err == nil {
			r.Conn = conn
			r.Channel = channel
			r.closeChan = closeChan
			r.isClosed = false
			go r.monitorConnection()
			r.log.Info(ctx, "RabbitMQ reconnected successfully")
			return nil
		}
		lastErr = err

		wait := time.Duration(i+1) * 2 * time.Second
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return fmt.Errorf("failed to reconnect to RabbitMQ: %w", lastErr)
}

// Close closes the channel and connection.
func (r *RabbitMQ) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.isClosed {
		r.mu.Unlock()
		return nil
	}
	r.isClosed = true
	ch := r.Channel
	conn := r.Conn
	r.Channel = nil
	r.Conn = nil
	r.mu.Unlock()

	if ch != nil {
		if err := ch.Close(); err != nil {
			r.log.Error(ctx, "error closing channel", err)
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			return fmt.Errorf("failed to close connection: %w", err)
		}
	}

	r.log.Info(wrap.WithAction(ctx, types.ActionRabbitConnectionClosed), "rabbitMQ closed")
	return nil
}
