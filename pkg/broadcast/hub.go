// Package broadcast is a process-local publish/subscribe primitive over
// string-keyed channels. Delivery is at-most-once per currently-connected
// subscriber: there is no persistence and no replay of missed events.
// A subscriber that reconnects must re-fetch current state from the
// lifecycle manager or the location store.
package broadcast

import (
	"context"
	"errors"
	"sync"

	"github.com/example/ride-dispatch/pkg/logger"
	wrap "github.com/example/ride-dispatch/pkg/logger/wrapper"
	"github.com/example/ride-dispatch/pkg/metrics"
)

var ErrNilSubscriber = errors.New("subscriber is nil")

// Subscriber receives published events. Send must be safe for
// concurrent use; a failed Send is dropped, never retried.
type Subscriber interface {
	Send(event any) error
}

// Hub maps channel keys (ride:<id>, driver:<id>) to the set of
// currently-connected subscribers. Membership is process-lifetime only.
type Hub struct {
	mu       sync.Mutex
	channels map[string]map[Subscriber]struct{}
	l        logger.Logger
}

func NewHub(l logger.Logger) *Hub {
	return &Hub{
		channels: make(map[string]map[Subscriber]struct{}),
		l:        l,
	}
}

// Subscribe adds sub to the channel's membership set.
func (h *Hub) Subscribe(key string, sub Subscriber) error {
	if sub == nil {
		return ErrNilSubscriber
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.channels[key]
	if !ok {
		set = make(map[Subscriber]struct{})
		h.channels[key] = set
	}
	if _, dup := set[sub]; !dup {
		set[sub] = struct{}{}
		metrics.BroadcastSubscribers.Inc()
	}
	return nil
}

// Unsubscribe removes sub from the channel. Mandatory on disconnect so
// membership stays bounded; empty channels are dropped from the map.
func (h *Hub) Unsubscribe(key string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.channels[key]
	if !ok {
		return
	}
	if _, member := set[sub]; member {
		delete(set, sub)
		metrics.BroadcastSubscribers.Dec()
	}
	if len(set) == 0 {
		delete(h.channels, key)
	}
}

// Publish delivers event to every subscriber currently on the channel.
// Sends happen outside the hub lock; failures are logged and dropped.
func (h *Hub) Publish(key string, event any) {
	h.mu.Lock()
	subs := make([]Subscriber, 0, len(h.channels[key]))
	for sub := range h.channels[key] {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		if err := sub.Send(event); err != nil {
			ctx := wrap.WithAction(context.Background(), "broadcast_publish")
			h.l.Warn(ctx, "dropping undeliverable event", "channel", key, "err", err.Error())
			metrics.BroadcastDeliveries.WithLabelValues("dropped").Inc()
			continue
		}
		metrics.BroadcastDeliveries.WithLabelValues("delivered").Inc()
	}
}

// Subscribers returns the current membership count for a channel.
func (h *Hub) Subscribers(key string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.channels[key])
}

// Close drops every membership. Used on shutdown; subscribers own their
// underlying connections and close them separately.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for key, set := range h.channels {
		metrics.BroadcastSubscribers.Sub(float64(len(set)))
		delete(h.channels, key)
	}
}
