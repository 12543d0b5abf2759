package broadcast_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/ride-dispatch/pkg/broadcast"
	"github.com/example/ride-dispatch/pkg/logger"
)

type collector struct {
	mu     sync.Mutex
	events []any
	fail   bool
}

func (c *collector) Send(event any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("gone")
	}
	c.events = append(c.events, event)
	return nil
}

func (c *collector) got() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.events...)
}

func newHub(t *testing.T) *broadcast.Hub {
	t.Helper()
	return broadcast.NewHub(logger.InitLogger("test", "ERROR"))
}

func TestPublishReachesOnlyChannelSubscribers(t *testing.T) {
	hub := newHub(t)

	a := &collector{}
	b := &collector{}
	require.NoError(t, hub.Subscribe("ride:1", a))
	require.NoError(t, hub.Subscribe("ride:2", b))

	hub.Publish("ride:1", "hello")

	require.Equal(t, []any{"hello"}, a.got())
	require.Empty(t, b.got())
}

func TestNoReplayForLateSubscribers(t *testing.T) {
	hub := newHub(t)

	hub.Publish("ride:1", "before")

	late := &collector{}
	require.NoError(t, hub.Subscribe("ride:1", late))
	hub.Publish("ride:1", "after")

	require.Equal(t, []any{"after"}, late.got())
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub := newHub(t)

	sub := &collector{}
	require.NoError(t, hub.Subscribe("driver:1", sub))
	hub.Publish("driver:1", 1)

	hub.Unsubscribe("driver:1", sub)
	hub.Publish("driver:1", 2)

	require.Equal(t, []any{1}, sub.got())
	require.Zero(t, hub.Subscribers("driver:1"))
}

func TestFailedSendDoesNotBlockOthers(t *testing.T) {
	hub := newHub(t)

	dead := &collector{fail: true}
	alive := &collector{}
	require.NoError(t, hub.Subscribe("ride:1", dead))
	require.NoError(t, hub.Subscribe("ride:1", alive))

	hub.Publish("ride:1", "event")

	require.Equal(t, []any{"event"}, alive.got())
}
