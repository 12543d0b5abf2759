package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// conn serializes writes to one websocket client. gorilla allows only
// a single concurrent writer, and the hub fans out from many
// goroutines.
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func newConn(ws *websocket.Conn) *conn {
	return &conn{ws: ws}
}

// Send delivers one event as a JSON text message. An error marks the
// subscriber dead; the hub drops it and the read loop tears down.
func (c *conn) Send(event any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteJSON(event)
}

func (c *conn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.Close()
}
