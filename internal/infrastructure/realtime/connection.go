package realtime

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	outboxSize = 128
)

var (
	errClosed     = errors.New("realtime: session closed")
	errOutboxFull = errors.New("realtime: outbox full")
)

// Connection is one user's websocket session. Frames are queued on an outbox
// drained by a single writer goroutine, so Send is safe from any goroutine.
type Connection struct {
	SessionID uuid.UUID
	UserID    uuid.UUID

	ws      *websocket.Conn
	outbox  chan []byte
	done    chan struct{}
	closing sync.Once

	// threads holds the rooms this session joined. Guarded by Router.mu.
	threads map[uuid.UUID]struct{}
}

func NewConnection(userID uuid.UUID, ws *websocket.Conn) *Connection {
	return &Connection{
		SessionID: uuid.New(),
		UserID:    userID,
		ws:        ws,
		outbox:    make(chan []byte, outboxSize),
		done:      make(chan struct{}),
		threads:   make(map[uuid.UUID]struct{}),
	}
}

// Start launches the writer. Router.Attach calls it once.
func (c *Connection) Start() {
	go c.writeLoop()
}

// Send queues payload. A reader too slow to drain its outbox is disconnected
// rather than allowed to stall a room broadcast.
func (c *Connection) Send(payload []byte) error {
	select {
	case <-c.done:
		return errClosed
	case c.outbox <- payload:
		return nil
	default:
		c.Close(websocket.CloseGoingAway, "send buffer full")
		return errOutboxFull
	}
}

// SendJSON encodes frame and queues it.
func (c *Connection) SendJSON(frame any) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return c.Send(payload)
}

// Done is closed once the session has been closed.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Close sends a close frame with code and reason, then drops the socket.
// Only the first call has any effect.
func (c *Connection) Close(code int, reason string) {
	c.closing.Do(func() {
		close(c.done)
		deadline := time.Now().Add(writeWait)
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		_ = c.ws.Close()
	})
}

func (c *Connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		var err error
		select {
		case <-c.done:
			return
		case payload := <-c.outbox:
			err = c.write(websocket.TextMessage, payload)
		case <-ticker.C:
			err = c.write(websocket.PingMessage, nil)
		}
		if err != nil {
			c.Close(websocket.CloseAbnormalClosure, "write failed")
			return
		}
	}
}

func (c *Connection) write(kind int, payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(kind, payload)
}
