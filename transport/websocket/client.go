package websocket

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/knightsgate/chess-backend/internal/entity"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	sendBufferSize = 32
)

// Client is one live connection: the gorilla conn plus a buffered
// outbound queue drained by writePump. It satisfies router.Conn, so
// groups can fan messages out to it without knowing the transport.
type Client struct {
	conn   *websocket.Conn
	user   *entity.User
	logger *slog.Logger

	send      chan []byte
	closeOnce sync.Once
	closed    chan struct{}
}

func newClient(conn *websocket.Conn, user *entity.User, logger *slog.Logger) *Client {
	return &Client{
		conn:   conn,
		user:   user,
		logger: logger,
		send:   make(chan []byte, sendBufferSize),
		closed: make(chan struct{}),
	}
}

func (that *Client) UserID() string {
	if that.user == nil {
		return ""
	}
	return that.user.ID
}

// Enqueue hands a message to the write pump without blocking. It reports
// false when the client is gone or its buffer is full; the caller treats
// that as a skipped delivery, not an error.
func (that *Client) Enqueue(message []byte) bool {
	select {
	case <-that.closed:
		return false
	default:
	}

	select {
	case that.send <- message:
		return true
	default:
		return false
	}
}

// writePump serializes all writes to the connection and keeps it alive
// with pings. It exits when the client is closed or a write fails.
func (that *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = that.conn.Close()
	}()

	for {
		select {
		case <-that.closed:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = that.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				that.logger.Debug("write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (that *Client) close() {
	that.closeOnce.Do(func() {
		close(that.closed)
	})
}
