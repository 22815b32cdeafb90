package collab

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/constructhq/constructor/internal/logger"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound message size. Full document snapshots travel over
	// the socket, so this is far larger than a typical chat frame.
	defaultMaxMessageBytes = 1 << 20

	// Outbound queue capacity per connection. A recipient that falls
	// this far behind is force-disconnected rather than buffered
	// without bound.
	defaultSendQueueSize = 256
)

// Settings tune per-connection limits.
type Settings struct {
	MaxMessageBytes int64
	SendQueueSize   int
}

func (s Settings) withDefaults() Settings {
	if s.MaxMessageBytes <= 0 {
		s.MaxMessageBytes = defaultMaxMessageBytes
	}
	if s.SendQueueSize <= 0 {
		s.SendQueueSize = defaultSendQueueSize
	}
	return s
}

// Client owns one websocket connection and drives its room: the read
// pump decodes inbound frames into dispatches, the write pump drains
// the bounded outbound queue.
type Client struct {
	ID   string
	Name string

	registry *Registry
	room     *Room
	wsConn   *websocket.Conn
	send     chan []byte
	closed   sync.Once
}

// NewClient wraps an upgraded websocket connection for a named
// participant.
func NewClient(registry *Registry, room *Room, wsConn *websocket.Conn, name string, settings Settings) *Client {
	settings = settings.withDefaults()
	wsConn.SetReadLimit(settings.MaxMessageBytes)

	return &Client{
		ID:       generateParticipantID(),
		Name:     name,
		registry: registry,
		room:     room,
		wsConn:   wsConn,
		send:     make(chan []byte, settings.SendQueueSize),
	}
}

// Start joins the room and runs both pumps. It returns once the welcome
// sequence is delivered; the pumps keep running until the connection
// dies.
func (c *Client) Start() {
	go c.writePump()
	c.room.Join(c.ID, c.Name, c)
	go c.readPump()
	logger.Info("participant %s (%s) connected to room %s", c.Name, c.ID, c.room.ID())
}

// enqueue hands a frame to the write pump without blocking. A full
// queue reports failure, which the room treats as a dead connection.
func (c *Client) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// closeSend releases the write pump. Safe to call more than once.
func (c *Client) closeSend() {
	c.closed.Do(func() {
		close(c.send)
	})
}

// readPump pumps frames from the websocket into the room dispatcher.
// Any read error, graceful close included, tears the participant down.
func (c *Client) readPump() {
	defer func() {
		remaining := c.room.Leave(c.ID)
		c.closeSend()
		c.wsConn.Close()
		if remaining == 0 {
			c.registry.Release(c.room)
		}
		logger.Info("participant %s disconnected from room %s", c.ID, c.room.ID())
	}()

	_ = c.wsConn.SetReadDeadline(time.Now().Add(pongWait))
	c.wsConn.SetPongHandler(func(string) error {
		return c.wsConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Error("websocket read error for %s: %v", c.ID, err)
			}
			return
		}
		c.room.Dispatch(c.ID, message)
	}
}

// writePump pumps frames from the outbound queue to the websocket and
// keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.wsConn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.wsConn.WriteMessage(websocket.TextMessage, frame); err != nil {
				logger.Debug("websocket write error for %s: %v", c.ID, err)
				return
			}

		case <-ticker.C:
			_ = c.wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// generateParticipantID returns a fresh participant id.
func generateParticipantID() string {
	bytes := make([]byte, 6)
	if _, err := rand.Read(bytes); err != nil {
		return "user-" + hex.EncodeToString([]byte(time.Now().Format("150405.000")))[:12]
	}
	return "user-" + hex.EncodeToString(bytes)
}
