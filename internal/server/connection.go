package server

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	sendBuffer = 256
)

// ErrConnectionClosed is returned when sending to a closed connection
var ErrConnectionClosed = websocket.ErrCloseSent

// MessageHandler processes a message read from a client
type MessageHandler func(c *Connection, msg *Message)

// Connection represents a WebSocket connection to a client
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	logger    *log.Logger
	clock     quartz.Clock
	handle    MessageHandler
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, clock quartz.Clock, handle MessageHandler) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:   conn,
		send:   make(chan *Message, sendBuffer),
		logger: logger.WithPrefix("conn").With("remote", conn.RemoteAddr().String()),
		clock:  clock,
		handle: handle,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message. A client that cannot keep up is
// disconnected rather than allowed to block the broadcaster.
func (c *Connection) SendMessage(msg *Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			// send was closed underneath us
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
			err = ErrConnectionClosed
		}
	}()

	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		c.handle(c, &msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := c.clock.NewTicker(pingPeriod, "ping")
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Connection) sendError(code, message string) {
	msg, err := NewMessage(MessageTypeError, ErrorData{Code: code, Message: message}, c.clock.Now())
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}
	_ = c.SendMessage(msg)
}
