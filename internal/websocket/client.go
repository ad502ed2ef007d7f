package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"chat-realtime/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Conn is the part of *websocket.Conn the client pumps use.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// MessageHandler processes a validated inbound frame for a client.
type MessageHandler interface {
	Handle(ctx context.Context, c *Client, frame ClientFrame)
}

type ClientOptions struct {
	// Time allowed to write a message to the peer
	WriteWait time.Duration
	// Time allowed to read the next pong message from the peer
	PongWait time.Duration
	// Maximum message size allowed from peer
	MaxMessageSize int64
	SendBufferSize int
}

func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		MaxMessageSize: 512,
		SendBufferSize: 256,
	}
}

// Send pings to peer with this period. Must be less than PongWait.
func (o ClientOptions) pingPeriod() time.Duration {
	return (o.PongWait * 9) / 10
}

// Client is one authenticated connection. Its identity is fixed at
// construction and is the only authorization context for its frames.
type Client struct {
	id       string
	identity models.Identity
	hub      *Hub
	conn     Conn
	handler  MessageHandler
	opts     ClientOptions
	send     chan []byte

	// guarded by hub.mu
	topics map[Topic]struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	logger *slog.Logger
}

func NewClient(hub *Hub, conn Conn, identity models.Identity, handler MessageHandler, opts ClientOptions, logger *slog.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()

	return &Client{
		id:       id,
		identity: identity,
		hub:      hub,
		conn:     conn,
		handler:  handler,
		opts:     opts,
		send:     make(chan []byte, opts.SendBufferSize),
		topics:   make(map[Topic]struct{}),
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger.With(slog.String("clientID", id), slog.Uint64("userID", uint64(identity.ID))),
	}
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) Identity() models.Identity {
	return c.identity
}

// Done is closed once the client has been disconnected from the hub.
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

// enqueue must be called with hub.mu held (read or write), which keeps it
// from racing shutdown.
func (c *Client) enqueue(data []byte) bool {
	select {
	case <-c.ctx.Done():
		return false
	default:
	}

	select {
	case c.send <- data:
		return true
	default:
		c.logger.Warn("Send buffer full, dropping event")
		return false
	}
}

// shutdown is called by the hub under its write lock.
func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
	})
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Disconnect(c)
		if err := c.conn.Close(); err != nil {
			c.logger.Debug("Error closing connection", "error", err)
		}
	}()

	c.conn.SetReadLimit(c.opts.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			} else {
				c.logger.Debug("WebSocket connection closed", "error", err)
			}
			return
		}

		frame, err := ParseClientFrame(data)
		if err != nil {
			c.logger.Warn("Dropping invalid frame", "error", err)
			c.hub.SendTo(c, NewErrorEvent("invalid_frame"))
			continue
		}
		if c.handler != nil {
			c.handler.Handle(c.ctx, c, frame)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.opts.pingPeriod())
	defer func() {
		ticker.Stop()
		// Unblocks readPump if the write side failed first.
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("Error writing message", "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("Error sending ping", "error", err)
				return
			}
		}
	}
}

// ServeClient binds an upgraded connection to identity, registers it with
// the hub and starts its pumps.
func ServeClient(hub *Hub, conn Conn, identity models.Identity, handler MessageHandler, opts ClientOptions, logger *slog.Logger) *Client {
	client := NewClient(hub, conn, identity, handler, opts, logger)
	hub.Register(client)
	client.logger.Info("New WebSocket connection established")

	go client.writePump()
	go client.readPump()
	return client
}
