package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/jhalickman/live-poll/internal/config"
)

// Conn is the subset of *websocket.Conn the coordinator-side plumbing
// needs. Tests substitute an in-memory implementation.
type Conn interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
	Write(ctx context.Context, typ websocket.MessageType, data []byte) error
	Ping(ctx context.Context) error
	Close(status websocket.StatusCode, reason string) error
}

// Client represents a single live connection with its own send
// goroutine. identity is the authenticated owner id resolved at upgrade
// time; anonymous takers carry an empty identity.
type Client struct {
	conn        Conn
	send        chan []byte
	coordinator *Coordinator
	identity    string

	// voterFallback identifies votes from clients that never present a
	// voterIdentifier. It is connection-scoped: such a client loses its
	// resubmission identity on reconnect, which is the tradeoff for
	// staying fully anonymous.
	voterFallback string

	// Rate limiting
	messageCount int
	rateLimitMu  sync.Mutex
	lastReset    time.Time

	// Lifecycle
	ctx     context.Context
	cancel  context.CancelFunc
	closed  bool
	closeMu sync.Mutex
}

// NewClient creates a new client instance.
func NewClient(conn Conn, coordinator *Coordinator, identity string) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		conn:          conn,
		send:          make(chan []byte, config.ClientSendBufferSize),
		coordinator:   coordinator,
		identity:      identity,
		voterFallback: uuid.NewString(),
		lastReset:     time.Now(),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Identity returns the authenticated owner id, or "" for anonymous
// connections.
func (c *Client) Identity() string {
	return c.identity
}

// Start begins the client's read and write pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// Wait blocks until the client is closed, so connection handlers can
// hold the request open for the connection's lifetime.
func (c *Client) Wait() {
	<-c.ctx.Done()
}

// writePump handles outgoing messages to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Channel closed, connection is closing
				_ = c.conn.Close(websocket.StatusNormalClosure, "")
				return
			}

			writeCtx, cancel := context.WithTimeout(c.ctx, config.WriteTimeout)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()

			if err != nil {
				log.Printf("Write error (identity=%s): %v", c.identity, err)
				c.coordinator.metrics.IncrementBroadcastErrors()
				return
			}
			c.coordinator.metrics.IncrementMessagesSent()

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(c.ctx, config.WriteTimeout)
			err := c.conn.Ping(pingCtx)
			cancel()

			if err != nil {
				log.Printf("Ping error (identity=%s): %v", c.identity, err)
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// readPump handles incoming commands from the connection. A disconnect
// mid-command does not cancel the command: its store write and
// broadcast still complete, only future deliveries stop reaching this
// connection.
func (c *Client) readPump() {
	defer func() {
		c.coordinator.Disconnect(c)
		c.Close()
	}()

	for {
		readCtx, cancel := context.WithTimeout(c.ctx, config.PongTimeout)
		_, message, err := c.conn.Read(readCtx)
		cancel()

		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				c.coordinator.metrics.IncrementConnectionErrors()
			}
			return
		}

		if !c.checkRateLimit() {
			log.Printf("Rate limit exceeded (identity=%s)", c.identity)
			c.coordinator.metrics.IncrementRateLimitViolations()
			c.coordinator.rejectRaw(c, CodeInternal, "rate limit exceeded, please slow down")
			continue
		}

		c.coordinator.metrics.IncrementMessagesReceived()
		c.coordinator.HandleCommand(c, message)
	}
}

// checkRateLimit verifies the client hasn't exceeded message rate limits.
func (c *Client) checkRateLimit() bool {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	now := time.Now()
	if now.Sub(c.lastReset) > config.RateLimitWindow {
		c.messageCount = 0
		c.lastReset = now
	}

	c.messageCount++
	return c.messageCount <= config.MaxMessagesPerSecond
}

// Send queues a message for delivery to the client. Delivery is
// best-effort: a full buffer means the client is too slow and it is
// dropped rather than holding up the room.
func (c *Client) Send(message []byte) bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- message:
		return true
	default:
		log.Printf("Send buffer full, closing slow client (identity=%s)", c.identity)
		c.coordinator.metrics.IncrementBroadcastErrors()
		go c.Close()
		return false
	}
}

// Close cleanly shuts down the client connection.
func (c *Client) Close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	c.cancel()
	close(c.send)
	_ = c.conn.Close(websocket.StatusNormalClosure, "")
}
