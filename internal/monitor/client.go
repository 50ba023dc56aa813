// ABOUTME: WebSocket client for the monitor endpoint
// ABOUTME: Dials /ws and routes status and error messages to channels
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
)

// Client receives status updates from a monitor
type Client struct {
	conn *websocket.Conn
	mu   sync.RWMutex

	// Message channels
	Statuses chan Status
	Errors   chan ErrorReport

	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

// envelope is Message with the payload left undecoded
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Dial connects to the monitor at addr (host:port) and path ("/ws" if empty)
func Dial(ctx context.Context, addr, path string) (*Client, error) {
	if path == "" {
		path = "/ws"
	}
	u := url.URL{Scheme: "ws", Host: addr, Path: path}
	log.Printf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	cctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		conn:      conn,
		Statuses:  make(chan Status, 10),
		Errors:    make(chan ErrorReport, 10),
		connected: true,
		ctx:       cctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	go c.readMessages()

	return c, nil
}

// readMessages reads and routes incoming messages
func (c *Client) readMessages() {
	defer close(c.done)
	defer c.Close()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.IsConnected() {
				log.Printf("Read error: %v", err)
			}
			return
		}
		c.handleJSONMessage(data)
	}
}

// handleJSONMessage routes JSON messages
func (c *Client) handleJSONMessage(data []byte) {
	var msg envelope
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Failed to parse JSON message: %v", err)
		return
	}

	switch msg.Type {
	case TypeStatus:
		var status Status
		if err := json.Unmarshal(msg.Payload, &status); err != nil {
			log.Printf("Failed to parse status: %v", err)
			return
		}
		select {
		case c.Statuses <- status:
		case <-c.ctx.Done():
		}

	case TypeError:
		var report ErrorReport
		if err := json.Unmarshal(msg.Payload, &report); err != nil {
			log.Printf("Failed to parse error report: %v", err)
			return
		}
		select {
		case c.Errors <- report:
		case <-c.ctx.Done():
		}

	default:
		log.Printf("Unknown message type: %s", msg.Type)
	}
}

// Done is closed when the connection ends
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
		log.Printf("Connection closed")
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
