// ABOUTME: HTTP and WebSocket status endpoint for a running engine
// ABOUTME: Serves /status snapshots and pushes periodic updates to /ws subscribers
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Resonate-Protocol/noisemaker-go/internal/version"
	"github.com/Resonate-Protocol/noisemaker-go/pkg/engine"
	"github.com/gorilla/websocket"
)

// Source is the engine being monitored
type Source interface {
	Stats() engine.Stats
	LastError() error
}

// Config holds monitor configuration
type Config struct {
	Addr     string        // listen address (default: ":8930")
	Name     string        // instance name reported in status
	Interval time.Duration // push interval (default: 250ms)
}

// Server publishes engine status over HTTP
type Server struct {
	config Config
	source Source

	upgrader websocket.Upgrader

	// HTTP server
	httpServer *http.Server
	mux        *http.ServeMux
	listener   net.Listener

	// Subscribers
	clients   map[*subscriber]struct{}
	clientsMu sync.RWMutex

	startTime time.Time

	// Control
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type subscriber struct {
	conn     *websocket.Conn
	sendChan chan Message
	done     chan struct{}
	once     sync.Once
}

func (c *subscriber) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// New creates a monitor for source
func New(config Config, source Source) *Server {
	if config.Addr == "" {
		config.Addr = ":8930"
	}
	if config.Interval == 0 {
		config.Interval = 250 * time.Millisecond
	}

	s := &Server{
		config: config,
		source: source,
		mux:    http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Status is read-only and served on trusted local networks
				return true
			},
		},
		clients:   make(map[*subscriber]struct{}),
		startTime: time.Now(),
		stopChan:  make(chan struct{}),
	}

	s.mux.HandleFunc("/status", s.handleStatus)
	s.mux.HandleFunc("/ws", s.handleWebSocket)

	return s
}

// Handler returns the HTTP handler serving /status and /ws
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start listens on the configured address and begins publishing
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	s.listener = listener

	s.httpServer = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("Monitor listening on %s", listener.Addr())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Monitor HTTP server error: %v", err)
		}
	}()

	s.wg.Add(1)
	go s.publishLoop()

	return nil
}

// Addr returns the bound listen address
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Port returns the bound TCP port
func (s *Server) Port() int {
	if addr, ok := s.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// Stop shuts down the HTTP server and disconnects subscribers
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)

		if s.httpServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := s.httpServer.Shutdown(ctx); err != nil {
				log.Printf("Monitor shutdown error: %v", err)
			}
		}

		s.clientsMu.Lock()
		for c := range s.clients {
			c.close()
		}
		s.clientsMu.Unlock()

		s.wg.Wait()
	})
}

// Status returns the current status snapshot
func (s *Server) Status() Status {
	st := Status{
		Name:    s.config.Name,
		Product: version.Product,
		Version: version.Version,
		Uptime:  time.Since(s.startTime).Seconds(),
		Engine:  s.source.Stats(),
	}
	if err := s.source.LastError(); err != nil {
		st.Error = err.Error()
	}
	return st
}

// Publish sends a message to every subscriber, dropping it for slow ones
func (s *Server) Publish(msg Message) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for c := range s.clients {
		select {
		case c.sendChan <- msg:
		default:
		}
	}
}

// Clients returns the number of connected subscribers
func (s *Server) Clients() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// publishLoop pushes status to subscribers every interval
func (s *Server) publishLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			if s.Clients() > 0 {
				s.Publish(Message{Type: TypeStatus, Payload: s.Status()})
			}
		}
	}
}

// handleStatus serves a JSON status snapshot
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Status()); err != nil {
		log.Printf("Failed to write status: %v", err)
	}
}

// handleWebSocket subscribes a WebSocket client to status updates
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	select {
	case <-s.stopChan:
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("Monitor subscriber connected from %s", r.RemoteAddr)

	c := &subscriber{
		conn:     conn,
		sendChan: make(chan Message, 8),
		done:     make(chan struct{}),
	}

	s.clientsMu.Lock()
	s.clients[c] = struct{}{}
	s.clientsMu.Unlock()

	// First status goes out immediately
	c.sendChan <- Message{Type: TypeStatus, Payload: s.Status()}

	s.wg.Add(1)
	go s.writeLoop(c)

	// Subscribers only listen; reading detects disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.clientsMu.Lock()
	delete(s.clients, c)
	s.clientsMu.Unlock()
	c.close()

	log.Printf("Monitor subscriber %s disconnected", r.RemoteAddr)
}

// writeLoop drains a subscriber's queue onto its connection
func (s *Server) writeLoop(c *subscriber) {
	defer s.wg.Done()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.sendChan:
			c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				log.Printf("Monitor write error: %v", err)
				c.close()
				return
			}
		}
	}
}
