// Package dashboard provides a WebSocket server that broadcasts sweep
// and watch-mode activity to connected clients.
//
// The dashboard is observational only: it renders nothing itself and
// exposes the same structured summaries the CLI prints.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// MessageType defines the type of dashboard message.
type MessageType string

const (
	// MessageTypeSweepComplete indicates a full sweep finished.
	MessageTypeSweepComplete MessageType = "sweep_complete"

	// MessageTypeChange indicates one artifact was ingested or removed.
	MessageTypeChange MessageType = "change"

	// MessageTypeHealth carries a health check summary.
	MessageTypeHealth MessageType = "health"
)

// Message is a dashboard broadcast envelope.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ChangeData describes one watch-mode change.
type ChangeData struct {
	Path    string `json:"path"`
	Deleted bool   `json:"deleted"`
}

// Server broadcasts messages to all connected WebSocket clients.
type Server struct {
	logger *log.Logger

	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	listener net.Listener
	httpSrv  *http.Server
}

// NewServer creates a dashboard server. A nil logger defaults to stderr.
func NewServer(logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(os.Stderr, "[dashboard] ", log.LstdFlags)
	}
	return &Server{
		logger:  logger,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Start listens on addr and serves WebSocket connections at /ws until
// ctx is cancelled. Use addr "localhost:0" to pick a free port.
func (s *Server) Start(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)

	s.mu.Lock()
	s.listener = listener
	s.httpSrv = &http.Server{Handler: mux}
	s.mu.Unlock()

	s.logger.Printf("Dashboard listening on ws://%s/ws", listener.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- s.httpSrv.Serve(listener) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		s.closeClients()
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("dashboard server failed: %w", err)
	}
}

// Addr returns the bound listen address, or empty before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Printf("WebSocket accept failed: %v", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	count := len(s.clients)
	s.mu.Unlock()
	s.logger.Printf("Client connected (%d total)", count)

	// Block reading until the client goes away; broadcasts happen from
	// Broadcast, not here.
	ctx := r.Context()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}

	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

// Broadcast sends a typed payload to every connected client. Send
// failures drop the affected client only.
func (s *Server) Broadcast(msgType MessageType, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		s.logger.Printf("Failed to marshal %s payload: %v", msgType, err)
		return
	}
	raw, err := json.Marshal(Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      payload,
	})
	if err != nil {
		s.logger.Printf("Failed to marshal message: %v", err)
		return
	}

	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := conn.Write(ctx, websocket.MessageText, raw)
		cancel()
		if err != nil {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			_ = conn.Close(websocket.StatusAbnormalClosure, "write failed")
		}
	}
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
	s.clients = make(map[*websocket.Conn]struct{})
}
