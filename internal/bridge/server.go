// Package bridge exposes the console stream and package status to UIs over
// HTTP and WebSocket.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mlstack/launchpad/internal/console"
	"github.com/mlstack/launchpad/internal/ctxlog"
)

// PackageStatus is one package's row in the /status response.
type PackageStatus struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Running bool   `json:"running"`
	PID     int    `json:"pid,omitempty"`
	URL     string `json:"url,omitempty"`
}

// StatusSnapshot is the /status response body.
type StatusSnapshot struct {
	Packages []PackageStatus `json:"packages"`
}

// StatusProvider produces the current snapshot for /status.
type StatusProvider func(ctx context.Context) (StatusSnapshot, error)

// Server is the console bridge HTTP server.
type Server struct {
	broker   *console.Broker
	status   StatusProvider
	upgrader websocket.Upgrader

	httpServer *http.Server
}

// NewServer creates a bridge over the given broker and status provider.
func NewServer(broker *console.Broker, status StatusProvider) *Server {
	return &Server{
		broker: broker,
		status: status,
		upgrader: websocket.Upgrader{
			// The bridge only listens on localhost for the desktop UI.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the bridge's HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// Start runs the bridge server on the given port without blocking.
func (s *Server) Start(ctx context.Context, port int) {
	logger := ctxlog.FromContext(ctx)
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	s.httpServer = &http.Server{Addr: addr, Handler: s.Handler()}

	go func() {
		logger.Info("🩺 Console bridge starting", "address", fmt.Sprintf("http://%s/", addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Console bridge failed unexpectedly", "error", err)
		}
	}()
}

// Shutdown stops the bridge server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.status(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snapshot)
}

// handleWS streams console events to the client. Replay history is delivered
// first, then live events until either side closes.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.FromContext(r.Context())

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events, cancel := s.broker.Subscribe()
	defer cancel()

	// Reader goroutine: its only job is to notice the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}
