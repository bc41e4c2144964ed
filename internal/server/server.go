package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/lox/diamondlocks/internal/casino"
	"github.com/lox/diamondlocks/internal/ledger"
)

// Server serves the JSON API and the WebSocket game protocol
type Server struct {
	casino   *casino.Service
	upgrader websocket.Upgrader
	logger   *log.Logger
	router   chi.Router
	http     *http.Server

	mu          sync.RWMutex
	connections map[*Connection]bool
}

// NewServer creates a server listening on addr
func NewServer(addr string, svc *casino.Service, logger *log.Logger) *Server {
	s := &Server{
		casino: svc,
		upgrader: websocket.Upgrader{
			// the game client is served from other origins during development
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:      logger.WithPrefix("server"),
		connections: make(map[*Connection]bool),
	}
	s.router = s.routes()
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)
	r.Route("/api/users/{user}", func(r chi.Router) {
		r.Get("/balance", s.handleBalance)
		r.Post("/faucet", s.handleFaucet)
		r.Get("/blackjack", s.handleBlackjack)
	})
	return r
}

// Handler exposes the router, mainly for httptest
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("Starting server", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown closes every WebSocket connection and stops the listener
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.mu.Unlock()
	return s.http.Shutdown(ctx)
}

func (s *Server) register(conn *Connection) {
	s.mu.Lock()
	s.connections[conn] = true
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client connected", "total", total)
}

// unregister drops conn and closes the user's table once their last
// connection is gone.
func (s *Server) unregister(conn *Connection) {
	user := conn.User()

	s.mu.Lock()
	delete(s.connections, conn)
	total := len(s.connections)
	stillConnected := false
	for other := range s.connections {
		if user != "" && other.User() == user {
			stillConnected = true
			break
		}
	}
	s.mu.Unlock()

	if user != "" && !stillConnected {
		if err := s.casino.Leave(user); err != nil {
			s.logger.Warn("Failed to close table", "user", user, "error", err)
		}
	}
	s.logger.Info("Client disconnected", "user", user, "total", total)
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(ws, s.casino, s.logger)
	s.register(client)
	client.Start()

	go func() {
		<-client.Done()
		s.unregister(client)
	}()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")
	balance, err := s.casino.Balance(r.Context(), user)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceData{User: user, Balance: balance})
}

func (s *Server) handleFaucet(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")
	balance, err := s.casino.Faucet(r.Context(), user)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceData{User: user, Balance: balance})
}

func (s *Server) handleBlackjack(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")
	tbl, err := s.casino.Table(r.Context(), user)
	if err != nil {
		s.writeError(w, err)
		return
	}
	snap, err := tbl.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, ledger.ErrInvalidUser) {
		status = http.StatusBadRequest
	} else {
		s.logger.Error("Request failed", "error", err)
	}
	writeJSON(w, status, errorData(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
