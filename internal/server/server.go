// Package server exposes the shoe tracker over HTTP and pushes fresh advice
// to websocket clients such as stream overlays.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/lox/flip7helper/internal/shoe"
)

const shutdownTimeout = 5 * time.Second

// Config configures the server
type Config struct {
	Addr           string
	AllowedOrigins []string
}

// Server serves the JSON API and the websocket advice feed
type Server struct {
	addr        string
	origins     []string
	router      chi.Router
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection
	done        chan struct{}
	tracker     *shoe.Tracker
	advisor     shoe.Advisor
	logger      *log.Logger
	clock       quartz.Clock
	mu          sync.RWMutex
}

// New creates a server. Run must be called, or the hub started, before
// websocket clients connect.
func New(cfg Config, tracker *shoe.Tracker, advisor shoe.Advisor, logger *log.Logger, clock quartz.Clock) *Server {
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	s := &Server{
		addr:        cfg.Addr,
		origins:     cfg.AllowedOrigins,
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		done:        make(chan struct{}),
		tracker:     tracker,
		advisor:     advisor,
		logger:      logger.WithPrefix("server"),
		clock:       clock,
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin:     s.checkOrigin,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           60 * 15,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)
	r.Route("/api", func(rr chi.Router) {
		rr.Get("/advice", s.handleAdvice)
		rr.Get("/deck", s.handleDeck)
		rr.Post("/round", s.handleLabels(MessageTypeSetRound))
		rr.Post("/observe", s.handleLabels(MessageTypeObserve))
		rr.Post("/cards", s.handleLabels(MessageTypeDraw))
		rr.Post("/seen", s.handleLabels(MessageTypeSeen))
		rr.Post("/unsee", s.handleLabels(MessageTypeUnsee))
		rr.Post("/round/reset", s.handleReset(MessageTypeNextRound))
		rr.Post("/shoe/reset", s.handleReset(MessageTypeShuffle))
	})
	return r
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	go s.runHub(ctx)

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.closeAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("Server stopped")
	return nil
}

// runHub owns connection registration and fans tracker updates out to
// every connected client.
func (s *Server) runHub(ctx context.Context) {
	updates, cancel := s.tracker.Subscribe()
	defer cancel()
	defer close(s.done)

	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("Client connected", "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.connections[conn]; ok {
				delete(s.connections, conn)
				_ = conn.Close()
			}
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("Client disconnected", "total", total)

		case snap, ok := <-updates:
			if !ok {
				return
			}
			s.broadcast(s.adviceMessage(snap))

		case <-ctx.Done():
			s.closeAll()
			return
		}
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.connections {
		_ = conn.Close()
	}
}

func (s *Server) broadcast(msg *Message) {
	if msg == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for conn := range s.connections {
		if err := conn.SendMessage(msg); err != nil {
			s.logger.Debug("Failed to send advice", "error", err)
			continue
		}
		count++
	}
	s.logger.Debug("Broadcast advice", "recipients", count)
}

func (s *Server) adviceMessage(snap shoe.Snapshot) *Message {
	msg, err := NewMessage(MessageTypeAdvice, s.advisor.Advise(snap), s.clock.Now())
	if err != nil {
		s.logger.Error("Failed to encode advice", "error", err)
		return nil
	}
	return msg
}

// ConnectionCount returns the number of registered websocket clients
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(s.origins, "*") {
		return true
	}
	return slices.Contains(s.origins, origin)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s.logger, s.clock, s.handleMessage)
	select {
	case s.register <- client:
	case <-s.done:
		_ = client.Close()
		return
	}
	client.Start()

	if msg := s.adviceMessage(s.tracker.Snapshot()); msg != nil {
		_ = client.SendMessage(msg)
	}

	go func() {
		<-client.ctx.Done()
		select {
		case s.unregister <- client:
		case <-s.done:
		}
	}()
}

// handleMessage applies a client command; the resulting advice reaches the
// client through the normal broadcast.
func (s *Server) handleMessage(c *Connection, msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type)

	var data LabelsData
	if len(msg.Data) > 0 && string(msg.Data) != "null" {
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse message data")
			return
		}
	}

	if _, err := s.apply(c.ctx, msg.Type, data.Labels); err != nil {
		code := "invalid_request"
		if errors.Is(err, errUnknownCommand) {
			code = "unknown_message_type"
		}
		c.sendError(code, err.Error())
	}
}
