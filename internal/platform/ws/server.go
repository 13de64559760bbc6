// Package ws serves the game room over WebSocket.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/skyfall/internal/multiplayer"
	"github.com/vovakirdan/skyfall/internal/observability"
	"github.com/vovakirdan/skyfall/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
	leaveTimeout   = 5 * time.Second
)

// Options configures a Server.
type Options struct {
	Addr          string
	Codec         string // Default codec when a client sends no ?codec=
	Metrics       *observability.Metrics
	ExposeMetrics bool // Mount /metrics
}

// Server accepts WebSocket players for one room.
type Server struct {
	room     *multiplayer.Room
	opts     Options
	codec    protocol.Codec
	logger   *log.Logger
	upgrader websocket.Upgrader
	mux      *http.ServeMux
}

// NewServer creates a server for room.
func NewServer(room *multiplayer.Room, opts Options, logger *log.Logger) (*Server, error) {
	codec, err := protocol.Lookup(opts.Codec)
	if err != nil {
		return nil, fmt.Errorf("ws: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		room:   room,
		opts:   opts,
		codec:  codec,
		logger: logger.WithPrefix("ws"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow connections from any origin
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		mux: http.NewServeMux(),
	}

	s.mux.HandleFunc("/ws", s.handleWebSocket)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	if opts.ExposeMetrics {
		s.mux.Handle("/metrics", opts.Metrics.Handler())
	}
	return s, nil
}

// Handler returns the HTTP handler serving /ws, /healthz and optionally /metrics.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.opts.Addr, "codec", s.codec.Name())
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("ws: shutdown: %w", err)
		}
		return nil
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("ws: listen %s: %w", s.opts.Addr, err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"sessions": s.room.Sessions().Count(),
	})
}

// handleWebSocket upgrades the connection and runs it until either side closes.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	codec := s.codec
	if name := r.URL.Query().Get("codec"); name != "" {
		c, err := protocol.Lookup(name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		codec = c
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	id := s.room.NextSessionID()
	c := &client{
		id:      id,
		conn:    conn,
		codec:   codec,
		session: multiplayer.NewChannelSession(id, sendBuffer),
		room:    s.room,
		metrics: s.opts.Metrics,
		logger:  s.logger.With("player", id),
	}

	s.opts.Metrics.ConnectionOpened()
	c.logger.Info("connected", "remote", r.RemoteAddr, "codec", codec.Name())

	if err := c.write(protocol.AssignID(string(id))); err != nil {
		c.logger.Warn("failed to send id", "err", err)
		conn.Close()
		s.opts.Metrics.ConnectionClosed()
		return
	}

	s.room.Attach(c.session)
	go c.writePump()
	c.readPump()

	ctx, cancel := context.WithTimeout(context.Background(), leaveTimeout)
	defer cancel()
	if err := s.room.Leave(ctx, id); err != nil && !errors.Is(err, multiplayer.ErrRoomClosed) {
		c.logger.Warn("leave failed", "err", err)
	}
	c.session.Close()
	s.opts.Metrics.ConnectionClosed()
	c.logger.Info("disconnected")
}
