package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/skyfall/internal/config"
	"github.com/vovakirdan/skyfall/internal/core"
	"github.com/vovakirdan/skyfall/internal/multiplayer"
)

const sshEventBuffer = 256

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23234").
	Address string

	// HostKeyPath is the path to the host key file. Wish generates an
	// ed25519 key there when it does not exist.
	HostKeyPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration
}

// SSHServer lets terminal users join the shared room over SSH.
type SSHServer struct {
	config SSHServerConfig
	room   *multiplayer.Room
	server *ssh.Server
	logger *log.Logger
}

// NewSSHServer creates an SSH server whose sessions play in room.
func NewSSHServer(cfg SSHServerConfig, room *multiplayer.Room, logger *log.Logger) (*SSHServer, error) {
	if logger == nil {
		logger = log.Default()
	}

	srv := &SSHServer{
		config: cfg,
		room:   room,
		logger: logger.WithPrefix("ssh"),
	}

	hostKeyPath := config.ExpandHome(cfg.HostKeyPath)
	if hostKeyPath == "" {
		return nil, errors.New("tui: host key path is required")
	}
	if err := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); err != nil {
		return nil, fmt.Errorf("tui: cannot create host key directory: %w", err)
	}

	opts := []ssh.Option{
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	}
	if cfg.IdleTimeout > 0 {
		opts = append(opts, wish.WithIdleTimeout(cfg.IdleTimeout))
	}

	server, err := wish.NewServer(opts...)
	if err != nil {
		return nil, fmt.Errorf("tui: cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// teaHandler joins the SSH user to the room and returns their view.
func (s *SSHServer) teaHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sess.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sess.User())
		return nil, nil
	}

	id := s.room.NextSessionID()
	events := multiplayer.NewChannelSession(id, sshEventBuffer)
	s.room.Attach(events)

	ctx, cancel := context.WithTimeout(sess.Context(), 5*time.Second)
	err := s.room.Join(ctx, id, sess.User(), 0, 0)
	cancel()
	if err != nil {
		s.logger.Error("join failed", "user", sess.User(), "err", err)
		s.room.Sessions().Unregister(id)
		return nil, nil
	}

	go func() {
		<-sess.Context().Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.room.Leave(ctx, id); err != nil && !errors.Is(err, multiplayer.ErrRoomClosed) {
			s.logger.Warn("leave failed", "player", id, "err", err)
		}
		events.Close()
	}()

	cfg := core.RuntimeConfig{
		ScreenW:  pty.Window.Width,
		ScreenH:  pty.Window.Height,
		TickRate: core.DefaultConfig().TickRate,
	}
	model := NewModel(id, events.Events(), NewRoomSink(s.room, id), cfg)

	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
	}
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		s.logger.Info("session started",
			"user", sess.User(),
			"remote", sess.RemoteAddr().String(),
		)
		next(sess)
		s.logger.Info("session ended",
			"user", sess.User(),
			"remote", sess.RemoteAddr().String(),
		)
	}
}

// ListenAndServe serves until ctx is cancelled, then shuts down.
func (s *SSHServer) ListenAndServe(ctx context.Context) error {
	s.logger.Info("starting SSH server", "address", s.config.Address)

	errc := make(chan error, 1)
	go func() {
		errc <- s.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown()
	case err := <-errc:
		if errors.Is(err, ssh.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("tui: ssh server: %w", err)
	}
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}
