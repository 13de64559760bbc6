package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/skyfall/internal/config"
	"github.com/vovakirdan/skyfall/internal/dialogue"
	"github.com/vovakirdan/skyfall/internal/multiplayer"
	"github.com/vovakirdan/skyfall/internal/observability"
	"github.com/vovakirdan/skyfall/internal/platform/tui"
	"github.com/vovakirdan/skyfall/internal/platform/ws"
	"github.com/vovakirdan/skyfall/internal/rules"
	"github.com/vovakirdan/skyfall/internal/storage"
)

var (
	flagAddr        string
	flagSSHAddr     string
	flagHostKey     string
	flagDBPath      string
	flagTickRate    int
	flagMinPlayers  int
	flagRules       string
	flagDialogues   string
	flagCodec       string
	flagIdleTimeout int
	flagNoMetrics   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host the shared game room",
	Long: `Start the game room and serve it over WebSocket.

Browser and terminal clients connect to /ws. Every client joins the same
room; the run starts once enough players are present. Finished runs are
stored in the run database. Prometheus metrics are served on /metrics.

With --ssh, terminal users can also join directly:
  ssh localhost -p 23234

Examples:
  skyfall serve                          # WebSocket on :8080
  skyfall serve --ssh :23234             # Also accept SSH players
  skyfall serve --min-players 2          # Wait for two players
  skyfall serve --rules ./levels.yaml    # Custom level table`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "WebSocket listen address (default from config)")
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH listen address, empty disables SSH")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to the SSH host key (generated if missing)")
	serveCmd.Flags().StringVar(&flagDBPath, "db", "", "Path to the run database")
	serveCmd.Flags().IntVar(&flagTickRate, "tick-rate", 0, "Simulation ticks per second")
	serveCmd.Flags().IntVar(&flagMinPlayers, "min-players", 0, "Players required to start a run")
	serveCmd.Flags().StringVar(&flagRules, "rules", "", "Path to a level rules YAML")
	serveCmd.Flags().StringVar(&flagDialogues, "dialogues", "", "Path to a dialogue YAML")
	serveCmd.Flags().StringVar(&flagCodec, "codec", "", "Default wire codec: json or msgpack")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 0, "Minutes before idle SSH sessions are closed")
	serveCmd.Flags().BoolVar(&flagNoMetrics, "no-metrics", false, "Do not expose /metrics")
}

// applyServeFlags overrides the server section with flags that were set.
func applyServeFlags(cmd *cobra.Command, s *config.ServerConfig) {
	flags := cmd.Flags()
	if flags.Changed("addr") {
		s.Addr = flagAddr
	}
	if flags.Changed("ssh") {
		s.SSHAddr = flagSSHAddr
	}
	if flags.Changed("host-key") {
		s.HostKeyPath = flagHostKey
	}
	if flags.Changed("db") {
		s.DBPath = flagDBPath
	}
	if flags.Changed("tick-rate") {
		s.TickRate = flagTickRate
	}
	if flags.Changed("min-players") {
		s.MinPlayers = flagMinPlayers
	}
	if flags.Changed("rules") {
		s.RulesPath = flagRules
	}
	if flags.Changed("dialogues") {
		s.DialoguesPath = flagDialogues
	}
	if flags.Changed("codec") {
		s.Codec = flagCodec
	}
	if flags.Changed("idle-timeout") {
		s.IdleTimeout = flagIdleTimeout
	}
	if flagNoMetrics {
		s.Metrics = false
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyServeFlags(cmd, &cfg.Server)
	if err := cfg.Validate(); err != nil {
		return err
	}

	levelRules := rules.Default()
	if cfg.Server.RulesPath != "" {
		if levelRules, err = rules.Load(cfg.Server.RulesPath); err != nil {
			return err
		}
	}
	lines := dialogue.Default()
	if cfg.Server.DialoguesPath != "" {
		if lines, err = dialogue.Load(cfg.Server.DialoguesPath); err != nil {
			return err
		}
	}

	seed := flagSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	room := multiplayer.NewRoom(multiplayer.RoomConfig{
		Game:      cfg,
		Rules:     levelRules,
		Dialogues: lines,
		Seed:      seed,
	}, logger)

	metrics, err := observability.NewMetrics(nil)
	if err != nil {
		return err
	}
	room.SetRecorder(metrics)

	store, err := storage.Open(cfg.Server.DBPath)
	if err != nil {
		// Continue without storage
		logger.Warn("could not open run database", "err", err)
	} else {
		defer store.Close()
		room.SetResultSaver(store)
	}

	server, err := ws.NewServer(room, ws.Options{
		Addr:          cfg.Server.Addr,
		Codec:         cfg.Server.Codec,
		Metrics:       metrics,
		ExposeMetrics: cfg.Server.Metrics,
	}, logger)
	if err != nil {
		return err
	}

	var sshServer *tui.SSHServer
	if cfg.Server.SSHAddr != "" {
		sshServer, err = tui.NewSSHServer(tui.SSHServerConfig{
			Address:     cfg.Server.SSHAddr,
			HostKeyPath: cfg.Server.HostKeyPath,
			IdleTimeout: time.Duration(cfg.Server.IdleTimeout) * time.Minute,
		}, room, logger)
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Any component failing stops the others.
	services := []func() error{
		func() error { return room.Run(ctx) },
		func() error { return server.ListenAndServe(ctx) },
	}
	if sshServer != nil {
		services = append(services, func() error { return sshServer.ListenAndServe(ctx) })
		fmt.Printf("Connect with: ssh localhost -p %s\n", portOf(cfg.Server.SSHAddr))
	}

	logger.Info("serving", "addr", cfg.Server.Addr, "tick_rate", cfg.Server.TickRate, "seed", seed)

	errc := make(chan error, len(services))
	for _, run := range services {
		go func() {
			err := run()
			stop()
			errc <- err
		}()
	}

	var errs []error
	for range services {
		if err := <-errc; err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// portOf returns the port of a host:port address.
func portOf(addr string) string {
	if _, port, err := net.SplitHostPort(addr); err == nil {
		return port
	}
	return addr
}
