package main

import (
	"context"
	"errors"
	"os"
	"os/user"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/skyfall/internal/core"
	"github.com/vovakirdan/skyfall/internal/platform/tui"
)

var (
	flagName      string
	flagPlayCodec string
	flagFPS       int
)

var playCmd = &cobra.Command{
	Use:   "play [url]",
	Short: "Play in the terminal",
	Long: `Connect to a skyfall server and play in the terminal.

Controls:
  Left/A, Right/D  - Move
  Space            - Fire
  R                - Restart (after game over)
  ?                - Toggle help
  Q/Esc/Ctrl+C     - Quit

Examples:
  skyfall play                               # ws://localhost:8080/ws
  skyfall play ws://arcade.example.com/ws --name Alekos
  skyfall play http://localhost:8080 --codec msgpack`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagName, "name", "", "Player name (default: your user name)")
	playCmd.Flags().StringVar(&flagPlayCodec, "codec", "json", "Wire codec: json or msgpack")
	playCmd.Flags().IntVar(&flagFPS, "fps", 30, "Redraw rate (frames per second)")
}

func runPlay(cmd *cobra.Command, args []string) error {
	serverURL := "ws://localhost:8080/ws"
	if len(args) == 1 {
		serverURL = args[0]
	}

	name := flagName
	if name == "" {
		if u, err := user.Current(); err == nil {
			name = u.Username
		}
	}

	// Get terminal size
	width, height := 80, 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = w
		height = h
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	client, err := tui.Dial(ctx, serverURL, flagPlayCodec, name, 0, 0)
	cancel()
	if err != nil {
		return err
	}
	defer client.Close()

	err = tui.Play(cmd.Context(), client, core.RuntimeConfig{
		ScreenW:  width,
		ScreenH:  height,
		TickRate: flagFPS,
	})
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
