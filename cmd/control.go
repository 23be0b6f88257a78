// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Thermoquad/dysv5w/internal/config"
	"github.com/Thermoquad/dysv5w/internal/logging"
	"github.com/Thermoquad/dysv5w/pkg/dysv5w"
)

var controlPollInterval time.Duration

var controlCmd = &cobra.Command{
	Use:   "control",
	Short: "Interactive TUI for controlling the module",
	Long: `Control a DY-SV5W module via an interactive terminal UI.

Features:
  - Periodic status polling (play state, drives, song count, current song)
  - Transport keys (play, pause, stop, previous, next)
  - Volume steps and absolute volume entry
  - Equalizer and drive cycling
  - Jump to a song number
  - Statistics tracking and an event log

Press ? for the full key list.

Supports serial, WebSocket and replay connections.`,
	Args: cobra.NoArgs,
	RunE: runControl,
}

func init() {
	rootCmd.AddCommand(controlCmd)
	controlCmd.Flags().DurationVar(&controlPollInterval, "poll-interval", 2*time.Second, "Status polling interval")
}

// session serializes access to the device between concurrent TUI commands
type session struct {
	mu    sync.Mutex
	dev   *dysv5w.Device
	line  dysv5w.Transport // the device's transport, for draining late bytes
	info  string
	stats *dysv5w.Statistics
}

func newSession(dev *dysv5w.Device, line dysv5w.Transport, info string, stats *dysv5w.Statistics) *session {
	return &session{dev: dev, line: line, info: info, stats: stats}
}

// do runs fn with exclusive use of the device
func (s *session) do(ctx context.Context, fn func(d *dysv5w.Device, ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.dev, ctx)
}

// tuiLogger keeps log output off the terminal while the TUI owns it
func tuiLogger(cfg config.LoggingConfig) *zap.Logger {
	if cfg.File.Filename == "" {
		return zap.NewNop()
	}
	log, err := logging.NewWithWriter(cfg, io.Discard)
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func runControl(cmd *cobra.Command, args []string) error {
	if appConfig.Connection.Source() == config.SourceConsole {
		return errors.New("control cannot run on the console transport")
	}
	if controlPollInterval <= 0 {
		return fmt.Errorf("invalid poll interval %s", controlPollInterval)
	}

	logger = tuiLogger(appConfig.Logging)

	stats := dysv5w.NewStatistics()
	d, t, info, err := OpenDevice(cmd.Context(), stats)
	if err != nil {
		return err
	}
	defer d.Close()

	m := initialControlModel(cmd.Context(), newSession(d, t, info, stats), controlPollInterval)

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
