// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Thermoquad/dysv5w/internal/config"
	"github.com/Thermoquad/dysv5w/internal/logging"
	"github.com/Thermoquad/dysv5w/internal/metrics"
)

var (
	cfgFile string

	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Debug transports
	useConsole  bool
	replayFile  string
	captureFile string
	readTimeout time.Duration

	// Protocol flags
	verifyChecksum bool
	strictReplay   bool
	frameGap       time.Duration

	// Logging and metrics flags
	logLevel    string
	logFormat   string
	logFile     string
	metricsAddr string
)

// Resolved by PersistentPreRunE
var (
	appConfig    *config.Config
	logger       = zap.NewNop()
	protoMetrics *metrics.Metrics
)

var rootCmd = &cobra.Command{
	Use:   "dysv5w",
	Short: "DY-SV5W MP3 module control tool",
	Long: `dysv5w - control and diagnose DY-SV5W family MP3 decoder modules.

Sends playback commands, runs status queries, and passively monitors the
UART protocol of the module.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 9600]
  WebSocket: --url ws://host/path [--username user]
  Console:   --console (type reply bytes by hand)
  Replay:    --replay session.cbor (serve replies from a capture)

Any connection can be recorded with --capture session.cbor.

Settings may also come from a config file (--config) or DYSV5W_* environment
variables, e.g. DYSV5W_CONNECTION_PORT. For WebSocket authentication, the
password is read from the DYSV5W_PASSWORD environment variable, or prompted
interactively if not set. The --password flag is intentionally not provided
to avoid leaking credentials in shell history.`,
	Version:           "0.3.0",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (YAML, TOML or JSON)")

	// Serial connection flags
	pf.StringVarP(&portName, "port", "p", "", "Serial port device")
	pf.IntVarP(&baudRate, "baud", "b", 9600, "Baud rate (serial only)")

	// WebSocket connection flags
	pf.StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	pf.StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	pf.BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Debug transports
	pf.BoolVar(&useConsole, "console", false, "Print frames and read reply bytes from stdin")
	pf.StringVar(&replayFile, "replay", "", "Serve replies from a capture file")
	pf.StringVar(&captureFile, "capture", "", "Record all traffic to a capture file")
	pf.DurationVar(&readTimeout, "timeout", 250*time.Millisecond, "Per-byte read timeout")

	// Protocol flags
	pf.BoolVar(&verifyChecksum, "verify-checksum", false, "Reject replies with a bad checksum")
	pf.BoolVar(&strictReplay, "strict-replay", false, "Fail when sent frames differ from the replayed capture")
	pf.DurationVar(&frameGap, "frame-gap", 0, "Minimum delay between sent frames (0 = none)")

	// Logging and metrics flags
	pf.StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "console", "Log format (console, json)")
	pf.StringVar(&logFile, "log-file", "", "Also write logs to a rotating file")
	pf.StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9100)")
}

// setup resolves configuration and starts logging and metrics
func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	appConfig = cfg

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	logger = log

	if cfg.Metrics.Addr != "" {
		reg := metrics.NewRegistry()
		protoMetrics = metrics.New(reg)
		go func() {
			if err := metrics.Serve(cmd.Context(), cfg.Metrics.Addr, cfg.Metrics.Path, reg, logger); err != nil {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	}
	return nil
}

// ExitError carries a process exit status out of a command. Commands
// print their own diagnostics before returning one.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Execute runs the root command and returns the process exit status
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return finish(rootCmd.ExecuteContext(ctx))
}

// finish flushes the logger and maps a command error to an exit status.
// It runs for failed commands too, which cobra's post-run hooks skip.
func finish(err error) int {
	_ = logger.Sync()
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}
