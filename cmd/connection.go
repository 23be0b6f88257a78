// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/Thermoquad/dysv5w/internal/capture"
	"github.com/Thermoquad/dysv5w/internal/config"
	"github.com/Thermoquad/dysv5w/internal/transport"
	"github.com/Thermoquad/dysv5w/pkg/dysv5w"
)

// PasswordEnv holds the WebSocket password
const PasswordEnv = "DYSV5W_PASSWORD"

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv(PasswordEnv); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if stdin is not a terminal
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// OpenTransport opens the configured transport, wrapped in a capture
// recorder when one is configured. The returned string describes the
// connection for display.
func OpenTransport(ctx context.Context, conn config.ConnectionConfig, proto config.ProtocolConfig) (dysv5w.Transport, string, error) {
	var t dysv5w.Transport
	var info string

	switch conn.Source() {
	case config.SourceSerial:
		s, err := transport.OpenSerial(transport.SerialConfig{
			Port:     conn.Port,
			BaudRate: conn.Baud,
			Timeout:  conn.Timeout,
		})
		if err != nil {
			return nil, "", err
		}
		t, info = s, fmt.Sprintf("Serial: %s @ %d baud", conn.Port, conn.Baud)

	case config.SourceWebSocket:
		password := ""
		if conn.Username != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}
		s, err := transport.DialWebSocket(ctx, transport.WebSocketConfig{
			URL:           conn.URL,
			Username:      conn.Username,
			Password:      password,
			SkipSSLVerify: conn.NoSSLVerify,
			Timeout:       conn.Timeout,
		})
		if err != nil {
			return nil, "", err
		}
		t, info = s, fmt.Sprintf("WebSocket: %s", conn.URL)

	case config.SourceConsole:
		t, info = transport.NewConsole(os.Stdin, os.Stdout), "Console"

	case config.SourceReplay:
		r, err := transport.OpenReplay(conn.Replay, proto.StrictReplay)
		if err != nil {
			return nil, "", err
		}
		t, info = r, fmt.Sprintf("Replay: %s", conn.Replay)

	default:
		return nil, "", errors.New("one of --port, --url, --console or --replay must be specified")
	}

	if proto.FrameGap > 0 {
		t = transport.NewPaced(t, proto.FrameGap)
	}

	if conn.Capture == "" {
		return t, info, nil
	}

	w, err := capture.Create(conn.Capture)
	if err != nil {
		closeTransport(t)
		return nil, "", err
	}
	return transport.NewRecorder(t, w), info + fmt.Sprintf(" (capturing to %s)", conn.Capture), nil
}

func closeTransport(t dysv5w.Transport) {
	if c, ok := t.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Warn("close transport", zap.Error(err))
		}
	}
}

// deviceOptions builds the engine options from the resolved configuration
func deviceOptions(observers ...dysv5w.Observer) []dysv5w.Option {
	opts := []dysv5w.Option{
		dysv5w.WithLogger(logger.Named("dysv5w")),
		dysv5w.WithChecksumVerification(appConfig.Protocol.VerifyChecksum),
	}
	if protoMetrics != nil {
		opts = append(opts, dysv5w.WithObserver(protoMetrics))
	}
	for _, o := range observers {
		opts = append(opts, dysv5w.WithObserver(o))
	}
	return opts
}

// OpenDevice opens the configured transport and wraps it in an engine
func OpenDevice(ctx context.Context, observers ...dysv5w.Observer) (*dysv5w.Device, dysv5w.Transport, string, error) {
	t, info, err := OpenTransport(ctx, appConfig.Connection, appConfig.Protocol)
	if err != nil {
		return nil, nil, "", err
	}
	return dysv5w.New(t, deviceOptions(observers...)...), t, info, nil
}

// withDevice runs fn against a freshly opened device and closes it after
func withDevice(ctx context.Context, fn func(ctx context.Context, d *dysv5w.Device) error) error {
	d, _, _, err := OpenDevice(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := d.Close(); err != nil {
			logger.Warn("close device", zap.Error(err))
		}
	}()
	return fn(ctx, d)
}
