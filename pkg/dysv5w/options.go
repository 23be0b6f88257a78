// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dysv5w

import "go.uber.org/zap"

// Config holds the Device configuration.
type Config struct {
	// Logger receives debug traces of every exchange (optional)
	Logger *zap.Logger

	// VerifyChecksum makes the response reader reject replies whose
	// trailing checksum does not match. The module's checksum is not
	// verified by default.
	VerifyChecksum bool

	// Observers are notified of every exchange (optional)
	Observers []Observer
}

func defaultConfig() Config {
	return Config{
		Logger: zap.NewNop(),
	}
}

// Option is a functional option for configuring a Device.
type Option func(*Config)

// WithLogger sets the logger for protocol traces.
//
// Example:
//
//	dev := dysv5w.New(t, dysv5w.WithLogger(logger.Named("dysv5w")))
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithChecksumVerification enables or disables checking the trailing
// checksum byte of reply frames.
func WithChecksumVerification(enabled bool) Option {
	return func(c *Config) {
		c.VerifyChecksum = enabled
	}
}

// WithObserver adds an exchange observer. May be given more than once.
func WithObserver(o Observer) Option {
	return func(c *Config) {
		if o != nil {
			c.Observers = append(c.Observers, o)
		}
	}
}
