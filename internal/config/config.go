// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads CLI settings from defaults, a config file, the
// environment and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. DYSV5W_CONNECTION_PORT
const EnvPrefix = "DYSV5W"

// ConnectionConfig selects and parameterizes the transport
type ConnectionConfig struct {
	Port        string        `mapstructure:"port"`
	Baud        int           `mapstructure:"baud"`
	URL         string        `mapstructure:"url"`
	Username    string        `mapstructure:"username"`
	NoSSLVerify bool          `mapstructure:"noSSLVerify"`
	Console     bool          `mapstructure:"console"`
	Replay      string        `mapstructure:"replay"`
	Capture     string        `mapstructure:"capture"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// Transport kinds returned by ConnectionConfig.Source
const (
	SourceNone      = ""
	SourceSerial    = "serial"
	SourceWebSocket = "websocket"
	SourceConsole   = "console"
	SourceReplay    = "replay"
)

// Source names the configured transport, or SourceNone
func (c ConnectionConfig) Source() string {
	switch {
	case c.Replay != "":
		return SourceReplay
	case c.Console:
		return SourceConsole
	case c.URL != "":
		return SourceWebSocket
	case c.Port != "":
		return SourceSerial
	default:
		return SourceNone
	}
}

func (c ConnectionConfig) sources() int {
	n := 0
	for _, set := range []bool{c.Port != "", c.URL != "", c.Console, c.Replay != ""} {
		if set {
			n++
		}
	}
	return n
}

// ProtocolConfig tunes the protocol engine
type ProtocolConfig struct {
	VerifyChecksum bool          `mapstructure:"verifyChecksum"`
	StrictReplay   bool          `mapstructure:"strictReplay"`
	FrameGap       time.Duration `mapstructure:"frameGap"` // minimum spacing between sent frames
}

// LogFileConfig configures the rotating log file
type LogFileConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig sets log level, encoding and optional file output
type LoggingConfig struct {
	Level  string        `mapstructure:"level"`
	Format string        `mapstructure:"format"`
	File   LogFileConfig `mapstructure:"file"`
}

// MetricsConfig exposes Prometheus metrics over HTTP when Addr is set
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
	Path string `mapstructure:"path"`
}

// Config is the top-level configuration
type Config struct {
	Connection ConnectionConfig `mapstructure:"connection"`
	Protocol   ProtocolConfig   `mapstructure:"protocol"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// flagKeys maps command-line flags to configuration keys
var flagKeys = map[string]string{
	"port":            "connection.port",
	"baud":            "connection.baud",
	"url":             "connection.url",
	"username":        "connection.username",
	"no-ssl-verify":   "connection.noSSLVerify",
	"console":         "connection.console",
	"replay":          "connection.replay",
	"capture":         "connection.capture",
	"timeout":         "connection.timeout",
	"verify-checksum": "protocol.verifyChecksum",
	"strict-replay":   "protocol.strictReplay",
	"frame-gap":       "protocol.frameGap",
	"log-level":       "logging.level",
	"log-format":      "logging.format",
	"log-file":        "logging.file.filename",
	"metrics-addr":    "metrics.addr",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("connection.port", "")
	v.SetDefault("connection.baud", 9600)
	v.SetDefault("connection.url", "")
	v.SetDefault("connection.username", "")
	v.SetDefault("connection.noSSLVerify", false)
	v.SetDefault("connection.console", false)
	v.SetDefault("connection.replay", "")
	v.SetDefault("connection.capture", "")
	v.SetDefault("connection.timeout", "250ms")

	v.SetDefault("protocol.verifyChecksum", false)
	v.SetDefault("protocol.strictReplay", false)
	v.SetDefault("protocol.frameGap", "0s")

	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.maxSize", 10)
	v.SetDefault("logging.file.maxBackups", 3)
	v.SetDefault("logging.file.maxAge", 7)
	v.SetDefault("logging.file.compress", false)

	v.SetDefault("metrics.addr", "")
	v.SetDefault("metrics.path", "/metrics")
}

// Load reads the configuration. path may be empty; flags may be nil.
// Only flags that were set on the command line override the file and
// environment.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag --%s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var logLevels = []string{"debug", "info", "warn", "warning", "error"}

// Validate reports the first inconsistent setting
func (c *Config) Validate() error {
	conn := c.Connection
	if conn.sources() > 1 {
		return errors.New("only one of --port, --url, --console or --replay may be given")
	}
	if conn.Baud <= 0 {
		return fmt.Errorf("invalid baud rate %d", conn.Baud)
	}
	if conn.Timeout < 0 {
		return fmt.Errorf("invalid timeout %s", conn.Timeout)
	}
	if conn.Replay != "" && conn.Capture != "" {
		return errors.New("--capture cannot be combined with --replay")
	}
	if c.Protocol.FrameGap < 0 {
		return fmt.Errorf("invalid frame gap %s", c.Protocol.FrameGap)
	}

	level := strings.ToLower(c.Logging.Level)
	valid := false
	for _, l := range logLevels {
		if level == l {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q (use console or json)", c.Logging.Format)
	}

	if c.Metrics.Addr != "" && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics path %q must start with /", c.Metrics.Path)
	}
	return nil
}
