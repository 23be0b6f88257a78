// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Thermoquad/dysv5w/internal/transport"
	"github.com/Thermoquad/dysv5w/pkg/dysv5w"
)

var (
	monitorStatsInterval int
	monitorErrorsOnly    bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Passively decode and display frames on the line",
	Long: `Continuously decode and display DY-SV5W frames as they arrive.

Nothing is sent. Every frame is validated against the command vocabulary
and anomalies are highlighted:
  - Checksum mismatches and invalid lengths
  - Unknown opcodes and payload length mismatches
  - Out-of-range values (volume > 30, unknown equalizer, drive or play state)

Periodic statistics summaries are printed at the configured interval.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().IntVar(&monitorStatsInterval, "stats-interval", 10, "Statistics interval in seconds (0 = only at exit)")
	monitorCmd.Flags().BoolVar(&monitorErrorsOnly, "errors-only", false, "Only print rejected and anomalous frames")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	t, info, err := OpenTransport(cmd.Context(), appConfig.Connection, appConfig.Protocol)
	if err != nil {
		return err
	}
	defer closeTransport(t)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "dysv5w - Monitor\n")
	fmt.Fprintf(out, "Connection: %s\n", info)
	fmt.Fprintf(out, "Press Ctrl+C to exit\n\n")

	stats := dysv5w.NewStatistics()
	err = monitorLine(cmd.Context(), out, t, stats, monitorOptions{
		statsInterval: time.Duration(monitorStatsInterval) * time.Second,
		errorsOnly:    monitorErrorsOnly,
	})
	fmt.Fprintf(out, "\n%s", stats)
	return err
}

type monitorOptions struct {
	statsInterval time.Duration
	errorsOnly    bool
}

// monitorLine decodes bytes from t until ctx is done or the transport
// ends. Read timeouts are idle periods, not errors.
func monitorLine(ctx context.Context, w io.Writer, t dysv5w.Transport, stats *dysv5w.Statistics, opts monitorOptions) error {
	decoder := dysv5w.NewFrameDecoder()
	lastStats := time.Now()

	for {
		if opts.statsInterval > 0 && time.Since(lastStats) >= opts.statsInterval {
			fmt.Fprintf(w, "%s\n", stats)
			lastStats = time.Now()
		}

		b, err := t.ReceiveByte(ctx)
		if err != nil {
			switch {
			case errors.Is(err, transport.ErrTimeout):
				continue
			case ctx.Err() != nil:
				return nil
			case connectionClosed(err):
				fmt.Fprintln(w, "Connection closed")
				return nil
			default:
				return fmt.Errorf("read error: %w", err)
			}
		}

		frame, decodeErr := decoder.DecodeByte(b)
		if decodeErr != nil {
			stats.Update(nil, decodeErr, nil)
			if protoMetrics != nil {
				protoMetrics.ObserveFrame(nil, decodeErr)
			}
			logger.Debug("frame rejected", zap.Error(decodeErr))
			fmt.Fprintf(w, "[%s] ERROR: %v\n", time.Now().Format("15:04:05.000"), decodeErr)
			continue
		}
		if frame == nil {
			continue
		}

		anomalies := dysv5w.ValidateFrame(frame)
		stats.Update(frame, nil, anomalies)
		if protoMetrics != nil {
			protoMetrics.ObserveFrame(frame, nil)
		}

		if opts.errorsOnly && len(anomalies) == 0 {
			continue
		}
		fmt.Fprint(w, dysv5w.FormatFrame(frame))
		for _, a := range anomalies {
			fmt.Fprintf(w, "  ! %s: %s\n", a.Type, a.Message)
		}
	}
}

// connectionClosed reports whether err means the transport has ended
func connectionClosed(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, transport.ErrClosed) ||
		errors.Is(err, transport.ErrConnectionClosed)
}
