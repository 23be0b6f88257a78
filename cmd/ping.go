// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/dysv5w/internal/transport"
	"github.com/Thermoquad/dysv5w/pkg/dysv5w"
)

var (
	pingCount    int
	pingInterval time.Duration
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Test the link by repeatedly querying the play status",
	Long: `Send QUERY_PLAY_STATUS repeatedly and report round-trip times.

This is useful for verifying:
  - The serial port or WebSocket bridge is reachable
  - Baud rate and wiring are correct
  - The module answers with well-formed frames

Exit codes:
  0 - All pings answered
  1 - One or more pings failed
  2 - Connection error`,
	Args: cobra.NoArgs,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingCount, "count", 4, "Number of pings to send (0 = until interrupted)")
	pingCmd.Flags().DurationVar(&pingInterval, "interval", time.Second, "Delay between pings")
}

// pingResult summarizes a ping run
type pingResult struct {
	sent     int
	received int
	min      time.Duration
	max      time.Duration
	total    time.Duration
}

func (r *pingResult) add(rtt time.Duration) {
	if r.received == 0 || rtt < r.min {
		r.min = rtt
	}
	if rtt > r.max {
		r.max = rtt
	}
	r.total += rtt
	r.received++
}

func (r pingResult) lossPercent() float64 {
	if r.sent == 0 {
		return 0
	}
	return float64(r.sent-r.received) * 100.0 / float64(r.sent)
}

func (r pingResult) exitCode() int {
	if r.received == r.sent {
		return 0
	}
	return 1
}

func runPing(cmd *cobra.Command, args []string) error {
	d, t, info, err := OpenDevice(cmd.Context())
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Connection error: %v\n", err)
		return &ExitError{Code: 2}
	}
	defer d.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "dysv5w - Ping\n")
	fmt.Fprintf(out, "Connection: %s\n\n", info)

	result := pingLoop(cmd.Context(), out, d, t, pingCount, pingInterval)
	printPingSummary(out, result)

	if code := result.exitCode(); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// pingLoop sends count play status queries (forever if count is 0)
// until ctx is done
func pingLoop(ctx context.Context, w io.Writer, d *dysv5w.Device, t dysv5w.Transport, count int, interval time.Duration) pingResult {
	var result pingResult
	for seq := 1; count == 0 || seq <= count; seq++ {
		if ctx.Err() != nil {
			break
		}
		if seq > 1 && interval > 0 {
			select {
			case <-ctx.Done():
				return result
			case <-time.After(interval):
			}
		}

		// Late bytes from a previous timeout would desync this exchange
		if n := transport.DiscardPending(t); n > 0 {
			fmt.Fprintf(w, "(discarded %d late bytes)\n", n)
		}

		result.sent++
		start := time.Now()
		state, err := d.QueryPlayStatus(ctx)
		rtt := time.Since(start)

		if err != nil {
			fmt.Fprintf(w, "seq=%d no reply: %v\n", seq, err)
			continue
		}
		result.add(rtt)
		fmt.Fprintf(w, "seq=%d state=%s time=%.1fms\n", seq, state, float64(rtt.Microseconds())/1000.0)
	}
	return result
}

func printPingSummary(w io.Writer, r pingResult) {
	fmt.Fprintf(w, "\n--- ping statistics ---\n")
	fmt.Fprintf(w, "%d sent, %d received, %.1f%% loss\n", r.sent, r.received, r.lossPercent())
	if r.received > 0 {
		avg := r.total / time.Duration(r.received)
		fmt.Fprintf(w, "rtt min/avg/max = %.1f/%.1f/%.1f ms\n",
			float64(r.min.Microseconds())/1000.0,
			float64(avg.Microseconds())/1000.0,
			float64(r.max.Microseconds())/1000.0)
	}
}
