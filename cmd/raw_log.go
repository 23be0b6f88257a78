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

	"github.com/Thermoquad/dysv5w/internal/transport"
	"github.com/Thermoquad/dysv5w/pkg/dysv5w"
)

// rawLineWidth is the most bytes printed on one line
const rawLineWidth = 16

var rawLogDuration time.Duration

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display every received byte in hex",
	Long: `Print inbound bytes as they arrive without decoding them.

Bytes are grouped into one line per burst; a read timeout ends the line.
Useful for checking wiring, baud rate and bridge stability before any
frame decodes.`,
	Args: cobra.NoArgs,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
	rawLogCmd.Flags().DurationVar(&rawLogDuration, "duration", 0, "Stop after this long (0 = until interrupted)")
}

func runRawLog(cmd *cobra.Command, args []string) error {
	t, info, err := OpenTransport(cmd.Context(), appConfig.Connection, appConfig.Protocol)
	if err != nil {
		return err
	}
	defer closeTransport(t)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "dysv5w - Raw Log\n")
	fmt.Fprintf(out, "Connection: %s\n", info)
	fmt.Fprintf(out, "Press Ctrl+C to exit\n\n")

	ctx := cmd.Context()
	if rawLogDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rawLogDuration)
		defer cancel()
	}

	total, err := dumpRaw(ctx, out, t)
	fmt.Fprintf(out, "\n%d bytes received\n", total)
	return err
}

// dumpRaw prints bytes from t until ctx is done or the transport ends
// and returns how many were read
func dumpRaw(ctx context.Context, w io.Writer, t dysv5w.Transport) (int, error) {
	line := make([]byte, 0, rawLineWidth)
	total := 0

	flush := func() {
		if len(line) == 0 {
			return
		}
		fmt.Fprintf(w, "[%s] %s\n", time.Now().Format("15:04:05.000"), dysv5w.FormatHex(line))
		line = line[:0]
	}
	defer flush()

	for {
		b, err := t.ReceiveByte(ctx)
		if err != nil {
			switch {
			case errors.Is(err, transport.ErrTimeout):
				flush()
				continue
			case ctx.Err() != nil:
				return total, nil
			case connectionClosed(err):
				flush()
				fmt.Fprintln(w, "Connection closed")
				return total, nil
			default:
				return total, fmt.Errorf("read error: %w", err)
			}
		}

		total++
		line = append(line, b)
		if len(line) == rawLineWidth {
			flush()
		}
	}
}
