// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Thermoquad/dysv5w/pkg/dysv5w"
)

// Report rows, in display order
var statusRows = []struct {
	label string
	query string
}{
	{"Play status", "play_status"},
	{"Play drive", "play_drive"},
	{"Online drive", "online_drive"},
	{"Song count", "song_count"},
	{"Current song", "current_song"},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Run every query and print a report",
	Long: `Run all five queries and print the results.

Exit codes:
  0 - Every query answered
  1 - At least one query unavailable
  2 - Connection error`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	d, _, info, err := OpenDevice(cmd.Context())
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Connection error: %v\n", err)
		return &ExitError{Code: 2}
	}
	defer d.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Connection: %s\n\n", info)
	if failed := statusReport(cmd.Context(), out, d); failed > 0 {
		return &ExitError{Code: 1}
	}
	return nil
}

// statusReport prints one line per query and returns how many failed
func statusReport(ctx context.Context, w io.Writer, d *dysv5w.Device) int {
	failed := 0
	for _, row := range statusRows {
		result, err := queries[row.query](ctx, d)
		if err != nil {
			logger.Debug("query failed", zap.String("query", row.query), zap.Error(err))
			result = "unavailable"
			failed++
		}
		fmt.Fprintf(w, "%-14s %s\n", row.label+":", result)
	}
	return failed
}
