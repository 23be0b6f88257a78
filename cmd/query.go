// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Thermoquad/dysv5w/pkg/dysv5w"
)

// queryFunc runs one query and renders its result
type queryFunc func(ctx context.Context, d *dysv5w.Device) (string, error)

var queries = map[string]queryFunc{
	"play_status": func(ctx context.Context, d *dysv5w.Device) (string, error) {
		s, err := d.QueryPlayStatus(ctx)
		return s.String(), err
	},
	"play_drive": func(ctx context.Context, d *dysv5w.Device) (string, error) {
		drive, err := d.QueryCurrentPlayDrive(ctx)
		return drive.String(), err
	},
	"online_drive": func(ctx context.Context, d *dysv5w.Device) (string, error) {
		drive, err := d.QueryOnlineDrive(ctx)
		return drive.String(), err
	},
	"song_count": func(ctx context.Context, d *dysv5w.Device) (string, error) {
		n, err := d.QuerySongCount(ctx)
		return fmt.Sprintf("%d", n), err
	},
	"current_song": func(ctx context.Context, d *dysv5w.Device) (string, error) {
		n, err := d.QueryCurrentSong(ctx)
		return fmt.Sprintf("%d", n), err
	},
}

func queryNames() []string {
	names := make([]string, 0, len(queries))
	for name := range queries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var queryCmd = &cobra.Command{
	Use:   "query <" + strings.Join(queryNames(), "|") + ">",
	Short: "Ask the module for one value",
	Long: `Send one query and print the result.

If the module does not answer with a well-formed reply, "unavailable" is
printed instead. Run with --log-level debug to see why.

Exit codes:
  0 - Query answered
  1 - No valid reply
  2 - Connection error`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: queryNames(),
	RunE:      runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	q, ok := queries[args[0]]
	if !ok {
		return fmt.Errorf("unknown query %q (use %s)", args[0], strings.Join(queryNames(), ", "))
	}

	d, _, _, err := OpenDevice(cmd.Context())
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Connection error: %v\n", err)
		return &ExitError{Code: 2}
	}
	defer d.Close()

	if !printQuery(cmd.Context(), cmd.OutOrStdout(), d, args[0], q) {
		return &ExitError{Code: 1}
	}
	return nil
}

// printQuery runs q and prints its result, reporting whether it was answered
func printQuery(ctx context.Context, w io.Writer, d *dysv5w.Device, name string, q queryFunc) bool {
	result, err := q(ctx, d)
	if err != nil {
		logger.Debug("query failed", zap.String("query", name), zap.Error(err))
		fmt.Fprintln(w, "unavailable")
		return false
	}
	fmt.Fprintln(w, result)
	return true
}
