// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/dysv5w/pkg/dysv5w"
)

// Zero-payload commands
var simpleCommands = []struct {
	use   string
	short string
	send  func(*dysv5w.Device, context.Context)
}{
	{"play", "Start or resume playback", (*dysv5w.Device).Play},
	{"pause", "Pause playback", (*dysv5w.Device).Pause},
	{"stop", "Stop playback", (*dysv5w.Device).Stop},
	{"previous", "Play the previous song", (*dysv5w.Device).Previous},
	{"next", "Play the next song", (*dysv5w.Device).Next},
	{"stop_playing", "End playback entirely", (*dysv5w.Device).StopPlaying},
	{"volume_up", "Raise the volume by one step", (*dysv5w.Device).VolumeUp},
	{"volume_down", "Lower the volume by one step", (*dysv5w.Device).VolumeDown},
}

func init() {
	for _, c := range simpleCommands {
		send := c.send
		rootCmd.AddCommand(&cobra.Command{
			Use:   c.use,
			Short: c.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDevice(cmd.Context(), func(ctx context.Context, d *dysv5w.Device) error {
					send(d, ctx)
					return nil
				})
			},
		})
	}

	rootCmd.AddCommand(volumeCmd, songCmd, cycleCmd, eqCmd, driveCmd)
}

var volumeCmd = &cobra.Command{
	Use:   "volume <0-30>",
	Short: "Set the volume",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		volume, err := parseVolume(args[0])
		if err != nil {
			return err
		}
		return withDevice(cmd.Context(), func(ctx context.Context, d *dysv5w.Device) error {
			d.SetVolume(ctx, volume)
			return nil
		})
	},
}

var songCmd = &cobra.Command{
	Use:   "song <n>",
	Short: "Play song number n",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		song, err := parseWord("song", args[0])
		if err != nil {
			return err
		}
		return withDevice(cmd.Context(), func(ctx context.Context, d *dysv5w.Device) error {
			d.SpecifySong(ctx, song)
			return nil
		})
	},
}

var cycleCmd = &cobra.Command{
	Use:   "cycle <n>",
	Short: "Set how many times the current song repeats",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		times, err := parseWord("cycle times", args[0])
		if err != nil {
			return err
		}
		return withDevice(cmd.Context(), func(ctx context.Context, d *dysv5w.Device) error {
			d.SetCycleTimes(ctx, times)
			return nil
		})
	},
}

var eqCmd = &cobra.Command{
	Use:   "eq <normal|pop|rock|jazz|classic>",
	Short: "Select the equalizer preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := dysv5w.ParseEqualizerMode(args[0])
		if err != nil {
			return err
		}
		return withDevice(cmd.Context(), func(ctx context.Context, d *dysv5w.Device) error {
			d.SetEqualizerMode(ctx, mode)
			return nil
		})
	},
}

var driveCmd = &cobra.Command{
	Use:   "drive <usb|sd|flash>",
	Short: "Switch to a storage device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		drive, err := dysv5w.ParseDrive(args[0])
		if err != nil {
			return err
		}
		return withDevice(cmd.Context(), func(ctx context.Context, d *dysv5w.Device) error {
			d.SwitchDrive(ctx, drive)
			return nil
		})
	},
}

// parseVolume parses a volume level within the module's range
func parseVolume(s string) (uint8, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 8)
	if err != nil || v > dysv5w.MaxVolume {
		return 0, fmt.Errorf("invalid volume %q (use 0-%d)", s, dysv5w.MaxVolume)
	}
	return uint8(v), nil
}

// parseWord parses a 16-bit command argument
func parseWord(what, s string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q (use 0-65535)", what, s)
	}
	return uint16(v), nil
}
