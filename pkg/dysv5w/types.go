// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dysv5w

import (
	"fmt"
	"strings"
)

// PlayState is the playback state reported by QUERY_PLAY_STATUS
type PlayState uint8

// Play state values
const (
	PlayStateStopped PlayState = 0x00
	PlayStatePlaying PlayState = 0x01
	PlayStatePaused  PlayState = 0x02
)

// PlayStateFromByte decodes a play status reply byte.
// Any value outside the three known states is not a PlayState.
func PlayStateFromByte(b byte) (PlayState, bool) {
	switch PlayState(b) {
	case PlayStateStopped, PlayStatePlaying, PlayStatePaused:
		return PlayState(b), true
	default:
		return 0, false
	}
}

func (s PlayState) String() string {
	switch s {
	case PlayStateStopped:
		return "stopped"
	case PlayStatePlaying:
		return "playing"
	case PlayStatePaused:
		return "paused"
	default:
		return fmt.Sprintf("unknown(0x%02X)", uint8(s))
	}
}

// Drive identifies a storage device on the module
type Drive uint8

// Drive codes
const (
	DriveUSB      Drive = 0x00
	DriveSD       Drive = 0x01
	DriveFlash    Drive = 0x02
	DriveNoDevice Drive = 0xFF
)

// DriveFromByte decodes a drive reply byte. Decoding is total: every
// unrecognized code is DriveNoDevice.
func DriveFromByte(b byte) Drive {
	switch Drive(b) {
	case DriveUSB, DriveSD, DriveFlash:
		return Drive(b)
	default:
		return DriveNoDevice
	}
}

// ParseDrive parses a drive name (usb, sd, flash).
func ParseDrive(name string) (Drive, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "usb":
		return DriveUSB, nil
	case "sd":
		return DriveSD, nil
	case "flash":
		return DriveFlash, nil
	default:
		return DriveNoDevice, fmt.Errorf("unknown drive %q (use usb, sd or flash)", name)
	}
}

func (d Drive) String() string {
	switch d {
	case DriveUSB:
		return "USB"
	case DriveSD:
		return "SD"
	case DriveFlash:
		return "Flash"
	default:
		return "NoDevice"
	}
}

// EqualizerMode selects the module's equalizer preset
type EqualizerMode uint8

// Equalizer mode codes
const (
	EqualizerNormal  EqualizerMode = 0x00
	EqualizerPop     EqualizerMode = 0x01
	EqualizerRock    EqualizerMode = 0x02
	EqualizerJazz    EqualizerMode = 0x03
	EqualizerClassic EqualizerMode = 0x04
)

// EqualizerModes lists the presets in code order.
var EqualizerModes = []EqualizerMode{
	EqualizerNormal,
	EqualizerPop,
	EqualizerRock,
	EqualizerJazz,
	EqualizerClassic,
}

// ParseEqualizerMode parses a preset name (normal, pop, rock, jazz, classic).
func ParseEqualizerMode(name string) (EqualizerMode, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, m := range EqualizerModes {
		if m.String() == want {
			return m, nil
		}
	}
	return EqualizerNormal, fmt.Errorf("unknown equalizer mode %q (use normal, pop, rock, jazz or classic)", name)
}

// Valid reports whether m is one of the five known presets.
func (m EqualizerMode) Valid() bool {
	return m <= EqualizerClassic
}

func (m EqualizerMode) String() string {
	switch m {
	case EqualizerNormal:
		return "normal"
	case EqualizerPop:
		return "pop"
	case EqualizerRock:
		return "rock"
	case EqualizerJazz:
		return "jazz"
	case EqualizerClassic:
		return "classic"
	default:
		return fmt.Sprintf("unknown(0x%02X)", uint8(m))
	}
}
