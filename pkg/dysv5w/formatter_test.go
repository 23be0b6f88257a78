// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dysv5w

import (
	"strings"
	"testing"
)

func TestFormatOpcode(t *testing.T) {
	if got := FormatOpcode(OpSetVolume); got != "SET_VOLUME" {
		t.Errorf("FormatOpcode(0x13) = %q", got)
	}
	if got := FormatOpcode(0x7E); got != "UNKNOWN" {
		t.Errorf("FormatOpcode(0x7E) = %q", got)
	}
}

func TestFormatHex(t *testing.T) {
	if got := FormatHex([]byte{0xAA, 0x0B, 0x01, 0x02, 0xB8}); got != "AA 0B 01 02 B8" {
		t.Errorf("FormatHex = %q", got)
	}
}

func TestFormatPayload(t *testing.T) {
	tests := []struct {
		name    string
		opcode  byte
		payload []byte
		want    string
	}{
		{"empty", OpPlay, nil, "  (no payload)\n"},
		{"volume", OpSetVolume, []byte{25}, "  Volume: 25\n"},
		{"song", OpSpecifySong, []byte{0x01, 0x00}, "  Song: 256\n"},
		{"cycle", OpSetCycleTimes, []byte{0x00, 0x03}, "  Cycle times: 3\n"},
		{"equalizer", OpSetEqualizer, []byte{0x04}, "  Equalizer: classic\n"},
		{"switch drive", OpSwitchDrive, []byte{0x01}, "  Drive: SD (0x01)\n"},
		{"play state", OpQueryPlayStatus, []byte{0x02}, "  Play state: paused\n"},
		{"online drive", OpQueryOnlineDrive, []byte{0x07}, "  Drive: NoDevice (0x07)\n"},
		{"song count", OpQuerySongCount, []byte{0x00, 0x0C}, "  Song count: 12\n"},
		{"current song", OpQueryCurrentSong, []byte{0x00, 0x01}, "  Current song: 1\n"},
		{"unknown opcode", 0x7E, []byte{0xDE, 0xAD}, "  Payload: DE AD \n"},
		{"wrong size", OpSetVolume, []byte{1, 2}, "  Payload: 01 02 \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatPayload(tt.opcode, tt.payload); got != tt.want {
				t.Errorf("FormatPayload() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatPayload_HexDumpWraps(t *testing.T) {
	payload := make([]byte, 20)
	got := FormatPayload(0x7E, payload)
	if lines := strings.Count(got, "\n"); lines != 2 {
		t.Errorf("hex dump of 20 bytes has %d lines, want 2:\n%s", lines, got)
	}
}

func TestFormatFrame(t *testing.T) {
	got := FormatFrame(NewFrame(OpSwitchDrive, byte(DriveFlash)))
	if !strings.Contains(got, "SWITCH_DRIVE (0x0B) len=1 sum=0xB8") {
		t.Errorf("FormatFrame header wrong: %q", got)
	}
	if !strings.HasSuffix(got, "  Drive: Flash (0x02)\n") {
		t.Errorf("FormatFrame payload wrong: %q", got)
	}
}
