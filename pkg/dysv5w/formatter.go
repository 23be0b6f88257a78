// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dysv5w

import (
	"fmt"
	"strings"
)

// FormatOpcode returns the human-readable name for an opcode
func FormatOpcode(opcode byte) string {
	if info, ok := LookupOpcode(opcode); ok {
		return info.Name
	}
	return "UNKNOWN"
}

// FormatHex renders bytes as space-separated upper-case hex pairs
func FormatHex(data []byte) string {
	return fmt.Sprintf("% X", data)
}

// FormatFrame formats a frame into a human-readable string
func FormatFrame(f *Frame) string {
	timestamp := f.timestamp.Format("15:04:05.000")
	result := fmt.Sprintf("[%s] %s (0x%02X) len=%d sum=0x%02X\n",
		timestamp, FormatOpcode(f.opcode), f.opcode, f.length, f.checksum)
	return result + FormatPayload(f.opcode, f.payload)
}

// FormatPayload formats a payload based on the opcode. Query opcodes
// carrying a payload are replies from the module.
func FormatPayload(opcode byte, payload []byte) string {
	if len(payload) == 0 {
		return "  (no payload)\n"
	}

	switch opcode {
	case OpSetVolume:
		if len(payload) == 1 {
			return fmt.Sprintf("  Volume: %d\n", payload[0])
		}

	case OpSpecifySong:
		if len(payload) == 2 {
			return fmt.Sprintf("  Song: %d\n", decodeWord(payload))
		}

	case OpSetCycleTimes:
		if len(payload) == 2 {
			return fmt.Sprintf("  Cycle times: %d\n", decodeWord(payload))
		}

	case OpSetEqualizer:
		if len(payload) == 1 {
			return fmt.Sprintf("  Equalizer: %s\n", EqualizerMode(payload[0]))
		}

	case OpSwitchDrive:
		if len(payload) == 1 {
			return fmt.Sprintf("  Drive: %s (0x%02X)\n", DriveFromByte(payload[0]), payload[0])
		}

	case OpQueryPlayStatus:
		if len(payload) == 1 {
			return fmt.Sprintf("  Play state: %s\n", PlayState(payload[0]))
		}

	case OpQueryPlayDrive, OpQueryOnlineDrive:
		if len(payload) == 1 {
			return fmt.Sprintf("  Drive: %s (0x%02X)\n", DriveFromByte(payload[0]), payload[0])
		}

	case OpQuerySongCount:
		if len(payload) == 2 {
			return fmt.Sprintf("  Song count: %d\n", decodeWord(payload))
		}

	case OpQueryCurrentSong:
		if len(payload) == 2 {
			return fmt.Sprintf("  Current song: %d\n", decodeWord(payload))
		}
	}

	// Default: hex dump
	var result strings.Builder
	result.WriteString("  Payload: ")
	for i, b := range payload {
		if i > 0 && i%16 == 0 {
			result.WriteString("\n           ")
		}
		fmt.Fprintf(&result, "%02X ", b)
	}
	result.WriteString("\n")
	return result.String()
}
