// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package dysv5w implements the serial protocol of the DY-SV5W family of
// MP3 decoder modules.
//
// Every exchange is a single frame:
//
//	0xAA <opcode> <length> <payload...> <checksum>
//
// where the checksum is the low byte of the sum of all preceding bytes.
// Commands are fire-and-forget; queries are answered by one frame of the
// same shape echoing the query opcode. This package provides the frame
// codec, the query response reader, typed results, and tooling for
// monitoring a line passively.
package dysv5w

// Protocol framing
const (
	StartByte = 0xAA

	// FrameOverhead is start, opcode, length and checksum.
	FrameOverhead = 4

	// MaxPayloadSize bounds frames accepted by the passive decoder.
	// The engine itself never sends or expects more than 2 payload bytes.
	MaxPayloadSize = 64
)

// MaxVolume is the highest volume level the module accepts.
const MaxVolume = 30

// Opcodes - Queries (reply expected)
const (
	OpQueryPlayStatus  = 0x01
	OpQueryOnlineDrive = 0x09
	OpQueryPlayDrive   = 0x0A
	OpQuerySongCount   = 0x0C
	OpQueryCurrentSong = 0x0D
)

// Opcodes - Commands (no reply)
const (
	OpPlay          = 0x02
	OpPause         = 0x03
	OpStop          = 0x04
	OpPrevious      = 0x05
	OpNext          = 0x06
	OpSpecifySong   = 0x07
	OpSwitchDrive   = 0x0B
	OpStopPlaying   = 0x10
	OpSetVolume     = 0x13
	OpVolumeUp      = 0x14
	OpVolumeDown    = 0x15
	OpSetCycleTimes = 0x19
	OpSetEqualizer  = 0x1A
)

// Reply payload sizes
const (
	replySizeState = 1 // play status, drives
	replySizeWord  = 2 // song count, current song
)

// noReply marks an opcode that is never answered.
const noReply = -1

// OpcodeInfo describes the shape of one entry in the command vocabulary.
type OpcodeInfo struct {
	Name        string
	RequestSize int
	ReplySize   int // -1 for fire-and-forget commands
}

// IsQuery reports whether the opcode expects a reply frame.
func (o OpcodeInfo) IsQuery() bool {
	return o.ReplySize != noReply
}

var opcodeTable = map[byte]OpcodeInfo{
	OpQueryPlayStatus:  {"QUERY_PLAY_STATUS", 0, replySizeState},
	OpPlay:             {"PLAY", 0, noReply},
	OpPause:            {"PAUSE", 0, noReply},
	OpStop:             {"STOP", 0, noReply},
	OpPrevious:         {"PREVIOUS", 0, noReply},
	OpNext:             {"NEXT", 0, noReply},
	OpSpecifySong:      {"SPECIFY_SONG", 2, noReply},
	OpQueryOnlineDrive: {"QUERY_ONLINE_DRIVE", 0, replySizeState},
	OpQueryPlayDrive:   {"QUERY_PLAY_DRIVE", 0, replySizeState},
	OpSwitchDrive:      {"SWITCH_DRIVE", 1, noReply},
	OpQuerySongCount:   {"QUERY_SONG_COUNT", 0, replySizeWord},
	OpQueryCurrentSong: {"QUERY_CURRENT_SONG", 0, replySizeWord},
	OpStopPlaying:      {"STOP_PLAYING", 0, noReply},
	OpSetVolume:        {"SET_VOLUME", 1, noReply},
	OpVolumeUp:         {"VOLUME_UP", 0, noReply},
	OpVolumeDown:       {"VOLUME_DOWN", 0, noReply},
	OpSetCycleTimes:    {"SET_CYCLE_TIMES", 2, noReply},
	OpSetEqualizer:     {"SET_EQUALIZER", 1, noReply},
}

// LookupOpcode returns the table entry for an opcode.
func LookupOpcode(opcode byte) (OpcodeInfo, bool) {
	info, ok := opcodeTable[opcode]
	return info, ok
}

// ReaderState is a step of the frame state machine, shared by the
// response reader and the passive frame decoder.
type ReaderState int

// Reader states, in wire order
const (
	StateAwaitStart ReaderState = iota
	StateAwaitOpcode
	StateAwaitLength
	StateReadPayload
	StateConsumeChecksum
)

func (s ReaderState) String() string {
	switch s {
	case StateAwaitStart:
		return "awaiting start byte"
	case StateAwaitOpcode:
		return "awaiting opcode"
	case StateAwaitLength:
		return "awaiting length"
	case StateReadPayload:
		return "reading payload"
	case StateConsumeChecksum:
		return "reading checksum"
	default:
		return "invalid state"
	}
}
