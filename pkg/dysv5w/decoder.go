// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dysv5w

import (
	"fmt"
	"time"
)

// FrameDecoder decodes frames from a passively monitored byte stream.
//
// Unlike the query reader it resynchronizes: bytes outside a frame are
// skipped until the next start byte, and a bad length or checksum resets
// the decoder.
type FrameDecoder struct {
	state     ReaderState
	frame     *Frame
	rawBuffer []byte // Raw bytes of the frame in progress
	skipped   int
}

// NewFrameDecoder creates a new passive frame decoder
func NewFrameDecoder() *FrameDecoder {
	return &FrameDecoder{
		state:     StateAwaitStart,
		rawBuffer: make([]byte, 0, MaxPayloadSize+FrameOverhead),
	}
}

// Reset returns the decoder to waiting for a start byte
func (d *FrameDecoder) Reset() {
	d.state = StateAwaitStart
	d.frame = nil
	d.rawBuffer = d.rawBuffer[:0]
}

// RawBytes returns the bytes of the frame in progress
func (d *FrameDecoder) RawBytes() []byte {
	return d.rawBuffer
}

// Skipped returns the number of bytes discarded outside of frames
func (d *FrameDecoder) Skipped() int {
	return d.skipped
}

// DecodeByte processes a single byte through the decoder state machine.
// Returns a completed frame, or nil if the frame is incomplete.
// Returns an error if the frame is rejected.
func (d *FrameDecoder) DecodeByte(b byte) (*Frame, error) {
	switch d.state {
	case StateAwaitStart:
		if b != StartByte {
			d.skipped++
			return nil, nil
		}
		d.rawBuffer = append(d.rawBuffer[:0], b)
		d.state = StateAwaitOpcode
		return nil, nil

	case StateAwaitOpcode:
		d.rawBuffer = append(d.rawBuffer, b)
		d.frame = &Frame{opcode: b}
		d.state = StateAwaitLength
		return nil, nil

	case StateAwaitLength:
		if b > MaxPayloadSize {
			d.Reset()
			return nil, fmt.Errorf("invalid length: %d (max %d)", b, MaxPayloadSize)
		}
		d.rawBuffer = append(d.rawBuffer, b)
		d.frame.length = b
		d.frame.payload = make([]byte, 0, b)
		if b == 0 {
			d.state = StateConsumeChecksum
		} else {
			d.state = StateReadPayload
		}
		return nil, nil

	case StateReadPayload:
		d.rawBuffer = append(d.rawBuffer, b)
		d.frame.payload = append(d.frame.payload, b)
		if len(d.frame.payload) >= int(d.frame.length) {
			d.state = StateConsumeChecksum
		}
		return nil, nil

	case StateConsumeChecksum:
		frame := d.frame
		frame.checksum = b
		expected := CalculateChecksum(d.rawBuffer)
		d.Reset()

		if b != expected {
			return nil, fmt.Errorf("checksum mismatch on %s: expected 0x%02X, got 0x%02X", FormatOpcode(frame.opcode), expected, b)
		}
		frame.timestamp = time.Now()
		return frame, nil

	default:
		state := d.state
		d.Reset()
		return nil, fmt.Errorf("invalid state: %d", state)
	}
}

// DecodeFrame decodes a single complete frame from data.
func DecodeFrame(data []byte) (*Frame, error) {
	d := NewFrameDecoder()
	for i, b := range data {
		frame, err := d.DecodeByte(b)
		if err != nil {
			return nil, err
		}
		if frame != nil {
			if i != len(data)-1 {
				return nil, fmt.Errorf("%d trailing bytes after frame", len(data)-1-i)
			}
			return frame, nil
		}
	}
	return nil, fmt.Errorf("incomplete frame (%d bytes)", len(data))
}
