// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dysv5w

import "time"

// Frame represents a decoded DY-SV5W frame
type Frame struct {
	opcode    byte
	length    uint8
	payload   []byte
	checksum  byte
	timestamp time.Time
}

// NewFrame creates a frame for the given opcode and payload with a
// correct checksum.
func NewFrame(opcode byte, payload ...byte) *Frame {
	encoded := EncodeFrame(opcode, payload...)
	return &Frame{
		opcode:    opcode,
		length:    uint8(len(payload)),
		payload:   append([]byte(nil), payload...),
		checksum:  encoded[len(encoded)-1],
		timestamp: time.Now(),
	}
}

// Opcode returns the frame's opcode
func (f *Frame) Opcode() byte {
	return f.opcode
}

// Length returns the declared payload length
func (f *Frame) Length() uint8 {
	return f.length
}

// Payload returns the payload bytes
func (f *Frame) Payload() []byte {
	return f.payload
}

// Checksum returns the checksum byte as received
func (f *Frame) Checksum() byte {
	return f.checksum
}

// Timestamp returns the frame's decode timestamp
func (f *Frame) Timestamp() time.Time {
	return f.timestamp
}

// Bytes returns the frame in wire format, keeping the checksum byte
// as received.
func (f *Frame) Bytes() []byte {
	out := make([]byte, 0, len(f.payload)+FrameOverhead)
	out = append(out, StartByte, f.opcode, f.length)
	out = append(out, f.payload...)
	return append(out, f.checksum)
}

// ExpectedChecksum returns the checksum computed over the frame's
// header and payload.
func (f *Frame) ExpectedChecksum() byte {
	b := f.Bytes()
	return CalculateChecksum(b[:len(b)-1])
}

// ChecksumValid reports whether the received checksum matches.
func (f *Frame) ChecksumValid() bool {
	return f.checksum == f.ExpectedChecksum()
}
