// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dysv5w

import (
	"encoding/binary"
	"fmt"
)

// EncodeFrame creates a complete wire-formatted frame.
//
// The frame is built as [StartByte, opcode, len(payload), payload..., 0]
// and the trailing placeholder is then replaced by the checksum of every
// byte before it. Panics if the payload does not fit the length byte.
func EncodeFrame(opcode byte, payload ...byte) []byte {
	if len(payload) > 0xFF {
		panic(fmt.Sprintf("dysv5w: payload too large: %d bytes", len(payload)))
	}

	frame := make([]byte, 0, len(payload)+FrameOverhead)
	frame = append(frame, StartByte, opcode, byte(len(payload)))
	frame = append(frame, payload...)
	frame = append(frame, 0)

	last := len(frame) - 1
	frame[last] = CalculateChecksum(frame[:last])
	return frame
}

// encodeWord returns v as a big-endian payload.
func encodeWord(v uint16) []byte {
	return binary.BigEndian.AppendUint16(nil, v)
}

// decodeWord reads a big-endian 16-bit payload.
func decodeWord(payload []byte) uint16 {
	return binary.BigEndian.Uint16(payload)
}
