// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dysv5w

import "context"

// readResponse consumes exactly one reply frame for opcode from the
// transport and returns its payload, which must be exactly size bytes.
//
// Every step reads one byte. The first mismatch or missing byte aborts
// the read; nothing after it is consumed and no partial payload is
// returned. There is no resynchronization on a later start byte.
func readResponse(ctx context.Context, t Transport, opcode byte, size int, verifyChecksum bool) ([]byte, error) {
	payload := make([]byte, 0, size)
	sum := uint16(0) // running checksum over every byte read so far
	state := StateAwaitStart

	for {
		b, err := t.ReceiveByte(ctx)
		if err != nil {
			return nil, &ResponseError{Opcode: opcode, State: state, Err: ErrNoResponse, Cause: err}
		}

		switch state {
		case StateAwaitStart:
			if b != StartByte {
				return nil, &ResponseError{Opcode: opcode, State: state, Got: b, Want: StartByte, Err: ErrStartByte}
			}
			state = StateAwaitOpcode

		case StateAwaitOpcode:
			if b != opcode {
				return nil, &ResponseError{Opcode: opcode, State: state, Got: b, Want: opcode, Err: ErrOpcodeMismatch}
			}
			state = StateAwaitLength

		case StateAwaitLength:
			if int(b) != size {
				return nil, &ResponseError{Opcode: opcode, State: state, Got: b, Want: byte(size), Err: ErrLengthMismatch}
			}
			if size == 0 {
				state = StateConsumeChecksum
			} else {
				state = StateReadPayload
			}

		case StateReadPayload:
			payload = append(payload, b)
			if len(payload) == size {
				state = StateConsumeChecksum
			}

		case StateConsumeChecksum:
			if verifyChecksum {
				want := byte(sum & 0xFF)
				if b != want {
					return nil, &ResponseError{Opcode: opcode, State: state, Got: b, Want: want, Err: ErrChecksumMismatch}
				}
			}
			return payload, nil
		}

		sum += uint16(b)
	}
}
