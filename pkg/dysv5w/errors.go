// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dysv5w

import (
	"errors"
	"fmt"
)

// Response reader failures. A query either returns a fully valid result
// or an error wrapping exactly one of these.
var (
	// ErrNoResponse means the transport delivered no byte (end of data,
	// timeout, I/O failure or cancellation).
	ErrNoResponse = errors.New("no response byte")

	ErrStartByte        = errors.New("unexpected start byte")
	ErrOpcodeMismatch   = errors.New("opcode echo mismatch")
	ErrLengthMismatch   = errors.New("unexpected payload length")
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrUnknownPlayState is returned for a structurally valid play
	// status reply carrying an unrecognized state byte.
	ErrUnknownPlayState = errors.New("unknown play state")
)

// ResponseError describes where and why reading a reply frame failed.
type ResponseError struct {
	// Opcode is the query whose reply was being read
	Opcode byte

	// State is the reader step that failed
	State ReaderState

	// Got and Want are the offending byte and the expected one, when the
	// failure is a mismatch
	Got, Want byte

	// Err is one of the sentinel errors above
	Err error

	// Cause is the transport error behind ErrNoResponse
	Cause error
}

func (e *ResponseError) Error() string {
	name := FormatOpcode(e.Opcode)
	switch {
	case e.Cause != nil:
		return fmt.Sprintf("%s reply %s: %v: %v", name, e.State, e.Err, e.Cause)
	case errors.Is(e.Err, ErrNoResponse):
		return fmt.Sprintf("%s reply %s: %v", name, e.State, e.Err)
	default:
		return fmt.Sprintf("%s reply %s: %v (got 0x%02X, want 0x%02X)", name, e.State, e.Err, e.Got, e.Want)
	}
}

func (e *ResponseError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// Failure is the coarse class of an exchange outcome
type Failure int

// Failure classes
const (
	FailureNone Failure = iota
	FailureNoResponse
	FailureDesync
	FailureChecksum
	FailureDecode
	FailureOther
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "ok"
	case FailureNoResponse:
		return "no_response"
	case FailureDesync:
		return "desync"
	case FailureChecksum:
		return "checksum"
	case FailureDecode:
		return "decode"
	default:
		return "other"
	}
}

// ClassifyError maps an engine error to its failure class.
func ClassifyError(err error) Failure {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, ErrNoResponse):
		return FailureNoResponse
	case errors.Is(err, ErrStartByte), errors.Is(err, ErrOpcodeMismatch), errors.Is(err, ErrLengthMismatch):
		return FailureDesync
	case errors.Is(err, ErrChecksumMismatch):
		return FailureChecksum
	case errors.Is(err, ErrUnknownPlayState):
		return FailureDecode
	default:
		return FailureOther
	}
}
