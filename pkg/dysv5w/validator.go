// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dysv5w

import "fmt"

// AnomalyType represents different kinds of frame anomalies
type AnomalyType int

const (
	AnomalyUnknownOpcode AnomalyType = iota
	AnomalyLengthMismatch
	AnomalyVolumeRange
	AnomalyInvalidValue
	AnomalyUnknownPlayState
	AnomalyChecksum
)

func (a AnomalyType) String() string {
	switch a {
	case AnomalyUnknownOpcode:
		return "unknown_opcode"
	case AnomalyLengthMismatch:
		return "length_mismatch"
	case AnomalyVolumeRange:
		return "volume_range"
	case AnomalyInvalidValue:
		return "invalid_value"
	case AnomalyUnknownPlayState:
		return "unknown_play_state"
	case AnomalyChecksum:
		return "checksum"
	default:
		return "unknown"
	}
}

// ValidationError represents a frame validation failure
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidateFrame checks a monitored frame against the command vocabulary.
// Returns a slice of validation errors (empty if the frame is valid).
func ValidateFrame(f *Frame) []ValidationError {
	errors := []ValidationError{}

	if !f.ChecksumValid() {
		errors = append(errors, ValidationError{
			Type:    AnomalyChecksum,
			Message: fmt.Sprintf("Checksum 0x%02X, expected 0x%02X", f.checksum, f.ExpectedChecksum()),
			Details: map[string]interface{}{"checksum": f.checksum, "expected": f.ExpectedChecksum()},
		})
	}

	info, ok := LookupOpcode(f.opcode)
	if !ok {
		return append(errors, ValidationError{
			Type:    AnomalyUnknownOpcode,
			Message: fmt.Sprintf("Unknown opcode 0x%02X", f.opcode),
			Details: map[string]interface{}{"opcode": f.opcode},
		})
	}

	length := int(f.length)
	if length != info.RequestSize && length != info.ReplySize {
		want := fmt.Sprintf("%d", info.RequestSize)
		if info.IsQuery() {
			want = fmt.Sprintf("%d or %d", info.RequestSize, info.ReplySize)
		}
		return append(errors, ValidationError{
			Type:    AnomalyLengthMismatch,
			Message: fmt.Sprintf("%s length %d (expected %s)", info.Name, length, want),
			Details: map[string]interface{}{"length": length, "expected": want},
		})
	}

	if length == 0 {
		return errors
	}

	switch f.opcode {
	case OpSetVolume:
		if v := f.payload[0]; v > MaxVolume {
			errors = append(errors, ValidationError{
				Type:    AnomalyVolumeRange,
				Message: fmt.Sprintf("Volume %d above maximum %d", v, MaxVolume),
				Details: map[string]interface{}{"volume": v, "max": MaxVolume},
			})
		}

	case OpSetEqualizer:
		if m := EqualizerMode(f.payload[0]); !m.Valid() {
			errors = append(errors, ValidationError{
				Type:    AnomalyInvalidValue,
				Message: fmt.Sprintf("Invalid equalizer mode 0x%02X", f.payload[0]),
				Details: map[string]interface{}{"mode": f.payload[0]},
			})
		}

	case OpSwitchDrive:
		if d := f.payload[0]; DriveFromByte(d) == DriveNoDevice && Drive(d) != DriveNoDevice {
			errors = append(errors, ValidationError{
				Type:    AnomalyInvalidValue,
				Message: fmt.Sprintf("Invalid drive code 0x%02X", d),
				Details: map[string]interface{}{"drive": d},
			})
		}

	case OpQueryPlayStatus:
		if _, ok := PlayStateFromByte(f.payload[0]); !ok {
			errors = append(errors, ValidationError{
				Type:    AnomalyUnknownPlayState,
				Message: fmt.Sprintf("Unknown play state 0x%02X", f.payload[0]),
				Details: map[string]interface{}{"state": f.payload[0]},
			})
		}
	}

	return errors
}
