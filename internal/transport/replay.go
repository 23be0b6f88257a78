// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Thermoquad/dysv5w/internal/capture"
	"github.com/Thermoquad/dysv5w/pkg/dysv5w"
)

// ErrReplayMismatch is returned in strict mode when a sent frame differs
// from the recorded one
var ErrReplayMismatch = errors.New("sent frame does not match capture")

type rxEvent struct {
	b      byte
	absent bool
}

// Replay serves the inbound side of a recorded session
type Replay struct {
	rx     []rxEvent
	rxPos  int
	tx     [][]byte
	txPos  int
	strict bool
}

// NewReplay builds a replay from capture records. In strict mode every
// Send must match the next recorded TX frame.
func NewReplay(records []capture.Record, strict bool) *Replay {
	r := &Replay{strict: strict}
	for _, rec := range records {
		switch rec.Direction {
		case capture.TX:
			r.tx = append(r.tx, rec.Data)
		case capture.RX:
			if len(rec.Data) == 0 {
				r.rx = append(r.rx, rxEvent{absent: true})
				continue
			}
			for _, b := range rec.Data {
				r.rx = append(r.rx, rxEvent{b: b})
			}
		}
	}
	return r
}

// OpenReplay loads a capture file
func OpenReplay(path string, strict bool) (*Replay, error) {
	cr, err := capture.Open(path)
	if err != nil {
		return nil, err
	}
	defer cr.Close()

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	return NewReplay(records, strict), nil
}

// Send accepts the frame, checking it against the capture in strict mode
func (r *Replay) Send(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !r.strict {
		r.txPos++
		return nil
	}
	if r.txPos >= len(r.tx) {
		return fmt.Errorf("%w: unexpected %s after end of capture", ErrReplayMismatch, dysv5w.FormatHex(data))
	}
	want := r.tx[r.txPos]
	r.txPos++
	if !bytes.Equal(data, want) {
		return fmt.Errorf("%w: sent %s, recorded %s", ErrReplayMismatch, dysv5w.FormatHex(data), dysv5w.FormatHex(want))
	}
	return nil
}

// ReceiveByte returns the next recorded byte
func (r *Replay) ReceiveByte(ctx context.Context) (byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if r.rxPos >= len(r.rx) {
		return 0, io.EOF
	}
	ev := r.rx[r.rxPos]
	r.rxPos++
	if ev.absent {
		return 0, ErrTimeout
	}
	return ev.b, nil
}

// Remaining returns the number of recorded inbound events not yet served
func (r *Replay) Remaining() int {
	return len(r.rx) - r.rxPos
}
