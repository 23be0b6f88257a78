// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"

	"github.com/Thermoquad/dysv5w/internal/capture"
	"github.com/Thermoquad/dysv5w/internal/transport"
	"github.com/Thermoquad/dysv5w/pkg/dysv5w"
)

// lineTransport serves scripted inbound records and keeps every sent
// frame. An empty record reads as a timeout.
type lineTransport struct {
	*transport.Replay
	sent [][]byte
}

func newLine(rx ...[]byte) *lineTransport {
	records := make([]capture.Record, 0, len(rx))
	for _, data := range rx {
		records = append(records, capture.Record{Direction: capture.RX, Data: data})
	}
	return &lineTransport{Replay: transport.NewReplay(records, false)}
}

func (l *lineTransport) Send(ctx context.Context, data []byte) error {
	l.sent = append(l.sent, append([]byte(nil), data...))
	return l.Replay.Send(ctx, data)
}

func (l *lineTransport) opcodes() []byte {
	ops := make([]byte, 0, len(l.sent))
	for _, f := range l.sent {
		ops = append(ops, f[1])
	}
	return ops
}

func frame(opcode byte, payload ...byte) []byte {
	return dysv5w.EncodeFrame(opcode, payload...)
}

// timeout is an inbound record with no data
var timeout = []byte{}

// lagLine answers like a module slower than the read timeout: late[n]
// arrives only after a read following send n has timed out, while
// onSend[n] is ready as soon as send n goes out.
type lagLine struct {
	onSend [][]byte
	late   [][]byte
	sends  int
	buf    []byte
	sent   [][]byte
}

func (l *lagLine) Send(ctx context.Context, data []byte) error {
	l.sent = append(l.sent, append([]byte(nil), data...))
	if l.sends < len(l.onSend) {
		l.buf = append(l.buf, l.onSend[l.sends]...)
	}
	l.sends++
	return nil
}

func (l *lagLine) ReceiveByte(ctx context.Context) (byte, error) {
	if len(l.buf) == 0 {
		if i := l.sends - 1; i >= 0 && i < len(l.late) {
			l.buf = append(l.buf, l.late[i]...)
			l.late[i] = nil
		}
		return 0, transport.ErrTimeout
	}
	b := l.buf[0]
	l.buf = l.buf[1:]
	return b, nil
}

func (l *lagLine) Discard() int {
	n := len(l.buf)
	l.buf = nil
	return n
}
