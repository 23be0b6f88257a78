// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dysv5w

import (
	"context"
	"io"
)

// scriptTransport replays a fixed inbound byte stream and records every
// outbound frame.
type scriptTransport struct {
	rx      []byte
	pos     int
	reads   int
	sent    [][]byte
	sendErr error
	closed  bool
}

func newScript(rx ...byte) *scriptTransport {
	return &scriptTransport{rx: rx}
}

func (s *scriptTransport) Send(ctx context.Context, data []byte) error {
	s.sent = append(s.sent, append([]byte(nil), data...))
	return s.sendErr
}

func (s *scriptTransport) ReceiveByte(ctx context.Context) (byte, error) {
	s.reads++
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s.pos >= len(s.rx) {
		return 0, io.EOF
	}
	b := s.rx[s.pos]
	s.pos++
	return b, nil
}

func (s *scriptTransport) Close() error {
	s.closed = true
	return nil
}

// reply builds a well-formed reply frame
func reply(opcode byte, payload ...byte) []byte {
	return EncodeFrame(opcode, payload...)
}
