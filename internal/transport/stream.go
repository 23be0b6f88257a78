// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package transport adapts byte streams (serial ports, WebSocket bridges,
// the console, capture files) to the dysv5w.Transport capability.
package transport

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/Thermoquad/dysv5w/pkg/dysv5w"
)

// DefaultTimeout is how long ReceiveByte waits for the next byte.
const DefaultTimeout = 250 * time.Millisecond

const readChunkSize = 256

// ErrTimeout is returned when no byte arrives within the read timeout
var ErrTimeout = errors.New("read timeout")

// ErrClosed is returned after the stream has been closed
var ErrClosed = errors.New("transport closed")

// Stream adapts an io.ReadWriteCloser to a byte-at-a-time transport.
//
// A pump goroutine reads the underlying stream in chunks; ReceiveByte
// waits for the next byte, the read timeout or context cancellation,
// whichever comes first. Bytes that arrive after a timeout are kept and
// returned by the next ReceiveByte. A Stream is not safe for concurrent
// ReceiveByte calls.
type Stream struct {
	rw      io.ReadWriteCloser
	timeout time.Duration

	chunks  chan []byte
	pending []byte
	readErr error // set before chunks is closed

	done      chan struct{}
	closeOnce sync.Once
	writeMu   sync.Mutex
}

// NewStream starts pumping rw. A timeout of zero waits forever (until the
// context is done).
func NewStream(rw io.ReadWriteCloser, timeout time.Duration) *Stream {
	s := &Stream{
		rw:      rw,
		timeout: timeout,
		chunks:  make(chan []byte, 16),
		done:    make(chan struct{}),
	}
	go s.pump()
	return s
}

func (s *Stream) pump() {
	defer close(s.chunks)
	buf := make([]byte, readChunkSize)
	for {
		n, err := s.rw.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			select {
			case s.chunks <- chunk:
			case <-s.done:
				s.readErr = ErrClosed
				return
			}
		}
		if err != nil {
			s.readErr = err
			return
		}
		// Serial ports report a poll timeout as (0, nil)
		if n == 0 {
			select {
			case <-s.done:
				s.readErr = ErrClosed
				return
			default:
			}
		}
	}
}

// Send writes one frame to the stream
func (s *Stream) Send(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.rw.Write(data)
	return err
}

// ReceiveByte returns the next inbound byte
func (s *Stream) ReceiveByte(ctx context.Context) (byte, error) {
	if len(s.pending) > 0 {
		b := s.pending[0]
		s.pending = s.pending[1:]
		return b, nil
	}

	var timeout <-chan time.Time
	if s.timeout > 0 {
		timer := time.NewTimer(s.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case chunk, ok := <-s.chunks:
		if !ok {
			if s.readErr == nil {
				return 0, io.EOF
			}
			return 0, s.readErr
		}
		s.pending = chunk[1:]
		return chunk[0], nil
	case <-timeout:
		return 0, ErrTimeout
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Discarder is implemented by transports that buffer inbound bytes
type Discarder interface {
	Discard() int
}

// DiscardPending drops bytes t has received but not yet delivered and
// returns how many. Transports without a buffer report 0.
func DiscardPending(t dysv5w.Transport) int {
	if d, ok := t.(Discarder); ok {
		return d.Discard()
	}
	return 0
}

// Discard drops every byte already received but not yet consumed
func (s *Stream) Discard() int {
	n := len(s.pending)
	s.pending = nil
	for {
		select {
		case chunk, ok := <-s.chunks:
			if !ok {
				return n
			}
			n += len(chunk)
		default:
			return n
		}
	}
}

// Close stops the pump and closes the underlying stream
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.rw.Close()
	})
	return err
}
