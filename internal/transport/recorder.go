// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/Thermoquad/dysv5w/internal/capture"
	"github.com/Thermoquad/dysv5w/pkg/dysv5w"
)

// Recorder tees the traffic of a transport into a capture. Every sent
// frame is one TX record and every received byte one RX record; a
// failed read is an empty RX record so a replay fails at the same point.
type Recorder struct {
	inner dysv5w.Transport
	w     *capture.Writer

	mu  sync.Mutex
	err error
}

// NewRecorder records the traffic of inner into w
func NewRecorder(inner dysv5w.Transport, w *capture.Writer) *Recorder {
	return &Recorder{inner: inner, w: w}
}

// Send forwards the frame and records it once it was written
func (r *Recorder) Send(ctx context.Context, data []byte) error {
	if err := r.inner.Send(ctx, data); err != nil {
		return err
	}
	r.record(capture.TX, data)
	return nil
}

// ReceiveByte forwards the read and records its outcome
func (r *Recorder) ReceiveByte(ctx context.Context) (byte, error) {
	b, err := r.inner.ReceiveByte(ctx)
	if err != nil {
		r.record(capture.RX, nil)
		return 0, err
	}
	r.record(capture.RX, []byte{b})
	return b, nil
}

func (r *Recorder) record(dir capture.Direction, data []byte) {
	if err := r.w.Write(dir, data); err != nil {
		r.mu.Lock()
		if r.err == nil {
			r.err = err
		}
		r.mu.Unlock()
	}
}

// Discard drops bytes buffered by the wrapped transport. Dropped bytes
// were never delivered, so they are not recorded and a replay of the
// capture stays aligned with what the caller read.
func (r *Recorder) Discard() int {
	return DiscardPending(r.inner)
}

// Err returns the first capture write failure, if any
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Close closes the capture and then the wrapped transport
func (r *Recorder) Close() error {
	err := r.w.Close()
	if c, ok := r.inner.(io.Closer); ok {
		err = errors.Join(err, c.Close())
	}
	return err
}
