// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"context"
	"io"
	"time"

	"golang.org/x/time/rate"

	"github.com/Thermoquad/dysv5w/pkg/dysv5w"
)

// Paced spaces outbound frames at least gap apart. Reads pass through.
type Paced struct {
	inner   dysv5w.Transport
	limiter *rate.Limiter
}

// NewPaced limits inner to one frame per gap
func NewPaced(inner dysv5w.Transport, gap time.Duration) *Paced {
	return &Paced{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Every(gap), 1),
	}
}

// Send waits for the next slot, then forwards the frame
func (p *Paced) Send(ctx context.Context, data []byte) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	return p.inner.Send(ctx, data)
}

func (p *Paced) ReceiveByte(ctx context.Context) (byte, error) {
	return p.inner.ReceiveByte(ctx)
}

// Discard drops buffered inbound bytes when the wrapped transport buffers
func (p *Paced) Discard() int {
	return DiscardPending(p.inner)
}

// Close closes the wrapped transport
func (p *Paced) Close() error {
	if c, ok := p.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
