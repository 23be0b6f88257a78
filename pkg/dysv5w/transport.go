// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dysv5w

import "context"

// Transport is the byte channel a Device talks through.
//
// ReceiveByte blocks until one byte is available. Any error (end of data,
// timeout, I/O failure, cancellation) means "no byte"; the engine does not
// distinguish between them. Timeout policy belongs to the transport.
type Transport interface {
	Send(ctx context.Context, data []byte) error
	ReceiveByte(ctx context.Context) (byte, error)
}

// Observer is notified of every frame a Device sends and of the outcome
// of every query reply.
type Observer interface {
	// OnSend is called after a frame is handed to the transport.
	OnSend(opcode byte, frame []byte, err error)

	// OnResponse is called when a query finishes, with the raw reply
	// payload on success or the failure.
	OnResponse(opcode byte, payload []byte, err error)
}
