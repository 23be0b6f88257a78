// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/dysv5w/internal/transport"
)

func TestDumpRaw_Bursts(t *testing.T) {
	long := make([]byte, rawLineWidth+2)
	for i := range long {
		long[i] = byte(i)
	}
	line := newLine([]byte{0xAA, 0x02, 0x00, 0xAC}, timeout, long)

	var out bytes.Buffer
	total, err := dumpRaw(context.Background(), &out, line)
	require.NoError(t, err)
	assert.Equal(t, 4+len(long), total)

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasSuffix(lines[0], "] AA 02 00 AC"), lines[0])
	assert.True(t, strings.HasSuffix(lines[1], "] 00 01 02 03 04 05 06 07 08 09 0A 0B 0C 0D 0E 0F"), lines[1])
	assert.True(t, strings.HasSuffix(lines[2], "] 10 11"), lines[2])
	assert.Equal(t, "Connection closed", lines[3])
}

type failingTransport struct{ err error }

func (f failingTransport) Send(ctx context.Context, data []byte) error { return f.err }

func (f failingTransport) ReceiveByte(ctx context.Context) (byte, error) { return 0, f.err }

func TestDumpRaw_ReadError(t *testing.T) {
	_, err := dumpRaw(context.Background(), io.Discard, failingTransport{err: errors.New("bridge gone")})
	assert.EqualError(t, err, "read error: bridge gone")
}

func TestConnectionClosed(t *testing.T) {
	assert.True(t, connectionClosed(io.EOF))
	assert.True(t, connectionClosed(fmt.Errorf("read: %w", transport.ErrClosed)))
	assert.True(t, connectionClosed(transport.ErrConnectionClosed))
	assert.False(t, connectionClosed(transport.ErrTimeout))
}
