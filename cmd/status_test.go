// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/dysv5w/internal/capture"
	"github.com/Thermoquad/dysv5w/internal/transport"
	"github.com/Thermoquad/dysv5w/pkg/dysv5w"
)

func TestStatusReport(t *testing.T) {
	line := newLine(
		frame(dysv5w.OpQueryPlayStatus, 0x01),
		frame(dysv5w.OpQueryPlayDrive, 0x01),
		frame(dysv5w.OpQueryOnlineDrive, 0x02),
		frame(dysv5w.OpQuerySongCount, 0x00, 0x0C),
		timeout,
	)
	d := dysv5w.New(line)

	var out bytes.Buffer
	failed := statusReport(context.Background(), &out, d)
	assert.Equal(t, 1, failed)

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Regexp(t, `^Play status:\s+playing$`, lines[0])
	assert.Regexp(t, `^Play drive:\s+SD$`, lines[1])
	assert.Regexp(t, `^Online drive:\s+Flash$`, lines[2])
	assert.Regexp(t, `^Song count:\s+12$`, lines[3])
	assert.Regexp(t, `^Current song:\s+unavailable$`, lines[4])

	assert.Equal(t, []byte{
		dysv5w.OpQueryPlayStatus,
		dysv5w.OpQueryPlayDrive,
		dysv5w.OpQueryOnlineDrive,
		dysv5w.OpQuerySongCount,
		dysv5w.OpQueryCurrentSong,
	}, line.opcodes())
}

func TestPingLoop(t *testing.T) {
	line := newLine(
		frame(dysv5w.OpQueryPlayStatus, 0x02),
		timeout,
		frame(dysv5w.OpQueryPlayStatus, 0x00),
	)
	d := dysv5w.New(line)

	var out bytes.Buffer
	result := pingLoop(context.Background(), &out, d, line, 3, 0)

	assert.Equal(t, 3, result.sent)
	assert.Equal(t, 2, result.received)
	assert.Equal(t, 1, result.exitCode())
	assert.InDelta(t, 33.3, result.lossPercent(), 0.1)
	assert.LessOrEqual(t, result.min, result.max)

	s := out.String()
	assert.Contains(t, s, "seq=1 state=paused")
	assert.Contains(t, s, "seq=2 no reply:")
	assert.Contains(t, s, "seq=3 state=stopped")
	assert.Len(t, line.sent, 3)
}

func TestPingLoop_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	line := newLine()
	result := pingLoop(ctx, &bytes.Buffer{}, dysv5w.New(line), line, 0, time.Millisecond)
	assert.Equal(t, 0, result.sent)
	assert.Equal(t, 0, result.exitCode())
	assert.Empty(t, line.sent)
}

func TestPingResult_Summary(t *testing.T) {
	r := pingResult{sent: 2}
	r.add(2 * time.Millisecond)
	r.add(4 * time.Millisecond)

	assert.Equal(t, 2*time.Millisecond, r.min)
	assert.Equal(t, 4*time.Millisecond, r.max)
	assert.Equal(t, 0, r.exitCode())

	var out bytes.Buffer
	printPingSummary(&out, r)
	assert.Contains(t, out.String(), "2 sent, 2 received, 0.0% loss")
	assert.Contains(t, out.String(), "rtt min/avg/max = 2.0/3.0/4.0 ms")
}

func TestPingLoop_DrainsLateBytesThroughCapture(t *testing.T) {
	host, module := net.Pipe()
	defer module.Close()

	rec := transport.NewRecorder(transport.NewStream(host, 50*time.Millisecond), capture.NewWriter(io.Discard))
	defer rec.Close()

	go func() {
		query := make([]byte, 4)
		if _, err := io.ReadFull(module, query); err != nil {
			return
		}
		// Noise after the first read has given up
		time.Sleep(80 * time.Millisecond)
		module.Write([]byte{0x00, 0x00})

		if _, err := io.ReadFull(module, query); err != nil {
			return
		}
		module.Write(frame(dysv5w.OpQueryPlayStatus, 0x01))
	}()

	var out bytes.Buffer
	result := pingLoop(context.Background(), &out, dysv5w.New(rec), rec, 2, 150*time.Millisecond)

	s := out.String()
	assert.Contains(t, s, "seq=1 no reply:")
	assert.Contains(t, s, "(discarded 2 late bytes)")
	assert.Contains(t, s, "seq=2 state=playing")
	assert.Equal(t, 1, result.received)
}
