// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Thermoquad/dysv5w/pkg/dysv5w"
)

func TestParseVolume(t *testing.T) {
	for _, s := range []string{"0", "15", " 30 "} {
		_, err := parseVolume(s)
		assert.NoError(t, err, s)
	}
	v, err := parseVolume("30")
	require.NoError(t, err)
	assert.Equal(t, uint8(30), v)

	for _, s := range []string{"31", "-1", "256", "loud", ""} {
		_, err := parseVolume(s)
		assert.Error(t, err, s)
	}
}

func TestParseWord(t *testing.T) {
	v, err := parseWord("song", "65535")
	require.NoError(t, err)
	assert.Equal(t, uint16(65535), v)

	_, err = parseWord("song", "65536")
	assert.EqualError(t, err, `invalid song "65536" (use 0-65535)`)

	_, err = parseWord("cycle times", "x")
	assert.Error(t, err)
}

func TestSimpleCommands_SendOneFrame(t *testing.T) {
	want := map[string]byte{
		"play":         dysv5w.OpPlay,
		"pause":        dysv5w.OpPause,
		"stop":         dysv5w.OpStop,
		"previous":     dysv5w.OpPrevious,
		"next":         dysv5w.OpNext,
		"stop_playing": dysv5w.OpStopPlaying,
		"volume_up":    dysv5w.OpVolumeUp,
		"volume_down":  dysv5w.OpVolumeDown,
	}
	require.Len(t, simpleCommands, len(want))

	for _, c := range simpleCommands {
		line := newLine()
		c.send(dysv5w.New(line), context.Background())
		require.Len(t, line.sent, 1, c.use)
		assert.Equal(t, frame(want[c.use]), line.sent[0], c.use)
	}
}

func TestExitError(t *testing.T) {
	err := error(&ExitError{Code: 2})
	assert.EqualError(t, err, "exit status 2")

	var exitErr *ExitError
	require.True(t, errors.As(errors.Join(errors.New("wrapped"), err), &exitErr))
	assert.Equal(t, 2, exitErr.Code)
}

func TestPrintQuery(t *testing.T) {
	line := newLine(frame(dysv5w.OpQuerySongCount, 0x01, 0x00))
	d := dysv5w.New(line)

	var out bytes.Buffer
	assert.True(t, printQuery(context.Background(), &out, d, "song_count", queries["song_count"]))
	assert.Equal(t, "256\n", out.String())

	out.Reset()
	assert.False(t, printQuery(context.Background(), &out, d, "song_count", queries["song_count"]))
	assert.Equal(t, "unavailable\n", out.String())
}

func TestQueryNames_Sorted(t *testing.T) {
	assert.Equal(t, []string{"current_song", "online_drive", "play_drive", "play_status", "song_count"}, queryNames())
	for _, row := range statusRows {
		assert.Contains(t, queries, row.query)
	}
}

func TestFinish_FlushesLogOnExitCode(t *testing.T) {
	var buf bytes.Buffer
	ws := &zapcore.BufferedWriteSyncer{WS: zapcore.AddSync(&buf), FlushInterval: time.Hour}
	defer ws.Stop()

	saved := logger
	defer func() { logger = saved }()
	logger = zap.New(zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), ws, zap.DebugLevel))

	logger.Warn("query failed")
	require.Zero(t, buf.Len(), "log line still buffered")

	assert.Equal(t, 2, finish(&ExitError{Code: 2}))
	assert.Contains(t, buf.String(), "query failed")

	logger.Info("done")
	assert.Equal(t, 0, finish(nil))
	assert.Contains(t, buf.String(), "done")
}
