// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/dysv5w/pkg/dysv5w"
)

func newTestControl(line *lineTransport) controlModel {
	stats := dysv5w.NewStatistics()
	d := dysv5w.New(line, dysv5w.WithObserver(stats))
	return initialControlModel(context.Background(), newSession(d, line, "Test", stats), time.Second)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press feeds a key to the model and runs the resulting command once.
// Commands returned while the input line is open only drive the cursor.
func press(t *testing.T, m controlModel, msg tea.KeyMsg) (controlModel, tea.Msg) {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(controlModel)
	if cmd == nil || m.mode != inputNone {
		return m, nil
	}
	return m, cmd()
}

func TestControl_TransportKeys(t *testing.T) {
	line := newLine()
	m := newTestControl(line)

	keys := []struct {
		key    string
		opcode byte
	}{
		{"p", dysv5w.OpPlay},
		{"o", dysv5w.OpPause},
		{"s", dysv5w.OpStop},
		{"x", dysv5w.OpStopPlaying},
		{"n", dysv5w.OpNext},
		{"b", dysv5w.OpPrevious},
		{"+", dysv5w.OpVolumeUp},
		{"-", dysv5w.OpVolumeDown},
	}
	for _, k := range keys {
		var msg tea.Msg
		m, msg = press(t, m, runes(k.key))
		require.IsType(t, sentMsg{}, msg, k.key)
		next, _ := m.Update(msg)
		m = next.(controlModel)
	}

	want := make([]byte, len(keys))
	for i, k := range keys {
		want[i] = k.opcode
	}
	assert.Equal(t, want, line.opcodes())
	assert.Len(t, m.log, len(keys))
	assert.Equal(t, "Sent PLAY", m.log[0].message)
}

func TestControl_CycleEqualizerAndDrive(t *testing.T) {
	line := newLine()
	m := newTestControl(line)

	m, _ = press(t, m, runes("e"))
	m, _ = press(t, m, runes("e"))
	m, _ = press(t, m, runes("d"))
	m, _ = press(t, m, runes("d"))
	m, _ = press(t, m, runes("d"))
	m, _ = press(t, m, runes("d"))

	require.Len(t, line.sent, 6)
	assert.Equal(t, frame(dysv5w.OpSetEqualizer, byte(dysv5w.EqualizerNormal)), line.sent[0])
	assert.Equal(t, frame(dysv5w.OpSetEqualizer, byte(dysv5w.EqualizerPop)), line.sent[1])
	assert.Equal(t, frame(dysv5w.OpSwitchDrive, byte(dysv5w.DriveUSB)), line.sent[2])
	assert.Equal(t, frame(dysv5w.OpSwitchDrive, byte(dysv5w.DriveSD)), line.sent[3])
	assert.Equal(t, frame(dysv5w.OpSwitchDrive, byte(dysv5w.DriveFlash)), line.sent[4])
	assert.Equal(t, frame(dysv5w.OpSwitchDrive, byte(dysv5w.DriveUSB)), line.sent[5])
	assert.Equal(t, 1, m.eqIndex)
	assert.Equal(t, 0, m.driveIndex)
}

func TestControl_VolumeInput(t *testing.T) {
	line := newLine()
	m := newTestControl(line)

	m, _ = press(t, m, runes("v"))
	require.Equal(t, inputVolume, m.mode)

	// Transport keys are text while the input is open
	m, _ = press(t, m, runes("1"))
	m, _ = press(t, m, runes("2"))
	assert.Empty(t, line.sent)

	m, msg := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, sentMsg{what: "SET_VOLUME 12"}, msg)
	assert.Equal(t, inputNone, m.mode)
	assert.Equal(t, 12, m.volume)
	require.Len(t, line.sent, 1)
	assert.Equal(t, frame(dysv5w.OpSetVolume, 12), line.sent[0])

	m, _ = press(t, m, runes("+"))
	assert.Equal(t, 13, m.volume)
}

func TestControl_InvalidInput(t *testing.T) {
	line := newLine()
	m := newTestControl(line)

	m, _ = press(t, m, runes("v"))
	m, _ = press(t, m, runes("9"))
	m, _ = press(t, m, runes("9"))
	m, msg := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, msg)
	assert.Empty(t, line.sent)
	require.Len(t, m.log, 1)
	assert.True(t, m.log[0].isError)
	assert.Equal(t, -1, m.volume)
}

func TestControl_SongInputCancel(t *testing.T) {
	line := newLine()
	m := newTestControl(line)

	m, _ = press(t, m, runes("g"))
	require.Equal(t, inputSong, m.mode)
	m, _ = press(t, m, runes("7"))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, inputNone, m.mode)

	m, _ = press(t, m, runes("g"))
	m, _ = press(t, m, runes("7"))
	_, msg := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, sentMsg{what: "SPECIFY_SONG 7"}, msg)
	require.Len(t, line.sent, 1)
	assert.Equal(t, frame(dysv5w.OpSpecifySong, 0x00, 0x07), line.sent[0])
}

func TestControl_PollStatus(t *testing.T) {
	line := newLine(
		frame(dysv5w.OpQueryPlayStatus, 0x01),
		frame(dysv5w.OpQueryPlayDrive, 0x00),
		frame(dysv5w.OpQueryOnlineDrive, 0x00),
		frame(dysv5w.OpQuerySongCount, 0x00, 0x03),
		frame(dysv5w.OpQueryCurrentSong, 0x00, 0x02),
	)
	m := newTestControl(line)
	require.True(t, m.polling)

	msg := pollStatusCmd(m.ctx, m.sess)()
	st, ok := msg.(statusMsg)
	require.True(t, ok)
	assert.Empty(t, st.failed)

	next, _ := m.Update(st)
	m = next.(controlModel)
	assert.False(t, m.polling)
	assert.False(t, m.offline)
	assert.Equal(t, "playing", m.status.value("play_status"))
	assert.Equal(t, "3", m.status.value("song_count"))
	assert.Equal(t, "2", m.status.value("current_song"))

	// Nothing left to read: every query fails
	next, _ = m.Update(pollStatusCmd(m.ctx, m.sess)())
	m = next.(controlModel)
	assert.True(t, m.offline)
	assert.Equal(t, "unavailable", m.status.value("play_status"))
	require.NotEmpty(t, m.log)
	assert.Equal(t, "Module not responding", m.log[len(m.log)-1].message)

	c := m.sess.stats.Snapshot()
	assert.Equal(t, uint64(10), c.Queries)
	assert.Equal(t, uint64(5), c.Answered)
}

func TestControl_TickSkipsBusyPoll(t *testing.T) {
	m := newTestControl(newLine())

	// The initial poll is still outstanding
	next, cmd := m.Update(controlTickMsg(time.Now()))
	m = next.(controlModel)
	assert.True(t, m.polling)
	assert.NotNil(t, cmd)

	next, _ = m.Update(statusMsg{status: deviceStatus{values: map[string]string{}}})
	m = next.(controlModel)
	assert.False(t, m.polling)

	next, _ = m.Update(controlTickMsg(time.Now()))
	assert.True(t, next.(controlModel).polling)
}

func TestControl_LogBounded(t *testing.T) {
	m := newTestControl(newLine())
	for i := 0; i < maxLogEntries+20; i++ {
		m.addLogEntry("event", false)
	}
	assert.Len(t, m.log, maxLogEntries)
}

func TestControl_ViewAndQuit(t *testing.T) {
	m := newTestControl(newLine())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = next.(controlModel)

	view := m.View()
	assert.Contains(t, view, "DYSV5W CONTROL")
	assert.Contains(t, view, "Polling...")

	next, cmd := m.Update(runes("q"))
	m = next.(controlModel)
	assert.True(t, m.quitting)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, "Shutting down...\n", m.View())
}

func TestControl_PollDropsLateReply(t *testing.T) {
	line := &lagLine{
		onSend: [][]byte{
			nil,
			frame(dysv5w.OpQueryPlayDrive, 0x01),
			frame(dysv5w.OpQueryOnlineDrive, 0x01),
			frame(dysv5w.OpQuerySongCount, 0x00, 0x09),
			frame(dysv5w.OpQueryCurrentSong, 0x00, 0x04),
		},
		late: [][]byte{frame(dysv5w.OpQueryPlayStatus, 0x01)},
	}
	stats := dysv5w.NewStatistics()
	d := dysv5w.New(line, dysv5w.WithObserver(stats))
	m := initialControlModel(context.Background(), newSession(d, line, "Test", stats), time.Second)

	st := pollStatusCmd(m.ctx, m.sess)().(statusMsg)
	assert.Equal(t, []string{"play_status"}, st.failed)
	assert.Equal(t, 5, st.discarded)
	assert.Equal(t, "SD", st.status.value("play_drive"))
	assert.Equal(t, "SD", st.status.value("online_drive"))
	assert.Equal(t, "9", st.status.value("song_count"))
	assert.Equal(t, "4", st.status.value("current_song"))

	next, _ := m.Update(st)
	m = next.(controlModel)
	require.NotEmpty(t, m.log)
	assert.Equal(t, "Discarded 5 late bytes", m.log[len(m.log)-1].message)
}
