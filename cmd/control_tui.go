// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/dysv5w/internal/transport"
	"github.com/Thermoquad/dysv5w/pkg/dysv5w"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

const maxLogEntries = 100

// Drives reachable with the drive key, in cycle order
var selectableDrives = []dysv5w.Drive{dysv5w.DriveUSB, dysv5w.DriveSD, dysv5w.DriveFlash}

// Input modes
type inputMode int

const (
	inputNone inputMode = iota
	inputSong
	inputVolume
)

//////////////////////////////////////////////////////////////
// Key Bindings
//////////////////////////////////////////////////////////////

type controlKeyMap struct {
	Play        key.Binding
	Pause       key.Binding
	Stop        key.Binding
	StopPlaying key.Binding
	Next        key.Binding
	Previous    key.Binding
	VolumeUp    key.Binding
	VolumeDown  key.Binding
	SetVolume   key.Binding
	Song        key.Binding
	Equalizer   key.Binding
	Drive       key.Binding
	Refresh     key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func (k controlKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Pause, k.Next, k.VolumeUp, k.VolumeDown, k.Help, k.Quit}
}

func (k controlKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Play, k.Pause, k.Stop, k.StopPlaying},
		{k.Previous, k.Next, k.Song},
		{k.VolumeUp, k.VolumeDown, k.SetVolume},
		{k.Equalizer, k.Drive, k.Refresh},
		{k.Help, k.Quit},
	}
}

var controlKeys = controlKeyMap{
	Play:        key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "play")),
	Pause:       key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "pause")),
	Stop:        key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
	StopPlaying: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop playing")),
	Next:        key.NewBinding(key.WithKeys("n", "right"), key.WithHelp("n/→", "next")),
	Previous:    key.NewBinding(key.WithKeys("b", "left"), key.WithHelp("b/←", "previous")),
	VolumeUp:    key.NewBinding(key.WithKeys("+", "=", "up"), key.WithHelp("+/↑", "volume up")),
	VolumeDown:  key.NewBinding(key.WithKeys("-", "down"), key.WithHelp("-/↓", "volume down")),
	SetVolume:   key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "set volume")),
	Song:        key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "go to song")),
	Equalizer:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "next equalizer")),
	Drive:       key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "next drive")),
	Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

type logEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// deviceStatus is the result of one polling round
type deviceStatus struct {
	values   map[string]string // query name -> rendered result
	answered int
	polledAt time.Time
}

func (s deviceStatus) value(query string) string {
	if v, ok := s.values[query]; ok {
		return v
	}
	return "-"
}

// controlModel is the Bubble Tea model for the control TUI
type controlModel struct {
	ctx          context.Context
	sess         *session
	pollInterval time.Duration

	// Polled state
	status     deviceStatus
	haveStatus bool
	polling    bool
	offline    bool

	// Settings sent from this TUI; the module cannot be asked for them
	volume     int // -1 until set
	eqIndex    int // index into dysv5w.EqualizerModes, -1 until set
	driveIndex int // index into selectableDrives, -1 until set

	// Input
	input textinput.Model
	mode  inputMode

	keys controlKeyMap
	help help.Model

	log []logEntry

	width    int
	height   int
	quitting bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type controlTickMsg time.Time

type statusMsg struct {
	status    deviceStatus
	failed    []string
	discarded int // late bytes dropped during the round
}

type sentMsg struct {
	what string
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialControlModel(ctx context.Context, sess *session, pollInterval time.Duration) controlModel {
	ti := textinput.New()
	ti.CharLimit = 5
	ti.Width = 10

	return controlModel{
		ctx:          ctx,
		sess:         sess,
		pollInterval: pollInterval,
		polling:      true, // Init starts the first poll
		volume:       -1,
		eqIndex:      -1,
		driveIndex:   -1,
		input:        ti,
		keys:         controlKeys,
		help:         help.New(),
		log:          make([]logEntry, 0),
		width:        80,
		height:       24,
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m controlModel) Init() tea.Cmd {
	return tea.Batch(pollStatusCmd(m.ctx, m.sess), controlTickCmd(m.pollInterval))
}

func controlTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return controlTickMsg(t)
	})
}

// pollStatusCmd runs every query in one locked round. A reply that
// arrives after its timeout is dropped before the next query is sent.
func pollStatusCmd(ctx context.Context, sess *session) tea.Cmd {
	return func() tea.Msg {
		st := deviceStatus{values: make(map[string]string, len(statusRows))}
		var failed []string
		discarded := 0
		sess.do(ctx, func(d *dysv5w.Device, ctx context.Context) {
			for _, row := range statusRows {
				discarded += transport.DiscardPending(sess.line)
				result, err := queries[row.query](ctx, d)
				if err != nil {
					result = "unavailable"
					failed = append(failed, row.query)
				} else {
					st.answered++
				}
				st.values[row.query] = result
			}
		})
		st.polledAt = time.Now()
		return statusMsg{status: st, failed: failed, discarded: discarded}
	}
}

// sendCmd runs one command with exclusive use of the device
func (m controlModel) sendCmd(what string, fn func(d *dysv5w.Device, ctx context.Context)) tea.Cmd {
	ctx, sess := m.ctx, m.sess
	return func() tea.Msg {
		sess.do(ctx, fn)
		return sentMsg{what: what}
	}
}

func (m controlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.mode != inputNone {
			return m.handleInputKey(msg)
		}
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case controlTickMsg:
		cmds := []tea.Cmd{controlTickCmd(m.pollInterval)}
		if !m.polling {
			m.polling = true
			cmds = append(cmds, pollStatusCmd(m.ctx, m.sess))
		}
		return m, tea.Batch(cmds...)

	case statusMsg:
		m.processStatus(msg)

	case sentMsg:
		m.addLogEntry("Sent "+msg.what, false)
	}

	if m.mode != inputNone {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m controlModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Play):
		return m, m.sendCmd("PLAY", (*dysv5w.Device).Play)

	case key.Matches(msg, m.keys.Pause):
		return m, m.sendCmd("PAUSE", (*dysv5w.Device).Pause)

	case key.Matches(msg, m.keys.Stop):
		return m, m.sendCmd("STOP", (*dysv5w.Device).Stop)

	case key.Matches(msg, m.keys.StopPlaying):
		return m, m.sendCmd("STOP_PLAYING", (*dysv5w.Device).StopPlaying)

	case key.Matches(msg, m.keys.Next):
		return m, m.sendCmd("NEXT", (*dysv5w.Device).Next)

	case key.Matches(msg, m.keys.Previous):
		return m, m.sendCmd("PREVIOUS", (*dysv5w.Device).Previous)

	case key.Matches(msg, m.keys.VolumeUp):
		if m.volume >= 0 && m.volume < dysv5w.MaxVolume {
			m.volume++
		}
		return m, m.sendCmd("VOLUME_UP", (*dysv5w.Device).VolumeUp)

	case key.Matches(msg, m.keys.VolumeDown):
		if m.volume > 0 {
			m.volume--
		}
		return m, m.sendCmd("VOLUME_DOWN", (*dysv5w.Device).VolumeDown)

	case key.Matches(msg, m.keys.Equalizer):
		m.eqIndex = (m.eqIndex + 1) % len(dysv5w.EqualizerModes)
		mode := dysv5w.EqualizerModes[m.eqIndex]
		return m, m.sendCmd("SET_EQUALIZER "+mode.String(), func(d *dysv5w.Device, ctx context.Context) {
			d.SetEqualizerMode(ctx, mode)
		})

	case key.Matches(msg, m.keys.Drive):
		m.driveIndex = (m.driveIndex + 1) % len(selectableDrives)
		drive := selectableDrives[m.driveIndex]
		return m, m.sendCmd("SWITCH_DRIVE "+drive.String(), func(d *dysv5w.Device, ctx context.Context) {
			d.SwitchDrive(ctx, drive)
		})

	case key.Matches(msg, m.keys.Song):
		return m.startInput(inputSong, "song number")

	case key.Matches(msg, m.keys.SetVolume):
		return m.startInput(inputVolume, fmt.Sprintf("0-%d", dysv5w.MaxVolume))

	case key.Matches(msg, m.keys.Refresh):
		if !m.polling {
			m.polling = true
			return m, pollStatusCmd(m.ctx, m.sess)
		}
	}

	return m, nil
}

func (m controlModel) startInput(mode inputMode, placeholder string) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.input.Placeholder = placeholder
	m.input.SetValue("")
	return m, m.input.Focus()
}

func (m controlModel) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "esc":
		m.mode = inputNone
		m.input.Blur()
		return m, nil

	case "enter":
		mode, value := m.mode, m.input.Value()
		m.mode = inputNone
		m.input.Blur()
		return m.submitInput(mode, value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m controlModel) submitInput(mode inputMode, value string) (tea.Model, tea.Cmd) {
	switch mode {
	case inputSong:
		song, err := parseWord("song", value)
		if err != nil {
			m.addLogEntry(err.Error(), true)
			return m, nil
		}
		return m, m.sendCmd(fmt.Sprintf("SPECIFY_SONG %d", song), func(d *dysv5w.Device, ctx context.Context) {
			d.SpecifySong(ctx, song)
		})

	case inputVolume:
		volume, err := parseVolume(value)
		if err != nil {
			m.addLogEntry(err.Error(), true)
			return m, nil
		}
		m.volume = int(volume)
		return m, m.sendCmd(fmt.Sprintf("SET_VOLUME %d", volume), func(d *dysv5w.Device, ctx context.Context) {
			d.SetVolume(ctx, volume)
		})
	}
	return m, nil
}

func (m *controlModel) processStatus(msg statusMsg) {
	m.polling = false
	m.status = msg.status
	m.haveStatus = true

	offline := msg.status.answered == 0
	if offline != m.offline {
		if offline {
			m.addLogEntry("Module not responding", true)
		} else {
			m.addLogEntry("Module responding", false)
		}
	} else if !offline && len(msg.failed) > 0 {
		m.addLogEntry("No valid reply to "+strings.Join(msg.failed, ", "), true)
	}
	m.offline = offline

	if msg.discarded > 0 {
		m.addLogEntry(fmt.Sprintf("Discarded %d late bytes", msg.discarded), true)
	}
}

func (m *controlModel) addLogEntry(message string, isError bool) {
	m.log = append(m.log, logEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.log) > maxLogEntries {
		m.log = m.log[len(m.log)-maxLogEntries:]
	}
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

func (m controlModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	s.WriteString(titleStyle.Render("DYSV5W CONTROL"))
	s.WriteString(" ")
	connStatus := m.sess.info
	if m.offline {
		connStatus += " " + warningStyle.Render("NOT RESPONDING")
	}
	s.WriteString(headerStyle.Render("| " + connStatus))
	s.WriteString("\n\n")

	// Status and settings side by side
	statusPanel := boxStyle.Width(34).Render(m.renderStatus(labelStyle, valueStyle, errorStyle, headerStyle))
	settingsPanel := boxStyle.Width(30).Render(m.renderSettings(labelStyle, valueStyle, headerStyle))
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, statusPanel, " ", settingsPanel))
	s.WriteString("\n")

	if m.mode != inputNone {
		prompt := "Song: "
		if m.mode == inputVolume {
			prompt = "Volume: "
		}
		s.WriteString(labelStyle.Render(prompt))
		s.WriteString(m.input.View())
		s.WriteString(headerStyle.Render("  (enter to send, esc to cancel)"))
		s.WriteString("\n")
	}

	s.WriteString(m.renderStatisticsBar(labelStyle, valueStyle, errorStyle, boxStyle))
	s.WriteString("\n")
	s.WriteString(m.renderEventLog(labelStyle, warningStyle, errorStyle, headerStyle, boxStyle))
	s.WriteString("\n")
	s.WriteString(m.help.View(m.keys))

	return s.String()
}

func (m controlModel) renderStatus(labelStyle, valueStyle, errorStyle, headerStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(labelStyle.Render("STATUS"))
	s.WriteString("\n")

	if !m.haveStatus {
		s.WriteString(headerStyle.Render("Polling..."))
		return s.String()
	}

	for _, row := range statusRows {
		v := m.status.value(row.query)
		style := valueStyle
		if v == "unavailable" {
			style = errorStyle
		}
		s.WriteString(fmt.Sprintf("%-14s %s\n", row.label+":", style.Render(v)))
	}
	s.WriteString(headerStyle.Render("at " + m.status.polledAt.Format("15:04:05")))
	return s.String()
}

func (m controlModel) renderSettings(labelStyle, valueStyle, headerStyle lipgloss.Style) string {
	unknown := headerStyle.Render("not set")

	volume := unknown
	if m.volume >= 0 {
		volume = valueStyle.Render(fmt.Sprintf("%d / %d", m.volume, dysv5w.MaxVolume))
	}
	eq := unknown
	if m.eqIndex >= 0 {
		eq = valueStyle.Render(dysv5w.EqualizerModes[m.eqIndex].String())
	}
	drive := unknown
	if m.driveIndex >= 0 {
		drive = valueStyle.Render(selectableDrives[m.driveIndex].String())
	}

	var s strings.Builder
	s.WriteString(labelStyle.Render("SETTINGS"))
	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("%-10s %s\n", "Volume:", volume))
	s.WriteString(fmt.Sprintf("%-10s %s\n", "Equalizer:", eq))
	s.WriteString(fmt.Sprintf("%-10s %s", "Drive:", drive))
	return s.String()
}

func (m controlModel) renderStatisticsBar(labelStyle, valueStyle, errorStyle, boxStyle lipgloss.Style) string {
	c := m.sess.stats.Snapshot()

	var answered float64
	if c.Queries > 0 {
		answered = float64(c.Answered) * 100.0 / float64(c.Queries)
	}
	failedStyle := valueStyle
	if c.FailedQueries() > 0 {
		failedStyle = errorStyle
	}

	content := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s",
		labelStyle.Render("Sent:"), valueStyle.Render(fmt.Sprintf("%d", c.FramesSent)),
		labelStyle.Render("Queries:"), valueStyle.Render(fmt.Sprintf("%d", c.Queries)),
		labelStyle.Render("Answered:"), valueStyle.Render(fmt.Sprintf("%.1f%%", answered)),
		labelStyle.Render("Failed:"), failedStyle.Render(fmt.Sprintf("%d", c.FailedQueries())),
	)
	return boxStyle.Width(m.width - 4).Render(content)
}

func (m controlModel) renderEventLog(labelStyle, warningStyle, errorStyle, headerStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(labelStyle.Render("EVENTS"))
	s.WriteString("\n")

	logHeight := m.height - 20
	if logHeight < 3 {
		logHeight = 3
	}
	startIdx := len(m.log) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.log) == 0 {
		s.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.log); i++ {
			entry := m.log[i]
			icon := "i"
			style := warningStyle
			if entry.isError {
				icon = "x"
				style = errorStyle
			}
			s.WriteString(fmt.Sprintf("%s %s %s\n",
				headerStyle.Render(entry.timestamp.Format("15:04:05.000")),
				style.Render(icon),
				entry.message))
		}
	}

	return boxStyle.Width(m.width - 4).Render(s.String())
}
