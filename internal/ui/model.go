// ABOUTME: Bubbletea model for the playback TUI
// ABOUTME: Defines application state, key handling and rendering
package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mixdeck-audio/mixdeck-go/pkg/audio"
	"github.com/mixdeck-audio/mixdeck-go/pkg/core"
)

// Controller is the slice of the engine the TUI drives. *core.Engine
// satisfies it; tests substitute a fake.
type Controller interface {
	Play(h core.Handle) (audio.PlaybackState, error)
	Pause(h core.Handle) (audio.PlaybackState, error)
	Stop(h core.Handle) error
	Seek(h core.Handle, posMs float64) error
	Configure(h core.Handle, volume, speed, panning float64) error
	Status(h core.Handle) (core.SlotStatus, error)
	DurationMs(h core.Handle) (float64, error)
}

// Model represents the TUI state for one playing slot.
type Model struct {
	engine Controller
	handle core.Handle

	// Track
	fileName   string
	format     string
	durationMs float64

	// Playback
	state      audio.PlaybackState
	positionMs float64
	volume     int // percent
	panning    float64
	speed      float64
	muted      bool
	repeat     bool

	// Terminal
	width  int
	height int

	err error
}

// tickMsg drives the periodic status refresh.
type tickMsg time.Time

const refreshInterval = 100 * time.Millisecond

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the refresh loop.
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		m.refresh()
		return m, tick()
	}

	return m, nil
}

// refresh pulls the slot status from the engine.
func (m *Model) refresh() {
	st, err := m.engine.Status(m.handle)
	if err != nil {
		// The slot is gone (finished and stopped elsewhere, or shut
		// down); keep the last known state on screen.
		m.err = err
		return
	}
	m.state = st.State
	m.positionMs = st.PositionMs
	m.err = nil
}

// handleKey handles keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ", "p":
		m.togglePlayback()
	case "up":
		m.setVolume(m.volume + 5)
	case "down":
		m.setVolume(m.volume - 5)
	case "m":
		m.muted = !m.muted
		m.pushConfig()
	case "left":
		m.seekBy(-5000)
	case "right":
		m.seekBy(5000)
	case "0":
		m.err = m.engine.Seek(m.handle, 0)
		if m.err == nil {
			m.positionMs = 0
		}
	case "[":
		m.setPanning(m.panning - 0.1)
	case "]":
		m.setPanning(m.panning + 0.1)
	case "-":
		m.setSpeed(m.speed - 0.25)
	case "+", "=":
		m.setSpeed(m.speed + 0.25)
	}

	return m, nil
}

func (m *Model) togglePlayback() {
	var err error
	if m.state == audio.StatePlaying {
		m.state, err = m.engine.Pause(m.handle)
	} else {
		m.state, err = m.engine.Play(m.handle)
	}
	m.err = err
}

func (m *Model) setVolume(v int) {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	m.volume = v
	m.pushConfig()
}

func (m *Model) setPanning(p float64) {
	if p < -1 {
		p = -1
	}
	if p > 1 {
		p = 1
	}
	m.panning = p
	m.pushConfig()
}

func (m *Model) setSpeed(s float64) {
	if s < 0.25 {
		s = 0.25
	}
	if s > 4 {
		s = 4
	}
	m.speed = s
	m.pushConfig()
}

func (m *Model) seekBy(deltaMs float64) {
	pos := m.positionMs + deltaMs
	if pos < 0 {
		pos = 0
	}
	if m.durationMs > 0 && pos > m.durationMs {
		pos = m.durationMs
	}
	m.err = m.engine.Seek(m.handle, pos)
	if m.err == nil {
		m.positionMs = pos
	}
}

// pushConfig sends the current volume, speed and panning to the engine.
func (m *Model) pushConfig() {
	vol := float64(m.volume) / 100.0
	if m.muted {
		vol = 0
	}
	m.err = m.engine.Configure(m.handle, vol, m.speed, m.panning)
}

// View renders the TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderTrack()
	s += m.renderControls()
	if m.err != nil {
		s += fmt.Sprintf("│ ! %-51s │\n", truncate(m.err.Error(), 51))
	}
	s += m.renderHelp()

	return s
}

// renderHeader renders the title and playback state.
func (m Model) renderHeader() string {
	stateIcon := "■"
	switch m.state {
	case audio.StatePlaying:
		stateIcon = "▶"
	case audio.StatePaused:
		stateIcon = "⏸"
	case audio.StateFinished:
		stateIcon = "✓"
	case audio.StateError:
		stateIcon = "✗"
	}

	return fmt.Sprintf(`┌─ Mixdeck ────────────────────────────────────────────┐
│ %s %-51s │
├──────────────────────────────────────────────────────┤
`, stateIcon, truncate(m.fileName, 51))
}

// renderTrack renders format, progress bar and position.
func (m Model) renderTrack() string {
	progress := 0
	if m.durationMs > 0 {
		progress = int(m.positionMs / m.durationMs * 100)
		if progress > 100 {
			progress = 100
		}
	}

	repeatTag := ""
	if m.repeat {
		repeatTag = " (repeat)"
	}

	s := fmt.Sprintf("│ Format: %-44s │\n", m.format+repeatTag)
	s += fmt.Sprintf("│ [%s] %s / %s%-14s │\n",
		renderBar(progress, 100, 20),
		formatMs(m.positionMs), formatMs(m.durationMs), "")
	return s
}

// renderControls renders volume, pan and speed.
func (m Model) renderControls() string {
	muteIcon := ""
	if m.muted {
		muteIcon = " muted"
	}

	return fmt.Sprintf("│ Volume: [%s] %3d%%%-25s │\n"+
		"│ Pan: %+.1f  Speed: %.2fx%-30s │\n",
		renderBar(m.volume, 100, 10), m.volume, muteIcon,
		m.panning, m.speed, "")
}

// renderHelp renders keyboard shortcuts.
func (m Model) renderHelp() string {
	return `├──────────────────────────────────────────────────────┤
│ space:Play/Pause  ←/→:Seek  ↑/↓:Volume  [/]:Pan      │
│ +/-:Speed  m:Mute  0:Rewind  q:Quit                  │
└──────────────────────────────────────────────────────┘
`
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func formatMs(ms float64) string {
	total := int(ms / 1000)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
