// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program around an engine slot
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mixdeck-audio/mixdeck-go/pkg/core"
)

// Options describes the slot the TUI presents.
type Options struct {
	FileName string
	Format   string
	Repeat   bool
	Volume   int     // initial percent, 0-100
	Panning  float64 // -1..1
	Speed    float64 // playback rate, 1.0 is normal
}

// NewModel creates a TUI model over an engine slot.
func NewModel(ctrl Controller, h core.Handle, opts Options) Model {
	if opts.Volume <= 0 {
		opts.Volume = 100
	}
	if opts.Speed <= 0 {
		opts.Speed = 1.0
	}

	m := Model{
		engine:   ctrl,
		handle:   h,
		fileName: opts.FileName,
		format:   opts.Format,
		repeat:   opts.Repeat,
		volume:   opts.Volume,
		panning:  opts.Panning,
		speed:    opts.Speed,
	}
	if dur, err := ctrl.DurationMs(h); err == nil {
		m.durationMs = dur
	}
	return m
}

// Run starts the TUI and blocks until the user quits.
func Run(ctrl Controller, h core.Handle, opts Options) error {
	p := tea.NewProgram(NewModel(ctrl, h, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
