// ABOUTME: Thread-safe slot control operations
// ABOUTME: Play, pause, stop, seek, configure and status queries
package core

import (
	"log"
	"math"

	"github.com/mixdeck-audio/mixdeck-go/pkg/audio"
)

// Play starts or resumes a slot and returns the resulting state.
func (e *Engine) Play(h Handle) (audio.PlaybackState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.slotLocked(h)
	if err != nil {
		return audio.StateStopped, err
	}
	s.decoder.Play()
	state := s.decoder.PlayState()
	e.nudge()
	return state, nil
}

// Pause suspends a slot and returns the resulting state.
func (e *Engine) Pause(h Handle) (audio.PlaybackState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.slotLocked(h)
	if err != nil {
		return audio.StateStopped, err
	}
	s.decoder.Pause()
	state := s.decoder.PlayState()
	e.nudge()
	return state, nil
}

// Stop halts a slot and removes it from the table, releasing its hardware
// voice. The handle is dead afterwards; stop is destructive, not a state
// change.
func (e *Engine) Stop(h Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.slotLocked(h)
	if err != nil {
		return err
	}

	s.decoder.Stop()
	if cerr := s.voice.Close(); cerr != nil {
		log.Printf("core: engine %s: closing voice for slot %d: %v", e.id, h, cerr)
	}
	delete(e.slots, h)
	e.nudge()
	return nil
}

// Seek repositions a slot's read cursor. Valid in any state; the
// play/pause state is unchanged.
func (e *Engine) Seek(h Handle, posMs float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.slotLocked(h)
	if err != nil {
		return err
	}
	if serr := s.decoder.Seek(posMs); serr != nil {
		return serr
	}
	e.nudge()
	return nil
}

// Configure applies volume, speed and panning to a slot. Volume is scaled
// by GlobalGainScaling before it reaches the voice; speed goes to the
// decoder; panning places the voice on the unit semicircle, or centers it
// in non-positional mode at zero. Rejected hardware parameters are logged
// and ignored: a glitch beats halting the caller's loop.
func (e *Engine) Configure(h Handle, volume, speed, panning float64) error {
	volume = clamp(volume, 0, 1)
	panning = clamp(panning, -1, 1)

	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.slotLocked(h)
	if err != nil {
		return err
	}

	if verr := s.voice.SetGain(volume * GlobalGainScaling); verr != nil {
		log.Printf("core: engine %s: slot %d gain: %v", e.id, h, verr)
	}

	s.decoder.SetSpeed(speed)

	if panning != 0 {
		if verr := s.voice.SetRelative(true); verr != nil {
			log.Printf("core: engine %s: slot %d relative: %v", e.id, h, verr)
		}
		z := -math.Sqrt(1 - panning*panning)
		if verr := s.voice.SetPosition(panning, 0, z); verr != nil {
			log.Printf("core: engine %s: slot %d position: %v", e.id, h, verr)
		}
	} else {
		if verr := s.voice.SetRelative(false); verr != nil {
			log.Printf("core: engine %s: slot %d relative: %v", e.id, h, verr)
		}
		if verr := s.voice.SetPosition(0, 0, 0); verr != nil {
			log.Printf("core: engine %s: slot %d position: %v", e.id, h, verr)
		}
	}

	e.nudge()
	return nil
}

// SetMasterVolume scales the listener. Independent of per-slot gain.
func (e *Engine) SetMasterVolume(volume float64) {
	volume = clamp(volume, 0, 1)
	if err := e.device.SetListenerGain(volume * GlobalGainScaling); err != nil {
		log.Printf("core: engine %s: listener gain: %v", e.id, err)
	}
}

// PositionMs reports a slot's playback position.
func (e *Engine) PositionMs(h Handle) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.slotLocked(h)
	if err != nil {
		return 0, err
	}
	return s.decoder.PositionMs(), nil
}

// DurationMs reports a slot's total duration.
func (e *Engine) DurationMs(h Handle) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.slotLocked(h)
	if err != nil {
		return 0, err
	}
	return s.decoder.DurationMs(), nil
}

// PlayState reports a slot's playback phase.
func (e *Engine) PlayState(h Handle) (audio.PlaybackState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.slotLocked(h)
	if err != nil {
		return audio.StateStopped, err
	}
	return s.decoder.PlayState(), nil
}

// SlotStatus bundles the state and position read in one critical section.
type SlotStatus struct {
	State      audio.PlaybackState
	PositionMs float64
}

// Status reports a slot's state and position atomically.
func (e *Engine) Status(h Handle) (SlotStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.slotLocked(h)
	if err != nil {
		return SlotStatus{}, err
	}
	return SlotStatus{
		State:      s.decoder.PlayState(),
		PositionMs: s.decoder.PositionMs(),
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
