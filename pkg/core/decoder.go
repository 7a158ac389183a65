// ABOUTME: Decoder abstraction consumed by the engine
// ABOUTME: One decoder advances one slot's playback on every poll
package core

import "github.com/mixdeck-audio/mixdeck-go/pkg/audio"

// Decoder turns a sound's bytes into hardware-playable audio and tracks its
// own playback cursor and state. The engine drives it: control operations
// forward to these methods under the engine lock, and the poll loop calls
// Poll to keep the hardware voice fed.
type Decoder interface {
	// Init prepares the decoder. Called once before any other method;
	// a failure means the sound cannot be played at all.
	Init() error

	// Play starts or resumes playback.
	Play()

	// Pause suspends playback, keeping the cursor.
	Pause()

	// Stop halts playback and discards queued audio.
	Stop()

	// Seek repositions the read cursor. Valid in any state; does not
	// change the play/pause state.
	Seek(posMs float64) error

	// Poll advances decoding and feeds the hardware voice. Returns an
	// error for a transient decode failure; the engine logs it and keeps
	// polling other slots.
	Poll() error

	// PositionMs reports the current playback position.
	PositionMs() float64

	// DurationMs reports the total duration, or 0 when unknown.
	DurationMs() float64

	// PlayState reports the current playback phase.
	PlayState() audio.PlaybackState

	// SetSpeed sets the playback rate multiplier (1.0 is normal).
	SetSpeed(speed float64)
}
