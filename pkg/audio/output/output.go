// ABOUTME: Hardware output interface definitions
// ABOUTME: Device and Voice abstractions over audio playback backends
package output

import (
	"errors"

	"github.com/mixdeck-audio/mixdeck-go/pkg/audio"
)

// ErrClosed is returned by operations on a closed device or voice.
var ErrClosed = errors.New("output: device closed")

// Device represents an opened audio device and rendering context.
// A process opens a device once and closes it once.
type Device interface {
	// NewVoice allocates a playback voice. The voice carries no format
	// until SetFormat is called on it.
	NewVoice() (Voice, error)

	// SetListenerGain scales the gain applied to every voice.
	SetListenerGain(gain float64) error

	// Err returns and clears the most recent asynchronous device error,
	// or nil when none occurred since the last call.
	Err() error

	// Close releases the device. Voices must be closed first.
	Close() error
}

// Voice is one hardware playback channel. Decoded PCM is queued with
// Submit and drained by the device in real time.
type Voice interface {
	// SetFormat declares the PCM format of subsequently submitted frames.
	SetFormat(f audio.Format) error

	// Submit queues interleaved int16 frames for playback.
	Submit(frames []int16) error

	// Pending reports how many submitted frames have not been played yet.
	Pending() int

	// Play starts or resumes draining the queue.
	Play() error

	// Pause suspends draining without discarding queued frames.
	Pause() error

	// Stop suspends draining and discards all queued frames.
	Stop() error

	// SetGain sets this voice's gain factor.
	SetGain(gain float64) error

	// SetRelative toggles listener-relative positional mode.
	SetRelative(relative bool) error

	// SetPosition places the voice. Only meaningful in relative mode;
	// the x coordinate drives stereo panning.
	SetPosition(x, y, z float64) error

	// Close releases the voice.
	Close() error
}
