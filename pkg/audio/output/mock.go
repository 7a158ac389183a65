// ABOUTME: Mock output backend for tests
// ABOUTME: Records voice parameters and lets tests drain queued frames manually
package output

import (
	"sync"

	"github.com/mixdeck-audio/mixdeck-go/pkg/audio"
)

// Mock is an in-memory Device. Nothing plays; tests drain voices by hand
// with Consume and inspect the recorded parameters.
type Mock struct {
	mu           sync.Mutex
	voices       []*MockVoice
	listenerGain float64
	injected     error
	closed       bool

	// VoiceErr, when set, makes NewVoice fail.
	VoiceErr error
}

// NewMock returns an idle mock device.
func NewMock() *Mock {
	return &Mock{listenerGain: 1.0}
}

// NewVoice allocates a recording voice.
func (d *Mock) NewVoice() (Voice, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	if d.VoiceErr != nil {
		return nil, d.VoiceErr
	}

	v := &MockVoice{dev: d, Gain: 1.0}
	d.voices = append(d.voices, v)
	return v, nil
}

func (d *Mock) SetListenerGain(gain float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.listenerGain = gain
	return nil
}

// Err returns and clears the injected error.
func (d *Mock) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.injected
	d.injected = nil
	return err
}

func (d *Mock) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// InjectErr arms the next Err call.
func (d *Mock) InjectErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.injected = err
}

// ListenerGain reports the last listener gain set.
func (d *Mock) ListenerGain() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listenerGain
}

// Closed reports whether Close was called.
func (d *Mock) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Voices returns every voice ever allocated, open or closed.
func (d *Mock) Voices() []*MockVoice {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*MockVoice, len(d.voices))
	copy(out, d.voices)
	return out
}

// MockVoice records every parameter change and submitted frame.
type MockVoice struct {
	dev *Mock

	mu        sync.Mutex
	format    audio.Format
	hasFormat bool
	queued    int // frames submitted and not consumed
	submitted int64

	Gain      float64
	Relative  bool
	PosX      float64
	PosY      float64
	PosZ      float64
	Playing   bool
	Flushed   int // Stop calls that discarded queued audio
	IsClosed  bool
	SubmitErr error // when set, Submit fails
}

func (v *MockVoice) SetFormat(f audio.Format) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.format = f
	v.hasFormat = true
	return nil
}

func (v *MockVoice) Submit(frames []int16) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.IsClosed {
		return ErrClosed
	}
	if v.SubmitErr != nil {
		return v.SubmitErr
	}
	n := len(frames)
	if v.format.Channels > 0 {
		n /= v.format.Channels
	}
	v.queued += n
	v.submitted += int64(n)
	return nil
}

func (v *MockVoice) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.queued
}

func (v *MockVoice) Play() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.IsClosed {
		return ErrClosed
	}
	v.Playing = true
	return nil
}

func (v *MockVoice) Pause() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.IsClosed {
		return ErrClosed
	}
	v.Playing = false
	return nil
}

func (v *MockVoice) Stop() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.IsClosed {
		return ErrClosed
	}
	v.Playing = false
	v.queued = 0
	v.Flushed++
	return nil
}

func (v *MockVoice) SetGain(gain float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Gain = gain
	return nil
}

func (v *MockVoice) SetRelative(relative bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Relative = relative
	return nil
}

func (v *MockVoice) SetPosition(x, y, z float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.PosX, v.PosY, v.PosZ = x, y, z
	return nil
}

func (v *MockVoice) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.IsClosed = true
	v.Playing = false
	return nil
}

// Consume simulates the hardware draining n frames.
func (v *MockVoice) Consume(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if n > v.queued {
		n = v.queued
	}
	v.queued -= n
}

// Submitted reports the total frames ever submitted.
func (v *MockVoice) Submitted() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.submitted
}

// Format reports the last format set.
func (v *MockVoice) Format() audio.Format {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.format
}

// Snapshot returns the current parameter state under the lock.
func (v *MockVoice) Snapshot() MockVoiceState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return MockVoiceState{
		Gain:     v.Gain,
		Relative: v.Relative,
		PosX:     v.PosX,
		PosY:     v.PosY,
		PosZ:     v.PosZ,
		Playing:  v.Playing,
		Closed:   v.IsClosed,
	}
}

// MockVoiceState is a copy of a voice's observable parameters.
type MockVoiceState struct {
	Gain     float64
	Relative bool
	PosX     float64
	PosY     float64
	PosZ     float64
	Playing  bool
	Closed   bool
}
