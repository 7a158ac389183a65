// ABOUTME: Sentinel errors for the playback core
// ABOUTME: Defines the engine's error taxonomy
package core

import "errors"

var (
	// ErrDeviceInit means the audio device or rendering context could not
	// be acquired. Fatal: no audio feature can function without it.
	ErrDeviceInit = errors.New("core: audio device init failed")

	// ErrDecodeInit means a slot's data could not be decoded at creation.
	// Recoverable: the slot is simply not created.
	ErrDecodeInit = errors.New("core: decoder init failed")

	// ErrNotFound means a handle does not name a live slot.
	ErrNotFound = errors.New("core: slot not found")

	// ErrShutdown means the engine has been shut down.
	ErrShutdown = errors.New("core: engine is shut down")
)
