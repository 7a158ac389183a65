// ABOUTME: Package documentation for the output layer
// ABOUTME: Describes the device/voice model and available backends

// Package output abstracts the audio hardware as a Device that allocates
// playback Voices. A voice accepts queued PCM, drains it in real time and
// exposes gain and positional pan parameters.
//
// Backends: oto (default, one context per process), malgo (miniaudio,
// callback-mixed) and a mock device for tests.
package output
