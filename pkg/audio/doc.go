// ABOUTME: Package documentation for audio types
// ABOUTME: Describes the shared format and sample conventions

// Package audio holds the types shared by the decode, output and core
// packages: PCM stream formats, playback states and sample conversion
// helpers.
//
// All decoded audio in this module is interleaved signed 16-bit PCM.
// Positions and durations are expressed in milliseconds at the stream's
// native sample rate.
package audio
