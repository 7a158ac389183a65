// ABOUTME: Package documentation for format decoding
// ABOUTME: Describes the Stream interface and the built-in formats

// Package decode turns encoded audio buffers into seekable PCM streams.
//
// A Stream produces interleaved 16-bit frames at the source's native rate
// and supports frame-accurate repositioning. Formats register themselves
// with the package registry; New picks one by format hint or, failing
// that, by the buffer's magic bytes.
//
// Built-in formats: wav, mp3, ogg (Vorbis) and flac.
package decode
