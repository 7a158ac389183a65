// ABOUTME: Sentinel errors for the decode package
// ABOUTME: Returned by the registry and the format decoders
package decode

import "errors"

var (
	// ErrUnknownFormat means neither the hint nor the buffer's magic bytes
	// matched a registered decoder.
	ErrUnknownFormat = errors.New("decode: unknown audio format")

	// ErrInvalidDstSize means a ReadFrames destination length was not a
	// multiple of the stream's channel count.
	ErrInvalidDstSize = errors.New("decode: dst size must be a multiple of channels")

	// ErrBadSeek means a seek target was outside the stream.
	ErrBadSeek = errors.New("decode: seek position out of range")
)
