// ABOUTME: WAV format decoder
// ABOUTME: Decodes RIFF/WAVE buffers into an in-memory seekable stream
package decode

import (
	"bytes"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/mixdeck-audio/mixdeck-go/pkg/audio"
)

func init() {
	Register("wav", NewWAV)
}

// NewWAV decodes a whole RIFF/WAVE buffer up front. Sound effect files are
// small, and a fully decoded buffer gives exact durations and free seeking.
func NewWAV(data []byte) (Stream, error) {
	d := wav.NewDecoder(bytes.NewReader(data))

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav decode: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("wav decode: missing format chunk")
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(d.BitDepth)
	}

	samples, err := bufferToPCM16(buf, bitDepth)
	if err != nil {
		return nil, err
	}

	return &memStream{
		format: audio.Format{
			SampleRate: buf.Format.SampleRate,
			Channels:   buf.Format.NumChannels,
		},
		samples: samples,
	}, nil
}

// bufferToPCM16 narrows an interleaved IntBuffer to 16-bit samples.
func bufferToPCM16(buf *goaudio.IntBuffer, bitDepth int) ([]int16, error) {
	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		switch bitDepth {
		case 8:
			// 8-bit WAV is unsigned.
			samples[i] = int16(v-128) << 8
		case 16:
			samples[i] = int16(v)
		case 24:
			samples[i] = int16(v >> 8)
		case 32:
			samples[i] = int16(v >> 16)
		default:
			return nil, fmt.Errorf("wav decode: unsupported bit depth %d", bitDepth)
		}
	}
	return samples, nil
}

// memStream serves frames out of a fully decoded sample buffer.
type memStream struct {
	format  audio.Format
	samples []int16
	pos     int64 // frame cursor
}

func (s *memStream) Format() audio.Format { return s.format }

func (s *memStream) TotalFrames() int64 {
	return int64(len(s.samples)) / int64(s.format.Channels)
}

func (s *memStream) ReadFrames(dst []int16) (int, error) {
	ch := s.format.Channels
	if len(dst)%ch != 0 {
		return 0, ErrInvalidDstSize
	}

	start := s.pos * int64(ch)
	if start >= int64(len(s.samples)) {
		return 0, io.EOF
	}

	n := copy(dst, s.samples[start:])
	frames := n / ch
	s.pos += int64(frames)
	return frames, nil
}

func (s *memStream) SeekFrame(frame int64) error {
	if frame < 0 {
		return ErrBadSeek
	}
	if total := s.TotalFrames(); frame > total {
		frame = total
	}
	s.pos = frame
	return nil
}
