// ABOUTME: MP3 format decoder
// ABOUTME: Streams PCM frames out of go-mp3's seekable decoder
package decode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"

	"github.com/mixdeck-audio/mixdeck-go/pkg/audio"
)

// go-mp3 always emits 16-bit stereo, 4 bytes per frame.
const mp3FrameBytes = 4

func init() {
	Register("mp3", NewMP3)
}

// NewMP3 builds a Stream over an MPEG audio buffer.
func NewMP3(data []byte) (Stream, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("mp3 decode: %w", err)
	}

	return &mp3Stream{
		dec:    dec,
		format: audio.Format{SampleRate: dec.SampleRate(), Channels: 2},
	}, nil
}

type mp3Stream struct {
	dec    *mp3.Decoder
	format audio.Format
	buf    []byte
}

func (s *mp3Stream) Format() audio.Format { return s.format }

func (s *mp3Stream) TotalFrames() int64 {
	n := s.dec.Length()
	if n < 0 {
		return -1
	}
	return n / mp3FrameBytes
}

func (s *mp3Stream) ReadFrames(dst []int16) (int, error) {
	if len(dst)%s.format.Channels != 0 {
		return 0, ErrInvalidDstSize
	}

	want := len(dst) * 2
	if len(s.buf) < want {
		s.buf = make([]byte, want)
	}

	n, err := io.ReadFull(s.dec, s.buf[:want])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return 0, fmt.Errorf("mp3 decode: %w", err)
	}

	samples := n / 2
	for i := 0; i < samples; i++ {
		dst[i] = int16(binary.LittleEndian.Uint16(s.buf[2*i:]))
	}

	frames := samples / s.format.Channels
	if frames == 0 {
		return 0, io.EOF
	}
	return frames, nil
}

func (s *mp3Stream) SeekFrame(frame int64) error {
	if frame < 0 {
		return ErrBadSeek
	}
	if _, err := s.dec.Seek(frame*mp3FrameBytes, io.SeekStart); err != nil {
		return fmt.Errorf("mp3 seek: %w", err)
	}
	return nil
}
