// ABOUTME: Ogg Vorbis format decoder
// ABOUTME: Streams PCM frames out of the oggvorbis reader
package decode

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/mixdeck-audio/mixdeck-go/pkg/audio"
)

func init() {
	Register("ogg", NewVorbis)
}

// NewVorbis builds a Stream over an Ogg Vorbis buffer.
func NewVorbis(data []byte) (Stream, error) {
	r, err := oggvorbis.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("vorbis decode: %w", err)
	}

	return &vorbisStream{
		r:      r,
		format: audio.Format{SampleRate: r.SampleRate(), Channels: r.Channels()},
	}, nil
}

type vorbisStream struct {
	r      *oggvorbis.Reader
	format audio.Format
	buf    []float32
}

func (s *vorbisStream) Format() audio.Format { return s.format }

func (s *vorbisStream) TotalFrames() int64 {
	return s.r.Length()
}

func (s *vorbisStream) ReadFrames(dst []int16) (int, error) {
	if len(dst)%s.format.Channels != 0 {
		return 0, ErrInvalidDstSize
	}

	if len(s.buf) < len(dst) {
		s.buf = make([]float32, len(dst))
	}

	read := 0
	for read < len(dst) {
		n, err := s.r.Read(s.buf[read:len(dst)])
		read += n
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("vorbis decode: %w", err)
		}
		if n == 0 {
			break
		}
	}

	for i := 0; i < read; i++ {
		dst[i] = audio.SampleFromFloat32(s.buf[i])
	}

	frames := read / s.format.Channels
	if frames == 0 {
		return 0, io.EOF
	}
	return frames, nil
}

func (s *vorbisStream) SeekFrame(frame int64) error {
	if frame < 0 {
		return ErrBadSeek
	}
	if total := s.r.Length(); total > 0 && frame > total {
		frame = total
	}
	if err := s.r.SetPosition(frame); err != nil {
		return fmt.Errorf("vorbis seek: %w", err)
	}
	return nil
}
