// ABOUTME: Concrete streaming decoder
// ABOUTME: Pairs a decode.Stream with an output.Voice and feeds it on poll
package core

import (
	"fmt"
	"io"

	"github.com/mixdeck-audio/mixdeck-go/pkg/audio"
	"github.com/mixdeck-audio/mixdeck-go/pkg/audio/decode"
	"github.com/mixdeck-audio/mixdeck-go/pkg/audio/output"
)

const (
	// Keep roughly this much audio queued ahead on the voice.
	aheadMs = 200.0

	// Frames pulled from the stream per read.
	chunkFrames = 2048
)

// StreamDecoder is the engine's built-in Decoder. It pulls PCM from a
// decode.Stream and queues it on an output.Voice, tracking the playback
// state machine and position. Not safe for concurrent use; the engine
// serializes access under its lock.
type StreamDecoder struct {
	voice  output.Voice
	data   []byte
	hint   string
	repeat bool

	stream decode.Stream
	format audio.Format
	state  audio.PlaybackState
	speed  float64

	cursor int64 // stream read position, in source frames
	eof    bool
}

// NewStreamDecoder builds a decoder over an in-memory sound. Init must be
// called before use.
func NewStreamDecoder(voice output.Voice, data []byte, formatHint string, repeat bool) *StreamDecoder {
	return &StreamDecoder{
		voice:  voice,
		data:   data,
		hint:   formatHint,
		repeat: repeat,
		state:  audio.StateStopped,
		speed:  1.0,
	}
}

// Init opens the stream and declares its format to the voice.
func (d *StreamDecoder) Init() error {
	stream, err := decode.New(d.data, d.hint)
	if err != nil {
		return err
	}
	if err := d.voice.SetFormat(stream.Format()); err != nil {
		return fmt.Errorf("configuring voice: %w", err)
	}

	d.stream = stream
	d.format = stream.Format()
	d.data = nil // decoded state owns the backing stream now
	return nil
}

// Play starts or resumes playback. A finished sound restarts from the top.
func (d *StreamDecoder) Play() {
	switch d.state {
	case audio.StateError:
		return
	case audio.StateFinished:
		if err := d.rewind(); err != nil {
			d.fail()
			return
		}
	}
	d.state = audio.StatePlaying
	d.voice.Play()
}

// Pause suspends playback without losing the cursor.
func (d *StreamDecoder) Pause() {
	if d.state != audio.StatePlaying {
		return
	}
	d.state = audio.StatePaused
	d.voice.Pause()
}

// Stop halts playback and discards queued audio.
func (d *StreamDecoder) Stop() {
	d.state = audio.StateStopped
	d.voice.Stop()
}

// Seek repositions the stream. Queued audio is stale after a seek, so the
// voice is flushed; the play/pause state is preserved.
func (d *StreamDecoder) Seek(posMs float64) error {
	if d.stream == nil {
		return fmt.Errorf("seek before init")
	}

	frame := d.format.MsToFrames(posMs)
	if err := d.stream.SeekFrame(frame); err != nil {
		return err
	}

	d.cursor = frame
	d.eof = false
	d.voice.Stop()
	if d.state == audio.StatePlaying {
		d.voice.Play()
	}
	return nil
}

// Poll tops up the voice's queue and advances the state machine.
func (d *StreamDecoder) Poll() error {
	if d.state != audio.StatePlaying {
		return nil
	}

	ahead := int(d.format.MsToFrames(aheadMs))
	buf := make([]int16, chunkFrames*d.format.Channels)

	// A rewind is only allowed after at least one successful read, so an
	// empty stream cannot pin the loop between SeekFrame(0) and EOF.
	progressed := true
	for !d.eof && d.voice.Pending() < ahead {
		n, err := d.stream.ReadFrames(buf)
		if err == io.EOF {
			if d.repeat && progressed {
				if serr := d.stream.SeekFrame(0); serr != nil {
					d.fail()
					return serr
				}
				d.cursor = 0
				progressed = false
				continue
			}
			d.eof = true
			break
		}
		if err != nil {
			d.fail()
			return err
		}

		out := d.resample(buf[:n*d.format.Channels])
		if serr := d.voice.Submit(out); serr != nil {
			d.fail()
			return serr
		}
		d.cursor += int64(n)
		progressed = true
	}

	// Finished only once the queue has drained; the tail is still audible.
	if d.eof && d.voice.Pending() == 0 {
		d.state = audio.StateFinished
		d.voice.Pause()
	}
	return nil
}

// PositionMs reports the position of the sample currently at the hardware,
// compensating for audio still queued on the voice.
func (d *StreamDecoder) PositionMs() float64 {
	if d.stream == nil {
		return 0
	}
	pending := int64(float64(d.voice.Pending()) * d.speed)
	pos := d.cursor - pending
	if pos < 0 {
		pos = 0
	}
	return d.format.FramesToMs(pos)
}

// DurationMs reports the stream's total duration, 0 when unknown.
func (d *StreamDecoder) DurationMs() float64 {
	if d.stream == nil {
		return 0
	}
	total := d.stream.TotalFrames()
	if total < 0 {
		return 0
	}
	return d.format.FramesToMs(total)
}

// PlayState reports the current playback phase.
func (d *StreamDecoder) PlayState() audio.PlaybackState {
	return d.state
}

// SetSpeed sets the playback rate. Non-positive rates are ignored.
func (d *StreamDecoder) SetSpeed(speed float64) {
	if speed <= 0 {
		return
	}
	d.speed = speed
}

func (d *StreamDecoder) rewind() error {
	if err := d.stream.SeekFrame(0); err != nil {
		return err
	}
	d.cursor = 0
	d.eof = false
	return nil
}

// fail parks the decoder in the error state. The triggering error is
// returned to the poll loop by the caller.
func (d *StreamDecoder) fail() {
	d.state = audio.StateError
	d.voice.Stop()
}

// resample applies the playback rate by linear interpolation. At speed 1.0
// the input passes through untouched.
func (d *StreamDecoder) resample(src []int16) []int16 {
	if d.speed == 1.0 {
		return src
	}

	ch := d.format.Channels
	srcFrames := len(src) / ch
	outFrames := int(float64(srcFrames) / d.speed)
	if outFrames < 1 {
		outFrames = 1
	}

	out := make([]int16, outFrames*ch)
	for j := 0; j < outFrames; j++ {
		pos := float64(j) * d.speed
		i0 := int(pos)
		if i0 >= srcFrames-1 {
			i0 = srcFrames - 1
		}
		i1 := i0 + 1
		if i1 >= srcFrames {
			i1 = srcFrames - 1
		}
		frac := pos - float64(i0)
		for c := 0; c < ch; c++ {
			a := float64(src[i0*ch+c])
			b := float64(src[i1*ch+c])
			out[j*ch+c] = int16(a + (b-a)*frac)
		}
	}
	return out
}
