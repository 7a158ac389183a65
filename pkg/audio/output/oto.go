// ABOUTME: Oto-based output backend
// ABOUTME: Feeds per-voice sample queues into oto players with software gain and pan
package output

import (
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/mixdeck-audio/mixdeck-go/pkg/audio"
)

// Device mixing format. Every voice is converted to this on submit;
// oto allows a single context per process.
const (
	otoSampleRate = 48000
	otoChannels   = 2
)

// Oto is a Device over the oto library.
type Oto struct {
	ctx *oto.Context

	mu           sync.Mutex
	listenerGain float64
	lastErr      error
	closed       bool
}

// NewOto opens the default audio device through oto and waits until the
// hardware context is ready.
func NewOto() (*Oto, error) {
	op := &oto.NewContextOptions{
		SampleRate:   otoSampleRate,
		ChannelCount: otoChannels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("output: opening oto context: %w", err)
	}
	<-ready

	log.Printf("output: oto device ready (%dHz, %dch)", otoSampleRate, otoChannels)

	return &Oto{ctx: ctx, listenerGain: 1.0}, nil
}

// NewVoice allocates a voice backed by an oto player.
func (d *Oto) NewVoice() (Voice, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}

	v := &otoVoice{dev: d, gain: 1.0, q: newFrameQueue()}
	v.player = d.ctx.NewPlayer(v)
	return v, nil
}

// SetListenerGain scales all voices.
func (d *Oto) SetListenerGain(gain float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.listenerGain = gain
	return nil
}

// Err returns and clears the last asynchronous error.
func (d *Oto) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.lastErr
	d.lastErr = nil
	return err
}

// Close suspends the oto context. oto contexts cannot be destroyed, so a
// closed device only refuses further use.
func (d *Oto) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.ctx.Suspend()
}

func (d *Oto) setErr(err error) {
	d.mu.Lock()
	if d.lastErr == nil {
		d.lastErr = err
	}
	d.mu.Unlock()
}

func (d *Oto) gainSnapshot() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listenerGain
}

// otoVoice is one playback channel. It doubles as the io.Reader the oto
// player drains; gain and pan are applied at read time so that parameter
// changes affect already queued audio, like a hardware gain stage.
type otoVoice struct {
	dev    *Oto
	player *oto.Player
	q      *frameQueue

	mu         sync.Mutex
	format     audio.Format
	haveFormat bool
	gain       float64
	relative   bool
	posX       float64
	closed     bool
}

func (v *otoVoice) SetFormat(f audio.Format) error {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return fmt.Errorf("output: invalid voice format %+v", f)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.format = f
	v.haveFormat = true
	return nil
}

// Submit converts frames to the device format and queues them.
func (v *otoVoice) Submit(frames []int16) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	if !v.haveFormat {
		v.mu.Unlock()
		return fmt.Errorf("output: submit before SetFormat")
	}
	f := v.format
	v.mu.Unlock()

	srcFrames := len(frames) / f.Channels
	if srcFrames == 0 {
		return nil
	}

	out := convertToDevice(frames, f, otoSampleRate, otoChannels)
	v.q.push(out, srcFrames)
	return nil
}

func (v *otoVoice) Pending() int {
	return v.q.srcFrames()
}

func (v *otoVoice) Play() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	v.player.Play()
	return nil
}

func (v *otoVoice) Pause() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	v.player.Pause()
	return nil
}

func (v *otoVoice) Stop() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	v.player.Pause()
	v.q.flush()
	return nil
}

func (v *otoVoice) SetGain(gain float64) error {
	if gain < 0 {
		return fmt.Errorf("output: negative gain %f", gain)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gain = gain
	return nil
}

func (v *otoVoice) SetRelative(relative bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.relative = relative
	return nil
}

func (v *otoVoice) SetPosition(x, y, z float64) error {
	if x < -1 || x > 1 {
		return fmt.Errorf("output: pan position x=%f outside unit semicircle", x)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.posX = x
	return nil
}

func (v *otoVoice) Close() error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	v.closed = true
	v.mu.Unlock()

	if err := v.player.Close(); err != nil {
		v.dev.setErr(err)
		return err
	}
	return nil
}

// Read implements io.Reader for the oto player. Queue underruns are filled
// with silence so the player never starves.
func (v *otoVoice) Read(p []byte) (int, error) {
	samples := len(p) / 2
	buf := make([]int16, samples)
	v.q.pull(buf)

	listener := v.dev.gainSnapshot()
	v.mu.Lock()
	gain := v.gain * listener
	lg, rg := panGains(v.relative, v.posX)
	v.mu.Unlock()

	for i := 0; i < samples; i += otoChannels {
		buf[i] = audio.ScaleSample(buf[i], gain*lg)
		if i+1 < samples {
			buf[i+1] = audio.ScaleSample(buf[i+1], gain*rg)
		}
	}

	for i, s := range buf {
		p[2*i] = byte(s)
		p[2*i+1] = byte(uint16(s) >> 8)
	}
	return samples * 2, nil
}

// panGains maps a positional x coordinate to constant-power stereo gains.
func panGains(relative bool, x float64) (float64, float64) {
	if !relative || x == 0 {
		return 1.0, 1.0
	}
	angle := (x + 1) * math.Pi / 4
	return math.Cos(angle), math.Sin(angle)
}

// frameQueue buffers device-format samples and tracks how many source
// frames they correspond to, for position reporting.
type frameQueue struct {
	mu      sync.Mutex
	samples []int16
	src     int
	devHeld int // device frames currently held
}

func newFrameQueue() *frameQueue {
	return &frameQueue{}
}

func (q *frameQueue) push(devSamples []int16, srcFrames int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.samples = append(q.samples, devSamples...)
	q.src += srcFrames
	q.devHeld += len(devSamples) / otoChannels
}

// pull fills dst, zero-filling on underrun, and scales the source frame
// counter down proportionally to what was consumed.
func (q *frameQueue) pull(dst []int16) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := copy(dst, q.samples)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
	q.samples = q.samples[n:]

	consumedDev := n / otoChannels
	if q.devHeld > 0 {
		consumedSrc := q.src * consumedDev / q.devHeld
		q.src -= consumedSrc
		q.devHeld -= consumedDev
		if q.devHeld == 0 {
			q.src = 0
		}
	}
}

func (q *frameQueue) srcFrames() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.src
}

func (q *frameQueue) flush() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.samples = nil
	q.src = 0
	q.devHeld = 0
}
