// ABOUTME: Malgo-based output backend
// ABOUTME: Mixes per-voice ring buffers inside the miniaudio data callback
package output

import (
	"fmt"
	"log"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/mixdeck-audio/mixdeck-go/pkg/audio"
)

const (
	malgoSampleRate = 48000
	malgoChannels   = 2

	// Per-voice ring capacity, in device samples (~500ms).
	malgoRingSamples = malgoSampleRate * malgoChannels / 2
)

// Malgo is a Device over the miniaudio library. All live voices are mixed
// in the device's data callback.
type Malgo struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device

	mu           sync.Mutex
	voices       map[*malgoVoice]struct{}
	listenerGain float64
	lastErr      error
	closed       bool
}

// NewMalgo opens the default playback device through miniaudio.
func NewMalgo() (*Malgo, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("output: initializing malgo context: %w", err)
	}

	d := &Malgo{
		ctx:          ctx,
		voices:       make(map[*malgoVoice]struct{}),
		listenerGain: 1.0,
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatS16
	cfg.Playback.Channels = malgoChannels
	cfg.SampleRate = malgoSampleRate
	cfg.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutput, pInput []byte, frameCount uint32) {
			d.mix(pOutput, frameCount)
		},
	}

	device, err := malgo.InitDevice(ctx.Context, cfg, callbacks)
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("output: initializing malgo device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("output: starting malgo device: %w", err)
	}
	d.device = device

	log.Printf("output: malgo device ready (%dHz, %dch)", malgoSampleRate, malgoChannels)
	return d, nil
}

// NewVoice allocates a voice backed by a ring buffer.
func (d *Malgo) NewVoice() (Voice, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}

	v := &malgoVoice{dev: d, gain: 1.0, ring: newSampleRing(malgoRingSamples)}
	d.voices[v] = struct{}{}
	return v, nil
}

// SetListenerGain scales all voices.
func (d *Malgo) SetListenerGain(gain float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.listenerGain = gain
	return nil
}

// Err returns and clears the last asynchronous error.
func (d *Malgo) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.lastErr
	d.lastErr = nil
	return err
}

// Close stops the device and tears down the context.
func (d *Malgo) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	if err := d.device.Stop(); err != nil {
		log.Printf("output: malgo device stop: %v", err)
	}
	d.device.Uninit()
	if err := d.ctx.Uninit(); err != nil {
		log.Printf("output: malgo context uninit: %v", err)
	}
	d.ctx.Free()
	return nil
}

// mix accumulates every playing voice into the callback's output buffer.
func (d *Malgo) mix(pOutput []byte, frameCount uint32) {
	samples := int(frameCount) * malgoChannels
	acc := make([]int32, samples)
	buf := make([]int16, samples)

	d.mu.Lock()
	listener := d.listenerGain
	voices := make([]*malgoVoice, 0, len(d.voices))
	for v := range d.voices {
		voices = append(voices, v)
	}
	d.mu.Unlock()

	for _, v := range voices {
		v.mu.Lock()
		playing := v.playing
		gain := v.gain * listener
		lg, rg := panGains(v.relative, v.posX)
		v.mu.Unlock()
		if !playing {
			continue
		}

		v.ring.read(buf)
		for i := 0; i < samples; i += malgoChannels {
			acc[i] += int32(float64(buf[i]) * gain * lg)
			if i+1 < samples {
				acc[i+1] += int32(float64(buf[i+1]) * gain * rg)
			}
		}
	}

	for i, s := range acc {
		if s > 32767 {
			s = 32767
		} else if s < -32768 {
			s = -32768
		}
		pOutput[2*i] = byte(s)
		pOutput[2*i+1] = byte(uint16(int16(s)) >> 8)
	}
}

func (d *Malgo) dropVoice(v *malgoVoice) {
	d.mu.Lock()
	delete(d.voices, v)
	d.mu.Unlock()
}

// malgoVoice is one mixed playback channel.
type malgoVoice struct {
	dev  *Malgo
	ring *sampleRing

	mu         sync.Mutex
	format     audio.Format
	haveFormat bool
	gain       float64
	relative   bool
	posX       float64
	playing    bool
	closed     bool

	srcPerDev float64 // source frames represented by one device frame
}

func (v *malgoVoice) SetFormat(f audio.Format) error {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return fmt.Errorf("output: invalid voice format %+v", f)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.format = f
	v.haveFormat = true
	v.srcPerDev = float64(f.SampleRate) / malgoSampleRate
	return nil
}

func (v *malgoVoice) Submit(frames []int16) error {
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

	out := convertToDevice(frames, f, malgoSampleRate, malgoChannels)
	v.ring.write(out)
	return nil
}

func (v *malgoVoice) Pending() int {
	v.mu.Lock()
	ratio := v.srcPerDev
	v.mu.Unlock()
	devFrames := v.ring.available() / malgoChannels
	return int(float64(devFrames) * ratio)
}

func (v *malgoVoice) Play() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	v.playing = true
	return nil
}

func (v *malgoVoice) Pause() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	v.playing = false
	return nil
}

func (v *malgoVoice) Stop() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	v.playing = false
	v.ring.flush()
	return nil
}

func (v *malgoVoice) SetGain(gain float64) error {
	if gain < 0 {
		return fmt.Errorf("output: negative gain %f", gain)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gain = gain
	return nil
}

func (v *malgoVoice) SetRelative(relative bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.relative = relative
	return nil
}

func (v *malgoVoice) SetPosition(x, y, z float64) error {
	if x < -1 || x > 1 {
		return fmt.Errorf("output: pan position x=%f outside unit semicircle", x)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.posX = x
	return nil
}

func (v *malgoVoice) Close() error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	v.closed = true
	v.playing = false
	v.mu.Unlock()

	v.dev.dropVoice(v)
	return nil
}

// sampleRing is a fixed-capacity circular buffer of device samples.
// Underruns read silence; overruns drop the oldest samples.
type sampleRing struct {
	mu       sync.Mutex
	buffer   []int16
	readPos  int
	writePos int
	count    int
}

func newSampleRing(capacity int) *sampleRing {
	return &sampleRing{buffer: make([]int16, capacity)}
}

func (r *sampleRing) write(samples []int16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range samples {
		if r.count == len(r.buffer) {
			// Drop the oldest sample.
			r.readPos = (r.readPos + 1) % len(r.buffer)
			r.count--
		}
		r.buffer[r.writePos] = s
		r.writePos = (r.writePos + 1) % len(r.buffer)
		r.count++
	}
}

func (r *sampleRing) read(dst []int16) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	read := 0
	for i := 0; i < len(dst) && r.count > 0; i++ {
		dst[i] = r.buffer[r.readPos]
		r.readPos = (r.readPos + 1) % len(r.buffer)
		r.count--
		read++
	}
	for i := read; i < len(dst); i++ {
		dst[i] = 0
	}
	return read
}

func (r *sampleRing) available() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

func (r *sampleRing) flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readPos = 0
	r.writePos = 0
	r.count = 0
}
