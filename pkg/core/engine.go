// ABOUTME: Playback engine lifecycle and slot table
// ABOUTME: Owns the device, the slot map and the background poll goroutine
package core

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mixdeck-audio/mixdeck-go/pkg/audio/output"
)

// GlobalGainScaling is applied to every gain before it reaches the
// hardware, leaving headroom for the mix.
const GlobalGainScaling = 0.7

// DefaultPollInterval bounds how long a control change can go unnoticed by
// the poll loop when no operation nudges it.
const DefaultPollInterval = 50 * time.Millisecond

// Handle identifies a live slot. Handles are monotonic for the engine's
// lifetime and never reused, so a stale handle can never alias a newer
// slot.
type Handle int

// NoHandle is returned by a failed CreateSlot.
const NoHandle Handle = -1

// Config holds engine construction options.
type Config struct {
	// Device is the opened output device. Nil selects the oto backend.
	Device output.Device

	// PollInterval is the poll loop's wait timeout. Zero selects
	// DefaultPollInterval.
	PollInterval time.Duration

	// MasterVolume is the initial listener volume. Zero selects 1.0.
	MasterVolume float64
}

// slot pairs one hardware voice with one decoder under a unique handle.
// The slot table is the sole owner of both.
type slot struct {
	handle  Handle
	voice   output.Voice
	decoder Decoder
}

// Engine is the audio playback core. One engine per process is the
// intended use; all methods are safe for concurrent callers.
type Engine struct {
	id           string
	device       output.Device
	ownsDevice   bool
	pollInterval time.Duration

	// One mutex to lock them all: the slot table and every decoder and
	// voice are only touched under mu, so control operations and the
	// poll loop are strictly serialized.
	mu      sync.Mutex
	slots   map[Handle]*slot
	nextID  Handle
	running bool

	wake chan struct{} // nudges the poll loop out of its timed wait
	quit chan struct{}
	done chan struct{} // closed when the poll goroutine exits
}

// New acquires the audio device and starts the poll loop. A device
// acquisition failure wraps ErrDeviceInit and is fatal to audio startup.
func New(cfg Config) (*Engine, error) {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MasterVolume == 0 {
		cfg.MasterVolume = 1.0
	}

	device := cfg.Device
	ownsDevice := false
	if device == nil {
		d, err := output.NewOto()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDeviceInit, err)
		}
		device = d
		ownsDevice = true
	}

	e := &Engine{
		id:           uuid.New().String(),
		device:       device,
		ownsDevice:   ownsDevice,
		pollInterval: cfg.PollInterval,
		slots:        make(map[Handle]*slot),
		running:      true,
		wake:         make(chan struct{}, 1),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
	}

	if err := device.SetListenerGain(cfg.MasterVolume * GlobalGainScaling); err != nil {
		log.Printf("core: engine %s: setting listener gain: %v", e.id, err)
	}

	go e.pollLoop()

	log.Printf("core: engine %s: started (poll %v)", e.id, e.pollInterval)
	return e, nil
}

// Shutdown stops the poll loop, waits for it to exit, then releases every
// slot and closes the device. Safe to call more than once and safe on a
// nil engine left behind by a failed New.
func (e *Engine) Shutdown() {
	if e == nil {
		return
	}

	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.quit)
	e.mu.Unlock()

	// Join before any hardware teardown.
	<-e.done

	e.mu.Lock()
	for h, s := range e.slots {
		s.decoder.Stop()
		if err := s.voice.Close(); err != nil {
			log.Printf("core: engine %s: closing voice for slot %d: %v", e.id, h, err)
		}
		delete(e.slots, h)
	}
	e.mu.Unlock()

	if e.device != nil {
		if err := e.device.Close(); err != nil {
			log.Printf("core: engine %s: closing device: %v", e.id, err)
		}
	}

	log.Printf("core: engine %s: shut down", e.id)
}

// CreateSlot allocates a hardware voice, builds a decoder over data and
// inserts the pair into the table under the next monotonic handle. The
// sound is created in the stopped state; call Play to start it.
func (e *Engine) CreateSlot(data []byte, formatHint string, repeat bool) (Handle, error) {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return NoHandle, ErrShutdown
	}
	e.mu.Unlock()

	// Voice allocation and decoder init stay outside the lock; only the
	// table insert contends with the poll loop.
	voice, err := e.device.NewVoice()
	if err != nil {
		return NoHandle, fmt.Errorf("core: allocating voice: %w", err)
	}

	dec := NewStreamDecoder(voice, data, formatHint, repeat)
	if err := dec.Init(); err != nil {
		if cerr := voice.Close(); cerr != nil {
			log.Printf("core: engine %s: releasing voice after init failure: %v", e.id, cerr)
		}
		return NoHandle, fmt.Errorf("%w: %v", ErrDecodeInit, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		dec.Stop()
		_ = voice.Close()
		return NoHandle, ErrShutdown
	}

	h := e.nextID
	e.nextID++
	e.slots[h] = &slot{handle: h, voice: voice, decoder: dec}
	e.nudge()
	return h, nil
}

// slotLocked resolves a handle. Callers hold e.mu.
func (e *Engine) slotLocked(h Handle) (*slot, error) {
	s, ok := e.slots[h]
	if !ok {
		return nil, fmt.Errorf("%w: handle %d", ErrNotFound, h)
	}
	return s, nil
}

// nudge wakes the poll loop so a just-issued command is reflected without
// waiting out the poll interval. Callers hold e.mu.
func (e *Engine) nudge() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// SlotCount reports the number of live slots.
func (e *Engine) SlotCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.slots)
}
