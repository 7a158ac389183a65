// ABOUTME: Engine tests
// ABOUTME: Covers lifecycle, handles, control, configuration and fault isolation
package core

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/mixdeck-audio/mixdeck-go/pkg/audio"
	"github.com/mixdeck-audio/mixdeck-go/pkg/audio/output"
)

func TestHandlesAreMonotonicAndNeverReused(t *testing.T) {
	e, _ := newTestEngine(t, time.Minute)
	wav := testWAV(t, 8000, 1, 100)

	var handles []Handle
	for i := 0; i < 3; i++ {
		h, err := e.CreateSlot(wav, "wav", false)
		if err != nil {
			t.Fatalf("CreateSlot: %v", err)
		}
		handles = append(handles, h)
	}

	if handles[0] != 0 || handles[1] != 1 || handles[2] != 2 {
		t.Errorf("expected handles 0,1,2, got %v", handles)
	}

	// Stopping a slot must not recycle its handle.
	if err := e.Stop(handles[1]); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	h, err := e.CreateSlot(wav, "wav", false)
	if err != nil {
		t.Fatalf("CreateSlot: %v", err)
	}
	if h != 3 {
		t.Errorf("expected handle 3 after a stop, got %d", h)
	}
}

func TestPlayPauseCycle(t *testing.T) {
	e, _ := newTestEngine(t, time.Minute)
	h, err := e.CreateSlot(testWAV(t, 8000, 1, 800), "wav", false)
	if err != nil {
		t.Fatalf("CreateSlot: %v", err)
	}

	st, err := e.Play(h)
	if err != nil || st != audio.StatePlaying {
		t.Fatalf("Play: state %v err %v", st, err)
	}

	st, err = e.Pause(h)
	if err != nil || st != audio.StatePaused {
		t.Fatalf("Pause: state %v err %v", st, err)
	}

	st, err = e.Play(h)
	if err != nil || st != audio.StatePlaying {
		t.Fatalf("resume: state %v err %v", st, err)
	}
}

func TestStopRemovesSlot(t *testing.T) {
	e, dev := newTestEngine(t, time.Minute)
	h, err := e.CreateSlot(testWAV(t, 8000, 1, 100), "wav", false)
	if err != nil {
		t.Fatalf("CreateSlot: %v", err)
	}

	if err := e.Stop(h); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if _, err := e.PlayState(h); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after stop, got %v", err)
	}
	if err := e.Stop(h); !errors.Is(err, ErrNotFound) {
		t.Errorf("double stop should be ErrNotFound, got %v", err)
	}
	if e.SlotCount() != 0 {
		t.Errorf("expected empty table, got %d slots", e.SlotCount())
	}

	// The hardware voice was released with the slot.
	if !dev.Voices()[0].Snapshot().Closed {
		t.Error("stop should close the slot's voice")
	}
}

func TestUnknownHandleOperations(t *testing.T) {
	e, _ := newTestEngine(t, time.Minute)

	if _, err := e.Play(99); !errors.Is(err, ErrNotFound) {
		t.Errorf("Play: expected ErrNotFound, got %v", err)
	}
	if _, err := e.Pause(99); !errors.Is(err, ErrNotFound) {
		t.Errorf("Pause: expected ErrNotFound, got %v", err)
	}
	if err := e.Stop(99); !errors.Is(err, ErrNotFound) {
		t.Errorf("Stop: expected ErrNotFound, got %v", err)
	}
	if err := e.Seek(99, 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("Seek: expected ErrNotFound, got %v", err)
	}
	if err := e.Configure(99, 1, 1, 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("Configure: expected ErrNotFound, got %v", err)
	}
	if _, err := e.PositionMs(99); !errors.Is(err, ErrNotFound) {
		t.Errorf("PositionMs: expected ErrNotFound, got %v", err)
	}
	if _, err := e.DurationMs(99); !errors.Is(err, ErrNotFound) {
		t.Errorf("DurationMs: expected ErrNotFound, got %v", err)
	}
	if _, err := e.Status(99); !errors.Is(err, ErrNotFound) {
		t.Errorf("Status: expected ErrNotFound, got %v", err)
	}
}

func TestCreateSlotRejectsBadData(t *testing.T) {
	e, dev := newTestEngine(t, time.Minute)

	h, err := e.CreateSlot([]byte("garbage"), "wav", false)
	if !errors.Is(err, ErrDecodeInit) {
		t.Fatalf("expected ErrDecodeInit, got %v", err)
	}
	if h != NoHandle {
		t.Errorf("failed create should return NoHandle, got %d", h)
	}

	// No slot was inserted and the allocated voice was released.
	if e.SlotCount() != 0 {
		t.Errorf("expected no slots, got %d", e.SlotCount())
	}
	voices := dev.Voices()
	if len(voices) != 1 || !voices[0].Snapshot().Closed {
		t.Error("the voice allocated for the failed slot should be closed")
	}
}

func TestCreateSlotVoiceAllocationFailure(t *testing.T) {
	e, dev := newTestEngine(t, time.Minute)

	dev.VoiceErr = errors.New("out of voices")
	if _, err := e.CreateSlot(testWAV(t, 8000, 1, 100), "wav", false); err == nil {
		t.Fatal("expected voice allocation error")
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	dev := output.NewMock()
	e, err := New(Config{Device: dev, PollInterval: time.Minute})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := e.CreateSlot(testWAV(t, 8000, 1, 100), "wav", false); err != nil {
		t.Fatalf("CreateSlot: %v", err)
	}

	e.Shutdown()
	e.Shutdown() // second call is a no-op

	if !dev.Closed() {
		t.Error("shutdown should close the device")
	}
	for _, v := range dev.Voices() {
		if !v.Snapshot().Closed {
			t.Error("shutdown should close every voice")
		}
	}

	if _, err := e.CreateSlot(testWAV(t, 8000, 1, 100), "wav", false); !errors.Is(err, ErrShutdown) {
		t.Errorf("create after shutdown should be ErrShutdown, got %v", err)
	}

	// A nil engine from a failed New must not crash either.
	var gone *Engine
	gone.Shutdown()
}

func TestConfigureGainScaling(t *testing.T) {
	e, dev := newTestEngine(t, time.Minute)
	h, _ := e.CreateSlot(testWAV(t, 8000, 1, 100), "wav", false)

	if err := e.Configure(h, 1.0, 1.0, 0); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if g := dev.Voices()[0].Snapshot().Gain; math.Abs(g-GlobalGainScaling) > 1e-9 {
		t.Errorf("expected voice gain %f, got %f", GlobalGainScaling, g)
	}

	if err := e.Configure(h, 0.5, 1.0, 0); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if g := dev.Voices()[0].Snapshot().Gain; math.Abs(g-0.5*GlobalGainScaling) > 1e-9 {
		t.Errorf("expected voice gain %f, got %f", 0.5*GlobalGainScaling, g)
	}

	e.SetMasterVolume(0.5)
	if g := dev.ListenerGain(); math.Abs(g-0.5*GlobalGainScaling) > 1e-9 {
		t.Errorf("expected listener gain %f, got %f", 0.5*GlobalGainScaling, g)
	}
}

func TestConfigurePanLaw(t *testing.T) {
	e, dev := newTestEngine(t, time.Minute)
	h, _ := e.CreateSlot(testWAV(t, 8000, 1, 100), "wav", false)
	voice := dev.Voices()[0]

	// Full right lands on (1, 0, 0) in relative mode.
	if err := e.Configure(h, 1.0, 1.0, 1.0); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	s := voice.Snapshot()
	if !s.Relative {
		t.Error("nonzero pan should switch to relative mode")
	}
	if s.PosX != 1.0 || s.PosY != 0 || math.Abs(s.PosZ) > 1e-9 {
		t.Errorf("expected position (1,0,0), got (%f,%f,%f)", s.PosX, s.PosY, s.PosZ)
	}

	// Halfway sits on the unit semicircle.
	if err := e.Configure(h, 1.0, 1.0, 0.5); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	s = voice.Snapshot()
	wantZ := -math.Sqrt(1 - 0.25)
	if math.Abs(s.PosZ-wantZ) > 1e-9 {
		t.Errorf("expected z %f, got %f", wantZ, s.PosZ)
	}

	// Zero pan restores non-positional center.
	if err := e.Configure(h, 1.0, 1.0, 0); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	s = voice.Snapshot()
	if s.Relative {
		t.Error("zero pan should leave relative mode")
	}
	if s.PosX != 0 || s.PosY != 0 || s.PosZ != 0 {
		t.Errorf("expected origin, got (%f,%f,%f)", s.PosX, s.PosY, s.PosZ)
	}
}

func TestControlLatencyBoundByNudge(t *testing.T) {
	// An hour-long poll interval: only the nudge can make this pass.
	e, dev := newTestEngine(t, time.Hour)

	h, err := e.CreateSlot(testWAV(t, 8000, 1, 8000), "wav", false)
	if err != nil {
		t.Fatalf("CreateSlot: %v", err)
	}
	if _, err := e.Play(h); err != nil {
		t.Fatalf("Play: %v", err)
	}

	fed := waitFor(t, 2*time.Second, func() bool {
		return dev.Voices()[0].Submitted() > 0
	})
	if !fed {
		t.Fatal("play was not reflected by a poll within the deadline; nudge lost")
	}
}

func TestPollFaultIsolation(t *testing.T) {
	e, dev := newTestEngine(t, 5*time.Millisecond)
	wav := testWAV(t, 8000, 1, 8000)

	bad, err := e.CreateSlot(wav, "wav", false)
	if err != nil {
		t.Fatalf("CreateSlot: %v", err)
	}
	good, err := e.CreateSlot(wav, "wav", false)
	if err != nil {
		t.Fatalf("CreateSlot: %v", err)
	}

	dev.Voices()[0].SubmitErr = errors.New("injected decode failure")

	if _, err := e.Play(bad); err != nil {
		t.Fatalf("Play bad: %v", err)
	}
	if _, err := e.Play(good); err != nil {
		t.Fatalf("Play good: %v", err)
	}

	// The healthy slot keeps getting fed despite its neighbor failing.
	fed := waitFor(t, 2*time.Second, func() bool {
		return dev.Voices()[1].Submitted() > 0
	})
	if !fed {
		t.Fatal("healthy slot starved by a failing neighbor")
	}

	st, err := e.PlayState(bad)
	if err != nil {
		t.Fatalf("PlayState: %v", err)
	}
	if st != audio.StateError {
		t.Errorf("failing slot should report error state, got %v", st)
	}
}

func TestDeviceErrorDoesNotHaltPlayback(t *testing.T) {
	e, dev := newTestEngine(t, 5*time.Millisecond)

	// A stale hardware error flag is logged and burned off by the loop;
	// slots keep playing through it.
	dev.InjectErr(errors.New("stale hardware flag"))

	h, err := e.CreateSlot(testWAV(t, 8000, 1, 8000), "wav", false)
	if err != nil {
		t.Fatalf("CreateSlot: %v", err)
	}
	if _, err := e.Play(h); err != nil {
		t.Fatalf("Play: %v", err)
	}

	fed := waitFor(t, 2*time.Second, func() bool {
		return dev.Voices()[0].Submitted() > 0
	})
	if !fed {
		t.Fatal("playback halted by a stale device error")
	}

	st, err := e.PlayState(h)
	if err != nil || st != audio.StatePlaying {
		t.Errorf("expected playing past the stale error, got %v (%v)", st, err)
	}
}

func TestEndToEndWavPlayback(t *testing.T) {
	e, dev := newTestEngine(t, 5*time.Millisecond)

	h, err := e.CreateSlot(testWAV(t, 8000, 1, 800), "wav", false)
	if err != nil {
		t.Fatalf("CreateSlot: %v", err)
	}
	if h != 0 {
		t.Fatalf("first slot should be handle 0, got %d", h)
	}

	if st, err := e.Play(h); err != nil || st != audio.StatePlaying {
		t.Fatalf("Play: state %v err %v", st, err)
	}

	dur, err := e.DurationMs(h)
	if err != nil || dur != 100 {
		t.Fatalf("DurationMs: %f err %v", dur, err)
	}

	// Drain the voice like hardware would until the clip finishes.
	voice := dev.Voices()[0]
	finished := waitFor(t, 2*time.Second, func() bool {
		voice.Consume(200)
		st, err := e.PlayState(h)
		return err == nil && st == audio.StateFinished
	})
	if !finished {
		st, _ := e.PlayState(h)
		t.Fatalf("clip never finished, state %v", st)
	}

	if err := e.Stop(h); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if _, err := e.PlayState(h); !errors.Is(err, ErrNotFound) {
		t.Errorf("after stop, expected ErrNotFound, got %v", err)
	}
}

func TestStatus(t *testing.T) {
	e, _ := newTestEngine(t, time.Minute)
	h, _ := e.CreateSlot(testWAV(t, 8000, 1, 800), "wav", false)

	st, err := e.Status(h)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.State != audio.StateStopped || st.PositionMs != 0 {
		t.Errorf("unexpected initial status %+v", st)
	}

	if err := e.Seek(h, 50); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	st, _ = e.Status(h)
	if st.PositionMs != 50 {
		t.Errorf("expected position 50ms, got %f", st.PositionMs)
	}
}
