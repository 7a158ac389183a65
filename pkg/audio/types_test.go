// ABOUTME: Tests for shared audio types
// ABOUTME: Verifies format math and sample conversion helpers
package audio

import "testing"

func TestFramesToMs(t *testing.T) {
	f := Format{SampleRate: 44100, Channels: 2}

	if ms := f.FramesToMs(44100); ms != 1000.0 {
		t.Errorf("expected 1000ms for one second of frames, got %f", ms)
	}

	if ms := f.FramesToMs(0); ms != 0 {
		t.Errorf("expected 0ms for zero frames, got %f", ms)
	}

	zero := Format{}
	if ms := zero.FramesToMs(500); ms != 0 {
		t.Errorf("expected 0ms for zero sample rate, got %f", ms)
	}
}

func TestMsToFrames(t *testing.T) {
	f := Format{SampleRate: 48000, Channels: 2}

	if frames := f.MsToFrames(1000); frames != 48000 {
		t.Errorf("expected 48000 frames, got %d", frames)
	}

	if frames := f.MsToFrames(-50); frames != 0 {
		t.Errorf("negative position should clamp to frame 0, got %d", frames)
	}
}

func TestFrameBytes(t *testing.T) {
	if n := (Format{SampleRate: 44100, Channels: 2}).FrameBytes(); n != 4 {
		t.Errorf("expected 4 bytes per stereo frame, got %d", n)
	}
	if n := (Format{SampleRate: 8000, Channels: 1}).FrameBytes(); n != 2 {
		t.Errorf("expected 2 bytes per mono frame, got %d", n)
	}
}

func TestPlaybackStateString(t *testing.T) {
	cases := []struct {
		state PlaybackState
		want  string
	}{
		{StateStopped, "stopped"},
		{StatePlaying, "playing"},
		{StatePaused, "paused"},
		{StateFinished, "finished"},
		{StateError, "error"},
		{PlaybackState(99), "unknown"},
	}

	for _, c := range cases {
		if got := c.state.String(); got != c.want {
			t.Errorf("state %d: expected %q, got %q", c.state, c.want, got)
		}
	}
}

func TestSampleFromFloat32(t *testing.T) {
	if s := SampleFromFloat32(0); s != 0 {
		t.Errorf("expected 0, got %d", s)
	}
	if s := SampleFromFloat32(1.0); s != 32767 {
		t.Errorf("expected full scale 32767, got %d", s)
	}
	if s := SampleFromFloat32(2.0); s != 32767 {
		t.Errorf("overdriven sample should clamp to 32767, got %d", s)
	}
	if s := SampleFromFloat32(-2.0); s != -32768 {
		t.Errorf("overdriven negative sample should clamp to -32768, got %d", s)
	}
}

func TestScaleSample(t *testing.T) {
	if s := ScaleSample(1000, 0.5); s != 500 {
		t.Errorf("expected 500, got %d", s)
	}
	if s := ScaleSample(32767, 2.0); s != 32767 {
		t.Errorf("expected clamp to 32767, got %d", s)
	}
	if s := ScaleSample(-32768, 2.0); s != -32768 {
		t.Errorf("expected clamp to -32768, got %d", s)
	}
	if s := ScaleSample(1234, 0); s != 0 {
		t.Errorf("zero gain should silence, got %d", s)
	}
}
