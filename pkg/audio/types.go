// ABOUTME: Shared audio type definitions
// ABOUTME: Defines stream formats, playback states and sample helpers
package audio

// Format describes a decoded PCM stream.
type Format struct {
	SampleRate int
	Channels   int
}

// FrameBytes returns the byte size of one interleaved 16-bit frame.
func (f Format) FrameBytes() int {
	return f.Channels * 2
}

// FramesToMs converts a frame count to milliseconds at this format's rate.
func (f Format) FramesToMs(frames int64) float64 {
	if f.SampleRate == 0 {
		return 0
	}
	return float64(frames) * 1000.0 / float64(f.SampleRate)
}

// MsToFrames converts a millisecond position to a frame index.
func (f Format) MsToFrames(ms float64) int64 {
	if ms < 0 {
		ms = 0
	}
	return int64(ms * float64(f.SampleRate) / 1000.0)
}

// PlaybackState is the playback phase reported by a decoder.
type PlaybackState int

const (
	StateStopped PlaybackState = iota
	StatePlaying
	StatePaused
	StateFinished
	StateError
)

// String returns a human-readable state name.
func (s PlaybackState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateFinished:
		return "finished"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// SampleFromFloat32 converts a [-1,1] float sample to int16 with clamping.
func SampleFromFloat32(v float32) int16 {
	s := v * 32767
	if s > 32767 {
		s = 32767
	} else if s < -32768 {
		s = -32768
	}
	return int16(s)
}

// ScaleSample applies a gain multiplier to an int16 sample with clamping.
func ScaleSample(sample int16, gain float64) int16 {
	s := float64(sample) * gain
	if s > 32767 {
		s = 32767
	} else if s < -32768 {
		s = -32768
	}
	return int16(s)
}
