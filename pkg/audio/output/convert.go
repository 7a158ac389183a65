// ABOUTME: Device-format conversion helpers
// ABOUTME: Nearest-neighbor rate and channel mapping shared by backends
package output

import "github.com/mixdeck-audio/mixdeck-go/pkg/audio"

// convertToDevice maps interleaved source frames onto the device's fixed
// rate and channel count. Nearest-neighbor resampling; mono is duplicated
// to both channels, extra channels beyond two are dropped.
func convertToDevice(frames []int16, f audio.Format, devRate, devChannels int) []int16 {
	srcFrames := len(frames) / f.Channels
	if srcFrames == 0 {
		return nil
	}

	outFrames := int(int64(srcFrames) * int64(devRate) / int64(f.SampleRate))
	if outFrames == 0 {
		outFrames = 1
	}

	out := make([]int16, outFrames*devChannels)
	for j := 0; j < outFrames; j++ {
		src := int(int64(j) * int64(f.SampleRate) / int64(devRate))
		if src >= srcFrames {
			src = srcFrames - 1
		}
		l := frames[src*f.Channels]
		r := l
		if f.Channels > 1 {
			r = frames[src*f.Channels+1]
		}
		if devChannels == 1 {
			out[j] = int16((int32(l) + int32(r)) / 2)
			continue
		}
		out[j*devChannels] = l
		out[j*devChannels+1] = r
	}
	return out
}
