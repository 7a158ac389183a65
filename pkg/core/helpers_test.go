// ABOUTME: Shared test helpers for the core package
// ABOUTME: Builds WAV fixtures and engines wired to the mock device
package core

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/mixdeck-audio/mixdeck-go/pkg/audio/output"
)

// testWAV builds a canonical PCM16 WAV buffer with the given frame count.
func testWAV(t *testing.T, sampleRate, channels, frames int) []byte {
	t.Helper()

	samples := frames * channels
	var pcm bytes.Buffer
	for i := 0; i < samples; i++ {
		binary.Write(&pcm, binary.LittleEndian, int16(i))
	}

	dataLen := pcm.Len()
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*channels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(channels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	buf.Write(pcm.Bytes())
	return buf.Bytes()
}

// newTestEngine starts an engine on a mock device and tears it down with
// the test.
func newTestEngine(t *testing.T, interval time.Duration) (*Engine, *output.Mock) {
	t.Helper()

	dev := output.NewMock()
	e, err := New(Config{Device: dev, PollInterval: interval})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(e.Shutdown)
	return e, dev
}

// waitFor polls cond until it holds or the deadline expires.
func waitFor(t *testing.T, d time.Duration, cond func() bool) bool {
	t.Helper()

	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}
