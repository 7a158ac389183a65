// ABOUTME: Stream interface and format registry
// ABOUTME: Maps format hints and sniffed magic bytes to concrete decoders
package decode

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/mixdeck-audio/mixdeck-go/pkg/audio"
)

// Stream is a seekable source of decoded PCM frames.
type Stream interface {
	// Format reports the stream's sample rate and channel count.
	Format() audio.Format

	// ReadFrames fills dst with interleaved int16 samples and returns the
	// number of whole frames written. len(dst) must be a multiple of the
	// channel count. When n == 0 with err == io.EOF the stream is finished.
	ReadFrames(dst []int16) (n int, err error)

	// SeekFrame repositions the read cursor to the given frame index.
	SeekFrame(frame int64) error

	// TotalFrames returns the total frame count, or a negative value when
	// the container does not declare one.
	TotalFrames() int64
}

// DecoderFunc constructs a Stream over an in-memory encoded buffer.
type DecoderFunc func(data []byte) (Stream, error)

// Registry maps format keys (e.g. "wav", "mp3") to decoder constructors.
type Registry struct {
	mtx    sync.Mutex
	codecs map[string]DecoderFunc
}

// NewRegistry returns an empty decoder registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]DecoderFunc)}
}

// Register adds a decoder constructor under a format key.
func (r *Registry) Register(format string, fn DecoderFunc) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.codecs[format] = fn
}

// Get looks up the decoder constructor for a format key.
func (r *Registry) Get(format string) (DecoderFunc, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	fn, ok := r.codecs[format]
	return fn, ok
}

// defaultRegistry holds the built-in formats, registered by each decoder file.
var defaultRegistry = NewRegistry()

// Register adds a decoder constructor to the package registry.
func Register(format string, fn DecoderFunc) {
	defaultRegistry.Register(format, fn)
}

// New builds a Stream over data. The format hint (a file extension or codec
// name, with or without a leading dot) is consulted first; when it is empty
// or unknown the buffer's magic bytes decide.
func New(data []byte, formatHint string) (Stream, error) {
	key := normalizeHint(formatHint)
	if key == "" {
		key = sniffFormat(data)
	}

	fn, ok := defaultRegistry.Get(key)
	if !ok {
		// A wrong hint should not reject a recognizable buffer.
		if sniffed := sniffFormat(data); sniffed != "" && sniffed != key {
			fn, ok = defaultRegistry.Get(sniffed)
		}
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, formatHint)
	}

	return fn(data)
}

// normalizeHint folds hint spellings onto registry keys.
func normalizeHint(hint string) string {
	h := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(hint), "."))
	switch h {
	case "oga", "vorbis", "ogv":
		return "ogg"
	case "wave":
		return "wav"
	}
	return h
}

// sniffFormat identifies a buffer by its magic bytes.
func sniffFormat(data []byte) string {
	switch {
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return "wav"
	case len(data) >= 4 && bytes.Equal(data[:4], []byte("OggS")):
		return "ogg"
	case len(data) >= 4 && bytes.Equal(data[:4], []byte("fLaC")):
		return "flac"
	case len(data) >= 3 && bytes.Equal(data[:3], []byte("ID3")):
		return "mp3"
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		// Bare MPEG frame sync.
		return "mp3"
	}
	return ""
}
