// Package capture acquires audio sample buffers from an input device and
// hands them to the metering engine. Two backends are provided: a
// PortAudio input stream, and an external capture process (arecord on
// Linux, FFmpeg elsewhere) writing raw S16LE PCM to stdout.
package capture

import (
	"context"
	"fmt"
)

// Backend names accepted in configuration.
const (
	BackendPortAudio = "portaudio"
	BackendPipe      = "pipe"
)

// Source delivers buffers of normalized float64 samples to the engine.
// Buffers sent on the channel are owned by the receiver. The buffer
// channel is closed when capture ends permanently.
type Source interface {
	// Start begins capture. Buffers arrive until Stop is called, the
	// context is canceled, or the source fails permanently.
	Start(ctx context.Context) error
	// Stop ends capture and waits for the capture goroutine to finish.
	Stop() error
	Buffers() <-chan []float64
	Errors() <-chan error
}

// Config holds capture parameters shared by all backends.
type Config struct {
	Device          string // device identifier; empty selects the default
	SampleRate      int
	FramesPerBuffer int
	FFmpegPath      string // used by the pipe backend on FFmpeg platforms
}

// New returns the Source for the named backend.
func New(backend string, cfg Config) (Source, error) {
	switch backend {
	case BackendPortAudio:
		return NewPortAudioSource(cfg), nil
	case BackendPipe:
		return NewPipeSource(cfg), nil
	default:
		return nil, fmt.Errorf("unknown capture backend %q", backend)
	}
}

// Device represents an available audio input device.
type Device struct {
	// ID is the device identifier understood by the backend.
	ID string `json:"id"`
	// Name is the device display name.
	Name string `json:"name"`
}
