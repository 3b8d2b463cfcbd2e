package capture

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/oszuidwest/zwfm-levelmeter/internal/util"
)

// bufferChanDepth bounds how many unprocessed buffers may queue up
// between the capture goroutine and the engine.
const bufferChanDepth = 8

// PortAudioSource captures mono audio through a PortAudio input stream.
type PortAudioSource struct {
	cfg     Config
	buffers chan []float64
	errors  chan error
	stop    chan struct{}
	wg      sync.WaitGroup
	stream  *portaudio.Stream

	stopOnce sync.Once
}

// NewPortAudioSource creates a PortAudio capture source.
func NewPortAudioSource(cfg Config) *PortAudioSource {
	return &PortAudioSource{
		cfg:     cfg,
		buffers: make(chan []float64, bufferChanDepth),
		errors:  make(chan error, 1),
		stop:    make(chan struct{}),
	}
}

// Start initializes PortAudio, opens the input stream and begins
// delivering buffers.
func (s *PortAudioSource) Start(ctx context.Context) error {
	if err := portaudio.Initialize(); err != nil {
		return util.WrapError("initialize portaudio", err)
	}

	dev, err := findInputDevice(s.cfg.Device)
	if err != nil {
		_ = portaudio.Terminate()
		return err
	}

	in := make([]float32, s.cfg.FramesPerBuffer)

	params := portaudio.LowLatencyParameters(dev, nil)
	params.Input.Channels = 1
	params.SampleRate = float64(s.cfg.SampleRate)
	params.FramesPerBuffer = len(in)

	stream, err := portaudio.OpenStream(params, in)
	if err != nil {
		_ = portaudio.Terminate()
		return util.WrapError("open input stream", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return util.WrapError("start input stream", err)
	}
	s.stream = stream

	s.wg.Add(1)
	go s.readLoop(ctx, in)

	return nil
}

// readLoop reads frames from the stream until stopped. Each delivered
// buffer is a fresh copy: the stream reuses its input slice.
func (s *PortAudioSource) readLoop(ctx context.Context, in []float32) {
	defer s.wg.Done()
	defer close(s.buffers)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		default:
		}

		if err := s.stream.Read(); err != nil {
			select {
			case s.errors <- util.WrapError("read input stream", err):
			default:
			}
			return
		}

		out := make([]float64, len(in))
		for i, v := range in {
			out[i] = float64(v)
		}

		select {
		case s.buffers <- out:
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		}
	}
}

// Stop ends capture and releases the PortAudio stream.
func (s *PortAudioSource) Stop() error {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()

	var err error
	if s.stream != nil {
		err = s.stream.Stop()
		if cerr := s.stream.Close(); err == nil {
			err = cerr
		}
		s.stream = nil
	}
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	return err
}

// Buffers returns the sample buffer channel.
func (s *PortAudioSource) Buffers() <-chan []float64 { return s.buffers }

// Errors returns the capture error channel.
func (s *PortAudioSource) Errors() <-chan error { return s.errors }

// findInputDevice resolves a device by case-insensitive substring match
// against the PortAudio device names, or returns the default input
// device when name is empty.
func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name == "" {
		dev, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, util.WrapError("resolve default input device", err)
		}
		return dev, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, util.WrapError("list portaudio devices", err)
	}
	needle := strings.ToLower(name)
	for _, dev := range devices {
		if dev.MaxInputChannels > 0 && strings.Contains(strings.ToLower(dev.Name), needle) {
			return dev, nil
		}
	}
	return nil, fmt.Errorf("no input device matching %q", name)
}
