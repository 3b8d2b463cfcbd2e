package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/oszuidwest/zwfm-levelmeter/internal/audio"
	"github.com/oszuidwest/zwfm-levelmeter/internal/util"
)

// Pipe capture tuning.
const (
	// readBufferSize is ~100ms of S16LE stereo audio at 48kHz.
	readBufferSize = 19200

	// initialRetryDelay is the starting delay between restart attempts.
	initialRetryDelay = 3000 * time.Millisecond
	// maxRetryDelay is the maximum delay between restart attempts.
	maxRetryDelay = 60000 * time.Millisecond
	// maxRetries is the maximum number of consecutive failed restarts.
	maxRetries = 10
	// successThreshold is the run duration after which the retry count resets.
	successThreshold = 30000 * time.Millisecond
	// shutdownTimeout is how long a capture process gets to exit after a
	// graceful signal before it is killed.
	shutdownTimeout = 5000 * time.Millisecond

	// StdinDevice selects reading raw PCM from standard input instead of
	// spawning a capture process.
	StdinDevice = "-"
)

// PipeSource captures audio by running an external capture process and
// decoding the interleaved stereo S16LE PCM it writes to stdout. A
// crashed process is restarted with exponential backoff; the source
// gives up after maxRetries consecutive short-lived runs. With the
// device set to StdinDevice it reads PCM from stdin instead, for use in
// shell pipelines (arecord ... | levelmeter -device -).
type PipeSource struct {
	cfg     Config
	buffers chan []float64
	errors  chan error
	stop    chan struct{}
	wg      sync.WaitGroup
	backoff *util.Backoff

	stopOnce sync.Once
}

// NewPipeSource creates an external-process capture source.
func NewPipeSource(cfg Config) *PipeSource {
	return &PipeSource{
		cfg:     cfg,
		buffers: make(chan []float64, bufferChanDepth),
		errors:  make(chan error, 1),
		stop:    make(chan struct{}),
		backoff: util.NewBackoff(initialRetryDelay, maxRetryDelay),
	}
}

// Start begins the capture loop.
func (s *PipeSource) Start(ctx context.Context) error {
	if s.cfg.Device == StdinDevice {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer close(s.buffers)
			if err := s.pumpFile(ctx, os.Stdin); err != nil {
				s.fail(err)
			}
		}()
		return nil
	}

	// Resolve the capture command up front so configuration errors
	// surface before the restart loop starts.
	if _, _, err := BuildCaptureCommand(s.cfg.Device, s.cfg.FFmpegPath); err != nil {
		return err
	}

	s.wg.Add(1)
	go s.runLoop(ctx)
	return nil
}

// runLoop keeps the capture process alive, restarting it with backoff.
func (s *PipeSource) runLoop(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.buffers)

	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		default:
		}

		startTime := time.Now()
		stderrOutput, err := s.runOnce(ctx)
		runDuration := time.Since(startTime)

		if err == nil {
			// Clean exit means we were stopped.
			return
		}

		errMsg := err.Error()
		if stderrOutput != "" {
			errMsg = stderrOutput
		}
		slog.Error("capture process error", "error", errMsg)

		if runDuration >= successThreshold {
			retryCount = 0
			s.backoff.Reset()
		} else {
			retryCount++
		}

		if retryCount >= maxRetries {
			s.fail(fmt.Errorf("capture failed after %d attempts: %s", maxRetries, errMsg))
			return
		}

		retryDelay := s.backoff.Next()
		slog.Info("capture stopped, waiting before restart",
			"delay", retryDelay, "attempt", retryCount+1, "max_retries", maxRetries)
		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		}
	}
}

// runOnce executes the capture process until it exits or the source is
// stopped. It returns the last meaningful stderr line for diagnostics.
func (s *PipeSource) runOnce(ctx context.Context) (string, error) {
	cmdName, args, err := BuildCaptureCommand(s.cfg.Device, s.cfg.FFmpegPath)
	if err != nil {
		return "", err
	}

	slog.Info("starting audio capture", "command", cmdName, "device", s.cfg.Device)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(runCtx, cmdName, args...)

	// Graceful shutdown: signal first, wait, then kill.
	cmd.Cancel = func() error {
		return util.GracefulSignal(cmd.Process)
	}
	cmd.WaitDelay = shutdownTimeout

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return "", err
	}

	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf

	if err := cmd.Start(); err != nil {
		return "", err
	}

	// Cancel the process when the source is stopped.
	pumpDone := make(chan struct{})
	go func() {
		select {
		case <-s.stop:
			cancel()
		case <-pumpDone:
		}
	}()

	pumpErr := s.pump(runCtx, stdoutPipe)
	close(pumpDone)

	waitErr := cmd.Wait()

	select {
	case <-s.stop:
		return "", nil
	case <-ctx.Done():
		return "", nil
	default:
	}

	if waitErr != nil {
		return util.ExtractLastError(stderrBuf.String()), waitErr
	}
	return util.ExtractLastError(stderrBuf.String()), pumpErr
}

// pumpFile pumps PCM from a file-backed reader. Without this a Read on
// an idle pipe would block Stop until the producer writes or closes, so
// shutdown sets an immediate read deadline to unblock it. Deadlines
// work on pipes and sockets; on non-pollable files they fail and Stop
// falls back to waiting for the next chunk or EOF.
func (s *PipeSource) pumpFile(ctx context.Context, f *os.File) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-done:
			return
		case <-ctx.Done():
		case <-s.stop:
		}
		_ = f.SetReadDeadline(time.Now())
	}()

	err := s.pump(ctx, f)
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return nil
	}
	return err
}

// pump reads raw PCM chunks, decodes them to mono float64 and delivers
// them as buffers. Returns nil on EOF.
func (s *PipeSource) pump(ctx context.Context, r io.Reader) error {
	buf := make([]byte, readBufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			samples := audio.DecodeS16LE(buf, n, make([]float64, 0, n/audio.FrameBytes))
			select {
			case s.buffers <- samples:
			case <-ctx.Done():
				return nil
			case <-s.stop:
				return nil
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// fail reports a permanent capture failure.
func (s *PipeSource) fail(err error) {
	select {
	case s.errors <- err:
	default:
	}
}

// Stop ends capture and waits for the capture goroutine to finish.
func (s *PipeSource) Stop() error {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
	return nil
}

// Buffers returns the sample buffer channel.
func (s *PipeSource) Buffers() <-chan []float64 { return s.buffers }

// Errors returns the capture error channel.
func (s *PipeSource) Errors() <-chan error { return s.errors }
