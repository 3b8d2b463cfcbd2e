// Package engine runs the capture-process-render loop of the level
// meter: it pulls sample buffers from the capture source, feeds them
// through the meter, and throttles snapshots to the renderer.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eiannone/keyboard"

	"github.com/oszuidwest/zwfm-levelmeter/internal/audio"
	"github.com/oszuidwest/zwfm-levelmeter/internal/capture"
	"github.com/oszuidwest/zwfm-levelmeter/internal/config"
	"github.com/oszuidwest/zwfm-levelmeter/internal/render"
	"github.com/oszuidwest/zwfm-levelmeter/internal/util"
)

// Engine owns the meter state and coordinates capture, processing and
// rendering for one session.
type Engine struct {
	cfg      *config.Config
	source   capture.Source
	renderer *render.Renderer
	meter    *audio.Meter

	skipped  int // empty buffers dropped (recoverable per-frame errors)
	lastSnap audio.Snapshot
	hasSnap  bool
}

// New creates an engine ready to run. The meter session clock starts
// here, not at Run.
func New(cfg *config.Config, source capture.Source, renderer *render.Renderer) (*Engine, error) {
	meter, err := audio.NewMeter(meterConfig(cfg), time.Now())
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:      cfg,
		source:   source,
		renderer: renderer,
		meter:    meter,
	}, nil
}

// meterConfig maps application configuration onto the metering core.
func meterConfig(cfg *config.Config) audio.MeterConfig {
	return audio.MeterConfig{
		WindowSize:     cfg.Meter.MovingAvgSize,
		UseMovingAvg:   cfg.Meter.UseMovingAverage,
		AlertThreshold: cfg.Meter.AlertThreshold,
		Silence: audio.SilenceConfig{
			ThresholdDB: cfg.Silence.ThresholdDB,
			DurationMs:  cfg.Silence.DurationMs,
			RecoveryMs:  cfg.Silence.RecoveryMs,
		},
		PeakHold: time.Duration(cfg.Display.PeakHoldMs) * time.Millisecond,
	}
}

// Run processes buffers until the context is canceled, a quit key is
// pressed, or capture fails permanently.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.source.Start(ctx); err != nil {
		return util.WrapError("start capture", err)
	}
	defer func() {
		if err := e.source.Stop(); err != nil {
			slog.Warn("error stopping capture", "error", err)
		}
	}()

	// Keyboard control is best-effort: without a TTY (piped input, CI)
	// the engine still runs and stops on context cancellation.
	keys, err := keyboard.GetKeys(8)
	if err != nil {
		slog.Debug("keyboard unavailable, running without key controls", "error", err)
		keys = nil
	} else {
		defer func() {
			_ = keyboard.Close()
		}()
	}

	refresh := time.Duration(e.cfg.Display.RefreshMs) * time.Millisecond
	var lastDraw time.Time

	for {
		select {
		case <-ctx.Done():
			e.finish()
			return nil

		case err := <-e.source.Errors():
			e.finish()
			return util.WrapError("capture", err)

		case ev := <-keys:
			if ev.Err != nil {
				continue
			}
			switch {
			case ev.Rune == 'q' || ev.Key == keyboard.KeyEsc || ev.Key == keyboard.KeyCtrlC:
				e.finish()
				return nil
			case ev.Rune == 'r':
				if err := e.restart(); err != nil {
					e.finish()
					return err
				}
			}

		case buf, ok := <-e.source.Buffers():
			if !ok {
				e.finish()
				return e.drainError()
			}

			snap, err := e.meter.ProcessBuffer(buf, time.Now())
			if errors.Is(err, audio.ErrEmptyBuffer) {
				// A missed frame is recoverable; keep processing.
				e.skipped++
				continue
			}
			if err != nil {
				e.finish()
				return util.WrapError("process buffer", err)
			}
			e.lastSnap = snap
			e.hasSnap = true

			if now := time.Now(); now.Sub(lastDraw) >= refresh {
				e.renderer.Draw(snap)
				lastDraw = now
			}
		}
	}
}

// drainError picks up a capture failure that raced with the buffer
// channel closing. A failing source delivers its permanent error and
// then closes the buffer channel; both channels are ready at once and
// the select may consume the close first, so a closed buffer channel is
// only a clean stop when no error is pending.
func (e *Engine) drainError() error {
	select {
	case err := <-e.source.Errors():
		return util.WrapError("capture", err)
	default:
		return nil
	}
}

// restart discards the meter and starts a fresh session. The meter has
// no reset operation: restarting means constructing a new one.
func (e *Engine) restart() error {
	meter, err := audio.NewMeter(meterConfig(e.cfg), time.Now())
	if err != nil {
		return util.WrapError("restart meter", err)
	}
	e.meter = meter
	e.hasSnap = false
	return nil
}

// finish terminates the meter line and logs a session summary.
func (e *Engine) finish() {
	fmt.Println()
	if !e.hasSnap {
		return
	}
	slog.Info("session finished",
		"min", fmt.Sprintf("%.2f", e.lastSnap.Min),
		"max", fmt.Sprintf("%.2f", e.lastSnap.Max),
		"elapsed", e.lastSnap.Elapsed.Truncate(time.Millisecond),
		"skipped_buffers", e.skipped)
}
