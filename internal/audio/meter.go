package audio

import (
	"math"
	"time"
)

// Trend is the direction of the level relative to the previous update.
type Trend string

// Trend values. TrendFlat is also reported on the first update, when
// there is no previous level to compare against.
const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// MeterConfig holds the metering parameters. It is treated as read-only
// for the lifetime of the Meter.
type MeterConfig struct {
	WindowSize     int           // moving-average window capacity
	UseMovingAvg   bool          // smooth levels before tracking them
	AlertThreshold float64       // percent above which Alert is raised (strict)
	Silence        SilenceConfig // silence detection thresholds
	PeakHold       time.Duration // how long held peaks persist
}

// Snapshot is an immutable capture of all metering state after one
// buffer. It carries only numeric and enum data; all text and color
// formatting is the renderer's job.
type Snapshot struct {
	RMS     float64 // root-mean-square of the buffer
	DB      float64 // dB relative to full scale
	Current float64 // smoothed (or raw) level, 0-100 scale, unclamped
	Min     float64 // lowest level seen this session
	Max     float64 // highest level seen this session
	Peak    float64 // held peak level for the meter's peak marker

	Trend Trend
	Alert bool // Current is strictly above the alert threshold

	Silence   bool  // confirmed silence state is active
	SilenceMs int64 // how long the current silence has lasted

	Elapsed time.Duration // wall-clock time since meter construction
}

// Meter tracks audio levels across a capture session: current, running
// minimum and maximum, trend against the previous update, threshold
// alerting, silence state and held peak.
//
// A Meter is exclusively owned by the single processing path that feeds
// it; it performs no locking and every update is synchronous, bounded by
// the buffer length and free of blocking operations. There is no reset:
// a fresh session is a fresh Meter.
type Meter struct {
	cfg     MeterConfig
	avg     *MovingAverage
	silence *SilenceDetector
	peak    *PeakHolder

	current float64
	min     float64
	max     float64
	prev    float64 // level of the previous update, valid when hasPrev
	hasPrev bool
	start   time.Time
}

// NewMeter constructs a meter with min/max at their sentinel values and
// the session clock started at now. It fails with ErrInvalidWindow when
// the configured window size is not positive.
func NewMeter(cfg MeterConfig, now time.Time) (*Meter, error) {
	avg, err := NewMovingAverage(cfg.WindowSize)
	if err != nil {
		return nil, err
	}
	return &Meter{
		cfg:     cfg,
		avg:     avg,
		silence: NewSilenceDetector(),
		peak:    NewPeakHolder(cfg.PeakHold),
		min:     math.Inf(1),
		max:     math.Inf(-1),
		start:   now,
	}, nil
}

// ProcessBuffer runs one metering update for a buffer of normalized
// float samples and returns the resulting snapshot. An empty buffer
// returns ErrEmptyBuffer and leaves the meter completely unmodified.
//
// The previous level is stored after the trend comparison, so the trend
// always compares against the prior call's level, never the current one.
func (m *Meter) ProcessBuffer(samples []float64, now time.Time) (Snapshot, error) {
	rms, err := CalculateRMS(samples)
	if err != nil {
		return Snapshot{}, err
	}
	db := CalculateDB(rms)

	level := NormalizePercent(db)
	if m.cfg.UseMovingAvg {
		level = m.avg.Add(level)
	}

	m.current = level
	if level < m.min {
		m.min = level
	}
	if level > m.max {
		m.max = level
	}

	trend := TrendFlat
	if m.hasPrev {
		switch {
		case m.current > m.prev:
			trend = TrendUp
		case m.current < m.prev:
			trend = TrendDown
		}
	}

	snap := Snapshot{
		RMS:     rms,
		DB:      db,
		Current: m.current,
		Min:     m.min,
		Max:     m.max,
		Peak:    m.peak.Update(level, now),
		Trend:   trend,
		Alert:   m.current > m.cfg.AlertThreshold,
		Elapsed: now.Sub(m.start),
	}

	ev := m.silence.Update(db, m.cfg.Silence, now)
	snap.Silence = ev.InSilence
	snap.SilenceMs = ev.DurationMs

	m.prev = m.current
	m.hasPrev = true

	return snap, nil
}

// StartTime returns when the meter was constructed.
func (m *Meter) StartTime() time.Time { return m.start }
