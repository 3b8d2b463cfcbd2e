// Package audio provides the signal-processing core of the level meter:
// RMS and dB computation, percentage normalization, moving-average
// smoothing, and the stateful meter that tracks levels over a session.
package audio

import (
	"errors"
	"math"
)

const (
	// MinRMS is the floor applied before the log conversion so that pure
	// silence maps to a finite -200 dB instead of -Inf.
	MinRMS = 1e-10
	// MinDB is the dB value that maps to 0 percent.
	MinDB = -100.0
	// MaxDB is the dB value that maps to 100 percent.
	MaxDB = 0.0
)

// Sentinel errors for the metering core.
var (
	// ErrEmptyBuffer is returned when a sample buffer contains no samples.
	// A single missed frame is not session-fatal; callers skip the buffer
	// and continue with the next one.
	ErrEmptyBuffer = errors.New("empty sample buffer")

	// ErrInvalidWindow is returned when a moving-average window size is not
	// positive. This is a configuration fault and fatal at session start.
	ErrInvalidWindow = errors.New("moving average window size must be positive")
)

// CalculateRMS computes the root-mean-square of the sample buffer.
// The buffer must be non-empty; the explicit guard keeps a division by
// zero from producing NaN on the audio path.
func CalculateRMS(samples []float64) (float64, error) {
	if len(samples) == 0 {
		return 0, ErrEmptyBuffer
	}
	var sumSquares float64
	for _, s := range samples {
		sumSquares += s * s
	}
	return math.Sqrt(sumSquares / float64(len(samples))), nil
}

// CalculateDB converts an RMS amplitude to decibels relative to full scale.
func CalculateDB(rms float64) float64 {
	return 20 * math.Log10(math.Max(rms, MinRMS))
}

// NormalizePercent linearly remaps dB from [MinDB, MaxDB] to [0, 100].
// The result is not clamped: clipped audio yields values above 100 and
// deep silence yields negative values. Callers that need a bounded value
// for display clamp for themselves.
func NormalizePercent(db float64) float64 {
	return (db - MinDB) / (MaxDB - MinDB) * 100
}
