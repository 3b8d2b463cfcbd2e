package audio

import "time"

// SilenceConfig holds the configurable thresholds for silence detection.
type SilenceConfig struct {
	ThresholdDB float64 // dB level below which audio is considered silent
	DurationMs  int64   // milliseconds of silence before the state is confirmed
	RecoveryMs  int64   // milliseconds of audio before the state is cleared
}

// SilenceEvent represents the result of a silence detection update.
type SilenceEvent struct {
	InSilence  bool  // currently in confirmed silence state
	DurationMs int64 // current silence duration in ms (0 if not silent)

	// State transitions.
	JustEntered     bool  // true on the frame when silence is first confirmed
	JustRecovered   bool  // true on the frame when recovery completes
	TotalDurationMs int64 // total silence duration in ms (set when JustRecovered)
}

// SilenceDetector tracks audio silence state across updates with
// enter/recover hysteresis. It is owned by the single processing path
// and performs no locking.
type SilenceDetector struct {
	silenceStart      time.Time // when the current silence period started
	recoveryStart     time.Time // when audio returned after silence
	inSilence         bool      // currently in confirmed silence state
	silenceDurationMs int64     // duration in ms for recovery reporting
}

// NewSilenceDetector creates a new silence detector.
func NewSilenceDetector() *SilenceDetector {
	return &SilenceDetector{}
}

// Update advances the silence state with the dB level of one buffer and
// returns the current state.
func (d *SilenceDetector) Update(db float64, cfg SilenceConfig, now time.Time) SilenceEvent {
	audioIsSilent := db < cfg.ThresholdDB

	var event SilenceEvent

	if audioIsSilent {
		d.recoveryStart = time.Time{}

		if d.silenceStart.IsZero() {
			d.silenceStart = now
		}

		silenceDurationMs := now.Sub(d.silenceStart).Milliseconds()
		d.silenceDurationMs = silenceDurationMs

		if d.inSilence {
			event.InSilence = true
			event.DurationMs = silenceDurationMs
		} else if silenceDurationMs >= cfg.DurationMs {
			// Crossed the duration threshold - enter silence state.
			d.inSilence = true
			event.InSilence = true
			event.DurationMs = silenceDurationMs
			event.JustEntered = true
		}
	} else {
		// Audio is above threshold - preserve silence start during recovery.
		if !d.inSilence {
			d.silenceStart = time.Time{}
		}

		if d.inSilence {
			if d.recoveryStart.IsZero() {
				d.recoveryStart = now
			}

			recoveryDurationMs := now.Sub(d.recoveryStart).Milliseconds()

			if recoveryDurationMs >= cfg.RecoveryMs {
				event.JustRecovered = true
				event.TotalDurationMs = d.silenceDurationMs

				d.inSilence = false
				d.silenceDurationMs = 0
				d.silenceStart = time.Time{}
				d.recoveryStart = time.Time{}
			} else {
				// Still in the recovery period - remain in silence state.
				event.InSilence = true
				event.DurationMs = d.silenceDurationMs
			}
		}
	}

	return event
}
