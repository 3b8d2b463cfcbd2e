package audio

import (
	"testing"
	"time"
)

var silenceTestConfig = SilenceConfig{
	ThresholdDB: -40,
	DurationMs:  2000,
	RecoveryMs:  1000,
}

func TestSilenceDetectorConfirmsAfterDuration(t *testing.T) {
	d := NewSilenceDetector()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ev := d.Update(-50, silenceTestConfig, base)
	if ev.InSilence {
		t.Error("silence confirmed immediately; must wait for duration threshold")
	}

	ev = d.Update(-50, silenceTestConfig, base.Add(1*time.Second))
	if ev.InSilence {
		t.Error("silence confirmed before duration threshold")
	}

	ev = d.Update(-50, silenceTestConfig, base.Add(2*time.Second))
	if !ev.InSilence {
		t.Fatal("silence not confirmed at duration threshold")
	}
	if !ev.JustEntered {
		t.Error("JustEntered not set on the confirming frame")
	}
	if ev.DurationMs != 2000 {
		t.Errorf("DurationMs = %d, want 2000", ev.DurationMs)
	}

	// Subsequent frames stay in silence without re-triggering entry.
	ev = d.Update(-50, silenceTestConfig, base.Add(3*time.Second))
	if !ev.InSilence || ev.JustEntered {
		t.Errorf("continued silence: InSilence=%v JustEntered=%v", ev.InSilence, ev.JustEntered)
	}
}

func TestSilenceDetectorLoudAudioNeverTriggers(t *testing.T) {
	d := NewSilenceDetector()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		ev := d.Update(-10, silenceTestConfig, base.Add(time.Duration(i)*time.Second))
		if ev.InSilence || ev.JustEntered || ev.JustRecovered {
			t.Fatalf("step %d: unexpected silence state %+v", i, ev)
		}
	}
}

func TestSilenceDetectorRecoveryHysteresis(t *testing.T) {
	d := NewSilenceDetector()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Enter confirmed silence.
	d.Update(-50, silenceTestConfig, base)
	ev := d.Update(-50, silenceTestConfig, base.Add(2*time.Second))
	if !ev.JustEntered {
		t.Fatal("setup: silence not confirmed")
	}

	// Audio returns, but only briefly: still reported as silence.
	ev = d.Update(-20, silenceTestConfig, base.Add(2500*time.Millisecond))
	if !ev.InSilence {
		t.Error("dropped out of silence before the recovery period elapsed")
	}
	if ev.JustRecovered {
		t.Error("JustRecovered set during the recovery period")
	}

	// Recovery period completes.
	ev = d.Update(-20, silenceTestConfig, base.Add(3500*time.Millisecond))
	if ev.InSilence {
		t.Error("still in silence after recovery completed")
	}
	if !ev.JustRecovered {
		t.Fatal("JustRecovered not set when recovery completed")
	}
	if ev.TotalDurationMs != 2000 {
		t.Errorf("TotalDurationMs = %d, want 2000", ev.TotalDurationMs)
	}
}

func TestSilenceDetectorBlipResetsRecovery(t *testing.T) {
	d := NewSilenceDetector()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	d.Update(-50, silenceTestConfig, base)
	d.Update(-50, silenceTestConfig, base.Add(2*time.Second))

	// Audio blips back, then goes silent again before recovery: the
	// detector must stay in silence and restart recovery timing later.
	d.Update(-20, silenceTestConfig, base.Add(2500*time.Millisecond))
	ev := d.Update(-50, silenceTestConfig, base.Add(2800*time.Millisecond))
	if !ev.InSilence {
		t.Error("silence state lost after a short audio blip")
	}

	ev = d.Update(-20, silenceTestConfig, base.Add(3*time.Second))
	if ev.JustRecovered {
		t.Error("recovered immediately after blip; recovery timer must restart")
	}
	ev = d.Update(-20, silenceTestConfig, base.Add(4*time.Second))
	if !ev.JustRecovered {
		t.Error("recovery not reported after a full recovery period")
	}
}
