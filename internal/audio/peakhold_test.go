package audio

import (
	"testing"
	"time"
)

func TestPeakHolderHoldsHighestLevel(t *testing.T) {
	p := NewPeakHolder(3 * time.Second)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if got := p.Update(60, base); got != 60 {
		t.Errorf("first update: held = %v, want 60", got)
	}
	if got := p.Update(80, base.Add(100*time.Millisecond)); got != 80 {
		t.Errorf("rising level: held = %v, want 80", got)
	}
	// Lower level within the hold window: the peak stays.
	if got := p.Update(40, base.Add(1*time.Second)); got != 80 {
		t.Errorf("within hold window: held = %v, want 80", got)
	}
}

func TestPeakHolderExpiresAfterHoldDuration(t *testing.T) {
	p := NewPeakHolder(3 * time.Second)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	p.Update(80, base)
	if got := p.Update(40, base.Add(3*time.Second)); got != 80 {
		t.Errorf("at hold boundary: held = %v, want 80", got)
	}
	if got := p.Update(40, base.Add(3*time.Second+time.Millisecond)); got != 40 {
		t.Errorf("after hold expired: held = %v, want 40", got)
	}
}

func TestPeakHolderEqualLevelRefreshesHold(t *testing.T) {
	p := NewPeakHolder(3 * time.Second)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	p.Update(80, base)
	// An equal level re-arms the hold timer.
	p.Update(80, base.Add(2*time.Second))
	if got := p.Update(40, base.Add(4*time.Second)); got != 80 {
		t.Errorf("hold not refreshed by equal level: held = %v, want 80", got)
	}
}

func TestPeakHolderDefaultDuration(t *testing.T) {
	p := NewPeakHolder(0)
	if p.holdDuration != DefaultPeakHoldDuration {
		t.Errorf("holdDuration = %v, want %v", p.holdDuration, DefaultPeakHoldDuration)
	}
}
