package util

import (
	"testing"
	"time"
)

func TestBackoffDoublesUntilCap(t *testing.T) {
	b := NewBackoff(3*time.Second, 60*time.Second)

	want := []time.Duration{
		3 * time.Second,
		6 * time.Second,
		12 * time.Second,
		24 * time.Second,
		48 * time.Second,
		60 * time.Second,
		60 * time.Second,
	}
	for i, w := range want {
		if got := b.Next(); got != w {
			t.Errorf("Next() call %d = %v, want %v", i+1, got, w)
		}
	}
}

func TestBackoffReset(t *testing.T) {
	b := NewBackoff(time.Second, time.Minute)
	b.Next()
	b.Next()
	b.Reset()
	if got := b.Next(); got != time.Second {
		t.Errorf("Next() after Reset() = %v, want %v", got, time.Second)
	}
}
