package capture

import (
	"context"
	"encoding/binary"
	"os"
	"testing"
	"time"
)

func TestPumpFileStopUnblocksIdleRead(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = r.Close()
		_ = w.Close()
	}()

	s := NewPipeSource(Config{Device: StdinDevice})

	done := make(chan error, 1)
	go func() { done <- s.pumpFile(context.Background(), r) }()

	// One stereo S16LE frame at half scale.
	frame := make([]byte, 4)
	binary.LittleEndian.PutUint16(frame[0:], uint16(int16(16384)))
	binary.LittleEndian.PutUint16(frame[2:], uint16(int16(16384)))
	if _, err := w.Write(frame); err != nil {
		t.Fatal(err)
	}

	select {
	case buf := <-s.Buffers():
		if len(buf) != 1 {
			t.Fatalf("decoded %d samples, want 1", len(buf))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no buffer delivered from the pipe")
	}

	// The producer now stalls without closing the pipe; Stop must still
	// unblock the pending read.
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() = %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("pumpFile = %v, want nil after stop", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pumpFile still blocked after Stop")
	}
}

func TestPumpFileReturnsOnEOF(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = r.Close()
	}()

	s := NewPipeSource(Config{Device: StdinDevice})

	done := make(chan error, 1)
	go func() { done <- s.pumpFile(context.Background(), r) }()

	_ = w.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("pumpFile = %v, want nil on EOF", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pumpFile did not return on EOF")
	}
}
