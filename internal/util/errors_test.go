package util

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapError(t *testing.T) {
	base := errors.New("no such device")
	wrapped := WrapError("open input", base)

	if wrapped.Error() != "failed to open input: no such device" {
		t.Errorf("wrapped = %q", wrapped.Error())
	}
	if !errors.Is(wrapped, base) {
		t.Error("wrapped error does not unwrap to the original")
	}
	if WrapError("anything", nil) != nil {
		t.Error("WrapError(nil) must return nil")
	}
}

func TestExtractLastError(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		want   string
	}{
		{"single line", "arecord: main:830: audio open error", "arecord: main:830: audio open error"},
		{"last non-empty line", "info line\nwarning line\nfatal: device busy\n\n", "fatal: device busy"},
		{"empty input", "", ""},
		{"whitespace only", "  \n \n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractLastError(tt.stderr); got != tt.want {
				t.Errorf("ExtractLastError(%q) = %q, want %q", tt.stderr, got, tt.want)
			}
		})
	}
}

func TestExtractLastErrorTruncatesLongLines(t *testing.T) {
	long := strings.Repeat("x", 300)
	got := ExtractLastError(long)
	if len(got) != maxErrorLineLength+3 {
		t.Errorf("len = %d, want %d", len(got), maxErrorLineLength+3)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated line %q missing ellipsis", got)
	}
}
