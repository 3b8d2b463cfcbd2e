package audio

import "encoding/binary"

const (
	// MaxSampleValue is the maximum absolute value for 16-bit signed audio.
	MaxSampleValue = 32768.0
	// FrameBytes is the size of one interleaved stereo S16LE frame.
	FrameBytes = 4
)

// DecodeS16LE converts interleaved stereo S16LE PCM into mono float64
// samples in [-1, 1] (mean of both channels), appending to dst. Passing
// a reused dst slice keeps the capture hot path free of per-buffer
// allocation. A trailing partial frame is ignored.
func DecodeS16LE(buf []byte, n int, dst []float64) []float64 {
	for i := 0; i+FrameBytes-1 < n; i += FrameBytes {
		left := int16(binary.LittleEndian.Uint16(buf[i:]))
		right := int16(binary.LittleEndian.Uint16(buf[i+2:]))
		dst = append(dst, (float64(left)+float64(right))/2/MaxSampleValue)
	}
	return dst
}
