package audio

// MovingAverage smooths a numeric stream over a fixed-capacity FIFO
// window. Storage is allocated once at construction and Add never
// allocates, so it is safe inside the real-time processing path.
// It is not safe for concurrent use.
type MovingAverage struct {
	window []float64
	size   int
	head   int     // slot the next value is written to; oldest value when full
	count  int     // number of values currently held
	sum    float64 // running sum of held values
}

// NewMovingAverage returns a window holding up to size values.
func NewMovingAverage(size int) (*MovingAverage, error) {
	if size < 1 {
		return nil, ErrInvalidWindow
	}
	return &MovingAverage{
		window: make([]float64, size),
		size:   size,
	}, nil
}

// Add appends a value, evicting the oldest first when the window is full,
// and returns the arithmetic mean of the values currently held. The
// divisor is the current count, not the capacity: until the window fills
// the average is computed over fewer samples, so the meter produces
// meaningful output from the very first buffer.
func (m *MovingAverage) Add(v float64) float64 {
	if m.count == m.size {
		m.sum -= m.window[m.head]
	} else {
		m.count++
	}
	m.window[m.head] = v
	m.sum += v
	m.head = (m.head + 1) % m.size

	return m.sum / float64(m.count)
}

// Len returns the number of values currently held.
func (m *MovingAverage) Len() int { return m.count }

// Size returns the window capacity.
func (m *MovingAverage) Size() int { return m.size }
