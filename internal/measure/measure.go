// Package measure wraps timed workload execution and turns elapsed time
// plus byte/operation counts into throughput metrics.
package measure

import (
	"time"
)

// Clock abstracts the time source so clock-resolution edge cases can be
// exercised in tests. The real clock is monotonic: Go's time.Now carries
// a monotonic reading and Sub uses it, so wall-clock adjustments can
// never produce a negative elapsed duration.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// Measurement is the timing outcome of one measured block. When the
// clock resolution is too coarse for a very fast block the duration is
// clamped to the smallest representable positive value and the
// measurement is flagged low-confidence instead of producing an
// infinite rate.
type Measurement struct {
	Elapsed       time.Duration
	LowConfidence bool
}

func (m Measurement) Seconds() float64 {
	return m.Elapsed.Seconds()
}

type Measurer struct {
	clock Clock
}

func NewMeasurer() *Measurer {
	return &Measurer{clock: realClock{}}
}

func NewMeasurerWithClock(clock Clock) *Measurer {
	return &Measurer{clock: clock}
}

// Run times fn. The returned Measurement always has Elapsed > 0.
func (m *Measurer) Run(fn func() error) (Measurement, error) {
	start := m.clock.Now()
	err := fn()
	elapsed := m.clock.Now().Sub(start)

	measurement := Measurement{Elapsed: elapsed}
	if elapsed <= 0 {
		measurement.Elapsed = time.Nanosecond
		measurement.LowConfidence = true
	}

	return measurement, err
}

// Rate converts a count over a measurement into a per-second rate. The
// measurement invariant (Elapsed > 0) keeps the result finite.
func Rate(count uint64, m Measurement) float64 {
	return float64(count) / m.Seconds()
}
