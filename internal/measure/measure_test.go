package measure

import (
	"math"
	"testing"
	"time"
)

// fakeClock returns a scripted sequence of instants.
type fakeClock struct {
	instants []time.Time
	next     int
}

func (c *fakeClock) Now() time.Time {
	t := c.instants[c.next]
	if c.next < len(c.instants)-1 {
		c.next++
	}
	return t
}

func TestRunMeasuresElapsed(t *testing.T) {
	base := time.Unix(1000, 0)
	clock := &fakeClock{instants: []time.Time{base, base.Add(2 * time.Second)}}
	m := NewMeasurerWithClock(clock)

	measurement, err := m.Run(func() error { return nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if measurement.Seconds() != 2.0 {
		t.Fatalf("expected 2s elapsed, got %v", measurement.Seconds())
	}
	if measurement.LowConfidence {
		t.Fatalf("expected high-confidence measurement")
	}
}

func TestRunClampsZeroDuration(t *testing.T) {
	// A clock too coarse to see the block at all returns the same
	// instant twice.
	base := time.Unix(1000, 0)
	clock := &fakeClock{instants: []time.Time{base, base}}
	m := NewMeasurerWithClock(clock)

	measurement, err := m.Run(func() error { return nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if measurement.Elapsed != time.Nanosecond {
		t.Fatalf("expected clamp to 1ns, got %v", measurement.Elapsed)
	}
	if !measurement.LowConfidence {
		t.Fatalf("clamped measurement must be flagged low-confidence")
	}

	rate := Rate(1_000_000, measurement)
	if math.IsInf(rate, 0) || math.IsNaN(rate) || rate < 0 {
		t.Fatalf("clamped rate must stay finite and non-negative, got %v", rate)
	}
}

func TestRealClockElapsedPositive(t *testing.T) {
	m := NewMeasurer()
	measurement, err := m.Run(func() error {
		time.Sleep(time.Millisecond)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if measurement.Seconds() <= 0 {
		t.Fatalf("elapsed must be positive, got %v", measurement.Seconds())
	}
}

func TestRunPropagatesError(t *testing.T) {
	m := NewMeasurer()
	wantErr := "kernel exploded"
	_, err := m.Run(func() error { return errTest(wantErr) })
	if err == nil || err.Error() != wantErr {
		t.Fatalf("expected %q, got %v", wantErr, err)
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
