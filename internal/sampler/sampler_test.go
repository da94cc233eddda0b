package sampler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"fpga-bench/internal/report"
)

func TestSamplerCollectsApproximatelyEveryInterval(t *testing.T) {
	const interval = 10 * time.Millisecond
	const duration = 120 * time.Millisecond

	s := New(interval, false)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("failed to start sampler: %v", err)
	}

	time.Sleep(duration)
	samples := s.Stop()

	expected := int(duration / interval)
	// The loop needs a tick to notice stop, and scheduler jitter can
	// cost a couple more on a loaded host.
	if len(samples) < expected/2 || len(samples) > expected+2 {
		t.Fatalf("expected roughly %d samples, got %d", expected, len(samples))
	}

	for i := 1; i < len(samples); i++ {
		if samples[i].Timestamp.Before(samples[i-1].Timestamp) {
			t.Fatalf("sample %d timestamp precedes sample %d", i, i-1)
		}
	}

	for i, sample := range samples {
		if sample.CPUPercent < 0 {
			t.Fatalf("sample %d: negative cpu percent %v", i, sample.CPUPercent)
		}
	}
}

func TestSamplerStopIsIdempotent(t *testing.T) {
	s := New(5*time.Millisecond, false)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("failed to start sampler: %v", err)
	}
	time.Sleep(25 * time.Millisecond)

	first := s.Stop()
	second := s.Stop()

	if len(first) != len(second) {
		t.Fatalf("second stop returned a different series: %d vs %d samples", len(first), len(second))
	}
	if s.State() != StateStopped {
		t.Fatalf("expected stopped state after stop")
	}
}

func TestSamplerRejectsNonPositiveInterval(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		s := New(interval, false)
		if err := s.Start(context.Background()); err == nil {
			t.Fatalf("interval %v must be rejected at start", interval)
		}
		if s.State() != StateIdle {
			t.Fatalf("rejected start must leave the sampler idle")
		}
	}
}

func TestSamplerStartFailsWhenStatsUnreadable(t *testing.T) {
	s := New(5*time.Millisecond, false)
	s.probe = func() error {
		return fmt.Errorf("injected probe failure")
	}

	if err := s.Start(context.Background()); err == nil {
		t.Fatalf("expected start error when resource statistics are unreadable")
	}
	if s.State() != StateIdle {
		t.Fatalf("failed start must leave the sampler idle")
	}
	if samples := s.Stop(); len(samples) != 0 {
		t.Fatalf("failed start must hand off an empty series, got %d samples", len(samples))
	}
}

func TestSamplerStopBeforeStart(t *testing.T) {
	s := New(5*time.Millisecond, false)
	samples := s.Stop()
	if len(samples) != 0 {
		t.Fatalf("never-started sampler must hand off an empty series, got %d samples", len(samples))
	}
}

func TestSamplerCannotStartTwice(t *testing.T) {
	s := New(5*time.Millisecond, false)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("failed to start sampler: %v", err)
	}
	defer s.Stop()

	if err := s.Start(context.Background()); err == nil {
		t.Fatalf("expected error when starting a running sampler")
	}
}

func TestSamplerRecordsGapsOnReadFailure(t *testing.T) {
	s := New(5*time.Millisecond, false)

	tick := 0
	s.readSample = func() (report.ResourceSample, error) {
		tick++
		if tick%2 == 0 {
			return report.ResourceSample{}, fmt.Errorf("injected read failure")
		}
		return report.ResourceSample{Timestamp: time.Now()}, nil
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("failed to start sampler: %v", err)
	}
	time.Sleep(60 * time.Millisecond)
	samples := s.Stop()

	if s.Gaps() == 0 {
		t.Fatalf("expected recorded gaps for failed ticks")
	}
	if len(samples) == 0 {
		t.Fatalf("failed ticks must not abort the series")
	}
}

func TestSamplerCancelledContextStopsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(5*time.Millisecond, false)
	if err := s.Start(ctx); err != nil {
		t.Fatalf("failed to start sampler: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)

	before := len(s.Stop())
	time.Sleep(20 * time.Millisecond)
	after := len(s.Stop())
	if before != after {
		t.Fatalf("loop kept sampling after context cancellation")
	}
}
