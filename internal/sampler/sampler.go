// Package sampler runs the background resource-utilization loop that
// records CPU and memory readings for the duration of a benchmark run.
package sampler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fpga-bench/internal/logging"
	"fpga-bench/internal/report"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

// Sampler captures one ResourceSample per interval between Start and
// Stop. Only the sampling goroutine appends to the series; ownership of
// the accumulated samples is handed to the caller at Stop, so no
// locking of the series itself is needed.
type Sampler struct {
	interval time.Duration
	perf     *SelfPerfCollector

	mutex    sync.Mutex
	state    State
	samples  []report.ResourceSample
	gaps     int
	stopChan chan struct{}
	doneChan chan struct{}

	// probe and readSample are replaceable in tests to inject start
	// and tick failures.
	probe      func() error
	readSample func() (report.ResourceSample, error)
}

func New(interval time.Duration, enablePerf bool) *Sampler {
	s := &Sampler{
		interval: interval,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
	s.probe = probeSystem
	s.readSample = s.readSystemSample
	if enablePerf {
		s.perf = NewSelfPerfCollector()
	}
	return s
}

// Start transitions idle -> running and spawns the sampling loop. The
// interval is checked and a probe reading is taken first, so every
// misconfiguration surfaces here as an error instead of inside the
// loop goroutine.
func (s *Sampler) Start(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.state != StateIdle {
		return fmt.Errorf("sampler already started")
	}

	// A zero interval would panic time.NewTicker inside the loop
	// goroutine; reject it here where the caller can still react.
	if s.interval <= 0 {
		return fmt.Errorf("sample interval must be positive, got %v", s.interval)
	}

	if err := s.probe(); err != nil {
		return err
	}

	s.state = StateRunning
	go s.loop(ctx)
	return nil
}

// probeSystem primes the CPU accounting so the first interval reading
// has a previous state to diff against, and verifies the host's
// resource statistics are readable at all. When they are not, no
// series is possible and the whole run must not proceed.
func probeSystem() error {
	if _, err := cpu.Percent(0, false); err != nil {
		return fmt.Errorf("cpu statistics unavailable: %w", err)
	}
	if _, err := mem.VirtualMemory(); err != nil {
		return fmt.Errorf("memory statistics unavailable: %w", err)
	}
	return nil
}

func (s *Sampler) loop(ctx context.Context) {
	logger := logging.GetLogger()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer close(s.doneChan)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			sample, err := s.readSample()
			if err != nil {
				// A failed tick is a gap in the series, never fatal.
				s.mutex.Lock()
				s.gaps++
				s.mutex.Unlock()
				logger.WithError(err).Debug("Skipping failed sample tick")
				continue
			}
			if s.perf != nil {
				sample.Perf = s.perf.Collect()
			}
			s.samples = append(s.samples, sample)
		}
	}
}

func (s *Sampler) readSystemSample() (report.ResourceSample, error) {
	cpuPercents, err := cpu.Percent(0, false)
	if err != nil {
		return report.ResourceSample{}, err
	}
	if len(cpuPercents) == 0 {
		return report.ResourceSample{}, fmt.Errorf("no cpu utilization reading")
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		return report.ResourceSample{}, err
	}

	return report.ResourceSample{
		Timestamp:       time.Now(),
		CPUPercent:      report.Round(cpuPercents[0], 2),
		MemoryUsedBytes: vm.Used,
	}, nil
}

// Stop transitions running -> stopped and returns the accumulated
// series. It is idempotent: a second call returns the same series and
// no error. Stop waits for the loop goroutine to exit so the returned
// slice can never race with a late append.
func (s *Sampler) Stop() []report.ResourceSample {
	s.mutex.Lock()
	if s.state == StateRunning {
		s.state = StateStopped
		close(s.stopChan)
	}
	s.mutex.Unlock()

	if s.State() == StateStopped {
		<-s.doneChan
	}
	if s.perf != nil {
		s.perf.Close()
		s.perf = nil
	}
	return s.samples
}

func (s *Sampler) State() State {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.state
}

// Gaps reports how many ticks were skipped because a resource read
// failed.
func (s *Sampler) Gaps() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.gaps
}
