package sampler

import (
	"sync"
	"time"

	"fpga-bench/internal/logging"
	"fpga-bench/internal/report"

	"github.com/elastic/go-perf"
)

type eventState struct {
	value   uint64
	enabled time.Duration
	running time.Duration
}

// SelfPerfCollector reads hardware counters for the harness process
// itself, giving the resource series an instruction/cache view of the
// workloads. Perf availability depends on kernel settings, so the
// collector degrades to nil rather than failing the sampler.
type SelfPerfCollector struct {
	events    []*perf.Event
	lastState map[int]*eventState
	mutex     sync.Mutex
}

func NewSelfPerfCollector() *SelfPerfCollector {
	logger := logging.GetLogger()

	collector := &SelfPerfCollector{
		lastState: make(map[int]*eventState),
	}

	hardwareCounters := []perf.HardwareCounter{
		perf.Instructions,
		perf.CPUCycles,
		perf.CacheMisses,
		perf.CacheReferences,
	}

	for _, counter := range hardwareCounters {
		attr := &perf.Attr{}
		counter.Configure(attr)
		// Count threads spawned after the event opens, and keep
		// enabled/running times for multiplexing correction.
		attr.Options.Inherit = true
		attr.CountFormat.Enabled = true
		attr.CountFormat.Running = true

		event, err := perf.Open(attr, perf.CallingThread, perf.AnyCPU, nil)
		if err != nil {
			logger.WithField("counter", counter).WithError(err).Warn("Failed to open perf event, continuing without hardware counters")
			collector.Close()
			return nil
		}
		collector.events = append(collector.events, event)
	}

	for _, event := range collector.events {
		if err := event.Enable(); err != nil {
			logger.WithError(err).Warn("Failed to enable perf event, continuing without hardware counters")
			collector.Close()
			return nil
		}
	}

	return collector
}

// Collect returns the counter deltas since the previous tick, scaled
// for multiplexing the same way the interval-based corrections are done
// for cgroup collectors.
func (pc *SelfPerfCollector) Collect() *report.PerfMetrics {
	if pc == nil || len(pc.events) == 0 {
		return nil
	}

	pc.mutex.Lock()
	defer pc.mutex.Unlock()

	counterSums := make(map[string]uint64)

	for i, event := range pc.events {
		count, err := event.ReadCount()
		if err != nil {
			continue
		}

		currentValue := uint64(count.Value)
		currentEnabled := count.Enabled
		currentRunning := count.Running

		if lastState, exists := pc.lastState[i]; exists {
			deltaValue := currentValue - lastState.value
			deltaEnabled := currentEnabled - lastState.enabled
			deltaRunning := currentRunning - lastState.running

			scaledDelta := deltaValue
			if deltaRunning > 0 && deltaEnabled > 0 && deltaRunning != deltaEnabled {
				scaleFactor := float64(deltaEnabled) / float64(deltaRunning)
				scaledDelta = uint64(float64(deltaValue) * scaleFactor)
			}
			counterSums[count.Label] += scaledDelta
		}

		pc.lastState[i] = &eventState{
			value:   currentValue,
			enabled: currentEnabled,
			running: currentRunning,
		}
	}

	hasAnyData := false
	for _, sum := range counterSums {
		if sum > 0 {
			hasAnyData = true
			break
		}
	}
	if !hasAnyData {
		return nil
	}

	setValue := func(label string) *uint64 {
		if val, ok := counterSums[label]; ok && val > 0 {
			v := val
			return &v
		}
		return nil
	}

	metrics := &report.PerfMetrics{}
	metrics.Instructions = setValue("instructions")
	metrics.Cycles = setValue("cpu-cycles")
	metrics.CacheMisses = setValue("cache-misses")
	metrics.CacheReferences = setValue("cache-references")

	if metrics.Instructions != nil && metrics.Cycles != nil && *metrics.Cycles > 0 {
		ipc := float64(*metrics.Instructions) / float64(*metrics.Cycles)
		metrics.InstructionsPerCycle = &ipc
	}
	if metrics.CacheMisses != nil && metrics.CacheReferences != nil && *metrics.CacheReferences > 0 {
		rate := float64(*metrics.CacheMisses) / float64(*metrics.CacheReferences)
		metrics.CacheMissRate = &rate
	}

	return metrics
}

func (pc *SelfPerfCollector) Close() {
	if pc == nil {
		return
	}
	for _, event := range pc.events {
		if event != nil {
			event.Close()
		}
	}
	pc.events = nil
}
