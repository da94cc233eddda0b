package report

import (
	"math"
	"time"
)

// Overall run status.
const (
	StatusComplete       = "complete"
	StatusPartialFailure = "partial_failure"
)

// Per-phase status.
const (
	PhaseOK             = "ok"
	PhaseFailed         = "failed"
	PhaseTimedOut       = "timed_out"
	PhasePartialFailure = "partial_failure"
)

// WorkloadResult holds the measured outcome of one synthetic workload.
// ElapsedSeconds is always greater than zero; a workload whose timed
// block was faster than the clock resolution is clamped and flagged
// LowConfidence instead.
type WorkloadResult struct {
	Name            string  `json:"name"`
	BytesProcessed  uint64  `json:"bytes_processed"`
	OperationsCount uint64  `json:"operations_count"`
	ElapsedSeconds  float64 `json:"elapsed_seconds"`
	BandwidthGbps   float64 `json:"bandwidth_gbps"`
	OpsPerSecond    float64 `json:"ops_per_second"`
	LowConfidence   bool    `json:"low_confidence,omitempty"`
	Error           string  `json:"error,omitempty"`
}

// ParallelWorkloadResult aggregates the per-unit results of the
// parallel phase. AggregateOpsPerSecond is the sum of the per-unit
// rates, not total operations over wall-clock time: the simulated
// units model independent accelerators whose throughputs genuinely
// add, rather than one shared resource.
type ParallelWorkloadResult struct {
	UnitCount             int              `json:"unit_count"`
	PerUnit               []WorkloadResult `json:"per_unit"`
	AggregateOpsPerSecond float64          `json:"aggregate_ops_per_second"`
	AggregateGops         float64          `json:"aggregate_gops"`
	WallElapsedSeconds    float64          `json:"wall_elapsed_seconds"`
	Status                string           `json:"status"`
}

// PhaseResult is one slot in the report's phase mapping. Exactly one
// of Workload, Workloads, or Parallel is populated on success; a failed
// or timed-out phase carries only Status and Error.
type PhaseResult struct {
	Status    string                  `json:"status"`
	Error     string                  `json:"error,omitempty"`
	Workload  *WorkloadResult         `json:"workload,omitempty"`
	Workloads []WorkloadResult        `json:"workloads,omitempty"`
	Parallel  *ParallelWorkloadResult `json:"parallel,omitempty"`
}

// Phases keys are fixed so downstream tooling can address results by
// path. Field order matches execution order.
type Phases struct {
	MemoryBandwidth *PhaseResult `json:"memory_bandwidth"`
	PCIeThroughput  *PhaseResult `json:"pcie_throughput"`
	Operations      *PhaseResult `json:"operations"`
	ParallelFPGA    *PhaseResult `json:"parallel_fpga"`
}

// ResourceSample is one reading of the sampling loop. CPUPercent is
// the aggregate utilization normalized across all cores (0-100), not a
// per-core sum. Perf is present only when hardware counter collection
// is enabled and available.
type ResourceSample struct {
	Timestamp       time.Time    `json:"timestamp"`
	CPUPercent      float64      `json:"cpu_percent"`
	MemoryUsedBytes uint64       `json:"memory_used_bytes"`
	Perf            *PerfMetrics `json:"perf,omitempty"`
}

// PerfMetrics holds per-interval hardware counter deltas for the
// harness process.
type PerfMetrics struct {
	Instructions         *uint64  `json:"instructions,omitempty"`
	Cycles               *uint64  `json:"cycles,omitempty"`
	CacheMisses          *uint64  `json:"cache_misses,omitempty"`
	CacheReferences      *uint64  `json:"cache_references,omitempty"`
	InstructionsPerCycle *float64 `json:"instructions_per_cycle,omitempty"`
	CacheMissRate        *float64 `json:"cache_miss_rate,omitempty"`
}

// PerformanceSummary field names are part of the stable output schema.
type PerformanceSummary struct {
	PeakMemoryBandwidthGbps float64 `json:"peak_memory_bandwidth_gbps"`
	PeakPCIeThroughputGbps  float64 `json:"peak_pcie_throughput_gbps"`
	PeakOpsPerSecond        float64 `json:"peak_ops_per_second"`
	AggregateParallelGops   float64 `json:"aggregate_parallel_gops"`
}

type BenchmarkReport struct {
	BenchmarkName      string                 `json:"benchmark_name"`
	Description        string                 `json:"description,omitempty"`
	DriverVersion      string                 `json:"driver_version"`
	BenchmarkStarted   string                 `json:"benchmark_started"`
	BenchmarkFinished  string                 `json:"benchmark_finished"`
	InstanceContext    map[string]interface{} `json:"instance_context"`
	Phases             Phases                 `json:"phases"`
	ResourceSeries     []ResourceSample       `json:"resource_series"`
	SamplerGaps        int                    `json:"sampler_gaps,omitempty"`
	PerformanceSummary PerformanceSummary     `json:"performance_summary"`
	OverallStatus      string                 `json:"overall_status"`
}

const bytesPerGiB = 1 << 30

// Gbps converts a bytes-per-second rate to GiB/s with the fixed
// precision used throughout the report.
func Gbps(bytesPerSec float64) float64 {
	return Round(bytesPerSec/bytesPerGiB, 2)
}

// Gops converts an ops-per-second rate to billions with the fixed
// precision used throughout the report.
func Gops(opsPerSec float64) float64 {
	return Round(opsPerSec/1e9, 4)
}

// Round keeps serialized metrics at a consistent precision so repeated
// runs differ only in the measured values themselves.
func Round(v float64, decimals int) float64 {
	scale := math.Pow10(decimals)
	return math.Round(v*scale) / scale
}
