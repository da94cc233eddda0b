package report

import (
	"encoding/json"
	"os"
	"testing"
	"time"
)

func sampleReport() *BenchmarkReport {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	return &BenchmarkReport{
		BenchmarkName:     "writer-test",
		DriverVersion:     "1.0.0",
		BenchmarkStarted:  now.Format(time.RFC3339),
		BenchmarkFinished: now.Add(time.Minute).Format(time.RFC3339),
		InstanceContext:   map[string]interface{}{"cpu_cores": 8},
		Phases: Phases{
			MemoryBandwidth: &PhaseResult{Status: PhaseOK, Workload: &WorkloadResult{
				Name: "memory_bandwidth", BytesProcessed: 1 << 30, ElapsedSeconds: 0.25, BandwidthGbps: 4.0,
			}},
			PCIeThroughput: &PhaseResult{Status: PhaseFailed, Error: "injected"},
			Operations: &PhaseResult{Status: PhaseOK, Workloads: []WorkloadResult{
				{Name: "multiply_add", OperationsCount: 1000, ElapsedSeconds: 0.1, OpsPerSecond: 10000},
			}},
			ParallelFPGA: &PhaseResult{Status: PhaseOK, Parallel: &ParallelWorkloadResult{
				UnitCount:             1,
				PerUnit:               []WorkloadResult{{Name: "fpga_unit_0", OpsPerSecond: 5000}},
				AggregateOpsPerSecond: 5000,
				AggregateGops:         0.000005,
				WallElapsedSeconds:    0.2,
				Status:                PhaseOK,
			}},
		},
		ResourceSeries: []ResourceSample{
			{Timestamp: now, CPUPercent: 12.5, MemoryUsedBytes: 1 << 30},
			{Timestamp: now.Add(time.Second), CPUPercent: 80.0, MemoryUsedBytes: 2 << 30},
		},
		PerformanceSummary: PerformanceSummary{
			PeakMemoryBandwidthGbps: 4.0,
			PeakOpsPerSecond:        10000,
			AggregateParallelGops:   0.000005,
		},
		OverallStatus: StatusPartialFailure,
	}
}

func TestWriteProducesStableSchema(t *testing.T) {
	dir := t.TempDir()
	path, err := Write(dir, "report.json", sampleReport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read report back: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}

	for _, key := range []string{"instance_context", "phases", "resource_series", "performance_summary", "overall_status"} {
		if _, ok := parsed[key]; !ok {
			t.Fatalf("missing top-level key %q", key)
		}
	}

	phases := parsed["phases"].(map[string]interface{})
	for _, key := range []string{"memory_bandwidth", "pcie_throughput", "operations", "parallel_fpga"} {
		if _, ok := phases[key]; !ok {
			t.Fatalf("missing phase key %q", key)
		}
	}

	summary := parsed["performance_summary"].(map[string]interface{})
	for _, key := range []string{"peak_memory_bandwidth_gbps", "peak_pcie_throughput_gbps", "peak_ops_per_second", "aggregate_parallel_gops"} {
		if _, ok := summary[key]; !ok {
			t.Fatalf("missing summary key %q", key)
		}
	}

	series := parsed["resource_series"].([]interface{})
	if len(series) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(series))
	}
	first := series[0].(map[string]interface{})
	for _, key := range []string{"timestamp", "cpu_percent", "memory_used_bytes"} {
		if _, ok := first[key]; !ok {
			t.Fatalf("missing sample key %q", key)
		}
	}
}

func TestWriteIsByteDeterministic(t *testing.T) {
	dir := t.TempDir()

	pathA, err := Write(dir, "a.json", sampleReport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pathB, err := Write(dir, "b.json", sampleReport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, _ := os.ReadFile(pathA)
	b, _ := os.ReadFile(pathB)
	if string(a) != string(b) {
		t.Fatalf("identical reports must serialize identically")
	}
}

func TestWriteRejectsNilReport(t *testing.T) {
	if _, err := Write(t.TempDir(), "x.json", nil); err == nil {
		t.Fatalf("expected error for nil report")
	}
}

func TestRoundAndConversions(t *testing.T) {
	if got := Round(1.23456, 2); got != 1.23 {
		t.Fatalf("expected 1.23, got %v", got)
	}
	if got := Gbps(1 << 30); got != 1.0 {
		t.Fatalf("expected 1 GiB/s, got %v", got)
	}
	if got := Gops(2.5e9); got != 2.5 {
		t.Fatalf("expected 2.5 gops, got %v", got)
	}
}
