package workload

import (
	"errors"
	"math"
	"testing"

	"fpga-bench/internal/measure"
	"fpga-bench/internal/report"
)

func checkFinite(t *testing.T, res report.WorkloadResult) {
	t.Helper()
	if res.ElapsedSeconds <= 0 {
		t.Fatalf("%s: elapsed must be positive, got %v", res.Name, res.ElapsedSeconds)
	}
	for _, v := range []float64{res.BandwidthGbps, res.OpsPerSecond} {
		if math.IsInf(v, 0) || math.IsNaN(v) || v < 0 {
			t.Fatalf("%s: derived rate must be finite and non-negative, got %v", res.Name, v)
		}
	}
}

func TestMemoryBandwidthBytesExact(t *testing.T) {
	const size = 4 << 20
	const passes = 3

	res, err := RunMemoryBandwidth(measure.NewMeasurer(), size, passes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.BytesProcessed != size*passes {
		t.Fatalf("expected bytes_processed %d, got %d", size*passes, res.BytesProcessed)
	}
	if res.Name != NameMemoryBandwidth {
		t.Fatalf("unexpected workload name %q", res.Name)
	}
	checkFinite(t, res)
}

func TestMemoryBandwidthAllocationGuard(t *testing.T) {
	// No host can back this; the simulator must fail with an
	// AllocationError instead of OOMing.
	_, err := RunMemoryBandwidth(measure.NewMeasurer(), 1<<60, 1)
	var allocErr *AllocationError
	if !errors.As(err, &allocErr) {
		t.Fatalf("expected AllocationError, got %v", err)
	}

	_, err = RunMemoryBandwidth(measure.NewMeasurer(), -1, 1)
	if !errors.As(err, &allocErr) {
		t.Fatalf("expected AllocationError for negative size, got %v", err)
	}
}

func TestTransferBytesExact(t *testing.T) {
	const chunk = 64 << 10
	const count = 32

	res, err := RunTransfer(measure.NewMeasurer(), chunk, count)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.BytesProcessed != chunk*count {
		t.Fatalf("expected bytes_processed %d, got %d", chunk*count, res.BytesProcessed)
	}
	if res.Name != NamePCIeThroughput {
		t.Fatalf("unexpected workload name %q", res.Name)
	}
	checkFinite(t, res)
}

func TestOperationsCountExact(t *testing.T) {
	const elements = 10_000
	const passes = 4

	cases := []struct {
		opType string
		factor uint64
	}{
		{OpMultiplyAdd, 2},
		{OpVectorSum, 7},
		{OpBitwise, 3},
	}

	for _, tc := range cases {
		res, err := RunOperations(measure.NewMeasurer(), tc.opType, elements, passes)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.opType, err)
		}
		want := uint64(elements) * uint64(passes) * tc.factor
		if res.OperationsCount != want {
			t.Fatalf("%s: expected operations_count %d, got %d", tc.opType, want, res.OperationsCount)
		}
		if res.BytesProcessed != 0 {
			t.Fatalf("%s: operation workloads report no bytes, got %d", tc.opType, res.BytesProcessed)
		}
		checkFinite(t, res)
	}
}

func TestOperationsRejectsUnknownType(t *testing.T) {
	_, err := RunOperations(measure.NewMeasurer(), "matrix_invert", 100, 1)
	if err == nil {
		t.Fatalf("expected error for unknown operation type")
	}
}
