// Package workload implements the synthetic test bodies of the
// benchmark: memory-bandwidth passes, simulated PCIe chunk transfers,
// DSP-style operation kernels, and a parallel fan-out that models the
// instance's independent FPGA units.
package workload

import (
	"math/rand"

	"fpga-bench/internal/measure"
	"fpga-bench/internal/report"

	"github.com/shirou/gopsutil/v4/mem"
)

// Phase names as they appear in the report.
const (
	NameMemoryBandwidth = "memory_bandwidth"
	NamePCIeThroughput  = "pcie_throughput"
	NameParallelUnit    = "fpga_unit"
)

// allocGuard is how much of the reported available memory a single
// allocation may claim. Leaving headroom keeps the sampler and the Go
// runtime from fighting the workload for the last pages.
const allocGuard = 0.8

// checkAllocatable rejects sizes the host cannot back before the
// runtime gets a chance to OOM deep inside a simulator.
func checkAllocatable(sizeBytes int64) error {
	if sizeBytes <= 0 {
		return &AllocationError{SizeBytes: sizeBytes}
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		// Without a memory reading we let the allocation proceed and
		// rely on the runtime.
		return nil
	}
	if float64(sizeBytes) > float64(vm.Available)*allocGuard {
		return &AllocationError{SizeBytes: sizeBytes, AvailableBytes: vm.Available}
	}
	return nil
}

// allocBytes allocates a workload buffer, converting runtime allocation
// panics (absurd sizes) into an AllocationError.
func allocBytes(sizeBytes int64) (buf []byte, err error) {
	if e := checkAllocatable(sizeBytes); e != nil {
		return nil, e
	}
	defer func() {
		if r := recover(); r != nil {
			buf = nil
			err = &AllocationError{SizeBytes: sizeBytes}
		}
	}()
	return make([]byte, sizeBytes), nil
}

func fillRandom(buf []byte, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	// Filling word-wise is an order of magnitude faster than per byte
	// and the workloads only need incompressible-looking data.
	i := 0
	for ; i+8 <= len(buf); i += 8 {
		v := rng.Uint64()
		buf[i] = byte(v)
		buf[i+1] = byte(v >> 8)
		buf[i+2] = byte(v >> 16)
		buf[i+3] = byte(v >> 24)
		buf[i+4] = byte(v >> 32)
		buf[i+5] = byte(v >> 40)
		buf[i+6] = byte(v >> 48)
		buf[i+7] = byte(v >> 56)
	}
	for ; i < len(buf); i++ {
		buf[i] = byte(rng.Uint64())
	}
}

// newResult assembles a WorkloadResult from raw counts and a timing
// measurement, computing the derived rates with the report's fixed
// precision.
func newResult(name string, bytesProcessed, operations uint64, m measure.Measurement) report.WorkloadResult {
	return report.WorkloadResult{
		Name:            name,
		BytesProcessed:  bytesProcessed,
		OperationsCount: operations,
		ElapsedSeconds:  m.Seconds(),
		BandwidthGbps:   report.Gbps(measure.Rate(bytesProcessed, m)),
		OpsPerSecond:    report.Round(measure.Rate(operations, m), 0),
		LowConfidence:   m.LowConfidence,
	}
}
