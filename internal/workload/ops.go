package workload

import (
	"fmt"
	"math/rand"
	"sync/atomic"

	"fpga-bench/internal/logging"
	"fpga-bench/internal/measure"
	"fpga-bench/internal/report"
)

// Operation kernels model the element-wise DSP workloads an FPGA would
// run. Each kernel has a fixed operation count per element, which is
// what OperationsCount is derived from.
const (
	OpMultiplyAdd = "multiply_add"
	OpVectorSum   = "vector_sum"
	OpBitwise     = "bitwise_ops"

	// vector_sum folds eight vectors, which takes seven additions.
	vectorSumInputs = 8
)

var opsPerElement = map[string]uint64{
	OpMultiplyAdd: 2, // multiply + add
	OpVectorSum:   vectorSumInputs - 1,
	OpBitwise:     3, // xor + and + or
}

// opSink keeps kernel results observable so the compiler cannot
// eliminate the timed loops. Parallel units share it, hence atomic.
var opSink atomic.Int64

// RunOperations executes one operation kernel for passCount passes over
// elementCount elements and reports operations_count = elements *
// passes * ops-per-element.
func RunOperations(m *measure.Measurer, opType string, elementCount, passCount int) (report.WorkloadResult, error) {
	logger := logging.GetLogger()
	logger.WithField("operation", opType).Debug("Running operation rate workload")

	factor, ok := opsPerElement[opType]
	if !ok {
		return report.WorkloadResult{}, fmt.Errorf("unknown operation type %q", opType)
	}

	var kernel func() error
	switch opType {
	case OpMultiplyAdd:
		k, err := newMultiplyAddKernel(elementCount, 3)
		if err != nil {
			return report.WorkloadResult{}, err
		}
		kernel = k
	case OpVectorSum:
		k, err := newVectorSumKernel(elementCount)
		if err != nil {
			return report.WorkloadResult{}, err
		}
		kernel = k
	case OpBitwise:
		k, err := newBitwiseKernel(elementCount)
		if err != nil {
			return report.WorkloadResult{}, err
		}
		kernel = k
	}

	measurement, err := m.Run(func() error {
		for pass := 0; pass < passCount; pass++ {
			if err := kernel(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return report.WorkloadResult{}, err
	}

	operations := uint64(elementCount) * uint64(passCount) * factor
	return newResult(opType, 0, operations, measurement), nil
}

// newMultiplyAddKernel builds the a*b+c kernel over int16 data,
// mirroring the INT8/INT16 DSP slice workloads the phase approximates.
func newMultiplyAddKernel(elementCount int, seed int64) (func() error, error) {
	if err := checkAllocatable(int64(elementCount) * 2 * 3); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(seed))
	a := make([]int16, elementCount)
	b := make([]int16, elementCount)
	c := make([]int16, elementCount)
	for i := range a {
		a[i] = int16(rng.Intn(256))
		b[i] = int16(rng.Intn(256))
		c[i] = int16(rng.Intn(256))
	}

	return func() error {
		var acc int16
		for i := range a {
			acc += a[i]*b[i] + c[i]
		}
		opSink.Add(int64(acc))
		return nil
	}, nil
}

func newVectorSumKernel(elementCount int) (func() error, error) {
	if err := checkAllocatable(int64(elementCount) * 4 * vectorSumInputs); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(4))
	vectors := make([][]int32, vectorSumInputs)
	for v := range vectors {
		vectors[v] = make([]int32, elementCount)
		for i := range vectors[v] {
			vectors[v][i] = int32(rng.Intn(256))
		}
	}

	return func() error {
		var acc int32
		for i := 0; i < elementCount; i++ {
			sum := vectors[0][i]
			for v := 1; v < vectorSumInputs; v++ {
				sum += vectors[v][i]
			}
			acc += sum
		}
		opSink.Add(int64(acc))
		return nil
	}, nil
}

func newBitwiseKernel(elementCount int) (func() error, error) {
	if err := checkAllocatable(int64(elementCount) * 2 * 2); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(5))
	a := make([]uint16, elementCount)
	b := make([]uint16, elementCount)
	for i := range a {
		a[i] = uint16(rng.Intn(65536))
		b[i] = uint16(rng.Intn(65536))
	}

	return func() error {
		var acc uint16
		for i := range a {
			acc ^= (a[i] ^ b[i]) & (a[i] | b[i])
		}
		opSink.Add(int64(acc))
		return nil
	}, nil
}
