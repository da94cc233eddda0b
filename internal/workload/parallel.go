package workload

import (
	"fmt"
	"sync"

	"fpga-bench/internal/logging"
	"fpga-bench/internal/measure"
	"fpga-bench/internal/report"

	"github.com/sirupsen/logrus"
)

// UnitFunc produces the WorkloadResult of one simulated FPGA unit.
type UnitFunc func(unit int) (report.WorkloadResult, error)

// RunParallel fans one multiply-add workload out across unitCount
// concurrent units, each owning disjoint data. The aggregate rate is
// the sum of per-unit rates: the units model independent accelerators,
// so their throughputs add instead of sharing one wall clock.
//
// A failing unit only voids its own slot. Siblings always run to
// completion and their results are kept.
func RunParallel(m *measure.Measurer, unitCount, elementCount, passCount int) (report.ParallelWorkloadResult, error) {
	// Allocation headroom is checked up front for the whole fan-out so
	// a too-large configuration fails before any unit starts.
	if err := checkAllocatable(int64(unitCount) * int64(elementCount) * 2 * 3); err != nil {
		return report.ParallelWorkloadResult{}, err
	}

	return runParallelWith(m, unitCount, func(unit int) (report.WorkloadResult, error) {
		return runUnit(unit, elementCount, passCount)
	})
}

func runParallelWith(m *measure.Measurer, unitCount int, fn UnitFunc) (report.ParallelWorkloadResult, error) {
	logger := logging.GetLogger()
	logger.WithField("units", unitCount).Debug("Running parallel FPGA workload")

	if unitCount < 1 {
		return report.ParallelWorkloadResult{}, fmt.Errorf("unit count must be at least 1, got %d", unitCount)
	}

	results := make([]report.WorkloadResult, unitCount)
	failures := make([]error, unitCount)

	outer, _ := m.Run(func() error {
		var wg sync.WaitGroup
		for unit := 0; unit < unitCount; unit++ {
			wg.Add(1)
			go func(unit int) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						failures[unit] = &WorkerFailure{Unit: unit, Err: fmt.Errorf("panic: %v", r)}
					}
				}()
				res, err := fn(unit)
				if err != nil {
					failures[unit] = &WorkerFailure{Unit: unit, Err: err}
					return
				}
				results[unit] = res
			}(unit)
		}
		wg.Wait()
		return nil
	})

	parallel := report.ParallelWorkloadResult{
		UnitCount:          unitCount,
		PerUnit:            results,
		WallElapsedSeconds: outer.Seconds(),
		Status:             report.PhaseOK,
	}

	var aggregate float64
	succeeded := 0
	for unit := 0; unit < unitCount; unit++ {
		if failures[unit] != nil {
			results[unit] = report.WorkloadResult{
				Name:  unitName(unit),
				Error: failures[unit].Error(),
			}
			logger.WithFields(logrus.Fields{
				"unit": unit,
			}).WithError(failures[unit]).Warn("Parallel unit failed")
			parallel.Status = report.PhasePartialFailure
			continue
		}
		aggregate += results[unit].OpsPerSecond
		succeeded++
	}

	parallel.AggregateOpsPerSecond = aggregate
	parallel.AggregateGops = report.Gops(aggregate)

	if succeeded == 0 {
		return parallel, fmt.Errorf("all %d parallel units failed: %w", unitCount, failures[0])
	}
	return parallel, nil
}

func unitName(unit int) string {
	return fmt.Sprintf("%s_%d", NameParallelUnit, unit)
}

// runUnit is the per-unit kernel: a multiply-accumulate over the unit's
// own data, two operations per element.
func runUnit(unit, elementCount, passCount int) (report.WorkloadResult, error) {
	kernel, err := newMultiplyAddKernel(elementCount, int64(100+unit))
	if err != nil {
		return report.WorkloadResult{}, err
	}

	m := measure.NewMeasurer()
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

	operations := uint64(elementCount) * uint64(passCount) * opsPerElement[OpMultiplyAdd]
	return newResult(unitName(unit), 0, operations, measurement), nil
}
