// Package bench sequences the benchmark phases, manages the resource
// sampler's lifecycle around them, and folds everything into one
// report.
package bench

import (
	"context"
	"fmt"
	"time"

	"fpga-bench/internal/config"
	"fpga-bench/internal/host"
	"fpga-bench/internal/logging"
	"fpga-bench/internal/measure"
	"fpga-bench/internal/report"
	"fpga-bench/internal/sampler"
	"fpga-bench/internal/workload"

	"github.com/sirupsen/logrus"
)

const DriverVersion = "1.0.0"

// Run executes the full benchmark: it starts the sampler, runs the
// phases sequentially against it, and assembles the report.
//
// instanceMeta is opaque caller-supplied context embedded in the report
// untouched; when nil, the host's own description is used.
//
// Phases run one at a time so single-phase bandwidth numbers are never
// contended by another phase's CPU usage, while the continuous resource
// series still shows the whole envelope including the parallel spike.
// A failing phase is recorded in its slot and the run continues; only a
// sampler start failure or a run with zero phase results is fatal.
func Run(ctx context.Context, cfg *config.BenchmarkConfig, instanceMeta map[string]interface{}) (*report.BenchmarkReport, error) {
	logger := logging.GetLogger()
	w := cfg.Benchmark.Workloads

	if instanceMeta == nil {
		instanceMeta = host.GetHostConfig().InstanceContext(w.ParallelUnitCount)
	}
	logger.WithFields(logrus.Fields{
		"benchmark": cfg.Benchmark.Name,
		"units":     w.ParallelUnitCount,
	}).Info("Starting FPGA benchmark suite")

	s := sampler.New(cfg.GetSampleInterval(), cfg.Benchmark.Sampling.Perf)
	if err := s.Start(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSamplerStart, err)
	}
	// The sampler owns a goroutine; make sure it is reclaimed on every
	// exit path. Stop is idempotent, so the regular hand-off below is
	// unaffected.
	defer s.Stop()

	startTime := time.Now()
	m := measure.NewMeasurer()
	timeout := cfg.GetPhaseTimeout()

	var phases report.Phases

	phases.MemoryBandwidth = runPhase("memory_bandwidth", timeout, func() *report.PhaseResult {
		res, err := workload.RunMemoryBandwidth(m, w.MemoryTestSizeBytes, w.MemoryPassCount)
		if err != nil {
			return failedPhase(err)
		}
		return &report.PhaseResult{Status: report.PhaseOK, Workload: &res}
	})

	phases.PCIeThroughput = runPhase("pcie_throughput", timeout, func() *report.PhaseResult {
		res, err := workload.RunTransfer(m, w.TransferChunkBytes, w.TransferChunkCount)
		if err != nil {
			return failedPhase(err)
		}
		return &report.PhaseResult{Status: report.PhaseOK, Workload: &res}
	})

	phases.Operations = runPhase("operations", timeout, func() *report.PhaseResult {
		return runOperationsPhase(m, w)
	})

	phases.ParallelFPGA = runPhase("parallel_fpga", timeout, func() *report.PhaseResult {
		res, err := workload.RunParallel(m, w.ParallelUnitCount, w.ParallelElementCount, w.ParallelPassCount)
		if err != nil {
			return failedPhase(err)
		}
		return &report.PhaseResult{Status: res.Status, Parallel: &res}
	})

	series := s.Stop()
	endTime := time.Now()

	if series == nil {
		series = []report.ResourceSample{}
	}

	rep := &report.BenchmarkReport{
		BenchmarkName:      cfg.Benchmark.Name,
		Description:        cfg.Benchmark.Description,
		DriverVersion:      DriverVersion,
		BenchmarkStarted:   startTime.Format(time.RFC3339),
		BenchmarkFinished:  endTime.Format(time.RFC3339),
		InstanceContext:    instanceMeta,
		Phases:             phases,
		ResourceSeries:     series,
		SamplerGaps:        s.Gaps(),
		PerformanceSummary: summarize(phases),
	}

	succeeded := 0
	complete := true
	for _, phase := range []*report.PhaseResult{
		phases.MemoryBandwidth, phases.PCIeThroughput, phases.Operations, phases.ParallelFPGA,
	} {
		switch phase.Status {
		case report.PhaseOK:
			succeeded++
		case report.PhasePartialFailure:
			// The phase still produced measurements.
			succeeded++
			complete = false
		default:
			complete = false
		}
	}

	if succeeded == 0 {
		return nil, fmt.Errorf("%w: all phases failed, first reason: %s", ErrNoPhaseSucceeded, phases.MemoryBandwidth.Error)
	}

	if complete {
		rep.OverallStatus = report.StatusComplete
	} else {
		rep.OverallStatus = report.StatusPartialFailure
	}

	logger.WithFields(logrus.Fields{
		"status":  rep.OverallStatus,
		"samples": len(series),
		"gaps":    s.Gaps(),
	}).Info("Benchmark suite finished")

	return rep, nil
}

// runOperationsPhase runs every configured operation kernel in turn.
// One kernel failing does not discard the others.
func runOperationsPhase(m *measure.Measurer, w config.WorkloadConfig) *report.PhaseResult {
	phase := &report.PhaseResult{Status: report.PhaseOK}
	failed := 0

	for _, opType := range w.OperationTypes {
		res, err := workload.RunOperations(m, opType, w.OperationElementCount, w.OperationPassCount)
		if err != nil {
			failed++
			phase.Workloads = append(phase.Workloads, report.WorkloadResult{
				Name:  opType,
				Error: err.Error(),
			})
			continue
		}
		phase.Workloads = append(phase.Workloads, res)
	}

	if failed == len(w.OperationTypes) {
		phase.Status = report.PhaseFailed
		phase.Error = "all operation kernels failed"
	} else if failed > 0 {
		phase.Status = report.PhasePartialFailure
	}
	return phase
}

// runPhase applies the optional wall-clock budget. On expiry the phase
// is marked timed_out and its late result, if any, is discarded; later
// phases still run.
func runPhase(name string, timeout time.Duration, fn func() *report.PhaseResult) *report.PhaseResult {
	logger := logging.GetLogger()
	logger.WithField("phase", name).Info("Running benchmark phase")

	if timeout <= 0 {
		return finishPhase(name, fn())
	}

	resChan := make(chan *report.PhaseResult, 1)
	go func() {
		resChan <- fn()
	}()

	select {
	case res := <-resChan:
		return finishPhase(name, res)
	case <-time.After(timeout):
		logger.WithFields(logrus.Fields{
			"phase":   name,
			"timeout": timeout,
		}).Warn("Phase exceeded its wall-clock budget")
		return &report.PhaseResult{
			Status: report.PhaseTimedOut,
			Error:  fmt.Sprintf("phase exceeded wall-clock budget of %s", timeout),
		}
	}
}

func finishPhase(name string, res *report.PhaseResult) *report.PhaseResult {
	logger := logging.GetLogger()
	if res.Status == report.PhaseOK {
		logger.WithField("phase", name).Info("Phase completed")
	} else {
		logger.WithFields(logrus.Fields{
			"phase":  name,
			"status": res.Status,
			"reason": res.Error,
		}).Warn("Phase did not complete cleanly")
	}
	return res
}

func failedPhase(err error) *report.PhaseResult {
	return &report.PhaseResult{Status: report.PhaseFailed, Error: err.Error()}
}

// summarize folds per-phase metrics into the fixed summary scalars:
// maxima within each phase, and the rate sum across parallel units.
func summarize(phases report.Phases) report.PerformanceSummary {
	var summary report.PerformanceSummary

	if p := phases.MemoryBandwidth; p.Workload != nil {
		summary.PeakMemoryBandwidthGbps = p.Workload.BandwidthGbps
	}
	if p := phases.PCIeThroughput; p.Workload != nil {
		summary.PeakPCIeThroughputGbps = p.Workload.BandwidthGbps
	}
	for _, res := range phases.Operations.Workloads {
		if res.Error == "" && res.OpsPerSecond > summary.PeakOpsPerSecond {
			summary.PeakOpsPerSecond = res.OpsPerSecond
		}
	}
	if p := phases.ParallelFPGA; p.Parallel != nil {
		summary.AggregateParallelGops = p.Parallel.AggregateGops
	}

	return summary
}
