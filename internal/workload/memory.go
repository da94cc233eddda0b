package workload

import (
	"fpga-bench/internal/logging"
	"fpga-bench/internal/measure"
	"fpga-bench/internal/report"

	"github.com/sirupsen/logrus"
)

// RunMemoryBandwidth measures main-memory copy bandwidth, modeling the
// HBM access patterns of an FPGA. The buffer must be sized well beyond
// the last-level cache (256MB by default) so the measured traffic is
// memory-bound rather than cache-resident; a cache-resident buffer
// would invalidate the metric.
//
// Reported bytes_processed is exactly sizeBytes * passCount.
func RunMemoryBandwidth(m *measure.Measurer, sizeBytes int64, passCount int) (report.WorkloadResult, error) {
	logger := logging.GetLogger()
	logger.WithFields(logrus.Fields{
		"size_bytes": sizeBytes,
		"passes":     passCount,
	}).Debug("Running memory bandwidth workload")

	src, err := allocBytes(sizeBytes)
	if err != nil {
		return report.WorkloadResult{}, err
	}
	dst, err := allocBytes(sizeBytes)
	if err != nil {
		return report.WorkloadResult{}, err
	}
	fillRandom(src, 1)

	measurement, err := m.Run(func() error {
		for pass := 0; pass < passCount; pass++ {
			// Alternate direction so neither buffer stays hot in cache
			// between passes.
			if pass%2 == 0 {
				copy(dst, src)
			} else {
				copy(src, dst)
			}
		}
		return nil
	})
	if err != nil {
		return report.WorkloadResult{}, err
	}

	bytesProcessed := uint64(sizeBytes) * uint64(passCount)
	return newResult(NameMemoryBandwidth, bytesProcessed, 0, measurement), nil
}
