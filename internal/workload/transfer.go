package workload

import (
	"fpga-bench/internal/logging"
	"fpga-bench/internal/measure"
	"fpga-bench/internal/report"

	"github.com/sirupsen/logrus"
)

// transferQueueDepth models the DMA descriptor ring of the simulated
// bus: only a handful of transfers may be in flight at once.
const transferQueueDepth = 4

// RunTransfer approximates host-to-FPGA PCIe DMA throughput. Chunks are
// pushed through a bounded channel to a single drainer goroutine that
// copies them into the "device" buffer, so the channel acts as the bus
// serialization point rather than measuring raw memory speed.
//
// Reported bytes_processed is exactly chunkBytes * chunkCount.
func RunTransfer(m *measure.Measurer, chunkBytes int64, chunkCount int) (report.WorkloadResult, error) {
	logger := logging.GetLogger()
	logger.WithFields(logrus.Fields{
		"chunk_bytes": chunkBytes,
		"chunks":      chunkCount,
	}).Debug("Running transfer throughput workload")

	hostChunk, err := allocBytes(chunkBytes)
	if err != nil {
		return report.WorkloadResult{}, err
	}
	deviceBuf, err := allocBytes(chunkBytes)
	if err != nil {
		return report.WorkloadResult{}, err
	}
	fillRandom(hostChunk, 2)

	measurement, err := m.Run(func() error {
		bus := make(chan []byte, transferQueueDepth)
		done := make(chan struct{})

		go func() {
			for chunk := range bus {
				copy(deviceBuf, chunk)
			}
			close(done)
		}()

		// The producer only ever sends read-only data, so the single
		// copy per chunk happens on the drainer side of the bus.
		for i := 0; i < chunkCount; i++ {
			bus <- hostChunk
		}
		close(bus)
		<-done
		return nil
	})
	if err != nil {
		return report.WorkloadResult{}, err
	}

	bytesProcessed := uint64(chunkBytes) * uint64(chunkCount)
	return newResult(NamePCIeThroughput, bytesProcessed, 0, measurement), nil
}
