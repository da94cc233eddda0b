package config

import (
	"fmt"
	"os"
	"regexp"
	"runtime"
	"strings"

	"fpga-bench/internal/logging"

	"gopkg.in/yaml.v3"
)

var knownOperationTypes = map[string]bool{
	"multiply_add": true,
	"vector_sum":   true,
	"bitwise_ops":  true,
}

func LoadConfig(filepath string) (*BenchmarkConfig, error) {
	logger := logging.GetLogger()

	data, err := os.ReadFile(filepath)
	if err != nil {
		logger.WithField("filepath", filepath).WithError(err).Error("Failed to read config file")
		return nil, err
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var config BenchmarkConfig
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		logger.WithField("filepath", filepath).WithError(err).Error("Failed to parse config file")
		return nil, err
	}

	config.ApplyDefaults()

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func expandEnvVars(content string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(content, func(match string) string {
		envVar := strings.Trim(match, "${}")
		if value := os.Getenv(envVar); value != "" {
			return value
		}
		return match
	})
}

// ApplyDefaults fills every unset option with its documented default.
// Parallel unit count is additionally clamped to the host core count so
// a small host never oversubscribes the simulated units.
func (c *BenchmarkConfig) ApplyDefaults() {
	w := &c.Benchmark.Workloads

	if w.MemoryTestSizeBytes == 0 {
		w.MemoryTestSizeBytes = DefaultMemoryTestSizeBytes
	}
	if w.MemoryPassCount == 0 {
		w.MemoryPassCount = DefaultMemoryPassCount
	}
	if w.TransferChunkBytes == 0 {
		w.TransferChunkBytes = DefaultTransferChunkBytes
	}
	if w.TransferChunkCount == 0 {
		w.TransferChunkCount = DefaultTransferChunkCount
	}
	if w.OperationElementCount == 0 {
		w.OperationElementCount = DefaultOperationElementCount
	}
	if w.OperationPassCount == 0 {
		w.OperationPassCount = DefaultOperationPassCount
	}
	if len(w.OperationTypes) == 0 {
		w.OperationTypes = []string{"multiply_add", "vector_sum", "bitwise_ops"}
	}
	if w.ParallelUnitCount == 0 {
		w.ParallelUnitCount = DefaultParallelUnitCount
	}
	if w.ParallelUnitCount > runtime.NumCPU() {
		w.ParallelUnitCount = runtime.NumCPU()
	}
	if w.ParallelUnitCount > MaxParallelUnits {
		w.ParallelUnitCount = MaxParallelUnits
	}
	if w.ParallelElementCount == 0 {
		w.ParallelElementCount = DefaultParallelElementCount
	}
	if w.ParallelPassCount == 0 {
		w.ParallelPassCount = DefaultParallelPassCount
	}

	if c.Benchmark.Sampling.IntervalSeconds == 0 {
		c.Benchmark.Sampling.IntervalSeconds = DefaultSampleInterval.Seconds()
	}
	if c.Benchmark.Output.Dir == "" {
		c.Benchmark.Output.Dir = "results"
	}
}

func validateConfig(config *BenchmarkConfig) error {
	if config.Benchmark.Name == "" {
		return fmt.Errorf("benchmark name is required")
	}

	w := config.Benchmark.Workloads
	if w.MemoryTestSizeBytes < 0 {
		return fmt.Errorf("memory_test_size_bytes must not be negative")
	}
	if w.MemoryPassCount < 0 {
		return fmt.Errorf("memory_pass_count must not be negative")
	}
	if w.TransferChunkBytes < 0 || w.TransferChunkCount < 0 {
		return fmt.Errorf("transfer chunk size and count must not be negative")
	}
	if w.OperationElementCount < 0 || w.OperationPassCount < 0 {
		return fmt.Errorf("operation element and pass counts must not be negative")
	}
	if w.ParallelElementCount < 0 || w.ParallelPassCount < 0 {
		return fmt.Errorf("parallel element and pass counts must not be negative")
	}
	if w.ParallelUnitCount < 1 || w.ParallelUnitCount > MaxParallelUnits {
		return fmt.Errorf("parallel_unit_count must be between 1 and %d", MaxParallelUnits)
	}

	for _, op := range w.OperationTypes {
		if !knownOperationTypes[op] {
			return fmt.Errorf("unknown operation type %q", op)
		}
	}

	if config.Benchmark.Sampling.IntervalSeconds <= 0 {
		return fmt.Errorf("sample_interval_seconds must be greater than 0")
	}
	if config.Benchmark.PhaseTimeoutSeconds < 0 {
		return fmt.Errorf("phase_timeout_seconds must not be negative")
	}

	// An influx sink is optional, but when present it must be complete.
	if db := config.Benchmark.Data.DB; db != nil {
		if db.Host == "" || db.Bucket == "" || db.Token == "" || db.Org == "" {
			return fmt.Errorf("incomplete database configuration")
		}
	}

	return nil
}
