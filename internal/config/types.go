package config

import (
	"time"
)

type BenchmarkConfig struct {
	Benchmark BenchmarkInfo `yaml:"benchmark"`
}

type BenchmarkInfo struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	LogLevel    string         `yaml:"log_level"`
	Workloads   WorkloadConfig `yaml:"workloads"`
	Sampling    SamplingConfig `yaml:"sampling"`
	Output      OutputConfig   `yaml:"output"`
	Data        DataConfig     `yaml:"data"`

	// Optional wall-clock budget per phase. Zero disables the budget.
	PhaseTimeoutSeconds float64 `yaml:"phase_timeout_seconds"`
}

// WorkloadConfig enumerates every knob of the synthetic workloads. All
// sizes are in bytes so that reported bytes_processed values are exact.
type WorkloadConfig struct {
	MemoryTestSizeBytes   int64    `yaml:"memory_test_size_bytes"`
	MemoryPassCount       int      `yaml:"memory_pass_count"`
	TransferChunkBytes    int64    `yaml:"transfer_chunk_bytes"`
	TransferChunkCount    int      `yaml:"transfer_chunk_count"`
	OperationElementCount int      `yaml:"operation_element_count"`
	OperationPassCount    int      `yaml:"operation_pass_count"`
	OperationTypes        []string `yaml:"operation_types"`
	ParallelUnitCount     int      `yaml:"parallel_unit_count"`
	ParallelElementCount  int      `yaml:"parallel_element_count"`
	ParallelPassCount     int      `yaml:"parallel_pass_count"`
}

type SamplingConfig struct {
	IntervalSeconds float64 `yaml:"sample_interval_seconds"`
	Perf            bool    `yaml:"perf"`
}

type OutputConfig struct {
	File string `yaml:"file"`
	Dir  string `yaml:"dir"`
}

type DataConfig struct {
	DB *DatabaseConfig `yaml:"db,omitempty"`
}

type DatabaseConfig struct {
	Host   string `yaml:"host"`
	Bucket string `yaml:"bucket"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
}

const (
	// MaxParallelUnits mirrors the largest accelerator count of the
	// simulated instance family (f2.48xlarge carries 8 FPGAs).
	MaxParallelUnits = 8

	DefaultMemoryTestSizeBytes   = 256 << 20
	DefaultMemoryPassCount       = 4
	DefaultTransferChunkBytes    = 1 << 20
	DefaultTransferChunkCount    = 100
	DefaultOperationElementCount = 1 << 20
	DefaultOperationPassCount    = 100
	DefaultParallelUnitCount     = MaxParallelUnits
	DefaultParallelElementCount  = 512 << 10
	DefaultParallelPassCount     = 50
	DefaultSampleInterval        = 500 * time.Millisecond
)

func (c *BenchmarkConfig) GetSampleInterval() time.Duration {
	return time.Duration(c.Benchmark.Sampling.IntervalSeconds * float64(time.Second))
}

func (c *BenchmarkConfig) GetPhaseTimeout() time.Duration {
	return time.Duration(c.Benchmark.PhaseTimeoutSeconds * float64(time.Second))
}
