package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"fpga-bench/internal/bench"
	"fpga-bench/internal/config"
	"fpga-bench/internal/database"
	"fpga-bench/internal/host"
	"fpga-bench/internal/logging"
	"fpga-bench/internal/report"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func loadEnvironment() {
	logger := logging.GetLogger()

	// Try to load .env file from current directory
	envFile := ".env"
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			logger.WithField("file", envFile).WithError(err).Warn("Error loading .env file")
		} else {
			logger.WithField("file", envFile).Debug("Loaded environment variables")
		}
		return
	}

	// Try to load from the application directory
	if execPath, err := os.Executable(); err == nil {
		envFile = filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				logger.WithField("file", envFile).WithError(err).Warn("Error loading .env file")
			} else {
				logger.WithField("file", envFile).Debug("Loaded environment variables")
			}
		}
	}
}

func main() {
	logger := logging.GetLogger()

	loadEnvironment()

	var configFile string
	var outputFile string
	var logLevel string

	rootCmd := &cobra.Command{
		Use:   "fpga-bench",
		Short: "FPGA instance throughput benchmark",
		Long:  "A host-side benchmark suite that estimates FPGA-instance throughput by simulating accelerator workloads while sampling system resource utilization",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if logLevel != "" {
				if err := logging.SetLogLevel(logLevel); err != nil {
					return fmt.Errorf("invalid log level: %w", err)
				}
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set log level (trace, debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark suite",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmark(configFile, outputFile)
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a benchmark configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig(configFile)
		},
	}

	runCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to benchmark configuration file")
	runCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Report file name (default: timestamped)")
	runCmd.MarkFlagRequired("config")

	validateCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to benchmark configuration file")
	validateCmd.MarkFlagRequired("config")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.WithError(err).Fatal("Command execution failed")
	}
}

func validateConfig(configFile string) error {
	logger := logging.GetLogger()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"benchmark": cfg.Benchmark.Name,
		"units":     cfg.Benchmark.Workloads.ParallelUnitCount,
	}).Info("Configuration is valid")
	return nil
}

func runBenchmark(configFile, outputFile string) error {
	logger := logging.GetLogger()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}

	if cfg.Benchmark.LogLevel != "" {
		if err := logging.SetLogLevel(cfg.Benchmark.LogLevel); err != nil {
			logger.WithField("log_level", cfg.Benchmark.LogLevel).Warn("Ignoring invalid log level from config")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	meta := host.GetHostConfig().InstanceContext(cfg.Benchmark.Workloads.ParallelUnitCount)
	rep, err := bench.Run(ctx, cfg, meta)
	if err != nil {
		return err
	}

	path, err := report.Write(cfg.Benchmark.Output.Dir, outputFile, rep)
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	logger.WithField("path", path).Info("Report written")

	// The Influx export is best effort: a missing or unreachable sink
	// never discards an already written report.
	if db := cfg.Benchmark.Data.DB; db != nil {
		exportReport(*db, rep)
	}

	printSummary(rep)
	return nil
}

func exportReport(dbCfg config.DatabaseConfig, rep *report.BenchmarkReport) {
	logger := logging.GetLogger()

	client, err := database.NewInfluxDBClient(dbCfg)
	if err != nil {
		logger.WithError(err).Warn("Skipping InfluxDB export")
		return
	}
	defer client.Close()

	if err := client.WriteReport(rep); err != nil {
		logger.WithError(err).Warn("Failed to export report to InfluxDB")
		return
	}
	logger.Info("Report exported to InfluxDB")
}

func printSummary(rep *report.BenchmarkReport) {
	logger := logging.GetLogger()
	summary := rep.PerformanceSummary

	logger.WithFields(logrus.Fields{
		"peak_memory_bandwidth_gbps": summary.PeakMemoryBandwidthGbps,
		"peak_pcie_throughput_gbps":  summary.PeakPCIeThroughputGbps,
		"peak_ops_per_second":        summary.PeakOpsPerSecond,
		"aggregate_parallel_gops":    summary.AggregateParallelGops,
		"overall_status":             rep.OverallStatus,
	}).Info("Benchmark summary")
}
