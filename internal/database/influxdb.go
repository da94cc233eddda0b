// Package database exports benchmark results to InfluxDB so runs on
// different instance types can be compared over time. The export is
// optional: the JSON report written by the report package is the
// primary artifact.
package database

import (
	"context"
	"fmt"
	"time"

	"fpga-bench/internal/config"
	"fpga-bench/internal/logging"
	"fpga-bench/internal/report"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/sirupsen/logrus"
)

type InfluxDBClient struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	bucket   string
	org      string
}

func NewInfluxDBClient(cfg config.DatabaseConfig) (*InfluxDBClient, error) {
	logger := logging.GetLogger()

	client := influxdb2.NewClient(cfg.Host, cfg.Token)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	health, err := client.Health(ctx)
	if err != nil {
		logger.WithField("host", cfg.Host).WithError(err).Error("Failed to connect to InfluxDB")
		return nil, err
	}
	if health.Status != "pass" {
		logger.WithFields(logrus.Fields{
			"host":   cfg.Host,
			"status": health.Status,
		}).Error("InfluxDB health check failed")
		return nil, fmt.Errorf("influxdb health check returned status %q", health.Status)
	}

	logger.WithFields(logrus.Fields{
		"host":   cfg.Host,
		"bucket": cfg.Bucket,
		"org":    cfg.Org,
	}).Info("Connected to InfluxDB")

	return &InfluxDBClient{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		bucket:   cfg.Bucket,
		org:      cfg.Org,
	}, nil
}

// WriteReport pushes the resource series and the summary scalars. Each
// sample becomes one point so the series can be graphed against other
// benchmark runs.
func (idb *InfluxDBClient) WriteReport(rep *report.BenchmarkReport) error {
	ctx := context.Background()

	tags := map[string]string{
		"benchmark_name": rep.BenchmarkName,
		"driver_version": rep.DriverVersion,
	}

	var points []*write.Point
	for _, sample := range rep.ResourceSeries {
		fields := map[string]interface{}{
			"cpu_percent":       sample.CPUPercent,
			"memory_used_bytes": int64(sample.MemoryUsedBytes),
		}
		if sample.Perf != nil {
			if sample.Perf.Instructions != nil {
				fields["perf_instructions"] = int64(*sample.Perf.Instructions)
			}
			if sample.Perf.Cycles != nil {
				fields["perf_cycles"] = int64(*sample.Perf.Cycles)
			}
			if sample.Perf.InstructionsPerCycle != nil {
				fields["perf_ipc"] = *sample.Perf.InstructionsPerCycle
			}
		}
		points = append(points, influxdb2.NewPoint("resource_sample", tags, fields, sample.Timestamp))
	}

	summary := rep.PerformanceSummary
	points = append(points, influxdb2.NewPoint("benchmark_summary", tags,
		map[string]interface{}{
			"peak_memory_bandwidth_gbps": summary.PeakMemoryBandwidthGbps,
			"peak_pcie_throughput_gbps":  summary.PeakPCIeThroughputGbps,
			"peak_ops_per_second":        summary.PeakOpsPerSecond,
			"aggregate_parallel_gops":    summary.AggregateParallelGops,
			"overall_status":             rep.OverallStatus,
			"sampler_gaps":               rep.SamplerGaps,
		},
		time.Now()))

	if err := idb.writeAPI.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("failed to write benchmark points: %w", err)
	}
	return nil
}

func (idb *InfluxDBClient) Close() {
	idb.client.Close()
}
