package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

func DefaultOutputDir() string {
	if v := strings.TrimSpace(os.Getenv("FPGA_BENCH_OUTPUT_DIR")); v != "" {
		return v
	}
	return "results"
}

// Write serializes the report to disk atomically and returns the final
// file path. When filename is empty a timestamped name is generated so
// consecutive runs never overwrite each other.
func Write(dir, filename string, rep *BenchmarkReport) (string, error) {
	if rep == nil {
		return "", fmt.Errorf("benchmark report is nil")
	}
	if dir == "" {
		dir = DefaultOutputDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	if filename == "" {
		filename = fmt.Sprintf(
			"fpga_benchmark_%s.json",
			time.Now().UTC().Format("20060102T150405Z"),
		)
	}
	finalPath := filepath.Join(dir, filename)

	tmp, err := os.CreateTemp(dir, filename+".tmp.*")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()

	ok := false
	defer func() {
		_ = tmp.Close()
		if !ok {
			_ = os.Remove(tmpPath)
		}
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", err
	}
	ok = true
	return finalPath, nil
}
