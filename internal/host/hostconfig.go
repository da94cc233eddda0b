package host

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"fpga-bench/internal/logging"

	"github.com/shirou/gopsutil/v4/mem"
)

// HostConfig describes the machine the benchmark runs on. It is
// initialized once at startup and passed through into the report's
// instance context untouched by the engine.
type HostConfig struct {
	Hostname      string
	OSInfo        string
	KernelVersion string

	CPUVendor    string
	CPUModel     string
	TotalCores   int
	TotalThreads int

	TotalMemoryBytes uint64
}

var (
	globalHostConfig *HostConfig
	hostConfigOnce   sync.Once
)

// GetHostConfig returns the host configuration, initializing it on the
// first call. Discovery is best effort: unreadable fields fall back to
// "unknown" rather than failing the run.
func GetHostConfig() *HostConfig {
	hostConfigOnce.Do(func() {
		globalHostConfig = initializeHostConfig()
	})
	return globalHostConfig
}

func initializeHostConfig() *HostConfig {
	logger := logging.GetLogger()
	logger.Debug("Initializing host configuration")

	config := &HostConfig{
		OSInfo:        runtime.GOOS + "/" + runtime.GOARCH,
		KernelVersion: "unknown",
		CPUVendor:     "unknown",
		CPUModel:      "unknown",
		TotalThreads:  runtime.NumCPU(),
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	config.Hostname = hostname

	if data, err := os.ReadFile("/proc/version"); err == nil {
		parts := strings.Fields(string(data))
		if len(parts) >= 3 {
			config.KernelVersion = parts[2]
		}
	}

	config.initCPUInfo()

	if vm, err := mem.VirtualMemory(); err == nil {
		config.TotalMemoryBytes = vm.Total
	} else {
		logger.WithError(err).Warn("Failed to read total memory")
	}

	return config
}

func (c *HostConfig) initCPUInfo() {
	data, err := os.ReadFile("/proc/cpuinfo")
	if err != nil {
		c.TotalCores = runtime.NumCPU()
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "vendor_id":
			c.CPUVendor = value
		case "model name":
			c.CPUModel = value
		case "cpu cores":
			if cores, err := strconv.Atoi(value); err == nil && cores > c.TotalCores {
				c.TotalCores = cores
			}
		}
	}

	if c.TotalCores == 0 {
		c.TotalCores = runtime.NumCPU()
	}
}

// InstanceContext renders the host description as the opaque metadata
// map embedded in the benchmark report. simulatedUnits is the number of
// FPGA units the parallel phase models on this host.
func (c *HostConfig) InstanceContext(simulatedUnits int) map[string]interface{} {
	return map[string]interface{}{
		"hostname":             c.Hostname,
		"os":                   c.OSInfo,
		"kernel_version":       c.KernelVersion,
		"cpu_vendor":           c.CPUVendor,
		"cpu_model":            c.CPUModel,
		"cpu_cores":            c.TotalCores,
		"cpu_threads":          c.TotalThreads,
		"memory_bytes":         c.TotalMemoryBytes,
		"simulated_fpga_count": simulatedUnits,
	}
}
