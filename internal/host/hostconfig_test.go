package host

import (
	"testing"
)

func TestGetHostConfig(t *testing.T) {
	cfg := GetHostConfig()
	if cfg == nil {
		t.Fatalf("host config must always be available")
	}
	if cfg.Hostname == "" {
		t.Fatalf("hostname must be populated")
	}
	if cfg.TotalThreads < 1 {
		t.Fatalf("expected at least one cpu thread, got %d", cfg.TotalThreads)
	}

	// The config is initialized once and shared.
	if GetHostConfig() != cfg {
		t.Fatalf("host config must be a singleton")
	}
}

func TestInstanceContextKeys(t *testing.T) {
	ctx := GetHostConfig().InstanceContext(8)

	for _, key := range []string{"hostname", "os", "kernel_version", "cpu_model", "cpu_cores", "memory_bytes", "simulated_fpga_count"} {
		if _, ok := ctx[key]; !ok {
			t.Fatalf("missing instance context key %q", key)
		}
	}
	if ctx["simulated_fpga_count"] != 8 {
		t.Fatalf("expected simulated unit count pass-through, got %v", ctx["simulated_fpga_count"])
	}
}
