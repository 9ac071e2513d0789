package sandbox

import (
	"testing"
	"time"
)

func TestDefaultDockerConfig(t *testing.T) {
	cfg := DefaultDockerConfig()

	if cfg.WallTimeLimit != 10*time.Second {
		t.Errorf("WallTimeLimit = %v, want 10s", cfg.WallTimeLimit)
	}
	if cfg.MemoryLimitMB != 128 {
		t.Errorf("MemoryLimitMB = %d, want 128", cfg.MemoryLimitMB)
	}
	if cfg.CPUQuota != 50000 {
		t.Errorf("CPUQuota = %d, want 50000", cfg.CPUQuota)
	}
	if cfg.PidsLimit != 64 {
		t.Errorf("PidsLimit = %d, want 64", cfg.PidsLimit)
	}
}

func TestStatusValues(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusAccepted, "Accepted"},
		{StatusCompilationError, "Compilation Error"},
		{StatusRuntimeError, "Runtime Error"},
		{StatusTimeLimitExceeded, "Time Limit Exceeded"},
		{StatusInternalError, "Internal Error"},
	}

	for _, tt := range tests {
		if string(tt.status) != tt.want {
			t.Errorf("status = %q, want %q", tt.status, tt.want)
		}
	}
}
