package config

import (
	"testing"
	"time"
)

func TestLoadTimeouts_Defaults(t *testing.T) {
	tm := LoadTimeouts()

	if tm.ReadinessBudget != 15*time.Minute {
		t.Errorf("ReadinessBudget = %v", tm.ReadinessBudget)
	}
	if tm.ReadinessInterval != 30*time.Second {
		t.Errorf("ReadinessInterval = %v", tm.ReadinessInterval)
	}
	if tm.RetryMaxAttempts != 5 {
		t.Errorf("RetryMaxAttempts = %d", tm.RetryMaxAttempts)
	}
}

func TestLoadTimeouts_EnvOverride(t *testing.T) {
	t.Setenv("PIPEWRIGHT_TIMEOUT_READINESS", "90s")
	t.Setenv("PIPEWRIGHT_RETRY_MAX_ATTEMPTS", "2")

	tm := LoadTimeouts()

	if tm.ReadinessBudget != 90*time.Second {
		t.Errorf("ReadinessBudget = %v, want 90s", tm.ReadinessBudget)
	}
	if tm.RetryMaxAttempts != 2 {
		t.Errorf("RetryMaxAttempts = %d, want 2", tm.RetryMaxAttempts)
	}
}

func TestLoadTimeouts_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv("PIPEWRIGHT_TIMEOUT_READINESS", "not-a-duration")
	t.Setenv("PIPEWRIGHT_RETRY_MAX_ATTEMPTS", "many")

	tm := LoadTimeouts()

	if tm.ReadinessBudget != 15*time.Minute {
		t.Errorf("ReadinessBudget = %v, want default", tm.ReadinessBudget)
	}
	if tm.RetryMaxAttempts != 5 {
		t.Errorf("RetryMaxAttempts = %d, want default", tm.RetryMaxAttempts)
	}
}
