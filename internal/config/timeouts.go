package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timeout values.
// These values can be customized via environment variables.
type Timeouts struct {
	ReadinessBudget   time.Duration // Wall-clock budget for the cluster readiness wait
	ReadinessInterval time.Duration // Interval between cluster state polls
	ServerCreate      time.Duration // Timeout for server creation operations
	DeployWait        time.Duration // Timeout for deployment availability
	MonitorWindow     time.Duration // Window for the post-deploy health check
	StageTimeout      time.Duration // Upper bound for any single pipeline stage
	Shutdown          time.Duration // Graceful HTTP shutdown timeout
	RetryMaxAttempts  int           // Maximum number of retry attempts
	RetryInitialDelay time.Duration // Initial delay between retries
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - PIPEWRIGHT_TIMEOUT_READINESS (default: 15m)
//   - PIPEWRIGHT_READINESS_INTERVAL (default: 30s)
//   - PIPEWRIGHT_TIMEOUT_SERVER_CREATE (default: 10m)
//   - PIPEWRIGHT_TIMEOUT_DEPLOY (default: 5m)
//   - PIPEWRIGHT_MONITOR_WINDOW (default: 3m)
//   - PIPEWRIGHT_TIMEOUT_STAGE (default: 30m)
//   - PIPEWRIGHT_TIMEOUT_SHUTDOWN (default: 15s)
//   - PIPEWRIGHT_RETRY_MAX_ATTEMPTS (default: 5)
//   - PIPEWRIGHT_RETRY_INITIAL_DELAY (default: 1s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		ReadinessBudget:   parseDuration("PIPEWRIGHT_TIMEOUT_READINESS", 15*time.Minute),
		ReadinessInterval: parseDuration("PIPEWRIGHT_READINESS_INTERVAL", 30*time.Second),
		ServerCreate:      parseDuration("PIPEWRIGHT_TIMEOUT_SERVER_CREATE", 10*time.Minute),
		DeployWait:        parseDuration("PIPEWRIGHT_TIMEOUT_DEPLOY", 5*time.Minute),
		MonitorWindow:     parseDuration("PIPEWRIGHT_MONITOR_WINDOW", 3*time.Minute),
		StageTimeout:      parseDuration("PIPEWRIGHT_TIMEOUT_STAGE", 30*time.Minute),
		Shutdown:          parseDuration("PIPEWRIGHT_TIMEOUT_SHUTDOWN", 15*time.Second),
		RetryMaxAttempts:  parseInt("PIPEWRIGHT_RETRY_MAX_ATTEMPTS", 5),
		RetryInitialDelay: parseDuration("PIPEWRIGHT_RETRY_INITIAL_DELAY", 1*time.Second),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return n
}
