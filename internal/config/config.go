package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	SimLink  SimLinkConfig
	Control  ControlConfig
	Advisory AdvisoryConfig
	Storage  StorageConfig
	Metrics  MetricsConfig
}

// SimLinkConfig holds simulator TCP connection settings.
type SimLinkConfig struct {
	Host           string
	Port           int
	Timeout        time.Duration
	AppName        string
	PollInterval   time.Duration
	StaleThreshold time.Duration
}

// ControlConfig holds decision- and reapply-loop timing.
type ControlConfig struct {
	DecisionInterval time.Duration
	ReapplyInterval  time.Duration
	SampleInterval   time.Duration
}

// AdvisoryConfig holds advisory-loop settings. An empty AdvisorURL disables
// the advisory loop entirely.
type AdvisoryConfig struct {
	Interval       time.Duration
	AdvisorURL     string
	AdvisorTimeout time.Duration
	AttemptLimit   int
}

// StorageConfig holds the on-disk state directory.
type StorageConfig struct {
	DataDir string
}

// MetricsConfig holds the optional Prometheus listener address.
// An empty Addr disables the listener.
type MetricsConfig struct {
	Addr string
}

// Load reads configuration from environment variables, falling back to defaults.
func Load() Config {
	return Config{
		SimLink: SimLinkConfig{
			Host:           getEnvString("SIMLINK_HOST", "127.0.0.1"),
			Port:           getEnvInt("SIMLINK_PORT", 4500),
			Timeout:        getEnvDuration("SIMLINK_TIMEOUT", 10*time.Second),
			AppName:        getEnvString("SIMLINK_APP_NAME", "autoflight"),
			PollInterval:   getEnvDuration("SIMLINK_POLL_INTERVAL", 33*time.Millisecond),
			StaleThreshold: getEnvDuration("SIMLINK_STALE_THRESHOLD", 2*time.Second),
		},
		Control: ControlConfig{
			DecisionInterval: getEnvDuration("DECISION_INTERVAL", 33*time.Millisecond),
			ReapplyInterval:  getEnvDuration("REAPPLY_INTERVAL", 8*time.Millisecond),
			SampleInterval:   getEnvDuration("TELEMETRY_SAMPLE_INTERVAL", 2*time.Second),
		},
		Advisory: AdvisoryConfig{
			Interval:       getEnvDuration("ADVISORY_INTERVAL", 60*time.Second),
			AdvisorURL:     getEnvString("ADVISOR_URL", ""),
			AdvisorTimeout: getEnvDuration("ADVISOR_TIMEOUT", 45*time.Second),
			AttemptLimit:   getEnvInt("ADVISORY_ATTEMPT_LIMIT", 5),
		},
		Storage: StorageConfig{
			DataDir: getEnvString("AUTOFLIGHT_DATA_DIR", "data"),
		},
		Metrics: MetricsConfig{
			Addr: getEnvString("METRICS_ADDR", ""),
		},
	}
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
