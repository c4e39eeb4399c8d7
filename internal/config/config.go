package config

import "time"

// ClientConfig is the root configuration of a livesocket client.
type ClientConfig struct {
	Endpoint  string          `yaml:"endpoint"`
	Transport string          `yaml:"transport"` // "ws" or "tcp"
	Heartbeat HeartbeatConfig `yaml:"heartbeat"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
	Network   NetworkConfig   `yaml:"network"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Log       LogConfig       `yaml:"log"`
}

// HeartbeatConfig holds the liveness protocol settings.
type HeartbeatConfig struct {
	Payload  string        `yaml:"payload"`
	Interval time.Duration `yaml:"interval"`
}

// ReconnectConfig holds the reconnect policy.
type ReconnectConfig struct {
	Interval    time.Duration `yaml:"interval"`
	MaxAttempts *uint         `yaml:"max_attempts"` // nil = default, 0 disables reconnects
}

// NetworkConfig holds the reachability probe settings. Probing is
// disabled when no address is configured.
type NetworkConfig struct {
	ProbeAddresses []string      `yaml:"probe_addresses"`
	ProbeInterval  time.Duration `yaml:"probe_interval"`
	ProbeTimeout   time.Duration `yaml:"probe_timeout"`
	OfflineGrace   time.Duration `yaml:"offline_grace"`
}

// MetricsConfig holds Prometheus metrics settings. Metrics are not
// served when Listen is empty.
type MetricsConfig struct {
	Listen    string `yaml:"listen"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}
