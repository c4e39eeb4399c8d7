package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultTransport            = "ws"
	DefaultHeartbeatPayload     = `{"msg_id":0}`
	DefaultHeartbeatInterval    = 60 * time.Second
	DefaultReconnectInterval    = 5 * time.Second
	DefaultMaxReconnectAttempts = uint(10)
	DefaultProbeInterval        = 10 * time.Second
	DefaultProbeTimeout         = 3 * time.Second
	DefaultOfflineGrace         = 500 * time.Millisecond
	DefaultMetricsPath          = "/metrics"
	DefaultMetricsNamespace     = "livesocket"
	DefaultLogLevel             = "info"
	DefaultLogFormat            = "text"
)

func (c *ClientConfig) applyDefaults() {
	if c.Transport == "" {
		c.Transport = DefaultTransport
	}

	if c.Heartbeat.Payload == "" {
		c.Heartbeat.Payload = DefaultHeartbeatPayload
	}
	if c.Heartbeat.Interval == 0 {
		c.Heartbeat.Interval = DefaultHeartbeatInterval
	}

	if c.Reconnect.Interval == 0 {
		c.Reconnect.Interval = DefaultReconnectInterval
	}
	if c.Reconnect.MaxAttempts == nil {
		attempts := DefaultMaxReconnectAttempts
		c.Reconnect.MaxAttempts = &attempts
	}

	if c.Network.ProbeInterval == 0 {
		c.Network.ProbeInterval = DefaultProbeInterval
	}
	if c.Network.ProbeTimeout == 0 {
		c.Network.ProbeTimeout = DefaultProbeTimeout
	}
	if c.Network.OfflineGrace == 0 {
		c.Network.OfflineGrace = DefaultOfflineGrace
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}
