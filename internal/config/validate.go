package config

import (
	"errors"
	"fmt"
	"net/url"

	log "github.com/sirupsen/logrus"
)

// Validate checks that all required fields are set and values are valid.
func (c *ClientConfig) Validate() error {
	if c.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("endpoint: %w", err)
	}

	switch c.Transport {
	case "ws":
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("endpoint scheme must be ws or wss for the ws transport, got %q", u.Scheme)
		}
	case "tcp":
		if u.Scheme != "tcp" && u.Scheme != "tcps" {
			return fmt.Errorf("endpoint scheme must be tcp or tcps for the tcp transport, got %q", u.Scheme)
		}
	default:
		return fmt.Errorf("transport must be ws or tcp, got %q", c.Transport)
	}

	if c.Heartbeat.Interval <= 0 {
		return errors.New("heartbeat.interval must be positive")
	}
	if c.Reconnect.Interval <= 0 {
		return errors.New("reconnect.interval must be positive")
	}
	if c.Network.OfflineGrace < DefaultOfflineGrace {
		return fmt.Errorf("network.offline_grace must be >= %v, got %v", DefaultOfflineGrace, c.Network.OfflineGrace)
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	return nil
}
