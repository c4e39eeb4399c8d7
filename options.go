package livesocket

import (
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"
)

// minOfflineGrace lower bound of the delay before a connect attempt made
// while offline settles back to Disconnected
const minOfflineGrace = 500 * time.Millisecond

// options contains configurable settings for a manager
type options struct {
	heartbeatPayload     []byte
	heartbeatInterval    time.Duration
	reconnectInterval    time.Duration
	reconnectStep        time.Duration
	maxReconnectAttempts uint
	offlineGrace         time.Duration
	network              NetworkMonitor
	clock                clock.Clock
	logger               *log.Entry
	metrics              *Metrics
}

var defaultOptions = options{
	heartbeatPayload:     []byte(`{"msg_id":0}`),
	heartbeatInterval:    60 * time.Second,
	reconnectInterval:    5 * time.Second,
	reconnectStep:        time.Second,
	maxReconnectAttempts: 10,
	offlineGrace:         minOfflineGrace,
}

// Option configures a Manager
type Option func(*options) error

// WithHeartbeatPayload payload sent after a heartbeat interval without traffic
func WithHeartbeatPayload(payload []byte) Option {
	return func(o *options) error {
		o.heartbeatPayload = append([]byte(nil), payload...)
		return nil
	}
}

// WithHeartbeatInterval inactivity period after which a heartbeat is sent. The
// same period is allowed for any inbound traffic before the connection is
// considered dead.
func WithHeartbeatInterval(interval time.Duration) Option {
	return func(o *options) error {
		if interval <= 0 {
			return fmt.Errorf("heartbeat interval must be positive, got %v", interval)
		}
		o.heartbeatInterval = interval
		return nil
	}
}

// WithReconnectInterval minimum delay before a reconnect attempt
func WithReconnectInterval(interval time.Duration) Option {
	return func(o *options) error {
		if interval <= 0 {
			return fmt.Errorf("reconnect interval must be positive, got %v", interval)
		}
		o.reconnectInterval = interval
		return nil
	}
}

// WithMaxReconnectAttempts number of automatic reconnects scheduled before
// the manager parks in Disconnected. Zero disables automatic reconnects.
func WithMaxReconnectAttempts(attempts uint) Option {
	return func(o *options) error {
		o.maxReconnectAttempts = attempts
		return nil
	}
}

// WithOfflineGrace delay before a connect made while offline settles to
// Disconnected. Values below 500ms are rejected.
func WithOfflineGrace(grace time.Duration) Option {
	return func(o *options) error {
		if grace < minOfflineGrace {
			return fmt.Errorf("offline grace must be at least %v, got %v", minOfflineGrace, grace)
		}
		o.offlineGrace = grace
		return nil
	}
}

// WithNetworkMonitor source of the network reachability checked on connect
func WithNetworkMonitor(network NetworkMonitor) Option {
	return func(o *options) error {
		if network == nil {
			return errors.New("network monitor must not be nil")
		}
		o.network = network
		return nil
	}
}

// WithClock clock used for the heartbeat, reconnect and grace timers
func WithClock(c clock.Clock) Option {
	return func(o *options) error {
		o.clock = c
		return nil
	}
}

// WithLogger logger entry, the manager adds its own fields to it
func WithLogger(logger *log.Entry) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// WithMetrics records the manager activity in the given collectors
func WithMetrics(m *Metrics) Option {
	return func(o *options) error {
		o.metrics = m
		return nil
	}
}

func buildOptions(opt ...Option) (options, error) {
	opts := defaultOptions
	opts.heartbeatPayload = append([]byte(nil), defaultOptions.heartbeatPayload...)

	for _, o := range opt {
		if err := o(&opts); err != nil {
			return opts, err
		}
	}

	if opts.network == nil {
		opts.network = AlwaysOnline
	}
	if opts.clock == nil {
		opts.clock = clock.New()
	}
	if opts.logger == nil {
		opts.logger = log.WithField("component", "livesocket")
	}
	return opts, nil
}

// reconnectDelay delay before the reconnect attempt that follows the given
// number of already scheduled attempts. The delay grows by whole steps per
// attempt and never falls below the base interval.
func (o *options) reconnectDelay(attempts uint) time.Duration {
	delay := time.Duration(attempts) * o.reconnectStep
	if delay < o.reconnectInterval {
		return o.reconnectInterval
	}
	return delay
}
