package livesocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// session end causes, the "cause" label of sessions_ended_total
const (
	endNormal           = "normal"
	endAbnormal         = "abnormal"
	endError            = "error"
	endHeartbeatTimeout = "heartbeat_timeout"
)

// inbound payload kinds, the "kind" label of payloads_received_total
const (
	payloadMessage      = "message"
	payloadHeartbeatAck = "heartbeat_ack"
	payloadInvalid      = "invalid"
)

// Metrics Prometheus collectors describing a manager. A nil *Metrics
// records nothing.
type Metrics struct {
	State               prometheus.Gauge
	ConnectAttempts     prometheus.Counter
	ReconnectsScheduled prometheus.Counter
	SessionsEnded       *prometheus.CounterVec
	HeartbeatsSent      prometheus.Counter
	PayloadsReceived    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. Use
// prometheus.DefaultRegisterer to expose them on the default handler.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		State: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "livesocket",
			Name:      "connection_state",
			Help:      "Current connection state (0=disconnected, 1=connecting, 2=connected, 3=disconnecting)",
		}),
		ConnectAttempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "livesocket",
			Name:      "connect_attempts_total",
			Help:      "Transports opened towards the endpoint",
		}),
		ReconnectsScheduled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "livesocket",
			Name:      "reconnects_scheduled_total",
			Help:      "Automatic reconnect attempts scheduled",
		}),
		SessionsEnded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "livesocket",
			Name:      "sessions_ended_total",
			Help:      "Sessions ended (cause=normal/abnormal/error/heartbeat_timeout)",
		}, []string{"cause"}),
		HeartbeatsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "livesocket",
			Name:      "heartbeats_sent_total",
			Help:      "Heartbeat payloads sent",
		}),
		PayloadsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "livesocket",
			Name:      "payloads_received_total",
			Help:      "Inbound payloads (kind=message/heartbeat_ack/invalid)",
		}, []string{"kind"}),
	}
}

func (m *Metrics) setState(s ConnectionState) {
	if m == nil {
		return
	}
	m.State.Set(float64(s))
}

func (m *Metrics) connectAttempt() {
	if m == nil {
		return
	}
	m.ConnectAttempts.Inc()
}

func (m *Metrics) reconnectScheduled() {
	if m == nil {
		return
	}
	m.ReconnectsScheduled.Inc()
}

func (m *Metrics) sessionEnded(cause string) {
	if m == nil {
		return
	}
	m.SessionsEnded.WithLabelValues(cause).Inc()
}

func (m *Metrics) heartbeatSent() {
	if m == nil {
		return
	}
	m.HeartbeatsSent.Inc()
}

func (m *Metrics) received(kind string) {
	if m == nil {
		return
	}
	m.PayloadsReceived.WithLabelValues(kind).Inc()
}
