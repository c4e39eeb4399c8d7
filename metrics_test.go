package livesocket

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecordLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "test")

	h := newHarness(t, WithMetrics(metrics), WithHeartbeatInterval(time.Second))
	tr := h.connected()
	assert.Equal(t, float64(Connected), testutil.ToFloat64(metrics.State))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.ConnectAttempts))

	tr.message(`{"msg_id":0}`)
	tr.message(`{"msg_id":3}`)
	tr.message(`{oops`)
	h.drain()
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.PayloadsReceived.WithLabelValues(payloadHeartbeatAck)))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.PayloadsReceived.WithLabelValues(payloadMessage)))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.PayloadsReceived.WithLabelValues(payloadInvalid)))

	h.advance(time.Second)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.HeartbeatsSent))
	h.advance(time.Second)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.SessionsEnded.WithLabelValues(endHeartbeatTimeout)))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.ReconnectsScheduled))
	assert.Equal(t, float64(Disconnected), testutil.ToFloat64(metrics.State))

	h.advance(5 * time.Second)
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.ConnectAttempts))
	h.do(disconnectCmd{})
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.SessionsEnded.WithLabelValues(endNormal)))
}

func TestMetricsRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "test")
	metrics.sessionEnded(endError)
	metrics.received(payloadMessage)

	n, err := testutil.GatherAndCount(reg)
	assert.NoError(t, err)
	assert.Equal(t, 6, n)
}

func TestNilMetrics(t *testing.T) {
	var metrics *Metrics
	assert.NotPanics(t, func() {
		metrics.setState(Connected)
		metrics.connectAttempt()
		metrics.reconnectScheduled()
		metrics.sessionEnded(endNormal)
		metrics.heartbeatSent()
		metrics.received(payloadMessage)
	})
}
