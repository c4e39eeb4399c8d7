package livesocket

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTimers() (*timers, *clock.Mock, chan timerFired) {
	mock := clock.NewMock()
	fired := make(chan timerFired, 16)
	tm := newTimers(mock, func(ev interface{}, cancel <-chan struct{}) {
		fired <- ev.(timerFired)
	})
	return tm, mock, fired
}

func receiveFired(t *testing.T, fired <-chan timerFired) timerFired {
	t.Helper()
	select {
	case ev := <-fired:
		return ev
	case <-time.After(time.Second):
		require.FailNow(t, "timer did not fire")
	}
	return timerFired{}
}

func TestTimerFires(t *testing.T) {
	tm, mock, fired := newTestTimers()

	tm.start(reconnectTimer, time.Second)
	assert.True(t, tm.isPending(reconnectTimer))
	assert.Equal(t, 1, tm.pendingCount())

	mock.Add(time.Second)
	ev := receiveFired(t, fired)
	assert.Equal(t, reconnectTimer, ev.kind)
	assert.True(t, tm.expire(ev))
	assert.False(t, tm.isPending(reconnectTimer))

	// consumed once
	assert.False(t, tm.expire(ev))
}

func TestTimerRestartCancelsPending(t *testing.T) {
	tm, mock, fired := newTestTimers()

	tm.start(heartbeatSendTimer, time.Second)
	tm.start(heartbeatSendTimer, 2*time.Second)
	assert.Equal(t, 1, tm.pendingCount())

	mock.Add(time.Second)
	select {
	case ev := <-fired:
		t.Fatalf("cancelled timer fired: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}

	mock.Add(time.Second)
	ev := receiveFired(t, fired)
	assert.True(t, tm.expire(ev))
}

func TestTimerStaleToken(t *testing.T) {
	tm, mock, fired := newTestTimers()

	tm.start(heartbeatTimeoutTimer, time.Second)
	mock.Add(time.Second)
	ev := receiveFired(t, fired)

	// rescheduled after firing but before the event was consumed
	tm.start(heartbeatTimeoutTimer, time.Second)
	assert.False(t, tm.expire(ev))
	assert.True(t, tm.isPending(heartbeatTimeoutTimer))

	tm.stop(heartbeatTimeoutTimer)
	assert.False(t, tm.expire(ev))
}

func TestTimerStopAll(t *testing.T) {
	tm, mock, fired := newTestTimers()

	tm.start(heartbeatSendTimer, time.Second)
	tm.start(heartbeatTimeoutTimer, time.Second)
	tm.start(reconnectTimer, time.Second)
	tm.start(offlineGraceTimer, time.Second)
	assert.Equal(t, 4, tm.pendingCount())

	tm.stopAll()
	assert.Zero(t, tm.pendingCount())

	mock.Add(time.Minute)
	select {
	case ev := <-fired:
		t.Fatalf("stopped timer fired: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTimerKindString(t *testing.T) {
	assert.Equal(t, "heartbeat-send", heartbeatSendTimer.String())
	assert.Equal(t, "heartbeat-timeout", heartbeatTimeoutTimer.String())
	assert.Equal(t, "reconnect", reconnectTimer.String())
	assert.Equal(t, "offline-grace", offlineGraceTimer.String())
}
