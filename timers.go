package livesocket

import (
	"time"

	"github.com/benbjohnson/clock"
)

type timerKind int

const (
	heartbeatSendTimer timerKind = iota
	heartbeatTimeoutTimer
	reconnectTimer
	offlineGraceTimer
	numTimerKinds
)

var timerKindText = map[timerKind]string{
	heartbeatSendTimer:    "heartbeat-send",
	heartbeatTimeoutTimer: "heartbeat-timeout",
	reconnectTimer:        "reconnect",
	offlineGraceTimer:     "offline-grace",
}

func (k timerKind) String() string {
	return timerKindText[k]
}

// timerFired is posted to the manager loop when a timer expires. The token
// identifies the scheduling, a fired event whose token no longer matches the
// pending timer of its kind was cancelled and is ignored.
type timerFired struct {
	kind  timerKind
	token uint64
}

type pendingTimer struct {
	timer *clock.Timer
	token uint64
}

// timers keeps at most one pending timer per kind. It is owned by the
// manager loop and is not safe for concurrent use, only the expiry
// callbacks run on other goroutines and they touch nothing but post.
type timers struct {
	clock   clock.Clock
	post    postFunc
	seq     uint64
	pending [numTimerKinds]*pendingTimer
}

func newTimers(c clock.Clock, post postFunc) *timers {
	return &timers{clock: c, post: post}
}

// start schedules a timer of the given kind, cancelling the pending one
func (t *timers) start(kind timerKind, d time.Duration) {
	t.stop(kind)
	t.seq++
	fired := timerFired{kind: kind, token: t.seq}
	t.pending[kind] = &pendingTimer{
		token: fired.token,
		timer: t.clock.AfterFunc(d, func() {
			t.post(fired, nil)
		}),
	}
}

func (t *timers) stop(kind timerKind) {
	if p := t.pending[kind]; p != nil {
		p.timer.Stop()
		t.pending[kind] = nil
	}
}

func (t *timers) stopAll() {
	for kind := timerKind(0); kind < numTimerKinds; kind++ {
		t.stop(kind)
	}
}

// expire consumes a fired event. It returns false when the timer was
// cancelled or rescheduled after it fired.
func (t *timers) expire(ev timerFired) bool {
	p := t.pending[ev.kind]
	if p == nil || p.token != ev.token {
		return false
	}
	t.pending[ev.kind] = nil
	return true
}

func (t *timers) isPending(kind timerKind) bool {
	return t.pending[kind] != nil
}

func (t *timers) pendingCount() int {
	n := 0
	for _, p := range t.pending {
		if p != nil {
			n++
		}
	}
	return n
}
