package livesocket

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// postFunc hands an event to the goroutine that owns the machine. The post
// is abandoned when cancel is closed.
type postFunc func(ev interface{}, cancel <-chan struct{})

// commands posted by the public API
type (
	connectCmd       struct{}
	connectIfIdleCmd struct{}
	disconnectCmd    struct{}
	retryCmd         struct{}
	sendCmd          struct {
		data   []byte
		result chan<- error
	}
)

// sendQueueSize number of writes a session buffers while its transport is
// busy. Writes beyond it are refused instead of blocking the machine.
const sendQueueSize = 16

// events posted by a transport through its session
type (
	transportOpened struct {
		sess *session
	}
	transportMessage struct {
		sess *session
		data []byte
		at   time.Time
	}
	transportClosed struct {
		sess   *session
		code   int
		reason string
	}
	transportFailed struct {
		sess *session
		err  error
	}
)

// outbound is a write waiting for the session writer. A heartbeat has no
// result, its failure ends the session instead.
type outbound struct {
	data      []byte
	heartbeat bool
	result    chan<- error
}

// session is the TransportHandler of a single transport. Once detached it
// drops every callback, including posts that are blocked at that moment.
type session struct {
	id        string
	transport Transport
	post      postFunc
	clock     func() time.Time
	out       chan outbound
	detached  atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

func newSession(post postFunc, now func() time.Time) *session {
	return &session{
		id:    uuid.NewString(),
		post:  post,
		clock: now,
		out:   make(chan outbound, sendQueueSize),
		done:  make(chan struct{}),
	}
}

// enqueue hands a write to the writer without blocking. It returns false
// when the queue is full.
func (s *session) enqueue(w outbound) bool {
	select {
	case s.out <- w:
		return true
	default:
		return false
	}
}

// writeLoop performs the transport writes off the machine goroutine, a
// peer that stops reading blocks only this loop. Closing the transport
// unblocks a pending write.
func (s *session) writeLoop() {
	for {
		select {
		case w := <-s.out:
			err := s.transport.Send(w.data)
			switch {
			case w.heartbeat && err != nil:
				s.deliver(transportFailed{sess: s, err: fmt.Errorf("send heartbeat: %w", err)})
			case w.result != nil && err != nil:
				w.result <- fmt.Errorf("send: %w", err)
			case w.result != nil:
				w.result <- nil
			}
		case <-s.done:
			for {
				select {
				case w := <-s.out:
					if w.result != nil {
						w.result <- ErrNotConnected
					}
				default:
					return
				}
			}
		}
	}
}

func (s *session) deliver(ev interface{}) {
	if s.detached.Load() {
		return
	}
	s.post(ev, s.done)
}

func (s *session) detach() {
	s.closeOnce.Do(func() {
		s.detached.Store(true)
		close(s.done)
	})
}

func (s *session) OnOpen() {
	s.deliver(transportOpened{sess: s})
}

func (s *session) OnMessage(data []byte) {
	s.deliver(transportMessage{sess: s, data: data, at: s.clock()})
}

func (s *session) OnClose(code int, reason string) {
	s.deliver(transportClosed{sess: s, code: code, reason: reason})
}

func (s *session) OnError(err error) {
	s.deliver(transportFailed{sess: s, err: err})
}

// outputs holds the observable values of the machine. Writes happen on the
// machine goroutine, reads from anywhere.
type outputs struct {
	mu          sync.RWMutex
	status      ConnectionState
	lastMessage *Message
	lastError   error
	attempts    uint
	emitter     *eventEmitter
}

func (o *outputs) setStatus(s ConnectionState) bool {
	o.mu.Lock()
	changed := o.status != s
	o.status = s
	o.mu.Unlock()
	if changed {
		o.emitter.emit(StatusEvent, s)
	}
	return changed
}

func (o *outputs) setMessage(msg *Message) {
	o.mu.Lock()
	o.lastMessage = msg
	o.mu.Unlock()
	o.emitter.emit(MessageEvent, msg)
}

func (o *outputs) setError(err error) {
	o.mu.Lock()
	o.lastError = err
	o.mu.Unlock()
	if err != nil {
		o.emitter.emit(ErrorEvent, err)
	}
}

func (o *outputs) setAttempts(n uint) {
	o.mu.Lock()
	o.attempts = n
	o.mu.Unlock()
}

func (o *outputs) Status() ConnectionState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.status
}

func (o *outputs) LastMessage() (*Message, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastMessage, o.lastMessage != nil
}

func (o *outputs) LastError() error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastError
}

func (o *outputs) ReconnectAttempts() uint {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.attempts
}

// machine is the connection lifecycle state machine. All of its methods
// must be called from a single goroutine, dispatch is the only entry point.
type machine struct {
	endpoint string
	dialer   Dialer
	opts     *options
	logger   *log.Entry
	out      *outputs
	timers   *timers
	post     postFunc

	state             ConnectionState
	session           *session
	reconnectAttempts uint
}

func newMachine(endpoint string, dialer Dialer, opts *options, out *outputs, post postFunc) *machine {
	return &machine{
		endpoint: endpoint,
		dialer:   dialer,
		opts:     opts,
		logger:   opts.logger.WithField("endpoint", endpoint),
		out:      out,
		timers:   newTimers(opts.clock, post),
		post:     post,
		state:    Disconnected,
	}
}

// dispatch applies one event to the current state
func (m *machine) dispatch(ev interface{}) {
	switch ev := ev.(type) {
	case connectCmd:
		m.connect()
	case connectIfIdleCmd:
		if !m.state.active() {
			m.connect()
		}
	case disconnectCmd:
		m.disconnect()
	case retryCmd:
		if m.state != Connected {
			m.connect()
		}
	case sendCmd:
		m.send(ev.data, ev.result)
	case transportOpened:
		if m.current(ev.sess) {
			m.opened()
		}
	case transportMessage:
		if m.current(ev.sess) {
			m.received(ev.data, ev.at)
		}
	case transportClosed:
		if m.current(ev.sess) {
			m.closed(ev.code, ev.reason)
		}
	case transportFailed:
		if m.current(ev.sess) {
			m.failed(ev.err)
		}
	case timerFired:
		if m.timers.expire(ev) {
			m.expired(ev.kind)
		}
	default:
		m.logger.Errorf("Received invalid event %T", ev)
	}
}

// current reports whether the event comes from the live session
func (m *machine) current(sess *session) bool {
	return sess != nil && sess == m.session && !sess.detached.Load()
}

func (m *machine) setState(s ConnectionState) {
	m.state = s
	if m.out.setStatus(s) {
		m.opts.metrics.setState(s)
	}
}

func (m *machine) setAttempts(n uint) {
	m.reconnectAttempts = n
	m.out.setAttempts(n)
}

func (m *machine) connect() {
	m.disconnect()

	m.setState(Connecting)
	if !m.opts.network.Online() {
		// an attempt is known to fail, settle without counting it
		m.logger.Info("Network is offline, not connecting")
		m.timers.start(offlineGraceTimer, m.opts.offlineGrace)
		return
	}

	sess := newSession(m.post, m.opts.clock.Now)
	m.session = sess
	m.logger.WithField("session", sess.id).Info("Connecting")
	m.opts.metrics.connectAttempt()
	sess.transport = m.dialer.Dial(m.endpoint, sess)
	go sess.writeLoop()
}

func (m *machine) disconnect() {
	m.timers.stopAll()

	if m.session != nil {
		m.logger.WithField("session", m.session.id).Info("Disconnecting")
		m.setState(Disconnecting)
		m.release(CloseNormalClosure, "normal closure")
		m.setState(Disconnected)
		m.opts.metrics.sessionEnded(endNormal)
		return
	}

	// a connect parked on the offline grace timer has nothing to close
	if m.state != Disconnected {
		m.setState(Disconnected)
	}
}

// release detaches the session before closing its transport, so the
// callbacks caused by the close never reach the machine
func (m *machine) release(code int, reason string) {
	sess := m.session
	if sess == nil {
		return
	}
	m.session = nil
	sess.detach()
	if sess.transport != nil {
		if err := sess.transport.Close(code, reason); err != nil {
			m.logger.WithField("session", sess.id).Debugf("Closing transport returned error: %v", err)
		}
	}
}

func (m *machine) opened() {
	m.logger.WithField("session", m.session.id).Info("Connected")
	m.setAttempts(0)
	m.setState(Connected)
	m.out.setError(nil)
	m.startHeartbeat()
}

func (m *machine) received(data []byte, at time.Time) {
	// any traffic proves the connection is alive
	m.startHeartbeat()

	ack, err := isHeartbeatAck(data)
	if err != nil {
		m.logger.WithField("session", m.session.id).Warnf("Dropping inbound payload: %v", err)
		m.opts.metrics.received(payloadInvalid)
		return
	}
	if ack {
		m.logger.Debug("Heartbeat acknowledged")
		m.opts.metrics.received(payloadHeartbeatAck)
		return
	}

	m.opts.metrics.received(payloadMessage)
	m.out.setMessage(&Message{Payload: data, ReceivedAt: at, SessionID: m.session.id})
}

func (m *machine) closed(code int, reason string) {
	entry := m.logger.WithFields(log.Fields{"session": m.session.id, "code": code, "reason": reason})
	m.release(code, reason)
	m.setState(Disconnected)

	if isNormalClosure(code) {
		entry.Info("Connection closed")
		m.stopHeartbeat()
		m.opts.metrics.sessionEnded(endNormal)
		return
	}

	entry.Warn("Connection closed abnormally")
	if code == CloseHeartbeatTimeout {
		m.opts.metrics.sessionEnded(endHeartbeatTimeout)
	} else {
		m.opts.metrics.sessionEnded(endAbnormal)
	}
	m.out.setError(&CloseError{Code: code, Reason: reason})
	m.reconnect()
}

func (m *machine) failed(err error) {
	m.logger.WithField("session", m.session.id).Warnf("Transport error: %v", err)
	m.release(CloseAbnormalClosure, "")
	m.setState(Disconnected)
	m.opts.metrics.sessionEnded(endError)
	m.out.setError(err)
	m.reconnect()
}

func (m *machine) reconnect() {
	if m.state.active() {
		return
	}
	m.stopHeartbeat()

	if m.reconnectAttempts < m.opts.maxReconnectAttempts {
		delay := m.opts.reconnectDelay(m.reconnectAttempts)
		m.timers.start(reconnectTimer, delay)
		// counted on schedule, a failure arriving before the timer fires
		// backs off from the incremented value
		m.setAttempts(m.reconnectAttempts + 1)
		m.opts.metrics.reconnectScheduled()
		m.logger.WithFields(log.Fields{"attempt": m.reconnectAttempts, "delay": delay}).Info("Reconnect scheduled")
		m.out.emitter.emit(ReconnectingEvent, ReconnectInfo{Attempt: m.reconnectAttempts, Delay: delay})
		return
	}

	m.logger.WithField("attempts", m.reconnectAttempts).Warn("Maximum reconnect attempts reached, giving up")
	m.setState(Disconnected)
	m.timers.stop(reconnectTimer)
}

func (m *machine) expired(kind timerKind) {
	switch kind {
	case heartbeatSendTimer:
		m.sendHeartbeat()
	case heartbeatTimeoutTimer:
		if m.session == nil {
			return
		}
		m.logger.WithField("session", m.session.id).Warn("Heartbeat timeout, closing connection")
		m.closed(CloseHeartbeatTimeout, "heartbeat timeout")
	case reconnectTimer:
		if !m.state.active() {
			m.connect()
		}
	case offlineGraceTimer:
		m.setState(Disconnected)
	}
}

func (m *machine) startHeartbeat() {
	m.stopHeartbeat()
	m.timers.start(heartbeatSendTimer, m.opts.heartbeatInterval)
}

func (m *machine) stopHeartbeat() {
	m.timers.stop(heartbeatSendTimer)
	m.timers.stop(heartbeatTimeoutTimer)
}

func (m *machine) sendHeartbeat() {
	// the state is checked at fire time, a disconnect may have started
	if m.state != Connected || m.session == nil {
		return
	}
	if m.session.enqueue(outbound{data: m.opts.heartbeatPayload, heartbeat: true}) {
		m.logger.Debug("Heartbeat sent")
		m.opts.metrics.heartbeatSent()
	} else {
		m.logger.WithField("session", m.session.id).Warn("Send queue full, heartbeat skipped")
	}
	// armed either way, a writer stuck on a dead peer ends in a timeout
	m.timers.start(heartbeatTimeoutTimer, m.opts.heartbeatInterval)
}

// send queues data for the session writer, which replies on result.
// result must be buffered.
func (m *machine) send(data []byte, result chan<- error) {
	if m.state != Connected || m.session == nil {
		result <- ErrNotConnected
		return
	}
	if !m.session.enqueue(outbound{data: data, result: result}) {
		result <- ErrSendQueueFull
	}
}
