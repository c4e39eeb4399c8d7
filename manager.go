package livesocket

import (
	"context"
	"errors"
	"sync"
)

// shutdownCmd stops the manager loop after disconnecting
type shutdownCmd struct{}

// Manager keeps a single logical connection to an endpoint alive. It opens
// the transport on Connect, runs the heartbeat while connected, and
// reconnects after abnormal closures until the configured number of
// attempts is exhausted.
//
// All state transitions run on one goroutine owned by the Manager. The
// public methods only post a command to it and return immediately, the
// outcome is observed through Status, LastMessage, LastError and the
// events registered with On.
type Manager struct {
	*outputs
	machine  *machine
	emitter  *eventEmitter
	events   chan interface{}
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewManager creates a manager for the endpoint. The manager starts in
// Disconnected, call Connect to open the connection.
func NewManager(endpoint string, dialer Dialer, opt ...Option) (*Manager, error) {
	if endpoint == "" {
		return nil, errors.New("endpoint is required")
	}
	if dialer == nil {
		return nil, errors.New("dialer is required")
	}

	opts, err := buildOptions(opt...)
	if err != nil {
		return nil, err
	}

	emitter := newEventEmitter()
	m := &Manager{
		outputs: &outputs{status: Disconnected, emitter: emitter},
		emitter: emitter,
		events:  make(chan interface{}, 64),
		stop:    make(chan struct{}),
	}
	m.machine = newMachine(endpoint, dialer, &opts, m.outputs, m.post)
	opts.metrics.setState(Disconnected)

	emitter.run()
	m.wg.Add(1)
	go m.run()

	return m, nil
}

func (m *Manager) post(ev interface{}, cancel <-chan struct{}) {
	select {
	case m.events <- ev:
	case <-cancel:
	case <-m.stop:
	}
}

func (m *Manager) run() {
	defer m.wg.Done()
	for ev := range m.events {
		if _, ok := ev.(shutdownCmd); ok {
			m.machine.disconnect()
			close(m.stop)
			return
		}
		m.machine.dispatch(ev)
	}
}

// Connect tears down the current session, if any, and opens a new one.
func (m *Manager) Connect() {
	m.post(connectCmd{}, nil)
}

// ConnectIfIdle connects unless the manager is already Connected or
// Connecting. The check runs in order with the other commands, a
// Disconnect queued just before is applied first.
func (m *Manager) ConnectIfIdle() {
	m.post(connectIfIdleCmd{}, nil)
}

// Disconnect closes the connection with a normal closure and cancels the
// heartbeat and any scheduled reconnect.
func (m *Manager) Disconnect() {
	m.post(disconnectCmd{}, nil)
}

// RetryConnect connects unless already connected. It bypasses the reconnect
// backoff, use it for manual retries or when the network comes back.
func (m *Manager) RetryConnect() {
	m.post(retryCmd{}, nil)
}

// Send writes a payload on the live connection. It returns ErrNotConnected
// unless the manager is Connected, and ErrSendQueueFull when too many
// writes are waiting on a peer that does not read.
func (m *Manager) Send(ctx context.Context, data []byte) error {
	result := make(chan error, 1)
	select {
	case m.events <- sendCmd{data: data, result: result}:
	case <-ctx.Done():
		return ctx.Err()
	case <-m.stop:
		return ErrClosed
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-m.stop:
		return ErrClosed
	}
}

// On registers a callback for the named event, see StatusEvent,
// MessageEvent, ErrorEvent and ReconnectingEvent. The returned id
// removes the callback with Off.
func (m *Manager) On(eventName string, callback interface{}) (int, error) {
	return m.emitter.on(eventName, callback)
}

// Off removes a callback registered with On
func (m *Manager) Off(eventName string, id int) error {
	return m.emitter.off(eventName, id)
}

// Close disconnects and releases the manager. Events that are already
// queued are delivered before Close returns. The manager cannot be used
// after Close, and Close must not be called from an event callback.
func (m *Manager) Close() {
	m.stopOnce.Do(func() {
		m.post(shutdownCmd{}, nil)
		m.wg.Wait()
		m.emitter.close()
	})
}
