package livesocket

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	handler TransportHandler

	mu      sync.Mutex
	sent    [][]byte
	closed  bool
	code    int
	reason  string
	sendErr error
	block   chan struct{}
}

// Send blocks while sends are blocked, like a write to a peer that
// stopped reading, until the transport is closed
func (f *fakeTransport) Send(data []byte) error {
	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	if f.closed {
		return ErrNotConnected
	}
	f.sent = append(f.sent, append([]byte(nil), data...))
	return nil
}

func (f *fakeTransport) Close(code int, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	f.code = code
	f.reason = reason
	if f.block != nil {
		close(f.block)
		f.block = nil
	}
	return nil
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeTransport) closeCode() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.code
}

func (f *fakeTransport) sentPayloads() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, s := range f.sent {
		out = append(out, string(s))
	}
	return out
}

func (f *fakeTransport) failSends(err error) {
	f.mu.Lock()
	f.sendErr = err
	f.mu.Unlock()
}

func (f *fakeTransport) blockSends() {
	f.mu.Lock()
	f.block = make(chan struct{})
	f.mu.Unlock()
}

// waitSent waits until n payloads were written, writes happen on the
// session writer goroutine
func (f *fakeTransport) waitSent(t *testing.T, n int) []string {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(f.sentPayloads()) >= n
	}, time.Second, 5*time.Millisecond)
	return f.sentPayloads()
}

func (f *fakeTransport) open() {
	f.handler.OnOpen()
}

func (f *fakeTransport) message(s string) {
	f.handler.OnMessage([]byte(s))
}

func (f *fakeTransport) peerClose(code int, reason string) {
	f.handler.OnClose(code, reason)
}

func (f *fakeTransport) fail(err error) {
	f.handler.OnError(err)
}

type fakeDialer struct {
	mu         sync.Mutex
	transports []*fakeTransport
}

func (d *fakeDialer) Dial(endpoint string, handler TransportHandler) Transport {
	d.mu.Lock()
	defer d.mu.Unlock()
	t := &fakeTransport{handler: handler}
	d.transports = append(d.transports, t)
	return t
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.transports)
}

func (d *fakeDialer) last() *fakeTransport {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.transports) == 0 {
		return nil
	}
	return d.transports[len(d.transports)-1]
}

func (d *fakeDialer) live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, t := range d.transports {
		if !t.isClosed() {
			n++
		}
	}
	return n
}

type fakeNetwork struct {
	offline atomic.Bool
}

func (n *fakeNetwork) Online() bool {
	return !n.offline.Load()
}

// harness drives a machine synchronously from the test goroutine. Posted
// events are queued and applied by drain, timers run on a mock clock.
type harness struct {
	t       *testing.T
	clock   *clock.Mock
	dialer  *fakeDialer
	network *fakeNetwork
	events  chan interface{}
	out     *outputs
	m       *machine

	reconnects atomic.Int32
}

func newHarness(t *testing.T, opt ...Option) *harness {
	h := &harness{
		t:       t,
		clock:   clock.NewMock(),
		dialer:  &fakeDialer{},
		network: &fakeNetwork{},
		events:  make(chan interface{}, 256),
	}

	opts, err := buildOptions(append([]Option{WithClock(h.clock), WithNetworkMonitor(h.network)}, opt...)...)
	require.NoError(t, err)

	emitter := newEventEmitter()
	_, err = emitter.on(ReconnectingEvent, func(ReconnectInfo) { h.reconnects.Add(1) })
	require.NoError(t, err)
	emitter.run()
	t.Cleanup(emitter.close)

	h.out = &outputs{status: Disconnected, emitter: emitter}
	h.m = newMachine("ws://localhost/live", h.dialer, &opts, h.out, h.post)
	return h
}

func (h *harness) post(ev interface{}, cancel <-chan struct{}) {
	select {
	case h.events <- ev:
	case <-cancel:
	}
}

// drain applies queued events until none arrives for a short while
func (h *harness) drain() {
	for {
		select {
		case ev := <-h.events:
			h.m.dispatch(ev)
		case <-time.After(20 * time.Millisecond):
			return
		}
	}
}

func (h *harness) do(ev interface{}) {
	h.m.dispatch(ev)
	h.drain()
}

// send queues data on the machine and waits for the writer's reply
func (h *harness) send(data string) error {
	result := make(chan error, 1)
	h.m.send([]byte(data), result)
	select {
	case err := <-result:
		return err
	case <-time.After(time.Second):
		require.FailNow(h.t, "no send result")
	}
	return nil
}

func (h *harness) advance(d time.Duration) {
	h.clock.Add(d)
	h.drain()
}

// connected connects and opens the transport
func (h *harness) connected() *fakeTransport {
	h.do(connectCmd{})
	tr := h.dialer.last()
	require.NotNil(h.t, tr)
	tr.open()
	h.drain()
	require.Equal(h.t, Connected, h.out.Status())
	return tr
}
