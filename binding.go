package livesocket

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/srishina/livesocket.go/internal/wsutil"
)

// Controller is the part of a Manager a Binding drives
type Controller interface {
	EventEmitter
	ConnectIfIdle()
	Disconnect()
	RetryConnect()
}

// Binding ties a connection to the application lifecycle. It connects
// while the user is logged in, disconnects on logout, retries when the
// network comes back, and exposes the status text and the latest message
// for presentation.
type Binding struct {
	ctrl   Controller
	logger *log.Entry

	mu         sync.Mutex
	statusText string
	listeners  map[string]int

	latest *wsutil.Latest[*Message]
}

// NewBinding subscribes to the status and message events of ctrl
func NewBinding(ctrl Controller, logger *log.Entry) (*Binding, error) {
	if logger == nil {
		logger = log.WithField("component", "binding")
	}
	b := &Binding{
		ctrl:      ctrl,
		logger:    logger,
		listeners: make(map[string]int),
		latest:    wsutil.NewLatest[*Message](),
	}

	statusID, err := ctrl.On(StatusEvent, b.onStatus)
	if err != nil {
		return nil, err
	}
	b.listeners[StatusEvent] = statusID

	messageID, err := ctrl.On(MessageEvent, b.onMessage)
	if err != nil {
		ctrl.Off(StatusEvent, statusID)
		return nil, err
	}
	b.listeners[MessageEvent] = messageID

	return b, nil
}

func (b *Binding) onStatus(state ConnectionState) {
	// the connected state needs no status message
	if state == Connected {
		return
	}
	b.mu.Lock()
	b.statusText = state.Text()
	b.mu.Unlock()
}

func (b *Binding) onMessage(msg *Message) {
	if msg != nil {
		b.latest.Set(msg)
	}
}

// SetLoggedIn connects when loggedIn is true and the connection is not
// already established or being established, and disconnects otherwise.
func (b *Binding) SetLoggedIn(loggedIn bool) {
	if !loggedIn {
		b.logger.Info("Logged out, disconnecting")
		b.ctrl.Disconnect()
		return
	}
	b.logger.Info("Logged in, connecting")
	b.ctrl.ConnectIfIdle()
}

// NetworkOnline retries the connection unless it is connected
func (b *Binding) NetworkOnline() {
	b.logger.Info("Network connection restored")
	b.ctrl.RetryConnect()
}

// NetworkOffline records that the network went away. The connection
// itself notices through its heartbeat.
func (b *Binding) NetworkOffline() {
	b.logger.Info("Network connection lost")
}

// RetryConnect connects unless already connected, bypassing the backoff
func (b *Binding) RetryConnect() {
	b.ctrl.RetryConnect()
}

// StatusText the text of the last non connected status, empty until the
// first such status is observed
func (b *Binding) StatusText() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.statusText
}

// LatestMessage the most recent message, whether or not it has been
// read from Messages
func (b *Binding) LatestMessage() (*Message, bool) {
	return b.latest.Get()
}

// Messages delivers the most recent unread message. A message that is
// not read before the next one arrives is replaced.
func (b *Binding) Messages() <-chan *Message {
	return b.latest.C()
}

// Watch applies the login flags received on loggedIn until ctx is done
// or the channel is closed. Repeated values are ignored.
func (b *Binding) Watch(ctx context.Context, loggedIn <-chan bool) error {
	var last, seen bool
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case v, ok := <-loggedIn:
			if !ok {
				return nil
			}
			if seen && v == last {
				continue
			}
			seen, last = true, v
			b.SetLoggedIn(v)
		}
	}
}

// WatchNetwork applies the network reachability transitions received on
// online until ctx is done or the channel is closed. The first value
// received is the initial reachability and is not a transition.
func (b *Binding) WatchNetwork(ctx context.Context, online <-chan bool) error {
	var last, seen bool
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case v, ok := <-online:
			if !ok {
				return nil
			}
			if !seen || v == last {
				seen, last = true, v
				continue
			}
			last = v
			if v {
				b.NetworkOnline()
			} else {
				b.NetworkOffline()
			}
		}
	}
}

// Close stops observing the controller
func (b *Binding) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for name, id := range b.listeners {
		b.ctrl.Off(name, id)
	}
	b.listeners = map[string]int{}
}
