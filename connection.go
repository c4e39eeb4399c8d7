package livesocket

// Transport is a single full-duplex connection attempt created by a Dialer.
// A Transport is used for exactly one session, the Manager creates a new one
// for every connect.
type Transport interface {
	// Send writes one payload to the peer
	Send(data []byte) error
	// Close sends a close frame with the given code and reason and releases
	// the connection. Close aborts a dial that is still in flight.
	Close(code int, reason string) error
}

// TransportHandler receives the events of a Transport. The callbacks may be
// invoked from any goroutine, the Manager serializes them internally.
type TransportHandler interface {
	OnOpen()
	OnMessage(data []byte)
	OnClose(code int, reason string)
	OnError(err error)
}

// Dialer opens transports. The implementation of the Dialer is responsible
// for initialization of the connection(ws, tcp etc...) with the server.
// WebsocketDialer and TCPDialer are provided as part of the library, other
// dialers can be written by the implementations.
type Dialer interface {
	// Dial starts opening a transport to the endpoint and returns immediately.
	// The outcome is reported through the handler: OnOpen on success, OnError
	// (optionally followed by OnClose) on failure. The handler must not be
	// invoked synchronously from within Dial.
	Dial(endpoint string, handler TransportHandler) Transport
}

// NetworkMonitor reports whether the network is currently reachable.
// Connect does not attempt a transport while the monitor reports offline.
type NetworkMonitor interface {
	Online() bool
}

type alwaysOnline struct{}

func (alwaysOnline) Online() bool { return true }

// AlwaysOnline a NetworkMonitor that never reports offline
var AlwaysOnline NetworkMonitor = alwaysOnline{}
