package livesocket

// ConnectionState the externally observable state of a Manager.
// Exactly one state is active at any time, the initial state is
// Disconnected.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
	Disconnecting
)

var connectionStateText = map[ConnectionState]string{
	Disconnected:  "disconnected",
	Connecting:    "connecting...",
	Connected:     "connected",
	Disconnecting: "disconnecting",
}

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	case Disconnecting:
		return "Disconnecting"
	default:
		return "Unknown"
	}
}

// Text returns the human readable status text, suitable for
// showing to a user.
func (s ConnectionState) Text() string {
	return connectionStateText[s]
}

// active reports whether a connection is established or being
// established. Reconnect attempts are suppressed in these states.
func (s ConnectionState) active() bool {
	return s == Connected || s == Connecting
}
