package livesocket

import "time"

const (
	StatusEvent       = "status"
	MessageEvent      = "message"
	ErrorEvent        = "error"
	ReconnectingEvent = "reconnecting"
)

// ReconnectInfo describes a scheduled reconnect attempt
type ReconnectInfo struct {
	// Attempt the 1 based number of the scheduled attempt
	Attempt uint
	// Delay time until the attempt is made
	Delay time.Duration
}

type StatusEventFn = func(state ConnectionState)
type MessageEventFn = func(msg *Message)
type ErrorEventFn = func(err error)
type ReconnectingEventFn = func(info ReconnectInfo)
