package livesocket

import (
	"errors"
	"fmt"

	"github.com/srishina/livesocket.go/internal/closecode"
)

var (
	ErrNotConnected     = errors.New("not connected")
	ErrClosed           = errors.New("manager is closed")
	ErrHeartbeatTimeout = errors.New("no traffic received within the heartbeat timeout")
	ErrSendQueueFull    = errors.New("send queue is full")
)

// Close codes understood by the Manager. CloseNormalClosure ends a session
// for good, every other code triggers the reconnect procedure.
const (
	CloseNormalClosure    = int(closecode.NormalClosure)
	CloseAbnormalClosure  = int(closecode.AbnormalClosure)
	CloseHeartbeatTimeout = int(closecode.HeartbeatTimeout)
)

// CloseError describes a session that was closed with a code
// other than CloseNormalClosure
type CloseError struct {
	Code   int
	Reason string
}

func (e *CloseError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = closecode.CloseCode(e.Code).Text()
	}
	if reason == "" {
		return fmt.Sprintf("connection closed with code %d", e.Code)
	}
	return fmt.Sprintf("connection closed with code %d (%s)", e.Code, reason)
}

// Unwrap lets errors.Is match ErrHeartbeatTimeout on self-inflicted closes.
func (e *CloseError) Unwrap() error {
	if e.Code == CloseHeartbeatTimeout {
		return ErrHeartbeatTimeout
	}
	return nil
}

func isNormalClosure(code int) bool {
	return closecode.CloseCode(code).IsNormal()
}
