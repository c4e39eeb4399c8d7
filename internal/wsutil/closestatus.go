package wsutil

import (
	"errors"

	"github.com/gorilla/websocket"
)

// CloseStatus extracts the close code and reason from an error returned by
// a websocket read. ok is false when the error is not a close frame.
func CloseStatus(err error) (code int, reason string, ok bool) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code, ce.Text, true
	}
	return 0, "", false
}

// IsReservedCloseCode reports whether the code must never be sent in a
// close frame, RFC 6455 sec 7.4.1
func IsReservedCloseCode(code int) bool {
	switch code {
	case websocket.CloseNoStatusReceived, websocket.CloseAbnormalClosure, websocket.CloseTLSHandshake:
		return true
	}
	return false
}
