package closecode

import "github.com/gorilla/websocket"

// CloseCode WebSocket close status code, RFC 6455 sec 7.4. The codes in
// the 4000-4999 range are private to the application, livesocket uses
// HeartbeatTimeout from that range for self-inflicted closes.
type CloseCode int

const (
	NormalClosure       CloseCode = websocket.CloseNormalClosure
	GoingAway           CloseCode = websocket.CloseGoingAway
	ProtocolError       CloseCode = websocket.CloseProtocolError
	UnsupportedData     CloseCode = websocket.CloseUnsupportedData
	NoStatusReceived    CloseCode = websocket.CloseNoStatusReceived
	AbnormalClosure     CloseCode = websocket.CloseAbnormalClosure
	InvalidPayload      CloseCode = websocket.CloseInvalidFramePayloadData
	PolicyViolation     CloseCode = websocket.ClosePolicyViolation
	MessageTooBig       CloseCode = websocket.CloseMessageTooBig
	InternalServerError CloseCode = websocket.CloseInternalServerErr
	ServiceRestart      CloseCode = websocket.CloseServiceRestart
	TryAgainLater       CloseCode = websocket.CloseTryAgainLater
	HeartbeatTimeout    CloseCode = 4444
)

var closeCodeText = map[CloseCode]string{
	NormalClosure:       "normal closure",
	GoingAway:           "going away",
	ProtocolError:       "protocol error",
	UnsupportedData:     "unsupported data",
	NoStatusReceived:    "no status received",
	AbnormalClosure:     "abnormal closure",
	InvalidPayload:      "invalid frame payload data",
	PolicyViolation:     "policy violation",
	MessageTooBig:       "message too big",
	InternalServerError: "internal server error",
	ServiceRestart:      "service restart",
	TryAgainLater:       "try again later",
	HeartbeatTimeout:    "heartbeat timeout",
}

// Text returns a text for the close code. Returns the empty
// string if the close code is unknown.
func (code CloseCode) Text() string {
	return closeCodeText[code]
}

// IsNormal reports whether a close with this code ends the session
// for good. Every other code is an abnormal closure.
func (code CloseCode) IsNormal() bool {
	return code == NormalClosure
}
