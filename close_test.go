package livesocket

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloseError(t *testing.T) {
	err := &CloseError{Code: 1011}
	assert.Equal(t, "connection closed with code 1011 (internal server error)", err.Error())
	assert.False(t, errors.Is(err, ErrHeartbeatTimeout))

	err = &CloseError{Code: 4100, Reason: "kicked"}
	assert.Equal(t, "connection closed with code 4100 (kicked)", err.Error())

	err = &CloseError{Code: 4100}
	assert.Equal(t, "connection closed with code 4100", err.Error())

	err = &CloseError{Code: CloseHeartbeatTimeout}
	assert.ErrorIs(t, err, ErrHeartbeatTimeout)
}

func TestNormalClosure(t *testing.T) {
	assert.True(t, isNormalClosure(CloseNormalClosure))
	for _, code := range []int{1001, 1005, 1006, 1011, 1012, 4000, CloseHeartbeatTimeout} {
		assert.False(t, isNormalClosure(code), "code %d", code)
	}
}

func TestConnectionStateText(t *testing.T) {
	assert.Equal(t, "disconnected", Disconnected.Text())
	assert.Equal(t, "connecting...", Connecting.Text())
	assert.Equal(t, "connected", Connected.Text())
	assert.Equal(t, "disconnecting", Disconnecting.Text())

	assert.Equal(t, "Connecting", Connecting.String())
	assert.Equal(t, "Unknown", ConnectionState(9).String())

	assert.True(t, Connected.active())
	assert.True(t, Connecting.active())
	assert.False(t, Disconnected.active())
	assert.False(t, Disconnecting.active())
}
