package livesocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeartbeatAckClassification(t *testing.T) {
	acks := []string{
		`{"msg_id":0}`,
		`{"msg_id":0.0,"data":"pong"}`,
		`{"msg_id":-0}`,
		`{"msg_id":"0"}`,
		`{"msg_id":" 0 "}`,
		`{"msg_id":""}`,
		`{"msg_id":null}`,
		`{"msg_id":false}`,
		`{"msg_id":"+0"}`,
		`{"msg_id":".0"}`,
		`{"msg_id":"0e5"}`,
		`{"msg_id":"\t0\n"}`,
		`{"msg_id":"0x0"}`,
		`{"msg_id":"0X00"}`,
		`{"msg_id":"0o0"}`,
		`{"msg_id":"0b0"}`,
		`{"msg_id":[]}`,
		`{"msg_id":[0]}`,
		`{"msg_id":["0"]}`,
		`{"msg_id":[" "]}`,
		`{"msg_id":[null]}`,
		`{"msg_id":[[]]}`,
		`{"msg_id":[["0x0"]]}`,
	}
	for _, payload := range acks {
		ack, err := isHeartbeatAck([]byte(payload))
		require.NoError(t, err, payload)
		assert.True(t, ack, "%s must be a heartbeat ack", payload)
	}

	messages := []string{
		`{"msg_id":1,"text":"hello"}`,
		`{"msg_id":"12"}`,
		`{"msg_id":"abc"}`,
		`{"msg_id":true}`,
		`{"msg_id":{}}`,
		`{"msg_id":[1]}`,
		`{"msg_id":[0,0]}`,
		`{"msg_id":[false]}`,
		`{"msg_id":[{}]}`,
		`{"msg_id":"0x1"}`,
		`{"msg_id":"-0x0"}`,
		`{"msg_id":"0x"}`,
		`{"msg_id":"0x0p0"}`,
		`{"msg_id":"0_0"}`,
		`{"msg_id":"inf"}`,
		`{"msg_id":"NaN"}`,
		`{"msg_id":"0 0"}`,
		`{"text":"no id"}`,
		`[0]`,
		`0`,
		`"msg_id"`,
	}
	for _, payload := range messages {
		ack, err := isHeartbeatAck([]byte(payload))
		require.NoError(t, err, payload)
		assert.False(t, ack, "%s must not be a heartbeat ack", payload)
	}
}

func TestHeartbeatAckInvalidJSON(t *testing.T) {
	ack, err := isHeartbeatAck([]byte(`{"msg_id":`))
	assert.Error(t, err)
	assert.False(t, ack)
}

func TestMessageDecode(t *testing.T) {
	msg := Message{Payload: []byte(`{"msg_id":7,"text":"hi"}`)}

	var chat struct {
		ID   int    `json:"msg_id"`
		Text string `json:"text"`
	}
	require.NoError(t, msg.Decode(&chat))
	assert.Equal(t, 7, chat.ID)
	assert.Equal(t, "hi", chat.Text)

	bad := Message{Payload: []byte(`nope`)}
	assert.Error(t, bad.Decode(&chat))
}
