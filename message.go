package livesocket

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// heartbeatIDField reserved field that identifies heartbeat acknowledgments
const heartbeatIDField = "msg_id"

// Message an inbound payload delivered to the application. Heartbeat
// acknowledgments are never delivered as a Message.
type Message struct {
	// Payload the raw UTF-8 JSON document received from the server
	Payload []byte
	// ReceivedAt local time when the payload was received
	ReceivedAt time.Time
	// SessionID identifies the connection the payload was received on
	SessionID string
}

// Decode unmarshals the JSON payload into v
func (m *Message) Decode(v interface{}) error {
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}

func (m *Message) String() string {
	return string(m.Payload)
}

// isHeartbeatAck classifies an inbound payload. A payload is a heartbeat
// acknowledgment when it is a JSON object whose msg_id field is numerically
// zero after JavaScript number coercion: 0, "0", "0x0", "", null, false, []
// and [0] all qualify. Payloads that are valid JSON but not objects are
// regular messages. An error is returned for payloads that are not valid
// JSON.
func isHeartbeatAck(data []byte) (bool, error) {
	if !json.Valid(data) {
		return false, fmt.Errorf("invalid JSON payload of %d bytes", len(data))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		// valid JSON, but not an object
		return false, nil
	}

	raw, ok := fields[heartbeatIDField]
	if !ok {
		return false, nil
	}
	return coercesToZero(raw), nil
}

func coercesToZero(raw json.RawMessage) bool {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return false
	}

	switch v := v.(type) {
	case nil:
		return true
	case bool:
		return !v
	case json.Number, string, []interface{}:
		// arrays coerce through their string form
		return numericStringIsZero(coercedString(v))
	default:
		// objects coerce to NaN
		return false
	}
}

// coercedString the string a JSON value converts to when coerced to a
// JavaScript string. null converts to the empty string, as it does inside
// an array.
func coercedString(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	case string:
		return v
	case []interface{}:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = coercedString(e)
		}
		return strings.Join(parts, ",")
	default:
		return "[object Object]"
	}
}

var decimalLiteral = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// numericStringIsZero reports whether s converts to the number zero. The
// empty string converts to zero, so does a 0x, 0o or 0b literal of value
// zero. Anything not a numeric literal converts to NaN.
func numericStringIsZero(s string) bool {
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
	if s == "" {
		return true
	}

	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			return err == nil && n == 0
		}
	}

	if !decimalLiteral.MatchString(s) {
		return false
	}
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && f == 0
}
