package client

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrRejected marks a request the server answered with 2xx but
// "success": false.
var ErrRejected = errors.New("request rejected")

// Envelope is the wrapper non-auth endpoints answer with.
type Envelope[T any] struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    *T              `json:"data,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
}

// UnwrapEnvelope returns the "data" member of an enveloped response. Bodies
// that are not envelopes (arrays, objects without "success") come back
// unchanged. An envelope with "success": false becomes an *Error of kind
// ErrRejected whose message is the server's message, its error string, or
// fallback, in that order.
func UnwrapEnvelope(raw json.RawMessage, fallback string) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return raw, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, &Error{Message: "Malformed response from server", Kind: ErrDecode, Cause: err}
	}

	successRaw, enveloped := fields["success"]
	if !enveloped {
		return raw, nil
	}

	var success bool
	_ = json.Unmarshal(successRaw, &success)
	if !success {
		msg := serverMessage(trimmed)
		if msg == MsgServerError {
			msg = fallback
		}
		return nil, &Error{Status: 200, Message: msg, Kind: ErrRejected}
	}

	data, ok := fields["data"]
	if !ok || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, nil
	}
	return data, nil
}
