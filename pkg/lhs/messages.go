// Package lhs implements the Linguistic Handshake protocol (component H of
// SPEC_FULL.md): the four-step Hello/Mirror/Bind/Seal negotiation that runs
// once per WebSocket connection before any LCE frame is exchanged.
package lhs

import "errors"

// Version is the handshake protocol version advertised in Hello and Mirror.
const Version = "0.2"

// Encoding names the wire framing negotiated for post-handshake LCE frames.
type Encoding string

const (
	EncodingJSON Encoding = "json"
	EncodingCBOR Encoding = "cbor"
)

// Valid reports whether e is one of the encodings this package knows.
func (e Encoding) Valid() bool {
	switch e {
	case EncodingJSON, EncodingCBOR:
		return true
	default:
		return false
	}
}

// Hello is the first message, sent client→server.
type Hello struct {
	Step        string   `json:"step"`
	LRIVersion  string   `json:"lri_version"`
	Encodings   []string `json:"encodings"`
	Features    []string `json:"features,omitempty"`
	ClientID    string   `json:"client_id,omitempty"`
}

// Mirror is the second message, sent server→client.
type Mirror struct {
	Step       string   `json:"step"`
	LRIVersion string   `json:"lri_version"`
	Encoding   string   `json:"encoding"`
	Features   []string `json:"features,omitempty"`
	ServerID   string   `json:"server_id,omitempty"`
}

// Bind is the third message, sent client→server.
type Bind struct {
	Step   string `json:"step"`
	Thread string `json:"thread,omitempty"`
	Auth   any    `json:"auth,omitempty"`
}

// Seal is the fourth and final message, sent server→client.
type Seal struct {
	Step      string `json:"step"`
	SessionID string `json:"session_id"`
	Thread    string `json:"thread"`
	Status    string `json:"status"`
}

// Step name constants as they appear on the wire in the "step" field.
const (
	StepHello  = "hello"
	StepMirror = "mirror"
	StepBind   = "bind"
	StepSeal   = "seal"
)

// envelope is the minimal shape used to sniff a frame's "step" before
// unmarshaling into the concrete message type.
type envelope struct {
	Step string `json:"step"`
}

// ErrProtocol covers any handshake violation: wrong step order, unsupported
// encoding, or a non-handshake frame arriving before Seal.
var ErrProtocol = errors.New("lhs: protocol error")

// ProtocolError wraps ErrProtocol with a human-readable reason.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return "lhs: " + e.Reason }
func (e *ProtocolError) Unwrap() error { return ErrProtocol }

func protoErr(reason string) error { return &ProtocolError{Reason: reason} }
