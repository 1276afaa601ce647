// Package wsx is the WebSocket transport for LCE frames (component I of
// SPEC_FULL.md): a server with a session table and callback dispatch, a
// client with connect/send/receive/listen/close, both built on
// github.com/coder/websocket and pkg/lhs for the handshake, grounded on the
// teacher's pkg/events.ConnectionManager.
package wsx

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/codeready-toolchain/lri/pkg/lce"
	"github.com/codeready-toolchain/lri/pkg/lhs"
)

// encodeFrame serializes env for the wire according to the negotiated
// encoding: json text frames carry one JSON document, cbor binary frames
// carry one CBOR document. Spec §4.H: "one LCE per text frame" / "one LCE
// per binary frame" — no batching, no length-prefixing beyond what the
// websocket frame itself provides. Unlike the HTTP header wire form, frames
// are not base64-wrapped — the framing (text vs binary) already carries
// that distinction.
func encodeFrame(encoding lhs.Encoding, env lce.Envelope) ([]byte, error) {
	switch encoding {
	case lhs.EncodingJSON:
		return json.Marshal(env)
	case lhs.EncodingCBOR:
		return cbor.Marshal(env)
	default:
		return nil, fmt.Errorf("wsx: unsupported encoding %q", encoding)
	}
}

// decodeFrame is encodeFrame's inverse, running every frame through the
// strict validator (spec §4.B) regardless of encoding.
func decodeFrame(encoding lhs.Encoding, data []byte) (*lce.Envelope, error) {
	var raw map[string]any
	switch encoding {
	case lhs.EncodingJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("wsx: invalid json frame: %w", err)
		}
	case lhs.EncodingCBOR:
		// Nested CBOR maps must decode as map[string]any, the shape the
		// validator expects; the library default is map[any]any.
		dm, err := cbor.DecOptions{DefaultMapType: reflect.TypeOf(map[string]any(nil))}.DecMode()
		if err != nil {
			return nil, fmt.Errorf("wsx: cbor decode mode: %w", err)
		}
		if err := dm.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("wsx: invalid cbor frame: %w", err)
		}
	default:
		return nil, fmt.Errorf("wsx: unsupported encoding %q", encoding)
	}

	env, ok := lce.Strict(raw)
	if !ok {
		return nil, fmt.Errorf("wsx: %w", lce.ErrInvalidLCE)
	}
	return env, nil
}
