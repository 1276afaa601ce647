package lhs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Transport is the minimal framing a handshake needs: read and write one
// text frame at a time. pkg/wsx implements this over coder/websocket; tests
// implement it in-memory. Decoupling from the websocket package keeps the
// state machine itself free of transport concerns, the same separation the
// teacher draws between pkg/events (connection handling) and its message
// types.
type Transport interface {
	ReadText(ctx context.Context) ([]byte, error)
	WriteText(ctx context.Context, data []byte) error
}

// ServerResult is what a completed server-side handshake negotiates.
type ServerResult struct {
	SessionID string
	Thread    string
	Encoding  Encoding
	Features  []string
}

// RunServer drives the server side of Hello→Mirror→Bind→Seal over t.
// supported is the set of encodings the server accepts; its order is not
// consulted — the first encoding in the client's list that appears in
// supported is chosen.
func RunServer(ctx context.Context, t Transport, supported []Encoding, serverID string) (*ServerResult, error) {
	raw, err := t.ReadText(ctx)
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, protoErr("malformed hello frame")
	}
	if env.Step != StepHello {
		return nil, protoErr(fmt.Sprintf("expected hello, got %q", env.Step))
	}
	var hello Hello
	if err := json.Unmarshal(raw, &hello); err != nil {
		return nil, protoErr("malformed hello frame")
	}

	encoding, ok := negotiate(hello.Encodings, supported)
	if !ok {
		return nil, protoErr("no common encoding")
	}
	features := intersect(hello.Features, serverFeatures)

	mirror := Mirror{
		Step:       StepMirror,
		LRIVersion: Version,
		Encoding:   string(encoding),
		Features:   features,
		ServerID:   serverID,
	}
	if err := writeJSON(ctx, t, mirror); err != nil {
		return nil, err
	}

	raw, err = t.ReadText(ctx)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, protoErr("malformed bind frame")
	}
	if env.Step != StepBind {
		return nil, protoErr(fmt.Sprintf("expected bind, got %q", env.Step))
	}
	var bind Bind
	if err := json.Unmarshal(raw, &bind); err != nil {
		return nil, protoErr("malformed bind frame")
	}

	thread := bind.Thread
	if thread == "" {
		thread = uuid.New().String()
	}
	sessionID := uuid.New().String()

	seal := Seal{
		Step:      StepSeal,
		SessionID: sessionID,
		Thread:    thread,
		Status:    "ready",
	}
	if err := writeJSON(ctx, t, seal); err != nil {
		return nil, err
	}

	return &ServerResult{SessionID: sessionID, Thread: thread, Encoding: encoding, Features: features}, nil
}

// ClientResult is what a completed client-side handshake negotiates.
type ClientResult struct {
	SessionID string
	Thread    string
	Encoding  Encoding
}

// RunClient drives the client side of Hello→Mirror→Bind→Seal over t.
func RunClient(ctx context.Context, t Transport, preferred []Encoding, clientID, thread string, auth any) (*ClientResult, error) {
	hello := Hello{
		Step:       StepHello,
		LRIVersion: Version,
		Encodings:  encodingStrings(preferred),
		Features:   clientFeatures,
		ClientID:   clientID,
	}
	if err := writeJSON(ctx, t, hello); err != nil {
		return nil, err
	}

	raw, err := t.ReadText(ctx)
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, protoErr("malformed mirror frame")
	}
	if env.Step != StepMirror {
		return nil, protoErr(fmt.Sprintf("expected mirror, got %q", env.Step))
	}
	var mirror Mirror
	if err := json.Unmarshal(raw, &mirror); err != nil {
		return nil, protoErr("malformed mirror frame")
	}
	encoding := Encoding(mirror.Encoding)
	if !encoding.Valid() {
		return nil, protoErr("server selected unsupported encoding")
	}

	bind := Bind{Step: StepBind, Thread: thread, Auth: auth}
	if err := writeJSON(ctx, t, bind); err != nil {
		return nil, err
	}

	raw, err = t.ReadText(ctx)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, protoErr("malformed seal frame")
	}
	if env.Step != StepSeal {
		return nil, protoErr(fmt.Sprintf("expected seal, got %q", env.Step))
	}
	var seal Seal
	if err := json.Unmarshal(raw, &seal); err != nil {
		return nil, protoErr("malformed seal frame")
	}

	return &ClientResult{SessionID: seal.SessionID, Thread: seal.Thread, Encoding: encoding}, nil
}

// serverFeatures and clientFeatures are the advisory feature sets this
// implementation claims support for. Spec §4.H: they have no observable
// effect beyond echoing the intersection in Mirror.
var (
	serverFeatures = []string{"ltp", "lss"}
	clientFeatures = []string{"ltp", "lss"}
)

func negotiate(clientPreference []string, serverSupported []Encoding) (Encoding, bool) {
	supported := make(map[Encoding]bool, len(serverSupported))
	for _, e := range serverSupported {
		supported[e] = true
	}
	for _, pref := range clientPreference {
		e := Encoding(pref)
		if supported[e] {
			return e, true
		}
	}
	return "", false
}

func intersect(a, b []string) []string {
	set := make(map[string]bool, len(b))
	for _, v := range b {
		set[v] = true
	}
	var out []string
	for _, v := range a {
		if set[v] {
			out = append(out, v)
		}
	}
	return out
}

func encodingStrings(es []Encoding) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = string(e)
	}
	return out
}

func writeJSON(ctx context.Context, t Transport, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return t.WriteText(ctx, data)
}
