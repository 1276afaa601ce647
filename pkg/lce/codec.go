package lce

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Encode renders env as the HTTP wire form: base64(utf8(json(env))). JSON
// marshaling naturally omits absent-optional fields because every optional
// field in Envelope is a pointer or a nil-able slice/string tagged
// omitempty.
func Encode(env *Envelope) (string, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Decode reverses Encode, distinguishing the three failure taxonomies named
// in spec §4.C.
func Decode(wire string) (*Envelope, error) {
	raw, err := base64.StdEncoding.DecodeString(wire)
	if err != nil {
		return nil, ErrMalformedHeader
	}
	if !utf8.Valid(raw) {
		return nil, ErrMalformedHeader
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, ErrInvalidJSON
	}

	env, diags := Validate(obj)
	if len(diags) > 0 {
		return nil, &SchemaError{Diagnostics: diags}
	}
	return env, nil
}
