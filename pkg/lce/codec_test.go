package lce

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEnvelope() *Envelope {
	return &Envelope{
		V:      1,
		Intent: Intent{Type: IntentAsk},
		Policy: Policy{Consent: ConsentPrivate},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	env := validEnvelope()
	env.Meaning = &Meaning{Topic: "status"}

	wire, err := Encode(env)
	require.NoError(t, err)

	got, err := Decode(wire)
	require.NoError(t, err)
	assert.Equal(t, env.V, got.V)
	assert.Equal(t, env.Intent.Type, got.Intent.Type)
	assert.Equal(t, env.Policy.Consent, got.Policy.Consent)
	assert.Equal(t, env.Meaning.Topic, got.Meaning.Topic)
}

func TestDecodeMalformedHeader(t *testing.T) {
	_, err := Decode("not-valid-base64!!!")
	assert.ErrorIs(t, err, ErrMalformedHeader)
}

func TestDecodeInvalidJSON(t *testing.T) {
	wire := "bm90IGpzb24="
	_, err := Decode(wire)
	assert.ErrorIs(t, err, ErrInvalidJSON)
}

func TestDecodeInvalidLCE(t *testing.T) {
	wire := "eyJ2IjoxLCJpbnRlbnQiOnsidHlwZSI6ImFzayJ9fQ=="
	_, err := Decode(wire)
	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.True(t, errors.Is(err, ErrInvalidLCE))
}

func TestHTTPHappyPath(t *testing.T) {
	wire, err := Encode(validEnvelope())
	require.NoError(t, err)

	env, err := Decode(wire)
	require.NoError(t, err)
	assert.Equal(t, IntentAsk, env.Intent.Type)
}
