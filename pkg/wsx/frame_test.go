package wsx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/lri/pkg/lce"
	"github.com/codeready-toolchain/lri/pkg/lhs"
)

func validEnvelope() lce.Envelope {
	return lce.Envelope{
		V:      1,
		Intent: lce.Intent{Type: "ask"},
		Policy: lce.Policy{Consent: "private"},
	}
}

func TestEncodeDecodeFrameJSONRoundTrip(t *testing.T) {
	env := validEnvelope()
	data, err := encodeFrame(lhs.EncodingJSON, env)
	require.NoError(t, err)

	got, err := decodeFrame(lhs.EncodingJSON, data)
	require.NoError(t, err)
	assert.Equal(t, env.Intent.Type, got.Intent.Type)
}

func TestEncodeDecodeFrameCBORRoundTrip(t *testing.T) {
	env := validEnvelope()
	data, err := encodeFrame(lhs.EncodingCBOR, env)
	require.NoError(t, err)

	got, err := decodeFrame(lhs.EncodingCBOR, data)
	require.NoError(t, err)
	assert.Equal(t, env.Intent.Type, got.Intent.Type)
}

func TestDecodeFrameRejectsInvalidEnvelope(t *testing.T) {
	data, err := encodeFrame(lhs.EncodingJSON, lce.Envelope{})
	require.NoError(t, err)

	_, err = decodeFrame(lhs.EncodingJSON, data)
	assert.Error(t, err)
}

func TestEncodeFrameRejectsUnknownEncoding(t *testing.T) {
	_, err := encodeFrame(lhs.Encoding("xml"), validEnvelope())
	assert.Error(t, err)
}
