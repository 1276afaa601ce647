package httpx

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headerWith(t *testing.T, name, value string) http.Header {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(name, value)
	return req.Header
}

func TestExtractHappyPath(t *testing.T) {
	x := New(Options{Required: true, Validate: true})
	wire := base64.StdEncoding.EncodeToString([]byte(`{"v":1,"intent":{"type":"ask"},"policy":{"consent":"private"}}`))

	result, httpErr := x.Extract(headerWith(t, DefaultHeaderName, wire))
	require.Nil(t, httpErr)
	require.True(t, result.Present)
	assert.EqualValues(t, "ask", result.Envelope.Intent.Type)
}

func TestExtractMissingRequired(t *testing.T) {
	x := New(Options{Required: true})
	_, httpErr := x.Extract(http.Header{})
	require.NotNil(t, httpErr)
	assert.Equal(t, http.StatusPreconditionRequired, httpErr.Status)
	assert.Contains(t, httpErr.Message, "LCE header required")
}

func TestExtractMissingOptional(t *testing.T) {
	x := New(Options{Required: false})
	result, httpErr := x.Extract(http.Header{})
	require.Nil(t, httpErr)
	assert.False(t, result.Present)
}

func TestExtractMalformed(t *testing.T) {
	x := New(Options{Required: true})
	_, httpErr := x.Extract(headerWith(t, DefaultHeaderName, "not-valid-base64!!!"))
	require.NotNil(t, httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Contains(t, httpErr.Message, "Malformed LCE header")
}

func TestExtractInvalidSchema(t *testing.T) {
	x := New(Options{Required: true})
	wire := base64.StdEncoding.EncodeToString([]byte(`{"v":1,"intent":{"type":"ask"}}`))
	_, httpErr := x.Extract(headerWith(t, DefaultHeaderName, wire))
	require.NotNil(t, httpErr)
	assert.Equal(t, http.StatusUnprocessableEntity, httpErr.Status)
	assert.Contains(t, httpErr.Message, "Invalid LCE")
}

func TestExtractCustomHeaderName(t *testing.T) {
	x := New(Options{HeaderName: "X-LCE-Custom", Required: true})
	wire := base64.StdEncoding.EncodeToString([]byte(`{"v":1,"intent":{"type":"tell"},"policy":{"consent":"team"}}`))
	result, httpErr := x.Extract(headerWith(t, "X-LCE-Custom", wire))
	require.Nil(t, httpErr)
	assert.EqualValues(t, "tell", result.Envelope.Intent.Type)
}
