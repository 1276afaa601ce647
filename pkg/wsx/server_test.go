package wsx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/lri/pkg/lce"
	"github.com/codeready-toolchain/lri/pkg/lhs"
)

func newTestServerWithHandler(t *testing.T, srv *Server) (*httptest.Server, string) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		require.NoError(t, err)
		srv.HandleConnection(r.Context(), conn)
	})
	httpSrv := httptest.NewServer(mux)
	wsURL := "ws" + strings.TrimPrefix(httpSrv.URL, "http") + "/ws"
	return httpSrv, wsURL
}

func testEnvelope(topic string) lce.Envelope {
	return lce.Envelope{
		V:      1,
		Intent: lce.Intent{Type: lce.IntentAsk},
		Policy: lce.Policy{Consent: lce.ConsentPrivate},
		Meaning: &lce.Meaning{Topic: topic},
	}
}

func TestClientServerRoundTripJSON(t *testing.T) {
	srv := NewServer([]lhs.Encoding{lhs.EncodingJSON}, 2*time.Second, nil)

	received := make(chan *lce.Envelope, 1)
	srv.OnMessage(func(env *lce.Envelope, sessionID, threadID string) {
		received <- env
	})

	httpSrv, wsURL := newTestServerWithHandler(t, srv)
	defer httpSrv.Close()

	client := NewClient(wsURL, []lhs.Encoding{lhs.EncodingJSON}, "test-client", 2*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, client.Connect(ctx, "thread-rt", nil))
	defer client.Close()

	require.NoError(t, client.Send(ctx, testEnvelope("status")))

	select {
	case env := <-received:
		assert.EqualValues(t, "ask", env.Intent.Type)
		assert.Equal(t, "status", env.Meaning.Topic)
	case <-time.After(2 * time.Second):
		t.Fatal("server never received frame")
	}

	assert.Equal(t, 1, srv.ActiveSessions())

	require.NoError(t, srv.Send(ctx, client.SessionID(), testEnvelope("reply")))
	reply, err := client.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "reply", reply.Meaning.Topic)
}

func TestClientServerRoundTripCBOR(t *testing.T) {
	srv := NewServer([]lhs.Encoding{lhs.EncodingCBOR, lhs.EncodingJSON}, 2*time.Second, nil)

	received := make(chan *lce.Envelope, 1)
	srv.OnMessage(func(env *lce.Envelope, sessionID, threadID string) {
		received <- env
	})

	httpSrv, wsURL := newTestServerWithHandler(t, srv)
	defer httpSrv.Close()

	client := NewClient(wsURL, []lhs.Encoding{lhs.EncodingCBOR, lhs.EncodingJSON}, "test-client", 2*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, client.Connect(ctx, "", nil))
	defer client.Close()
	assert.Equal(t, lhs.EncodingCBOR, client.encoding)

	require.NoError(t, client.Send(ctx, testEnvelope("status")))

	select {
	case env := <-received:
		assert.EqualValues(t, "ask", env.Intent.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("server never received frame")
	}
}

func TestServerSendUnknownSessionFails(t *testing.T) {
	srv := NewServer([]lhs.Encoding{lhs.EncodingJSON}, 2*time.Second, nil)
	err := srv.Send(context.Background(), "no-such-session", testEnvelope("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Session not found")
}

func TestClientSendBeforeConnectFails(t *testing.T) {
	client := NewClient("ws://unused", []lhs.Encoding{lhs.EncodingJSON}, "c", time.Second)
	err := client.Send(context.Background(), testEnvelope("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Not connected")
}

func TestClientReceiveBeforeConnectFails(t *testing.T) {
	client := NewClient("ws://unused", []lhs.Encoding{lhs.EncodingJSON}, "c", time.Second)
	_, err := client.Receive(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Not connected")
}

func TestUnregisterOnDisconnect(t *testing.T) {
	srv := NewServer([]lhs.Encoding{lhs.EncodingJSON}, 2*time.Second, nil)
	httpSrv, wsURL := newTestServerWithHandler(t, srv)
	defer httpSrv.Close()

	client := NewClient(wsURL, []lhs.Encoding{lhs.EncodingJSON}, "c", 2*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, client.Connect(ctx, "", nil))

	assert.Eventually(t, func() bool { return srv.ActiveSessions() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, client.Close())
	assert.Eventually(t, func() bool { return srv.ActiveSessions() == 0 }, time.Second, 10*time.Millisecond)
}
