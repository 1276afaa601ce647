package lhs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipeTransport connects a server-side and client-side Transport via
// buffered channels, so the handshake state machine can be exercised
// without a real socket.
type pipeTransport struct {
	out chan []byte
	in  chan []byte
}

func newPipes() (server Transport, client Transport) {
	a := make(chan []byte, 4)
	b := make(chan []byte, 4)
	return &pipeTransport{out: a, in: b}, &pipeTransport{out: b, in: a}
}

func (p *pipeTransport) ReadText(ctx context.Context) ([]byte, error) {
	select {
	case data := <-p.in:
		return data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *pipeTransport) WriteText(ctx context.Context, data []byte) error {
	select {
	case p.out <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestHandshakeNegotiatesOnlyCommonEncoding(t *testing.T) {
	serverT, clientT := newPipes()
	ctx := context.Background()

	done := make(chan *ServerResult, 1)
	errCh := make(chan error, 1)
	go func() {
		res, err := RunServer(ctx, serverT, []Encoding{EncodingJSON}, "srv-1")
		done <- res
		errCh <- err
	}()

	clientRes, err := RunClient(ctx, clientT, []Encoding{EncodingCBOR, EncodingJSON}, "cli-1", "thread-a", nil)
	require.NoError(t, err)
	serverRes := <-done
	require.NoError(t, <-errCh)

	assert.Equal(t, EncodingJSON, clientRes.Encoding)
	assert.Equal(t, EncodingJSON, serverRes.Encoding)
	assert.Equal(t, "thread-a", serverRes.Thread)
	assert.Equal(t, serverRes.SessionID, clientRes.SessionID)
	assert.Equal(t, serverRes.Thread, clientRes.Thread)
}

func TestHandshakeReversedOfferNegotiatesCBOR(t *testing.T) {
	serverT, clientT := newPipes()
	ctx := context.Background()

	done := make(chan *ServerResult, 1)
	go func() {
		res, _ := RunServer(ctx, serverT, []Encoding{EncodingJSON, EncodingCBOR}, "srv-1")
		done <- res
	}()

	clientRes, err := RunClient(ctx, clientT, []Encoding{EncodingCBOR, EncodingJSON}, "cli-1", "", nil)
	require.NoError(t, err)
	serverRes := <-done

	assert.Equal(t, EncodingCBOR, clientRes.Encoding)
	assert.Equal(t, EncodingCBOR, serverRes.Encoding)
	assert.NotEmpty(t, serverRes.Thread, "server must generate a thread when client omits one")
}

func TestHandshakeNoCommonEncodingFails(t *testing.T) {
	serverT, clientT := newPipes()
	ctx := context.Background()

	errCh := make(chan error, 1)
	go func() {
		_, err := RunServer(ctx, serverT, []Encoding{EncodingJSON}, "srv-1")
		errCh <- err
		// A real transport closes the connection on a handshake error;
		// closing the server's outbound pipe stands in for that, so the
		// client's pending read fails instead of blocking.
		close(serverT.(*pipeTransport).out)
	}()

	_, clientErr := RunClient(ctx, clientT, []Encoding{EncodingCBOR}, "cli-1", "", nil)
	assert.Error(t, clientErr)
	assert.Error(t, <-errCh)
}

func TestHandshakeAnonymousThreadGeneratedByServer(t *testing.T) {
	serverT, clientT := newPipes()
	ctx := context.Background()

	done := make(chan *ServerResult, 1)
	go func() {
		res, _ := RunServer(ctx, serverT, []Encoding{EncodingJSON}, "srv-1")
		done <- res
	}()

	clientRes, err := RunClient(ctx, clientT, []Encoding{EncodingJSON}, "cli-1", "", nil)
	require.NoError(t, err)
	serverRes := <-done

	assert.NotEmpty(t, serverRes.Thread)
	assert.Equal(t, serverRes.Thread, clientRes.Thread)
}
