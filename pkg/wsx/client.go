package wsx

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/codeready-toolchain/lri/pkg/lce"
	"github.com/codeready-toolchain/lri/pkg/lhs"
)

// ErrNotConnected is returned by Send/Receive/Listen before Connect has
// completed. The message text is part of spec §4.I's contract.
var ErrNotConnected = errors.New("Not connected")

// Client is the LHS/LCE WebSocket client: connect performs the handshake,
// then Send/Receive/Listen exchange LCE frames over the negotiated
// encoding.
type Client struct {
	url          string
	preferred    []lhs.Encoding
	clientID     string
	writeTimeout time.Duration

	mu        sync.RWMutex
	conn      *websocket.Conn
	transport *wsTransport
	sessionID string
	thread    string
	encoding  lhs.Encoding
}

// NewClient builds a Client that will dial url and offer preferred
// encodings, in order, during the handshake.
func NewClient(url string, preferred []lhs.Encoding, clientID string, writeTimeout time.Duration) *Client {
	return &Client{url: url, preferred: preferred, clientID: clientID, writeTimeout: writeTimeout}
}

// Connect dials the server, runs Hello→Seal, and records the negotiated
// session. thread may be empty for an anonymous session.
func (c *Client) Connect(ctx context.Context, thread string, auth any) error {
	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("wsx: dial: %w", err)
	}

	transport := &wsTransport{conn: conn, writeTimeout: c.writeTimeout}
	result, err := lhs.RunClient(ctx, transport, c.preferred, c.clientID, thread, auth)
	if err != nil {
		_ = conn.Close(websocket.StatusProtocolError, "handshake failed")
		return fmt.Errorf("wsx: handshake: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.transport = transport
	c.sessionID = result.SessionID
	c.thread = result.Thread
	c.encoding = result.Encoding
	c.mu.Unlock()
	return nil
}

// SessionID returns the session_id negotiated by Connect, or "" before
// connecting.
func (c *Client) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// Thread returns the bound thread_id, or "" before connecting.
func (c *Client) Thread() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.thread
}

func (c *Client) snapshot() (*wsTransport, lhs.Encoding, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.transport == nil {
		return nil, "", ErrNotConnected
	}
	return c.transport, c.encoding, nil
}

// Send encodes env with the negotiated encoding and writes it.
func (c *Client) Send(ctx context.Context, env lce.Envelope) error {
	transport, encoding, err := c.snapshot()
	if err != nil {
		return err
	}
	data, err := encodeFrame(encoding, env)
	if err != nil {
		return err
	}
	return transport.writeFrame(ctx, encoding, data)
}

// Receive blocks for the next inbound frame and decodes it.
func (c *Client) Receive(ctx context.Context) (*lce.Envelope, error) {
	transport, encoding, err := c.snapshot()
	if err != nil {
		return nil, err
	}
	raw, err := transport.ReadText(ctx)
	if err != nil {
		return nil, err
	}
	return decodeFrame(encoding, raw)
}

// OnFrame is invoked by Listen for each inbound frame.
type OnFrame func(env *lce.Envelope)

// Listen is a long-running consumer: it calls fn for each frame until ctx
// is cancelled or the socket closes, then returns.
func (c *Client) Listen(ctx context.Context, fn OnFrame) error {
	for {
		env, err := c.Receive(ctx)
		if err != nil {
			return err
		}
		fn(env)
	}
}

// Close terminates the connection cleanly. Safe to call even if Connect was
// never called or already failed.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.transport = nil
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close(websocket.StatusNormalClosure, "")
}
