package wsx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/codeready-toolchain/lri/pkg/lce"
	"github.com/codeready-toolchain/lri/pkg/lhs"
)

// ErrSessionNotFound is returned by Send when session_id names no live
// connection. The message text is part of spec §4.I's contract.
var ErrSessionNotFound = errors.New("Session not found")

// OnMessage is invoked for each inbound LCE frame, once the handshake that
// produced session_id/thread_id has completed.
type OnMessage func(env *lce.Envelope, sessionID, threadID string)

// Server manages accepted WebSocket connections: handshake, a session
// table, and bidirectional LCE framing, grounded on the teacher's
// pkg/events.ConnectionManager.
type Server struct {
	supportedEncodings []lhs.Encoding
	writeTimeout       time.Duration
	logger             *slog.Logger

	mu          sync.RWMutex
	connections map[string]*serverConn

	onMessageMu sync.RWMutex
	onMessage   OnMessage
}

type serverConn struct {
	id       string
	thread   string
	conn     *websocket.Conn
	encoding lhs.Encoding
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewServer builds a Server that negotiates one of supportedEncodings and
// writes with writeTimeout per frame.
func NewServer(supportedEncodings []lhs.Encoding, writeTimeout time.Duration, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		supportedEncodings: supportedEncodings,
		writeTimeout:       writeTimeout,
		logger:             logger,
		connections:        make(map[string]*serverConn),
	}
}

// OnMessage registers the callback invoked for every inbound frame. It is
// guarded by a mutex, so it may be called while connections are being
// handled; frames dispatched after it returns use fn.
func (s *Server) OnMessage(fn OnMessage) {
	s.onMessageMu.Lock()
	defer s.onMessageMu.Unlock()
	s.onMessage = fn
}

// HandleConnection runs the server side of the handshake on conn and, on
// success, reads frames until the socket closes or parentCtx is done.
// Blocks until the connection ends. Call after upgrading an HTTP request to
// a WebSocket (see pkg/server's wsHandler for the echo wiring).
func (s *Server) HandleConnection(parentCtx context.Context, conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	transport := &wsTransport{conn: conn, writeTimeout: s.writeTimeout}
	result, err := lhs.RunServer(ctx, transport, s.supportedEncodings, uuid.New().String())
	if err != nil {
		s.logger.Warn("lhs handshake failed", "error", err)
		_ = conn.Close(websocket.StatusProtocolError, "handshake failed")
		return
	}

	sc := &serverConn{
		id:       result.SessionID,
		thread:   result.Thread,
		conn:     conn,
		encoding: result.Encoding,
		ctx:      ctx,
		cancel:   cancel,
	}
	s.register(sc)
	defer s.unregister(sc)

	for {
		raw, err := transport.ReadText(ctx)
		if err != nil {
			return
		}
		env, err := decodeFrame(sc.encoding, raw)
		if err != nil {
			s.logger.Warn("invalid LCE frame", "session_id", sc.id, "error", err)
			continue
		}
		s.dispatch(env, sc.id, sc.thread)
	}
}

func (s *Server) dispatch(env *lce.Envelope, sessionID, threadID string) {
	s.onMessageMu.RLock()
	fn := s.onMessage
	s.onMessageMu.RUnlock()
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("onMessage callback panicked", "session_id", sessionID, "panic", r)
		}
	}()
	fn(env, sessionID, threadID)
}

// Send encodes env with the session's negotiated encoding and writes it.
// Returns ErrSessionNotFound if session_id names no live connection.
func (s *Server) Send(ctx context.Context, sessionID string, env lce.Envelope) error {
	s.mu.RLock()
	sc, ok := s.connections[sessionID]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("wsx: %w: %s", ErrSessionNotFound, sessionID)
	}

	data, err := encodeFrame(sc.encoding, env)
	if err != nil {
		return err
	}
	transport := &wsTransport{conn: sc.conn, writeTimeout: s.writeTimeout}
	return transport.writeFrame(ctx, sc.encoding, data)
}

// ActiveSessions returns the count of live server-side sessions.
func (s *Server) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}

func (s *Server) register(sc *serverConn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections[sc.id] = sc
}

func (s *Server) unregister(sc *serverConn) {
	s.mu.Lock()
	delete(s.connections, sc.id)
	s.mu.Unlock()
	sc.cancel()
	_ = sc.conn.Close(websocket.StatusNormalClosure, "")
}

// wsTransport adapts *websocket.Conn to lhs.Transport and to the frame
// encoding used post-handshake (binary frames for cbor, text for json).
type wsTransport struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func (t *wsTransport) ReadText(ctx context.Context) ([]byte, error) {
	_, data, err := t.conn.Read(ctx)
	return data, err
}

func (t *wsTransport) WriteText(ctx context.Context, data []byte) error {
	writeCtx := ctx
	var cancel context.CancelFunc
	if t.writeTimeout > 0 {
		writeCtx, cancel = context.WithTimeout(ctx, t.writeTimeout)
		defer cancel()
	}
	return t.conn.Write(writeCtx, websocket.MessageText, data)
}

// writeFrame writes data using the frame type the negotiated encoding
// requires: binary for cbor, text for json (spec §4.H).
func (t *wsTransport) writeFrame(ctx context.Context, encoding lhs.Encoding, data []byte) error {
	writeCtx := ctx
	var cancel context.CancelFunc
	if t.writeTimeout > 0 {
		writeCtx, cancel = context.WithTimeout(ctx, t.writeTimeout)
		defer cancel()
	}
	msgType := websocket.MessageText
	if encoding == lhs.EncodingCBOR {
		msgType = websocket.MessageBinary
	}
	return t.conn.Write(writeCtx, msgType, data)
}
