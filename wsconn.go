package livesocket

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/srishina/livesocket.go/internal/wsutil"
)

// defaultWriteTimeout bounds a single write when the dialer sets none
const defaultWriteTimeout = 10 * time.Second

// WebsocketDialer concrete implementation of Dialer
// when used the Manager uses a WebSocket to
// connect to the endpoint. A zero WriteTimeout
// means 10s.
type WebsocketDialer struct {
	TLSConfig        *tls.Config
	Header           http.Header
	Subprotocols     []string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
}

// Dial opens a websocket to the endpoint in the background
func (w *WebsocketDialer) Dial(endpoint string, handler TransportHandler) Transport {
	dialer := &websocket.Dialer{
		Proxy:             http.ProxyFromEnvironment,
		HandshakeTimeout:  10 * time.Second,
		EnableCompression: false,
		TLSClientConfig:   w.TLSConfig,
		Subprotocols:      w.Subprotocols,
	}
	if w.HandshakeTimeout > 0 {
		dialer.HandshakeTimeout = w.HandshakeTimeout
	}

	header := w.Header
	if header == nil {
		header = http.Header{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &wsTransport{
		handler:      handler,
		cancel:       cancel,
		writeTimeout: effectiveWriteTimeout(w.WriteTimeout),
	}
	go t.open(ctx, dialer, endpoint, header)
	return t
}

func effectiveWriteTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultWriteTimeout
	}
	return d
}

type wsTransport struct {
	handler      TransportHandler
	cancel       context.CancelFunc
	writeTimeout time.Duration

	mu         sync.Mutex
	conn       *websocket.Conn
	closed     bool
	peerClosed bool

	writeMu sync.Mutex
}

func (t *wsTransport) open(ctx context.Context, dialer *websocket.Dialer, endpoint string, header http.Header) {
	ws, _, err := dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if !t.isClosed() {
			t.handler.OnError(fmt.Errorf("dial %s: %w", endpoint, err))
		}
		return
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		ws.Close()
		return
	}
	t.conn = ws
	t.mu.Unlock()

	t.handler.OnOpen()
	t.readLoop(ws)
}

func (t *wsTransport) readLoop(ws *websocket.Conn) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			t.mu.Lock()
			closed := t.closed
			t.peerClosed = true
			t.mu.Unlock()
			if closed {
				return
			}

			if code, reason, ok := wsutil.CloseStatus(err); ok {
				t.handler.OnClose(code, reason)
				return
			}
			t.handler.OnError(err)
			t.handler.OnClose(CloseAbnormalClosure, "")
			return
		}
		t.handler.OnMessage(data)
	}
}

func (t *wsTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Send writes data as a single text message
func (t *wsTransport) Send(data []byte) error {
	t.mu.Lock()
	conn, closed := t.conn, t.closed
	t.mu.Unlock()
	if conn == nil || closed {
		return ErrNotConnected
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(t.writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Close sends a close frame and closes the connection. A dial in
// progress is aborted.
func (t *wsTransport) Close(code int, reason string) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conn, peerClosed := t.conn, t.peerClosed
	t.mu.Unlock()

	t.cancel()
	if conn == nil {
		return nil
	}

	var err error
	if !peerClosed && !wsutil.IsReservedCloseCode(code) {
		err = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason),
			time.Now().Add(time.Second),
		)
	}
	if cerr := conn.Close(); err == nil {
		err = cerr
	}
	return err
}
