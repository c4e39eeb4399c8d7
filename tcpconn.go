package livesocket

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"sync"
	"time"
)

const maxLineSize = 1024 * 1024

// TCPDialer concrete implementation of Dialer
// when used the Manager uses a TCP connection carrying
// newline delimited payloads. Endpoints are of the form
// tcp://host:port, or tcps://host:port for TLS.
//
// TCP has no close codes: a connection ended by the peer is always
// reported as an abnormal closure, and Close only closes the socket.
// A zero WriteTimeout means 10s.
type TCPDialer struct {
	TLSConfig    *tls.Config
	Timeout      time.Duration
	WriteTimeout time.Duration
}

// Dial connects to the endpoint in the background
func (d *TCPDialer) Dial(endpoint string, handler TransportHandler) Transport {
	var ctx context.Context
	var cancel context.CancelFunc
	if d.Timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), d.Timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	t := &tcpTransport{
		handler:      handler,
		cancel:       cancel,
		writeTimeout: effectiveWriteTimeout(d.WriteTimeout),
	}
	go t.open(ctx, d.TLSConfig, endpoint)
	return t
}

func tcpAddress(endpoint string) (addr string, secure bool, err error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, err
	}
	switch u.Scheme {
	case "tcp":
		return u.Host, false, nil
	case "tcps":
		return u.Host, true, nil
	default:
		return "", false, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
}

type tcpTransport struct {
	handler      TransportHandler
	cancel       context.CancelFunc
	writeTimeout time.Duration

	mu     sync.Mutex
	conn   net.Conn
	closed bool

	writeMu sync.Mutex
}

func (t *tcpTransport) open(ctx context.Context, tlsConfig *tls.Config, endpoint string) {
	conn, err := t.dial(ctx, tlsConfig, endpoint)
	if err != nil {
		if !t.isClosed() {
			t.handler.OnError(fmt.Errorf("dial %s: %w", endpoint, err))
		}
		return
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		conn.Close()
		return
	}
	t.conn = conn
	t.mu.Unlock()

	t.handler.OnOpen()
	t.readLoop(conn)
}

func (t *tcpTransport) dial(ctx context.Context, tlsConfig *tls.Config, endpoint string) (net.Conn, error) {
	addr, secure, err := tcpAddress(endpoint)
	if err != nil {
		return nil, err
	}
	if secure {
		dialer := tls.Dialer{Config: tlsConfig}
		return dialer.DialContext(ctx, "tcp", addr)
	}
	dialer := net.Dialer{}
	return dialer.DialContext(ctx, "tcp", addr)
}

func (t *tcpTransport) readLoop(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		t.handler.OnMessage(append([]byte(nil), line...))
	}

	if t.isClosed() {
		return
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		t.handler.OnError(err)
	}
	t.handler.OnClose(CloseAbnormalClosure, "connection closed by peer")
}

func (t *tcpTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Send writes data followed by a newline
func (t *tcpTransport) Send(data []byte) error {
	t.mu.Lock()
	conn, closed := t.conn, t.closed
	t.mu.Unlock()
	if conn == nil || closed {
		return ErrNotConnected
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(t.writeTimeout))
	buf := make([]byte, 0, len(data)+1)
	buf = append(append(buf, data...), '\n')
	_, err := conn.Write(buf)
	return err
}

// Close closes the connection, the code and reason are not transmitted
func (t *tcpTransport) Close(code int, reason string) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conn := t.conn
	t.mu.Unlock()

	t.cancel()
	if conn == nil {
		return nil
	}
	return conn.Close()
}
