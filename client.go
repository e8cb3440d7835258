package otp

import (
	"context"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ClientState is a step of the client-side exchange.
type ClientState int32

// Client states, in the order they are entered.
const (
	ClientStateIdle ClientState = iota
	ClientStateConnected
	ClientStateHandshakeVerified
	ClientStateMessageSent
	ClientStateKeySent
	ClientStateResponseReceived
	ClientStateClosed
)

var clientStateNames = [...]string{
	ClientStateIdle:              "idle",
	ClientStateConnected:         "connected",
	ClientStateHandshakeVerified: "handshake_verified",
	ClientStateMessageSent:       "message_sent",
	ClientStateKeySent:           "key_sent",
	ClientStateResponseReceived:  "response_received",
	ClientStateClosed:            "closed",
}

func (s ClientState) String() string {
	if s >= 0 && int(s) < len(clientStateNames) {
		return clientStateNames[s]
	}
	return "unknown"
}

// Client asks a server of a given role to transform one message per call.
// A Client has no per-call state and may be used from several goroutines.
type Client struct {
	role Role
	opts clientOptions
}

// NewClient returns a client that only talks to servers announcing role.
func NewClient(role Role, opt ...ClientOption) *Client {
	var opts clientOptions
	for _, o := range opt {
		o(&opts)
	}
	checkClientOptions(&opts)

	return &Client{role: role, opts: opts}
}

// Role returns the server role the client requires.
func (c *Client) Role() Role {
	return c.role
}

// Do validates message and key, connects to addr ("host:port"), and returns
// the transformed message.
//
// Validation errors (ErrInvalidSymbol, ErrKeyTooShort) are returned before any
// network activity. A server announcing the wrong role yields a
// *ProtocolMismatchError and no payload bytes are sent.
func (c *Client) Do(ctx context.Context, addr string, message, key []byte) ([]byte, error) {
	if err := ValidateInput(message, key); err != nil {
		return nil, err
	}

	conn, err := c.dial(ctx, addr)
	if err != nil {
		return nil, err
	}

	ex := &clientExchange{client: c, conn: conn}
	return ex.run(ctx, message, key)
}

// dial resolves the host and connects to the first address that accepts.
func (c *Client) dial(ctx context.Context, addr string) (*net.TCPConn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, errors.Wrapf(err, "parse address %q", addr)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.dialTimeout)
	defer cancel()

	ips, err := c.opts.resolver.LookupHost(ctx, host)
	if err != nil {
		return nil, &HostResolutionError{Host: host, Err: err}
	}
	if len(ips) == 0 {
		return nil, &HostResolutionError{Host: host, Err: errors.New("no addresses")}
	}

	var dialer net.Dialer
	var lastErr error
	for _, ip := range ips {
		conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(ip, port))
		if err != nil {
			lastErr = err
			continue
		}
		return conn.(*net.TCPConn), nil
	}
	return nil, newTransportError("dial", lastErr)
}

// clientExchange is one connection's worth of client state.
type clientExchange struct {
	client *Client
	conn   *net.TCPConn
	closed atomic.Bool
}

func (e *clientExchange) run(ctx context.Context, message, key []byte) ([]byte, error) {
	e.enter(ClientStateConnected)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	group, child := errgroup.WithContext(runCtx)

	var result []byte
	group.Go(func() error {
		defer cancel()
		var err error
		result, err = e.exchange(message, key)
		return err
	})

	group.Go(func() error {
		<-child.Done()
		return e.close()
	})

	err := group.Wait()
	if err != nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	e.enter(ClientStateClosed)

	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *clientExchange) exchange(message, key []byte) ([]byte, error) {
	logger := e.client.opts.logger
	want := e.client.role

	if err := e.setReadDeadline(); err != nil {
		return nil, err
	}
	got, err := ReadRole(e.conn)
	if err != nil {
		return nil, err
	}
	if got != want {
		logger.Debug("server role mismatch", "addr", e.conn.RemoteAddr(), "want", want, "got", got)
		return nil, &ProtocolMismatchError{Want: want, Got: got}
	}
	e.enter(ClientStateHandshakeVerified)

	if err := e.setWriteDeadline(); err != nil {
		return nil, err
	}
	if err := WriteFrame(e.conn, message); err != nil {
		return nil, err
	}
	e.enter(ClientStateMessageSent)

	if err := e.setWriteDeadline(); err != nil {
		return nil, err
	}
	if err := WriteFrame(e.conn, key); err != nil {
		return nil, err
	}
	e.enter(ClientStateKeySent)

	// The response carries no prefix: it is exactly as long as the message.
	if err := e.setReadDeadline(); err != nil {
		return nil, err
	}
	result := make([]byte, len(message))
	if _, err := io.ReadFull(e.conn, result); err != nil {
		if err == io.EOF && len(result) > 0 {
			err = io.ErrUnexpectedEOF
		}
		return nil, newTransportError("read response", err)
	}
	e.enter(ClientStateResponseReceived)

	logger.Debug("exchange complete", "addr", e.conn.RemoteAddr(), "role", want, "symbols", len(result))
	return result, nil
}

func (e *clientExchange) enter(s ClientState) {
	if cb := e.client.opts.onState; cb != nil {
		cb(s)
	}
}

func (e *clientExchange) close() error {
	if e.closed.Swap(true) {
		return nil
	}
	return e.conn.Close()
}

func (e *clientExchange) setReadDeadline() error {
	return newTransportError("set read deadline", e.conn.SetReadDeadline(time.Now().Add(e.client.opts.readTimeout)))
}

func (e *clientExchange) setWriteDeadline() error {
	return newTransportError("set write deadline", e.conn.SetWriteDeadline(time.Now().Add(e.client.opts.writeTimeout)))
}
