// Package otp implements a one-time-pad style cipher served over TCP.
//
// A server announces its role ("Encrypt" or "Decrypt") as soon as a connection
// is accepted. The client checks the role, sends the message and the key as two
// length-prefixed frames, and reads back the transformed message as raw bytes.
// Every connection is served by its own worker and shares nothing with the others.
package otp

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// State is a step of the server-side exchange.
type State int32

// Worker states, in the order they are entered.
const (
	StateAccepted State = iota
	StateHandshakeSent
	StateMessageLengthReceived
	StateMessageReceived
	StateKeyLengthReceived
	StateKeyReceived
	StateTransformed
	StateResponseSent
	StateClosed
)

var stateNames = [...]string{
	StateAccepted:              "accepted",
	StateHandshakeSent:         "handshake_sent",
	StateMessageLengthReceived: "message_length_received",
	StateMessageReceived:       "message_received",
	StateKeyLengthReceived:     "key_length_received",
	StateKeyReceived:           "key_received",
	StateTransformed:           "transformed",
	StateResponseSent:          "response_sent",
	StateClosed:                "closed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Worker owns one accepted connection for a single request-response cycle:
// handshake, message frame, key frame, transform, response.
type Worker struct {
	id      string
	role    Role
	rawConn *net.TCPConn
	logger  Logger

	opts options

	state   atomic.Int32
	symbols int
	closed  atomic.Bool
}

// NewWorker wraps an accepted connection.
func NewWorker(role Role, conn *net.TCPConn, opt ...Option) *Worker {
	var opts options
	for _, o := range opt {
		o(&opts)
	}
	checkOptions(&opts)

	return &Worker{
		id:      uuid.NewString(),
		role:    role,
		rawConn: conn,
		logger:  opts.logger,
		opts:    opts,
	}
}

// ID returns the identifier used in log records for this connection.
func (w *Worker) ID() string {
	return w.id
}

// State returns the last state the worker entered.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Addr returns the remote address of the connection.
func (w *Worker) Addr() net.Addr {
	return w.rawConn.RemoteAddr()
}

// Run performs the exchange and closes the connection.
// If ctx is canceled first, the connection is closed under the exchange
// and Run returns the context error.
func (w *Worker) Run(ctx context.Context) error {
	start := time.Now()
	w.logger.Debug("connection established", "conn_id", w.id, "addr", w.Addr(), "role", w.role)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	group, child := errgroup.WithContext(runCtx)

	group.Go(func() error {
		defer cancel()
		return w.exchange()
	})

	// Closing the connection is what unblocks the exchange on cancellation.
	group.Go(func() error {
		<-child.Done()
		return w.Close()
	})

	err := group.Wait()
	if err != nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	w.state.Store(int32(StateClosed))

	observeExchange(w.role, start, w.symbols, err)
	if err != nil {
		w.logger.Info("connection closed with error", "conn_id", w.id, "addr", w.Addr(), "error", err)
	} else {
		w.logger.Debug("connection closed", "conn_id", w.id, "addr", w.Addr(), "symbols", w.symbols)
	}

	return err
}

// Close closes the underlying TCP connection. Safe to call multiple times.
func (w *Worker) Close() error {
	if w.closed.Swap(true) {
		return nil // already closed
	}
	return w.rawConn.Close()
}

// IsClosed returns true if the connection has been closed.
func (w *Worker) IsClosed() bool {
	return w.closed.Load()
}

// exchange walks the state machine once. Every step must succeed in order.
func (w *Worker) exchange() error {
	if err := w.setWriteDeadline(); err != nil {
		return err
	}
	if err := WriteRole(w.rawConn, w.role); err != nil {
		return w.fail(err)
	}
	w.enter(StateHandshakeSent)

	message, err := w.readFrame(StateMessageLengthReceived, StateMessageReceived)
	if err != nil {
		return w.fail(err)
	}

	key, err := w.readFrame(StateKeyLengthReceived, StateKeyReceived)
	if err != nil {
		return w.fail(err)
	}

	if w.opts.requireFullKey {
		if err := ValidateInput(message, key); err != nil {
			return w.fail(err)
		}
	}

	result, err := Transform(w.role, message, key)
	if err != nil {
		return w.fail(err)
	}
	w.enter(StateTransformed)

	if err := w.setWriteDeadline(); err != nil {
		return err
	}
	if err := writeFull(w.rawConn, result); err != nil {
		return w.fail(newTransportError("write response", err))
	}
	w.symbols = len(result)
	w.enter(StateResponseSent)

	return nil
}

// readFrame reads one length-prefixed payload, entering lengthState once the
// prefix is decoded and payloadState once the payload is complete.
func (w *Worker) readFrame(lengthState, payloadState State) ([]byte, error) {
	if err := w.setReadDeadline(); err != nil {
		return nil, err
	}
	n, err := ReadFrameLength(w.rawConn, w.opts.maxFrameSize)
	if err != nil {
		return nil, err
	}
	w.enter(lengthState)

	if err := w.setReadDeadline(); err != nil {
		return nil, err
	}
	payload, err := ReadFramePayload(w.rawConn, n)
	if err != nil {
		return nil, err
	}
	w.enter(payloadState)

	return payload, nil
}

func (w *Worker) enter(s State) {
	w.state.Store(int32(s))
	w.logger.Debug("state", "conn_id", w.id, "state", s)
}

func (w *Worker) fail(err error) error {
	w.logger.Debug("exchange failed", "conn_id", w.id, "state", w.State(), "error", err)
	return err
}

func (w *Worker) setReadDeadline() error {
	return newTransportError("set read deadline", w.rawConn.SetReadDeadline(time.Now().Add(w.opts.readTimeout)))
}

func (w *Worker) setWriteDeadline() error {
	return newTransportError("set write deadline", w.rawConn.SetWriteDeadline(time.Now().Add(w.opts.writeTimeout)))
}

// CipherHandler is the Handler that runs a Worker for every accepted connection.
type CipherHandler struct {
	role Role
	opts []Option
}

// NewCipherHandler returns a Handler serving role with the given worker options.
func NewCipherHandler(role Role, opts ...Option) *CipherHandler {
	return &CipherHandler{role: role, opts: opts}
}

// Handle implements Handler. Errors end this connection only.
func (h *CipherHandler) Handle(ctx context.Context, conn *net.TCPConn) {
	connectionsAccepted.WithLabelValues(h.role.String()).Inc()
	_ = NewWorker(h.role, conn, h.opts...).Run(ctx)
}
