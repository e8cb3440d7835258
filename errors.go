package otp

import (
	"errors"
	"fmt"
	"net"
)

// Errors returned by validation and the cipher transform.
var (
	// ErrInvalidSymbol is returned when a byte is not an uppercase letter or a space.
	ErrInvalidSymbol = errors.New("invalid symbol")
	// ErrKeyTooShort is returned when the key is shorter than the message.
	ErrKeyTooShort = errors.New("key too short")
	// ErrFrameTooLarge is returned when a peer declares a frame above the configured limit.
	ErrFrameTooLarge = errors.New("frame too large")
	// ErrProtocolMismatch is matched by *ProtocolMismatchError.
	ErrProtocolMismatch = errors.New("protocol mismatch")
	// ErrInvalidKeyLength is returned by GenerateKey for non-positive lengths.
	ErrInvalidKeyLength = errors.New("invalid key length")
)

// TransportError reports a failed read or write on the connection,
// including a peer that disconnects mid-frame.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was a read or write deadline expiring.
func (e *TransportError) Timeout() bool {
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

func newTransportError(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}

// ProtocolMismatchError is returned by the client when the server announces
// a role other than the one the client wants.
type ProtocolMismatchError struct {
	Want Role
	Got  Role
}

func (e *ProtocolMismatchError) Error() string {
	return fmt.Sprintf("protocol mismatch: want %s server, got %s", e.Want, e.Got)
}

func (e *ProtocolMismatchError) Is(target error) bool {
	return target == ErrProtocolMismatch
}

// HostResolutionError is returned when the client cannot resolve the server host.
type HostResolutionError struct {
	Host string
	Err  error
}

func (e *HostResolutionError) Error() string {
	return fmt.Sprintf("resolve host %q: %v", e.Host, e.Err)
}

func (e *HostResolutionError) Unwrap() error {
	return e.Err
}
