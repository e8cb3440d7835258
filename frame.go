package otp

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// FrameHeaderLength is the size of the big-endian length prefix.
const FrameHeaderLength = 4

// defaultMaxFrameSize bounds the payload a peer may declare (1MB).
const defaultMaxFrameSize = 1024 * 1024

// WriteFrame sends payload preceded by its length in network byte order.
func WriteFrame(w io.Writer, payload []byte) error {
	if uint64(len(payload)) > uint64(^uint32(0)) {
		return errors.Wrapf(ErrFrameTooLarge, "payload of %d bytes", len(payload))
	}

	var header [FrameHeaderLength]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if err := writeFull(w, header[:]); err != nil {
		return newTransportError("write frame length", err)
	}
	if err := writeFull(w, payload); err != nil {
		return newTransportError("write frame payload", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed payload.
// Lengths above maxSize are rejected before allocation; maxSize <= 0 disables the check.
func ReadFrame(r io.Reader, maxSize int) ([]byte, error) {
	n, err := ReadFrameLength(r, maxSize)
	if err != nil {
		return nil, err
	}
	return ReadFramePayload(r, n)
}

// ReadFrameLength reads and decodes the 4-byte length prefix.
func ReadFrameLength(r io.Reader, maxSize int) (uint32, error) {
	var header [FrameHeaderLength]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, newTransportError("read frame length", err)
	}

	n := binary.BigEndian.Uint32(header[:])
	if maxSize > 0 && uint64(n) > uint64(maxSize) {
		return 0, errors.Wrapf(ErrFrameTooLarge, "declared %d bytes, limit %d", n, maxSize)
	}
	return n, nil
}

// ReadFramePayload reads exactly n bytes, looping over partial reads.
// A stream that ends early yields a TransportError wrapping io.ErrUnexpectedEOF.
func ReadFramePayload(r io.Reader, n uint32) ([]byte, error) {
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF && n > 0 {
			err = io.ErrUnexpectedEOF
		}
		return nil, newTransportError("read frame payload", err)
	}
	return payload, nil
}

// writeFull writes all of p, treating a short write without error as io.ErrShortWrite.
func writeFull(w io.Writer, p []byte) error {
	n, err := w.Write(p)
	if err != nil {
		return err
	}
	if n != len(p) {
		return io.ErrShortWrite
	}
	return nil
}
