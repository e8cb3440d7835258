package otp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
	"testing/iotest"
)

func TestFrame_RoundTrip(t *testing.T) {
	for _, size := range []int{0, 1, 3, 4, 5, 255, 256, 4096, 70000, 1 << 20} {
		payload := bytes.Repeat([]byte("AB CD"), size/5+1)[:size]

		var buf bytes.Buffer
		if err := WriteFrame(&buf, payload); err != nil {
			t.Fatalf("WriteFrame(%d) failed: %v", size, err)
		}
		if buf.Len() != FrameHeaderLength+size {
			t.Fatalf("encoded %d bytes, want %d", buf.Len(), FrameHeaderLength+size)
		}

		got, err := ReadFrame(&buf, 0)
		if err != nil {
			t.Fatalf("ReadFrame(%d) failed: %v", size, err)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("payload of %d bytes altered", size)
		}
	}
}

func TestFrame_PartialReads(t *testing.T) {
	payload := bytes.Repeat([]byte("PARTIAL READ "), 500)

	var buf bytes.Buffer
	if err := WriteFrame(&buf, payload); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	// Every Read returns a single byte, so the header and payload need many calls.
	got, err := ReadFrame(iotest.OneByteReader(&buf), 0)
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("payload altered across partial reads")
	}
}

func TestFrame_HalfReads(t *testing.T) {
	payload := bytes.Repeat([]byte("Z"), 10000)

	var buf bytes.Buffer
	if err := WriteFrame(&buf, payload); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	got, err := ReadFrame(iotest.HalfReader(&buf), 0)
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("payload altered across partial reads")
	}
}

func TestFrame_BigEndianHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, []byte("HELLO")); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	want := []byte{0, 0, 0, 5, 'H', 'E', 'L', 'L', 'O'}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("encoded = %v, want %v", buf.Bytes(), want)
	}
}

func TestReadFrame_Truncated(t *testing.T) {
	var header [FrameHeaderLength]byte
	binary.BigEndian.PutUint32(header[:], 10)
	data := append(header[:], []byte("SHORT")...)

	_, err := ReadFrame(bytes.NewReader(data), 0)

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestReadFrame_TruncatedHeader(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{0, 0}), 0)

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestReadFrame_NoPayload(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{0, 0, 0, 3}), 0)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestReadFrame_TooLarge(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, make([]byte, 100)); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	_, err := ReadFrame(&buf, 99)
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("expected ErrFrameTooLarge, got %v", err)
	}
}

func TestReadFrameLength(t *testing.T) {
	n, err := ReadFrameLength(bytes.NewReader([]byte{0, 1, 0, 0}), 0)
	if err != nil {
		t.Fatalf("ReadFrameLength failed: %v", err)
	}
	if n != 65536 {
		t.Errorf("length = %d, want 65536", n)
	}
}

type failingWriter struct {
	err error
}

func (w failingWriter) Write(p []byte) (int, error) {
	return 0, w.err
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return len(p) - 1, nil
}

func TestWriteFrame_Errors(t *testing.T) {
	writeErr := errors.New("broken pipe")
	err := WriteFrame(failingWriter{err: writeErr}, []byte("HELLO"))

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if !errors.Is(err, writeErr) {
		t.Errorf("expected wrapped write error, got %v", err)
	}
	if te.Timeout() {
		t.Error("Timeout() = true for a non-timeout error")
	}

	err = WriteFrame(shortWriter{}, []byte("HELLO"))
	if !errors.Is(err, io.ErrShortWrite) {
		t.Errorf("expected io.ErrShortWrite, got %v", err)
	}
}
