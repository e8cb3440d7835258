package otp

import (
	"bytes"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Role identifies which transform a server performs.
type Role uint8

const (
	// RoleUnknown is any identifier that is neither Encrypt nor Decrypt.
	RoleUnknown Role = iota
	// RoleEncrypt servers add the key to the message.
	RoleEncrypt
	// RoleDecrypt servers subtract the key from the message.
	RoleDecrypt
)

// IdentifierLength is the size of the role announcement sent by the server
// right after accepting a connection.
const IdentifierLength = 16

func (r Role) String() string {
	switch r {
	case RoleEncrypt:
		return "Encrypt"
	case RoleDecrypt:
		return "Decrypt"
	default:
		return "Unknown"
	}
}

// ParseRole accepts "encrypt" or "decrypt" in any case.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "encrypt":
		return RoleEncrypt, nil
	case "decrypt":
		return RoleDecrypt, nil
	default:
		return RoleUnknown, errors.Errorf("unknown role %q", s)
	}
}

// identifier returns the NUL-padded wire form of r.
func (r Role) identifier() [IdentifierLength]byte {
	var id [IdentifierLength]byte
	copy(id[:], r.String())
	return id
}

// WriteRole sends the 16-byte role identifier. It is not length-prefixed.
func WriteRole(w io.Writer, role Role) error {
	id := role.identifier()
	if _, err := w.Write(id[:]); err != nil {
		return newTransportError("write handshake", err)
	}
	return nil
}

// ReadRole reads exactly IdentifierLength bytes and decodes the announced role.
// Identifiers other than "Encrypt" and "Decrypt" decode to RoleUnknown.
func ReadRole(r io.Reader) (Role, error) {
	var id [IdentifierLength]byte
	if _, err := io.ReadFull(r, id[:]); err != nil {
		return RoleUnknown, newTransportError("read handshake", err)
	}

	name := id[:]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	switch string(name) {
	case RoleEncrypt.String():
		return RoleEncrypt, nil
	case RoleDecrypt.String():
		return RoleDecrypt, nil
	default:
		return RoleUnknown, nil
	}
}
