package otp

import (
	"github.com/pkg/errors"
)

// Transform applies the cipher for role to message using key.
//
// Position i of the message is combined with key[i mod len(key)]:
// decryption subtracts modulo AlphabetSize, encryption adds.
// The key wraps around when it is shorter than the message; callers that
// need a true one-time pad must check the lengths first (see ValidateInput).
// The inputs are left untouched and a new slice of len(message) is returned.
func Transform(role Role, message, key []byte) ([]byte, error) {
	if role != RoleEncrypt && role != RoleDecrypt {
		return nil, errors.Errorf("transform: unsupported role %s", role)
	}
	if len(message) == 0 {
		return []byte{}, nil
	}
	if len(key) == 0 {
		return nil, errors.Wrap(ErrKeyTooShort, "transform: empty key")
	}

	result := make([]byte, len(message))
	for i, m := range message {
		mi := symbolIndex[m]
		if mi < 0 {
			return nil, errors.Wrapf(ErrInvalidSymbol, "message byte %q at offset %d", m, i)
		}
		k := key[i%len(key)]
		ki := symbolIndex[k]
		if ki < 0 {
			return nil, errors.Wrapf(ErrInvalidSymbol, "key byte %q at offset %d", k, i%len(key))
		}

		var r int
		if role == RoleDecrypt {
			r = (int(mi) - int(ki) + AlphabetSize) % AlphabetSize
		} else {
			r = (int(mi) + int(ki)) % AlphabetSize
		}
		result[i] = SymbolOf(r)
	}
	return result, nil
}

// Encrypt is Transform with RoleEncrypt.
func Encrypt(message, key []byte) ([]byte, error) {
	return Transform(RoleEncrypt, message, key)
}

// Decrypt is Transform with RoleDecrypt.
func Decrypt(message, key []byte) ([]byte, error) {
	return Transform(RoleDecrypt, message, key)
}
