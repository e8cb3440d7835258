package otp

import (
	"bytes"

	"github.com/pkg/errors"
)

// Symbols is the ordered alphabet shared by messages, keys and results.
const Symbols = "ABCDEFGHIJKLMNOPQRSTUVWXYZ "

// AlphabetSize is the modulus of the cipher.
const AlphabetSize = len(Symbols)

// symbolIndex maps every byte to its alphabet index, or -1.
var symbolIndex [256]int8

func init() {
	for i := range symbolIndex {
		symbolIndex[i] = -1
	}
	for i := 0; i < AlphabetSize; i++ {
		symbolIndex[Symbols[i]] = int8(i)
	}
}

// IndexOf returns the alphabet index of symbol.
// Only uppercase A-Z and space are accepted; there is no case folding.
func IndexOf(symbol byte) (int, error) {
	idx := symbolIndex[symbol]
	if idx < 0 {
		return 0, errors.Wrapf(ErrInvalidSymbol, "byte %q", symbol)
	}
	return int(idx), nil
}

// SymbolOf returns the symbol at index. It panics if index is outside [0, AlphabetSize).
func SymbolOf(index int) byte {
	return Symbols[index]
}

// Validate checks that every byte of p belongs to the alphabet.
func Validate(p []byte) error {
	for i, b := range p {
		if symbolIndex[b] < 0 {
			return errors.Wrapf(ErrInvalidSymbol, "byte %q at offset %d", b, i)
		}
	}
	return nil
}

// ValidateInput runs the client-side checks on a message and its key
// before any connection is made.
func ValidateInput(message, key []byte) error {
	if len(key) < len(message) {
		return errors.Wrapf(ErrKeyTooShort, "key has %d symbols, message has %d", len(key), len(message))
	}
	if err := Validate(message); err != nil {
		return errors.WithMessage(err, "message")
	}
	if err := Validate(key); err != nil {
		return errors.WithMessage(err, "key")
	}
	return nil
}

// TrimNewline strips a single trailing newline (and a preceding carriage return)
// from buffers read from files or produced by GenerateKey.
func TrimNewline(p []byte) []byte {
	p = bytes.TrimSuffix(p, []byte("\n"))
	return bytes.TrimSuffix(p, []byte("\r"))
}
