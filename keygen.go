package otp

import (
	"crypto/rand"
	"io"
	"math/big"

	"github.com/pkg/errors"
)

var alphabetModulus = big.NewInt(int64(AlphabetSize))

// GenerateKey returns length symbols drawn uniformly from the alphabet, using crypto/rand.
func GenerateKey(length int) ([]byte, error) {
	return generateKey(rand.Reader, length)
}

func generateKey(random io.Reader, length int) ([]byte, error) {
	if length <= 0 {
		return nil, errors.Wrapf(ErrInvalidKeyLength, "%d", length)
	}

	key := make([]byte, length)
	for i := range key {
		n, err := rand.Int(random, alphabetModulus)
		if err != nil {
			return nil, errors.Wrap(err, "read entropy")
		}
		key[i] = SymbolOf(int(n.Int64()))
	}
	return key, nil
}

// WriteKey writes a freshly generated key of length symbols followed by a newline.
func WriteKey(w io.Writer, length int) error {
	key, err := GenerateKey(length)
	if err != nil {
		return err
	}
	_, err = w.Write(append(key, '\n'))
	return err
}
