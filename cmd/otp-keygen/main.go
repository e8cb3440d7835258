// Command otp-keygen prints a random key of the given length followed by a newline.
//
//	otp-keygen <length>
package main

import (
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/Zereker/otp"
)

func main() {
	logger := otp.NewLogger(os.Stderr, false)

	if len(os.Args) != 2 {
		logger.Error("usage: otp-keygen <length>")
		os.Exit(1)
	}

	if err := run(os.Args[1], os.Stdout); err != nil {
		logger.Error("keygen failed", "error", err)
		os.Exit(1)
	}
}

func run(arg string, w io.Writer) error {
	length, err := strconv.Atoi(arg)
	if err != nil {
		return errors.Wrapf(err, "invalid length %q", arg)
	}
	return otp.WriteKey(w, length)
}
