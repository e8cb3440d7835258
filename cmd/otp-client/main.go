// Command otp-client sends a message and its key to an otp-server and prints the result.
//
//	otp-client [-role decrypt|encrypt] [-host localhost] [-config file] [-timeout d] [-deadline d] <message-file> <key-file> <port>
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/Zereker/otp"
)

func main() {
	var (
		roleFlag   = flag.String("role", "", "operation: decrypt or encrypt (default decrypt)")
		host       = flag.String("host", "", "server host (default localhost)")
		configPath = flag.String("config", "", "YAML config file")
		timeout    = flag.Duration("timeout", 0, "timeout for dialing and for each read or write (default from config)")
		deadline   = flag.Duration("deadline", 0, "limit for the whole request (default from config)")
		verbose    = flag.Bool("verbose", false, "verbose logging")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <message-file> <key-file> <port>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 3 {
		flag.Usage()
		os.Exit(1)
	}

	logger := otp.NewLogger(os.Stderr, *verbose)
	slog.SetDefault(logger)

	cfg := otp.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = otp.LoadConfig(*configPath); err != nil {
			logger.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	}

	port, err := strconv.Atoi(flag.Arg(2))
	if err != nil || port <= 0 || port > 65535 {
		logger.Error("invalid port", "port", flag.Arg(2))
		os.Exit(1)
	}
	cfg.Client.Port = port
	if *host != "" {
		cfg.Client.Host = *host
	}
	if *roleFlag != "" {
		role, err := otp.ParseRole(*roleFlag)
		if err != nil {
			logger.Error("invalid role", "error", err)
			os.Exit(1)
		}
		cfg.Client.Role = role
	}
	applyTimeouts(&cfg.Client, *timeout, *deadline)

	result, err := run(cfg.Client, logger, flag.Arg(0), flag.Arg(1))
	if err != nil {
		logger.Error("request failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("%s\n", result)
}

func run(cfg otp.ClientConfig, logger *slog.Logger, messagePath, keyPath string) ([]byte, error) {
	message, err := readBuffer(messagePath)
	if err != nil {
		return nil, err
	}
	key, err := readBuffer(keyPath)
	if err != nil {
		return nil, err
	}

	client := otp.NewClient(cfg.Role, cfg.Options(logger)...)
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	ctx := context.Background()
	if cfg.Deadline.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Deadline.Duration)
		defer cancel()
	}
	return client.Do(ctx, addr, message, key)
}

// applyTimeouts overrides the configured timeouts with the non-zero flag values.
func applyTimeouts(cfg *otp.ClientConfig, timeout, deadline time.Duration) {
	if timeout > 0 {
		cfg.DialTimeout.Duration = timeout
		cfg.ReadTimeout.Duration = timeout
		cfg.WriteTimeout.Duration = timeout
	}
	if deadline > 0 {
		cfg.Deadline.Duration = deadline
	}
}

func readBuffer(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read input")
	}
	return otp.TrimNewline(b), nil
}
