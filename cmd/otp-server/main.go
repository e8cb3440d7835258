// Command otp-server runs an encryption or decryption daemon.
//
//	otp-server [-role decrypt|encrypt] [-config file] [-backlog n] [-metrics addr] [-verbose] <port>
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Zereker/otp"
)

func main() {
	var (
		roleFlag    = flag.String("role", "", "server role: decrypt or encrypt (default decrypt)")
		configPath  = flag.String("config", "", "YAML config file")
		backlog     = flag.Int("backlog", -1, "pending connection queue length (default from config)")
		metricsAddr = flag.String("metrics", "", "serve Prometheus metrics on this address")
		verbose     = flag.Bool("verbose", false, "verbose logging")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <port>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

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

	if flag.NArg() >= 1 {
		port, err := strconv.Atoi(flag.Arg(0))
		if err != nil || port < 0 || port > 65535 {
			logger.Error("invalid port", "port", flag.Arg(0))
			os.Exit(1)
		}
		cfg.Server.Port = port
	} else if *configPath == "" {
		flag.Usage()
		os.Exit(1)
	}
	if *roleFlag != "" {
		role, err := otp.ParseRole(*roleFlag)
		if err != nil {
			logger.Error("invalid role", "error", err)
			os.Exit(1)
		}
		cfg.Server.Role = role
	}
	if *backlog >= 0 {
		cfg.Server.Backlog = *backlog
	}
	if *metricsAddr != "" {
		cfg.Server.MetricsAddr = *metricsAddr
	}

	if err := run(cfg.Server, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(cfg otp.ServerConfig, logger *slog.Logger) error {
	server, err := otp.New(&net.TCPAddr{Port: cfg.Port}, cfg.ServerOptions(logger)...)
	if err != nil {
		return errors.Wrap(err, "create server")
	}
	defer server.Close()

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Info("metrics listening", "addr", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Error("metrics server error", "error", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("serving", "role", cfg.Role, "port", cfg.Port, "backlog", cfg.Backlog)
	return server.Serve(ctx, otp.NewCipherHandler(cfg.Role, cfg.Options(logger)...))
}
