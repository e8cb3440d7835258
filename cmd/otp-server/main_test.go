package main

import (
	"io"
	"net"
	"strings"
	"testing"

	"github.com/Zereker/otp"
)

func TestRun_PortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer ln.Close()

	cfg := otp.DefaultConfig().Server
	cfg.Port = ln.Addr().(*net.TCPAddr).Port

	err = run(cfg, otp.NewLogger(io.Discard, false))
	if err == nil {
		t.Fatal("expected error for a port in use")
	}
	if !strings.HasPrefix(err.Error(), "create server: ") {
		t.Errorf("error = %q, want create server prefix", err)
	}
}
