//go:build linux

package otp

import (
	"net"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// listenTCP binds addr with an explicit accept backlog.
// The net package always uses the system maximum, so the socket is built by hand
// and handed to net.FileListener.
//
// A wildcard address listens dual-stack, as net.ListenTCP does, and falls back
// to IPv4 on hosts without IPv6.
func listenTCP(addr *net.TCPAddr, backlog int) (*net.TCPListener, error) {
	if backlog <= 0 {
		return net.ListenTCP("tcp", addr)
	}

	if addr.IP == nil || addr.IP.IsUnspecified() {
		ln, err := listenSocket(unix.AF_INET6, &unix.SockaddrInet6{Port: addr.Port}, true, addr, backlog)
		if !errors.Is(err, unix.EAFNOSUPPORT) {
			return ln, err
		}
	}

	family, sa := sockaddr(addr)
	return listenSocket(family, sa, false, addr, backlog)
}

func listenSocket(family int, sa unix.Sockaddr, dualStack bool, addr *net.TCPAddr, backlog int) (*net.TCPListener, error) {
	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return nil, errors.Wrap(os.NewSyscallError("socket", err), "listen")
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, errors.Wrap(os.NewSyscallError("setsockopt", err), "listen")
	}
	if dualStack {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 0); err != nil {
			_ = unix.Close(fd)
			return nil, errors.Wrap(os.NewSyscallError("setsockopt", err), "listen")
		}
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, errors.Wrapf(os.NewSyscallError("bind", err), "listen %s", addr)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		_ = unix.Close(fd)
		return nil, errors.Wrapf(os.NewSyscallError("listen", err), "listen %s", addr)
	}

	// FileListener dups the descriptor, so the file is closed either way.
	f := os.NewFile(uintptr(fd), "tcp-listener")
	defer f.Close()

	ln, err := net.FileListener(f)
	if err != nil {
		return nil, errors.Wrap(err, "listen")
	}
	tcpLn, ok := ln.(*net.TCPListener)
	if !ok {
		_ = ln.Close()
		return nil, errors.Errorf("listen: unexpected listener type %T", ln)
	}
	return tcpLn, nil
}

// sockaddr returns the single-stack socket address for addr.
// A nil IP maps to the IPv4 wildcard.
func sockaddr(addr *net.TCPAddr) (int, unix.Sockaddr) {
	if addr.IP == nil || addr.IP.To4() != nil {
		sa := &unix.SockaddrInet4{Port: addr.Port}
		if ip4 := addr.IP.To4(); ip4 != nil {
			copy(sa.Addr[:], ip4)
		}
		return unix.AF_INET, sa
	}

	sa := &unix.SockaddrInet6{Port: addr.Port}
	copy(sa.Addr[:], addr.IP.To16())
	return unix.AF_INET6, sa
}
