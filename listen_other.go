//go:build !linux

package otp

import "net"

// listenTCP ignores backlog outside Linux; the OS default applies.
func listenTCP(addr *net.TCPAddr, backlog int) (*net.TCPListener, error) {
	return net.ListenTCP("tcp", addr)
}
