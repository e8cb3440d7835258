package otp

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"
)

// Handler is the interface for handling incoming TCP connections.
// Each call runs on its own goroutine and owns conn until it returns.
type Handler interface {
	// Handle is called for each new connection.
	// ctx is canceled when the server gives up on in-flight connections.
	Handle(ctx context.Context, conn *net.TCPConn)
}

// Server represents a TCP server that listens for incoming connections.
type Server struct {
	listener        *net.TCPListener
	logger          Logger
	shutdownTimeout time.Duration
	backlog         int

	mu          sync.Mutex
	shutdown    bool
	closeOnce   sync.Once
	shutdownNow chan struct{} // closed to skip the shutdown timeout
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// ServerLoggerOption sets the logger for the server.
func ServerLoggerOption(logger Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// ServerShutdownTimeoutOption sets the graceful shutdown timeout.
// When the context passed to Serve is canceled, the server stops accepting
// and waits up to this duration for in-flight connections before canceling them.
// Default is 0 (in-flight connections are canceled immediately).
func ServerShutdownTimeoutOption(timeout time.Duration) ServerOption {
	return func(s *Server) {
		s.shutdownTimeout = timeout
	}
}

// ServerBacklogOption sets the length of the pending connection queue.
// It is honoured on Linux; other platforms use the OS default.
// Zero or negative means the OS default.
func ServerBacklogOption(backlog int) ServerOption {
	return func(s *Server) {
		s.backlog = backlog
	}
}

// New creates a new TCP server bound to the specified address.
// Returns an error if the address cannot be bound.
func New(addr *net.TCPAddr, opts ...ServerOption) (*Server, error) {
	s := &Server{
		logger:      slog.Default(),
		shutdownNow: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	listener, err := listenTCP(addr, s.backlog)
	if err != nil {
		return nil, err
	}
	s.listener = listener

	return s, nil
}

// Serve accepts connections and hands each one to handler on a new goroutine.
// It blocks only in accept, until the context is canceled, Close is called,
// or an unrecoverable accept error occurs. A failing connection never stops the loop.
//
// Serve returns after the in-flight handlers have returned.
func (s *Server) Serve(ctx context.Context, handler Handler) error {
	s.logger.Info("server started", "addr", s.listener.Addr())

	workerCtx, cancelWorkers := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelWorkers()

	var workers sync.WaitGroup
	serveDone := make(chan struct{})
	defer close(serveDone)

	go func() {
		select {
		case <-ctx.Done():
		case <-serveDone:
			return
		}

		s.mu.Lock()
		s.shutdown = true
		s.mu.Unlock()
		// Set a deadline to unblock Accept
		_ = s.listener.SetDeadline(time.Now())
	}()

	for {
		conn, err := s.listener.AcceptTCP()
		if err != nil {
			s.mu.Lock()
			isShutdown := s.shutdown
			s.mu.Unlock()

			if isShutdown {
				s.drain(&workers)
				cancelWorkers()
				workers.Wait()
				s.logger.Info("server stopped", "addr", s.listener.Addr())
				return ctx.Err()
			}

			// Check if it's a temporary error
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			s.logger.Error("accept error", "error", err)
			cancelWorkers()
			workers.Wait()
			return err
		}

		s.logger.Debug("accepted connection", "remote_addr", conn.RemoteAddr())
		_ = conn.SetNoDelay(true)

		workers.Add(1)
		go func() {
			defer workers.Done()
			handler.Handle(workerCtx, conn)
		}()
	}
}

// drain waits for in-flight handlers up to the shutdown timeout.
func (s *Server) drain(workers *sync.WaitGroup) {
	if s.shutdownTimeout <= 0 {
		return
	}

	done := make(chan struct{})
	go func() {
		workers.Wait()
		close(done)
	}()

	s.logger.Info("graceful shutdown initiated", "timeout", s.shutdownTimeout)
	timer := time.NewTimer(s.shutdownTimeout)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		s.logger.Warn("shutdown timeout expired, canceling connections")
	case <-s.shutdownNow:
		s.logger.Debug("shutdown timeout bypassed via Close()")
	}
}

// Close stops the server by closing the underlying listener.
// It also bypasses any remaining shutdown timeout.
// Any blocked Accept calls will return with an error.
func (s *Server) Close() error {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()

	s.closeOnce.Do(func() {
		close(s.shutdownNow)
	})

	return s.listener.Close()
}

// Addr returns the listener's network address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
