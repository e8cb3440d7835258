package otp

import (
	"net"
	"time"
)

// options holds the configuration for a server-side worker.
type options struct {
	logger Logger

	readTimeout    time.Duration // deadline for each blocking read
	writeTimeout   time.Duration // deadline for each blocking write
	maxFrameSize   int           // maximum declared length of a single frame
	requireFullKey bool          // reject keys shorter than the message instead of wrapping
}

// Option is a function that configures worker options.
type Option func(*options)

// Default configuration values.
const (
	defaultReadTimeout  = 30 * time.Second
	defaultWriteTimeout = 30 * time.Second
)

// checkOptions sets default values for unset worker options.
func checkOptions(opts *options) {
	if opts.readTimeout <= 0 {
		opts.readTimeout = defaultReadTimeout
	}

	if opts.writeTimeout <= 0 {
		opts.writeTimeout = defaultWriteTimeout
	}

	if opts.maxFrameSize == 0 {
		opts.maxFrameSize = defaultMaxFrameSize
	}

	if opts.logger == nil {
		opts.logger = defaultLogger()
	}
}

// ReadTimeoutOption returns an Option that bounds every blocking read.
// An expired deadline fails the exchange with a TransportError whose Timeout() is true.
func ReadTimeoutOption(timeout time.Duration) Option {
	return func(o *options) {
		o.readTimeout = timeout
	}
}

// WriteTimeoutOption returns an Option that bounds every blocking write.
func WriteTimeoutOption(timeout time.Duration) Option {
	return func(o *options) {
		o.writeTimeout = timeout
	}
}

// MaxFrameSizeOption returns an Option that sets the largest frame a peer may declare.
// A negative size removes the limit.
func MaxFrameSizeOption(size int) Option {
	return func(o *options) {
		o.maxFrameSize = size
	}
}

// RequireFullKeyOption makes the worker reject keys shorter than the message.
// By default the server trusts the client and reuses the key cyclically.
func RequireFullKeyOption(require bool) Option {
	return func(o *options) {
		o.requireFullKey = require
	}
}

// LoggerOption returns an Option that sets the logger.
// If not set, the default slog logger will be used.
func LoggerOption(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// clientOptions holds the configuration for a Client.
type clientOptions struct {
	logger   Logger
	resolver *net.Resolver
	onState  func(ClientState)

	dialTimeout  time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*clientOptions)

const defaultDialTimeout = 10 * time.Second

func checkClientOptions(opts *clientOptions) {
	if opts.dialTimeout <= 0 {
		opts.dialTimeout = defaultDialTimeout
	}
	if opts.readTimeout <= 0 {
		opts.readTimeout = defaultReadTimeout
	}
	if opts.writeTimeout <= 0 {
		opts.writeTimeout = defaultWriteTimeout
	}
	if opts.resolver == nil {
		opts.resolver = net.DefaultResolver
	}
	if opts.logger == nil {
		opts.logger = defaultLogger()
	}
}

// ClientDialTimeoutOption bounds host resolution and connection establishment.
func ClientDialTimeoutOption(timeout time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.dialTimeout = timeout
	}
}

// ClientReadTimeoutOption bounds each blocking read on the client.
func ClientReadTimeoutOption(timeout time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.readTimeout = timeout
	}
}

// ClientWriteTimeoutOption bounds each blocking write on the client.
func ClientWriteTimeoutOption(timeout time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.writeTimeout = timeout
	}
}

// ClientResolverOption sets the resolver used to look up the server host.
func ClientResolverOption(resolver *net.Resolver) ClientOption {
	return func(o *clientOptions) {
		o.resolver = resolver
	}
}

// ClientLoggerOption sets the client logger.
func ClientLoggerOption(logger Logger) ClientOption {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// ClientStateHookOption registers a callback invoked on every client state transition.
func ClientStateHookOption(cb func(ClientState)) ClientOption {
	return func(o *clientOptions) {
		o.onState = cb
	}
}
