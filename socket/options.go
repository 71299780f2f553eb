package socket

import (
	"net"
	"time"

	"sockkit/internal/metrics"
	"sockkit/internal/notify"
	"sockkit/internal/transport"
	"sockkit/util"
)

// Options configures a socket.  The zero value is usable: errors go to
// stderr, nothing is counted and nobody is notified.
type Options struct {
	Logger     *util.Logger
	Metrics    *metrics.Collector
	Notifier   *notify.Subject
	BufferSize int // receive buffer per session; default util.DefaultBufSize
	Transport  transport.Config
}

// Option mutates Options.
type Option func(*Options)

func buildOptions(opts []Option) Options {
	o := Options{BufferSize: util.DefaultBufSize}
	for _, fn := range opts {
		fn(&o)
	}
	if o.Logger == nil {
		o.Logger = util.NewLogger(int(util.LogNormal))
	}
	if o.BufferSize <= 0 {
		o.BufferSize = util.DefaultBufSize
	}
	return o
}

// WithLogger injects the logger used by the socket and its strategy.
func WithLogger(l *util.Logger) Option { return func(o *Options) { o.Logger = l } }

// WithMetrics records traffic and sessions in c.
func WithMetrics(c *metrics.Collector) Option { return func(o *Options) { o.Metrics = c } }

// WithNotifier publishes lifecycle events to s.  Events are published
// outside the socket lock, so observers may query the socket.
func WithNotifier(s *notify.Subject) Option { return func(o *Options) { o.Notifier = s } }

// WithBufferSize sets the receive buffer size.  Datagrams longer than
// n are truncated.
func WithBufferSize(n int) Option { return func(o *Options) { o.BufferSize = n } }

// WithTimeouts sets the TCP connect timeout and the per-read timeout.
// Zero means indefinite.
func WithTimeouts(connect, read time.Duration) Option {
	return func(o *Options) {
		o.Transport.ConnectTimeout = connect
		o.Transport.ReadTimeout = read
	}
}

// WithMulticastTTL sets the TTL of outgoing multicast datagrams.
func WithMulticastTTL(ttl int) Option { return func(o *Options) { o.Transport.MulticastTTL = ttl } }

// WithMulticastLoopback controls whether this host receives its own
// multicast datagrams.  It is on by default.
func WithMulticastLoopback(on bool) Option {
	return func(o *Options) { o.Transport.DisableLoopback = !on }
}

// WithInterface selects the interface for multicast membership.
func WithInterface(ifi *net.Interface) Option { return func(o *Options) { o.Transport.Interface = ifi } }

// WithReuseAddr sets SO_REUSEADDR before binding.
func WithReuseAddr(on bool) Option { return func(o *Options) { o.Transport.ReuseAddr = on } }

// WithLocalPort fixes the source port of TCP client connections.
func WithLocalPort(port int) Option { return func(o *Options) { o.Transport.LocalPort = port } }

// WithBacklog sets the TCP server listen backlog.
func WithBacklog(n int) Option { return func(o *Options) { o.Transport.Backlog = n } }
