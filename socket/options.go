package socket

import (
	"tcpsock/internal/metrics"
	"tcpsock/util"
)

type (
	options struct {
		logger   *util.Logger
		metrics  *metrics.Collector
		resolver *Resolver
	}

	// Option configures a Socket.
	Option func(*options)
)

// WithLogger routes diagnostics to l.  Without it a Socket is silent and
// reports only through returned errors.
func WithLogger(l *util.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics records connect outcomes and byte counts in c.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) {
		o.metrics = c
	}
}

// WithResolver sets the resolver used by the host-name variants.
func WithResolver(r *Resolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

func buildOptions(opts []Option) options {
	o := options{resolver: defaultResolver}
	for _, opt := range opts {
		opt(&o)
	}
	if o.resolver == nil {
		o.resolver = defaultResolver
	}
	o.logger = o.logger.Named("socket")
	return o
}
