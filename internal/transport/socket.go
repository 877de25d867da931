package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	"tcpsock/internal/metrics"
	"tcpsock/socket"
	"tcpsock/util"
)

// SocketDialer connects directly with a socket.Socket.
type SocketDialer struct {
	// Timeout bounds the connect when Bounded is set.  Zero with
	// Bounded set means a single readiness check.
	Timeout time.Duration
	Bounded bool

	Resolver *socket.Resolver
	Logger   *util.Logger
	Metrics  *metrics.Collector
}

// Dial resolves address and connects.  A context deadline bounds the
// connect even when the dialer itself is unbounded; the earlier of the
// two limits wins.
func (d *SocketDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	s, err := d.DialSocket(ctx, network, address)
	if err != nil {
		return nil, err
	}
	return s.NetConn(), nil
}

// DialSocket is Dial returning the concrete *socket.Socket.
func (d *SocketDialer) DialSocket(ctx context.Context, network, address string) (*socket.Socket, error) {
	switch network {
	case "tcp", "tcp4":
	default:
		return nil, fmt.Errorf("socket dialer: unsupported network %q", network)
	}
	host, port, err := util.SplitAddr(address)
	if err != nil {
		return nil, fmt.Errorf("socket dialer: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timeout, bounded := d.Timeout, d.Bounded
	if dl, ok := ctx.Deadline(); ok {
		left := time.Until(dl)
		if !bounded || left < timeout {
			timeout = left
		}
		bounded = true
	}

	opts := []socket.Option{socket.WithLogger(d.Logger), socket.WithMetrics(d.Metrics)}
	if d.Resolver != nil {
		opts = append(opts, socket.WithResolver(d.Resolver))
	}
	if bounded {
		return socket.DialTimeout(host, port, timeout, opts...)
	}
	return socket.Dial(host, port, opts...)
}

// Close is a no-op.
func (d *SocketDialer) Close() error { return nil }
