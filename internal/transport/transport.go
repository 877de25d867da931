// Package transport decides how a connection reaches its target:
// directly through a socket.Socket, or forwarded by an SSH gateway.
// What flows over the connection is the capability layer's concern.
package transport

import (
	"context"
	"net"
)

// Dialer opens outbound connections.
type Dialer interface {
	// Dial connects to address ("host:port").  Only TCP networks are
	// supported.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases long-lived resources such as an SSH session.
	// Stateless dialers return nil.
	Close() error
}
