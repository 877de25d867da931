// Package tunnel routes TCP connections through an SSH gateway.  The
// gateway leg is a socket.Socket opened with the bounded connect; the
// SSH layer comes from golang.org/x/crypto/ssh.
package tunnel

import (
	"context"
	"net"
)

// Tunnel is an encrypted channel through which connections to third
// hosts can be opened.
type Tunnel interface {
	// Connect reaches the gateway and completes the SSH handshake.
	Connect(ctx context.Context) error

	// Dial opens a forwarded connection to address via the gateway.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close tears the tunnel down.
	Close() error

	// IsAlive reports whether the gateway connection is still up.
	IsAlive() bool
}
