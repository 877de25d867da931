package transport

import (
	"context"
	"fmt"
	"net"
	"sync"

	"tcpsock/tunnel"
	"tcpsock/util"
)

// SSHDialer forwards connections through a gateway tunnel, which is
// connected on the first Dial and torn down by Close.
type SSHDialer struct {
	tunnel tunnel.Tunnel
	logger *util.Logger

	mu        sync.Mutex
	connected bool
}

// NewSSHDialer returns a dialer over an SSH gateway described by cfg.
func NewSSHDialer(cfg *tunnel.SSHConfig, logger *util.Logger) *SSHDialer {
	return NewTunnelDialer(tunnel.NewSSHTunnel(cfg, logger), logger)
}

// NewTunnelDialer returns a dialer over an arbitrary tunnel.
func NewTunnelDialer(t tunnel.Tunnel, logger *util.Logger) *SSHDialer {
	return &SSHDialer{tunnel: t, logger: logger}
}

// Connect brings the tunnel up if it is not already alive.
func (d *SSHDialer) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected && d.tunnel.IsAlive() {
		return nil
	}
	d.logger.Verbose("establishing SSH tunnel")
	if err := d.tunnel.Connect(ctx); err != nil {
		return fmt.Errorf("tunnel: %w", err)
	}
	d.connected = true
	return nil
}

// Dial connects the tunnel if needed and forwards to address.
func (d *SSHDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	if err := d.Connect(ctx); err != nil {
		return nil, err
	}
	return d.tunnel.Dial(ctx, network, address)
}

// Close tears down the tunnel.
func (d *SSHDialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}
	d.connected = false
	return d.tunnel.Close()
}
