package core

import (
	"context"
	"net"
	"time"

	"tcpsock/config"
	"tcpsock/internal/capability"
	"tcpsock/internal/metrics"
	"tcpsock/internal/retry"
	"tcpsock/internal/transport"
	"tcpsock/socket"
	"tcpsock/tunnel"
	"tcpsock/util"
)

// Build constructs the Mode cfg asks for.  stats may be nil.
func Build(cfg *config.Config, logger *util.Logger, stats *metrics.Collector) (Mode, error) {
	resolver := &socket.Resolver{NoDNS: cfg.NoDNS}
	if cfg.NoDNS {
		// Reject names up front, even when a gateway will do the lookup.
		if _, err := resolver.Resolve(context.Background(), cfg.Host); err != nil {
			return nil, err
		}
	}
	if cfg.ZeroIO {
		return buildScan(cfg, logger, stats, resolver), nil
	}
	return buildConnect(cfg, logger, stats, resolver), nil
}

func buildConnect(cfg *config.Config, logger *util.Logger, stats *metrics.Collector, r *socket.Resolver) Mode {
	port := cfg.Port
	if port == 0 {
		if ports := cfg.AllPorts(); len(ports) > 0 {
			port = ports[0]
		}
	}
	m := &ConnectMode{
		Dialer:     buildDialer(cfg, logger, stats, r),
		Capability: buildCapability(cfg),
		Network:    "tcp",
		Address:    util.FormatAddr(cfg.Host, port),
		Logger:     logger,
	}
	if cfg.Retries > 0 {
		m.Retry = retry.ForConnect(cfg.Retries, config.DefaultRetryBaseDelay, config.DefaultRetryMaxDelay)
		m.Retry.OnRetry = func(attempt int, err error, wait time.Duration) {
			logger.Verbose("attempt %d failed: %v; retrying in %v", attempt, err, wait.Round(time.Millisecond))
		}
	}
	return m
}

func buildScan(cfg *config.Config, logger *util.Logger, stats *metrics.Collector, r *socket.Resolver) Mode {
	ports := cfg.AllPorts()
	if len(ports) == 0 && cfg.Port > 0 {
		ports = []int{cfg.Port}
	}
	m := &ScanMode{
		Dialer:  buildProbe(cfg, logger, stats, r),
		Host:    cfg.Host,
		Ports:   ports,
		Logger:  logger,
		Verbose: cfg.Verbose,
	}
	if !cfg.TunnelEnabled {
		m.Resolver = r
	}
	return m
}

// ── shared helpers ───────────────────────────────────────────────────

func sshConfig(cfg *config.Config, stats *metrics.Collector) *tunnel.SSHConfig {
	return &tunnel.SSHConfig{
		User:          cfg.TunnelUser,
		Host:          cfg.TunnelHost,
		Port:          cfg.TunnelPort,
		KeyPath:       cfg.SSHKeyPath,
		PromptPass:    cfg.SSHPassword,
		UseAgent:      cfg.UseSSHAgent,
		StrictHostKey: cfg.StrictHostKey,
		KnownHosts:    cfg.KnownHostsPath,
		ConnTimeout:   config.DefaultConnTimeout,
		Metrics:       stats,
	}
}

// buildDialer returns the gateway dialer for -T and a socket dialer
// otherwise.
func buildDialer(cfg *config.Config, logger *util.Logger, stats *metrics.Collector, r *socket.Resolver) transport.Dialer {
	if cfg.TunnelEnabled {
		return transport.NewSSHDialer(sshConfig(cfg, stats), logger)
	}
	return &transport.SocketDialer{
		Timeout:  cfg.Timeout,
		Bounded:  cfg.TimeoutSet,
		Resolver: r,
		Logger:   logger,
		Metrics:  stats,
	}
}

// buildProbe returns the per-port dialer used by -z.  Direct probes use
// the bounded connect with the scan timeout; gateway probes are bounded
// by a context deadline instead.
func buildProbe(cfg *config.Config, logger *util.Logger, stats *metrics.Collector, r *socket.Resolver) transport.Dialer {
	timeout := cfg.ScanTimeout()
	if cfg.TunnelEnabled {
		return &deadlineDialer{
			Dialer:  transport.NewSSHDialer(sshConfig(cfg, stats), logger),
			timeout: max(timeout, time.Millisecond),
		}
	}
	return &transport.SocketDialer{
		Timeout:  timeout,
		Bounded:  true,
		Resolver: r,
		Logger:   logger,
		Metrics:  stats,
	}
}

// deadlineDialer bounds every Dial of the wrapped Dialer.  A dialer with
// a Connect step is connected first, outside the per-dial deadline.
type deadlineDialer struct {
	transport.Dialer
	timeout time.Duration
}

func (d *deadlineDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	if c, ok := d.Dialer.(interface{ Connect(context.Context) error }); ok {
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.Dialer.Dial(ctx, network, address)
}

// buildCapability selects the per-connection behaviour.
func buildCapability(cfg *config.Config) capability.Capability {
	if cfg.Execute != "" || cfg.Command != "" {
		return &capability.Exec{Program: cfg.Execute, Command: cfg.Command}
	}
	return &capability.Relay{}
}
