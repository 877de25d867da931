package tunnel

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	sockerr "tcpsock/internal/errors"
	"tcpsock/internal/metrics"
	"tcpsock/socket"
	"tcpsock/util"
)

// SSHConfig describes the gateway and how to authenticate to it.
type SSHConfig struct {
	User          string
	Host          string
	Port          int
	KeyPath       string
	PromptPass    bool
	UseAgent      bool
	StrictHostKey bool
	KnownHosts    string

	// ConnTimeout bounds the TCP connect to the gateway and the SSH
	// handshake separately.
	ConnTimeout time.Duration

	// Prompt reads secrets (passwords, key passphrases).  Defaults to
	// reading from the controlling terminal.
	Prompt Prompter

	// Resolver resolves Host.  Nil uses the socket package default.
	Resolver *socket.Resolver

	// Metrics receives the gateway socket's counters.
	Metrics *metrics.Collector
}

// SSHTunnel implements [Tunnel] over a single SSH client connection.
type SSHTunnel struct {
	config *SSHConfig
	logger *util.Logger

	mu     sync.RWMutex
	client *ssh.Client
	alive  bool
}

var _ Tunnel = (*SSHTunnel)(nil)

// NewSSHTunnel applies defaults to cfg and returns an unconnected
// tunnel.
func NewSSHTunnel(cfg *SSHConfig, logger *util.Logger) *SSHTunnel {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.ConnTimeout == 0 {
		cfg.ConnTimeout = 30 * time.Second
	}
	if cfg.Prompt == nil {
		cfg.Prompt = TerminalPrompt
	}
	return &SSHTunnel{config: cfg, logger: logger.Named("ssh")}
}

// Connect opens the gateway socket and runs the SSH handshake over it.
func (t *SSHTunnel) Connect(ctx context.Context) error {
	cfg := t.config
	auth, err := BuildAuthMethods(cfg)
	if err != nil {
		return sockerr.WrapSSH("auth", cfg.Host, cfg.Port, err)
	}
	hk, err := hostKeyCallback(cfg)
	if err != nil {
		return sockerr.WrapSSH("hostkey", cfg.Host, cfg.Port, err)
	}

	sock, err := t.dialGateway(ctx)
	if err != nil {
		return sockerr.WrapSSH("dial", cfg.Host, cfg.Port, err)
	}

	clientCfg := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            auth,
		HostKeyCallback: hk,
		Timeout:         cfg.ConnTimeout,
	}

	// ClientConfig.Timeout only covers net.Dial, so bound the handshake
	// with a socket deadline instead.
	sock.SetDeadline(time.Now().Add(cfg.ConnTimeout)) //nolint:errcheck
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	conn, chans, reqs, err := ssh.NewClientConn(sock.NetConn(), addr, clientCfg)
	if err != nil {
		sock.Close()
		return sockerr.WrapSSH("handshake", cfg.Host, cfg.Port, classifyHandshake(err))
	}
	sock.SetDeadline(time.Time{}) //nolint:errcheck

	client := ssh.NewClient(conn, chans, reqs)
	t.mu.Lock()
	t.client = client
	t.alive = true
	t.mu.Unlock()

	t.logger.Verbose("gateway %s established", addr)
	go t.monitor(client)
	return nil
}

// dialGateway connects a socket to the gateway.  A context deadline
// earlier than ConnTimeout wins.
func (t *SSHTunnel) dialGateway(ctx context.Context) (*socket.Socket, error) {
	cfg := t.config
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid gateway port %d", cfg.Port)
	}

	timeout := cfg.ConnTimeout
	if dl, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(dl))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := []socket.Option{socket.WithLogger(t.logger), socket.WithMetrics(cfg.Metrics)}
	if cfg.Resolver != nil {
		opts = append(opts, socket.WithResolver(cfg.Resolver))
	}
	t.logger.Debug("dialing gateway %s:%d as %s", cfg.Host, cfg.Port, cfg.User)
	return socket.DialTimeout(cfg.Host, uint16(cfg.Port), timeout, opts...)
}

// Dial opens a direct-tcpip channel to address.  ctx bounds the wait
// for the gateway to accept the channel.
func (t *SSHTunnel) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	t.mu.RLock()
	client, alive := t.client, t.alive
	t.mu.RUnlock()

	if !alive || client == nil {
		return nil, sockerr.ErrTunnelClosed
	}
	t.logger.Debug("forwarding %s %s", network, address)
	conn, err := client.DialContext(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("tunnel dial %s: %w", address, err)
	}
	return conn, nil
}

// Close shuts the SSH connection and the gateway socket.
func (t *SSHTunnel) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.alive = false
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}

// IsAlive reports whether the gateway connection is still up.
func (t *SSHTunnel) IsAlive() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.alive
}

func (t *SSHTunnel) monitor(client *ssh.Client) {
	err := client.Wait()

	t.mu.Lock()
	if t.client == client {
		t.alive = false
	}
	t.mu.Unlock()

	if err != nil {
		t.logger.Debug("gateway closed: %v", err)
	} else {
		t.logger.Debug("gateway closed")
	}
}

// classifyHandshake tags the two handshake failures callers tend to
// branch on.
func classifyHandshake(err error) error {
	var kerr *knownhostsKeyError
	switch {
	case sockerr.As(err, &kerr):
		return fmt.Errorf("%w: %v", sockerr.ErrHostKeyMismatch, err)
	case isAuthFailure(err):
		return fmt.Errorf("%w: %v", sockerr.ErrAuthFailed, err)
	}
	return err
}
