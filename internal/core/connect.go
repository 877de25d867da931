package core

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"

	"tcpsock/internal/capability"
	"tcpsock/internal/retry"
	"tcpsock/internal/session"
	"tcpsock/internal/transport"
	"tcpsock/util"
)

// ConnectMode dials a remote address and runs a capability on the
// resulting connection.  This is the default client mode.
type ConnectMode struct {
	Dialer     transport.Dialer
	Capability capability.Capability
	Network    string
	Address    string
	Logger     *util.Logger

	// Retry re-dials after retryable failures.  Nil means one attempt.
	Retry *retry.Backoff

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	Stdin  io.Reader
	Stdout io.Writer
}

func (m *ConnectMode) stdin() io.Reader {
	if m.Stdin != nil {
		return m.Stdin
	}
	return os.Stdin
}

func (m *ConnectMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

// Run dials the remote address, creates a session, and hands it to
// the capability.  The transport is closed when Run returns.
func (m *ConnectMode) Run(ctx context.Context) error {
	defer m.Dialer.Close()

	m.Logger.Verbose("connecting to %s (%s)", m.Address, m.Network)

	conn, err := m.dial(ctx)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", m.Address, err)
	}
	defer conn.Close()

	m.Logger.Verbose("connected to %s", conn.RemoteAddr())

	sess := session.New(conn, m.stdin(), m.stdout(), m.Logger)
	return m.Capability.Handle(ctx, sess)
}

func (m *ConnectMode) dial(ctx context.Context) (net.Conn, error) {
	if m.Retry == nil {
		return m.Dialer.Dial(ctx, m.Network, m.Address)
	}
	var conn net.Conn
	err := m.Retry.Do(ctx, func(int) error {
		c, err := m.Dialer.Dial(ctx, m.Network, m.Address)
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	return conn, err
}
