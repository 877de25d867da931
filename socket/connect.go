package socket

import (
	"context"
	"os"
	"time"

	"golang.org/x/sys/unix"

	sockerr "tcpsock/internal/errors"
)

// Connect performs a blocking connect to ep with no time limit.
//
// It is a no-op on a Connected Socket.  On failure the Socket stays
// Unconnected.  SO_REUSEADDR and TCP_NODELAY are applied first.
func (s *Socket) Connect(ep Endpoint) error {
	return s.connect(ep, 0, false)
}

// ConnectTimeout connects to ep, giving up after timeout.
//
// The descriptor is switched to non-blocking mode for the attempt and
// its original flags are restored on every return path.  A zero (or
// negative) timeout polls the pending handshake once and fails with
// KindTimeout if it has not already completed; this differs from
// Connect, which waits indefinitely.
//
// The three outcomes are nil (Connected), a KindTimeout error, or a
// KindConnect / KindSockError error.
func (s *Socket) ConnectTimeout(ep Endpoint, timeout time.Duration) error {
	if timeout < 0 {
		timeout = 0
	}
	return s.connect(ep, timeout, true)
}

// ConnectHost resolves host and calls Connect.  A resolution failure
// is returned as KindResolve and no connect is attempted.
func (s *Socket) ConnectHost(host string, port uint16) error {
	if s.IsConnected() {
		return nil
	}
	ep, err := s.resolver().ResolveEndpoint(context.Background(), host, port)
	if err != nil {
		s.opts.logger.Error("%v", err)
		return err
	}
	return s.Connect(ep)
}

// ConnectHostTimeout resolves host and calls ConnectTimeout.  The
// timeout covers the connect only, not the name lookup.
func (s *Socket) ConnectHostTimeout(host string, port uint16, timeout time.Duration) error {
	if s.IsConnected() {
		return nil
	}
	ep, err := s.resolver().ResolveEndpoint(context.Background(), host, port)
	if err != nil {
		s.opts.logger.Error("%v", err)
		return err
	}
	return s.ConnectTimeout(ep, timeout)
}

func (s *Socket) resolver() *Resolver {
	if s.opts.resolver == nil {
		return defaultResolver
	}
	return s.opts.resolver
}

// ── state machine ────────────────────────────────────────────────────

func (s *Socket) connect(ep Endpoint, timeout time.Duration, bounded bool) error {
	switch s.State() {
	case Connected:
		return nil
	case Closed:
		return sockerr.NewSocket(KindClosed, "connect", ep.String(), ErrClosed)
	}
	if !s.fd.valid() {
		err := sockerr.NewSocket(KindSocket, "connect", ep.String(), ErrNoDescriptor)
		s.opts.logger.Error("error creating socket: %v", err)
		return err
	}

	s.ep = ep
	s.opts.metrics.ConnectAttempt()
	s.applyOptions()

	start := time.Now()
	var err error
	if bounded {
		err = s.connectBounded(ep, timeout)
	} else {
		err = s.connectBlocking(ep)
	}
	if err != nil {
		s.opts.metrics.RecordError(err)
		s.opts.logger.Error("error connecting: %v", err)
		return err
	}

	s.state.Store(int32(Connected))
	s.opts.metrics.ConnectEstablished(time.Since(start))
	s.opts.logger.Info("connected to %s on port %d...", ep.IP(), ep.Port)
	return nil
}

// applyOptions sets SO_REUSEADDR and TCP_NODELAY.  A failure is
// reported but does not abort the connect.
func (s *Socket) applyOptions() {
	if err := s.fd.setReuseAddr(); err != nil {
		s.opts.logger.Warn("reuse address: %v", err)
	}
	if err := s.fd.setNoDelay(); err != nil {
		s.opts.logger.Warn("no delay: %v", err)
	}
}

func (s *Socket) connectBlocking(ep Endpoint) error {
	addr := ep.String()
	switch err := s.fd.connect(ep.sockaddr()); err {
	case nil:
		return nil
	case unix.EINTR:
		// The handshake carries on in the kernel; wait for its result.
		return s.awaitHandshake(addr, 0, false)
	default:
		return sockerr.NewSocket(KindConnect, "connect", addr, os.NewSyscallError("connect", err))
	}
}

func (s *Socket) connectBounded(ep Endpoint, timeout time.Duration) (err error) {
	addr := ep.String()

	flags, err := s.fd.flags()
	if err != nil {
		return sockerr.NewSocket(KindConnect, "connect", addr, err)
	}
	if err := s.fd.setFlags(flags | unix.O_NONBLOCK); err != nil {
		return sockerr.NewSocket(KindConnect, "connect", addr, err)
	}
	defer func() {
		if rerr := s.fd.setFlags(flags); rerr != nil && err == nil {
			err = sockerr.NewSocket(KindConnect, "connect", addr, rerr)
		}
	}()

	switch cerr := s.fd.connect(ep.sockaddr()); cerr {
	case nil:
		return nil
	case unix.EINPROGRESS:
	default:
		return sockerr.NewSocket(KindConnect, "connect", addr, os.NewSyscallError("connect", cerr))
	}
	return s.awaitHandshake(addr, timeout, true)
}

// awaitHandshake waits for a pending connect and reads SO_ERROR.
func (s *Socket) awaitHandshake(addr string, timeout time.Duration, bounded bool) error {
	ready, err := s.fd.waitReady(timeout, bounded)
	if err != nil {
		return sockerr.NewSocket(KindConnect, "connect", addr, err)
	}
	if !ready {
		return sockerr.NewSocket(KindTimeout, "connect", addr, unix.ETIMEDOUT)
	}
	errno, err := s.fd.soError()
	if err != nil {
		return sockerr.NewSocket(KindConnect, "connect", addr, err)
	}
	if errno != 0 {
		return sockerr.NewSocket(KindSockError, "connect", addr, os.NewSyscallError("connect", errno))
	}
	return nil
}

// ── constructors that connect ────────────────────────────────────────

// Dial creates a Socket and connects it to host:port with no time
// limit.  The descriptor is released if anything fails.
func Dial(host string, port uint16, opts ...Option) (*Socket, error) {
	s, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := s.ConnectHost(host, port); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

// DialTimeout is Dial with a bounded connect.
func DialTimeout(host string, port uint16, timeout time.Duration, opts ...Option) (*Socket, error) {
	s, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := s.ConnectHostTimeout(host, port, timeout); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

// DialEndpoint creates a Socket and connects it to ep with no time
// limit.
func DialEndpoint(ep Endpoint, opts ...Option) (*Socket, error) {
	s, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := s.Connect(ep); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}
