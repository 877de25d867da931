package socket

import (
	"errors"
	"io"
	"os"
	"sync/atomic"

	"golang.org/x/sys/unix"

	sockerr "tcpsock/internal/errors"
)

// State is the lifecycle position of a Socket.
type State int32

const (
	// Unconnected is the state of a freshly created Socket and of one
	// whose connect attempt failed.
	Unconnected State = iota
	// Connected means the handshake completed; I/O is permitted.
	Connected
	// Closed is terminal.  The descriptor has been released.
	Closed
)

func (s State) String() string {
	switch s {
	case Unconnected:
		return "unconnected"
	case Connected:
		return "connected"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Socket is a synchronous IPv4 TCP client connection.  It exclusively
// owns one OS descriptor.
//
// A Socket is not safe for concurrent use.  Callers that send and
// receive from different goroutines must serialize Connect and Close
// themselves; the one exception is that Close may be called while
// another goroutine is blocked in Read or Receive, which it unblocks.
type Socket struct {
	fd    *netFD
	ep    Endpoint
	state atomic.Int32
	opts  options
}

// New allocates a descriptor and returns an Unconnected Socket.
// Descriptor-creation failure is returned as KindSocket.
func New(opts ...Option) (*Socket, error) {
	o := buildOptions(opts)
	fd, err := newFD()
	if err != nil {
		serr := sockerr.NewSocket(KindSocket, "socket", "", err)
		o.logger.Error("error creating socket: %v", err)
		o.metrics.RecordError(serr)
		return nil, serr
	}
	return &Socket{fd: fd, opts: o}, nil
}

// FromFD adopts an already connected stream descriptor, such as one
// returned by accept, as a Connected Socket.  remote is recorded as the
// endpoint.  The Socket takes ownership of fd.
func FromFD(fd int, remote Endpoint, opts ...Option) (*Socket, error) {
	if fd < 0 {
		return nil, sockerr.NewSocket(KindSocket, "adopt", remote.String(), ErrNoDescriptor)
	}
	s := &Socket{fd: adoptFD(fd), ep: remote, opts: buildOptions(opts)}
	s.state.Store(int32(Connected))
	s.opts.metrics.ConnectionOpened()
	return s, nil
}

// State returns the current lifecycle state.
func (s *Socket) State() State { return State(s.state.Load()) }

// IsConnected reports whether State is Connected.
func (s *Socket) IsConnected() bool { return s.State() == Connected }

// Endpoint returns the endpoint of the most recent connect attempt, or
// the zero Endpoint if none was made.
func (s *Socket) Endpoint() Endpoint { return s.ep }

// FD returns the OS descriptor, or -1 once it has been released.
func (s *Socket) FD() int {
	if s.fd == nil {
		return -1
	}
	return s.fd.raw()
}

// Read performs exactly one read call.  It does not retry partial
// reads; use Receive for that.  A zero-length read returns io.EOF,
// unless the Socket was closed while the read was pending.
func (s *Socket) Read(p []byte) (int, error) {
	if err := s.ready("read"); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	n, err := s.fd.read(p)
	if err != nil {
		return n, s.ioError("read", err)
	}
	if n == 0 {
		if s.State() == Closed {
			return 0, sockerr.NewSocket(KindClosed, "read", s.addr(), ErrClosed)
		}
		return 0, io.EOF
	}
	s.opts.metrics.BytesReceived(int64(n))
	return n, nil
}

// Write performs exactly one write call and may transfer fewer than
// len(p) bytes; use Send, or NetConn, to move the whole buffer.
func (s *Socket) Write(p []byte) (int, error) {
	if err := s.ready("write"); err != nil {
		return 0, err
	}
	n, err := s.fd.write(p)
	s.opts.metrics.BytesSent(int64(n))
	if err != nil {
		return n, s.ioError("write", err)
	}
	return n, nil
}

// CloseWrite shuts down the sending side; the peer sees end-of-stream
// while this side can keep reading.
func (s *Socket) CloseWrite() error {
	if err := s.ready("shutdown"); err != nil {
		return err
	}
	if err := s.fd.shutdown(unix.SHUT_WR); err != nil {
		return sockerr.NewSocket(KindIO, "shutdown", s.addr(), err)
	}
	return nil
}

// Close releases the descriptor and moves the Socket to Closed.  It is
// idempotent: later calls return nil, and every later I/O call fails
// with KindClosed.
func (s *Socket) Close() error {
	prev := State(s.state.Swap(int32(Closed)))
	if prev == Closed {
		return nil
	}
	if prev == Connected {
		s.opts.metrics.ConnectionClosed()
	}
	if s.fd == nil {
		return nil
	}
	if err := s.fd.close(); err != nil {
		return sockerr.NewSocket(KindIO, "close", s.addr(), err)
	}
	return nil
}

// ── helpers ──────────────────────────────────────────────────────────

// ready returns nil when I/O is permitted and the matching
// not-connected / closed error otherwise.  It performs no syscall.
func (s *Socket) ready(op string) error {
	switch s.State() {
	case Connected:
		return nil
	case Closed:
		return sockerr.NewSocket(KindClosed, op, s.addr(), ErrClosed)
	default:
		return sockerr.NewSocket(KindNotConnected, op, s.addr(), ErrNotConnected)
	}
}

// ioError classifies a failed read/write syscall.
func (s *Socket) ioError(op string, err error) error {
	s.opts.logger.Debug("%s %s: %v", op, s.addr(), err)
	serr := s.classifyIO(op, err)
	s.opts.metrics.RecordError(serr)
	return serr
}

func (s *Socket) classifyIO(op string, err error) error {
	switch {
	case s.State() == Closed:
		return sockerr.NewSocket(KindClosed, op, s.addr(), ErrClosed)
	case errors.Is(err, io.EOF):
		return sockerr.NewSocket(KindPeerClosed, op, s.addr(), io.EOF)
	case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EWOULDBLOCK):
		return sockerr.NewSocket(KindTimeout, op, s.addr(), os.ErrDeadlineExceeded)
	}
	var errno unix.Errno
	if errors.As(err, &errno) {
		err = os.NewSyscallError(op, errno)
	}
	return sockerr.NewSocket(KindIO, op, s.addr(), err)
}

func (s *Socket) addr() string {
	if s.ep == (Endpoint{}) {
		return ""
	}
	return s.ep.String()
}
